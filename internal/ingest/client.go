package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

// CreateReportRequest is the batch-creation call payload. The images array
// always has length one: the first receipt both creates the report and yields
// the first expense.
type CreateReportRequest struct {
	ReportName string         `json:"report_name"`
	Images     []EncodedImage `json:"images"`
}

// CreateReportResponse is the batch-creation call result
type CreateReportResponse struct {
	ReportID       string                 `json:"report_id"`
	ReportName     string                 `json:"report_name"`
	Expenses       []entity.Expense       `json:"expenses"`
	FailedReceipts []entity.FailedReceipt `json:"failed_receipts"`
	Summary        entity.BatchSummary    `json:"summary"`
}

// AppendReceiptRequest is the single-append call payload
type AppendReceiptRequest struct {
	ReportID string       `json:"report_id"`
	Image    EncodedImage `json:"image"`
}

// AppendReceiptResponse is the single-append call result
type AppendReceiptResponse struct {
	Success bool           `json:"success"`
	Expense entity.Expense `json:"expense"`
}

// ExtractionClient is the remote extraction service boundary
type ExtractionClient interface {
	// CreateReportWithReceipt creates a report from the first receipt
	CreateReportWithReceipt(ctx context.Context, reportName string, image EncodedImage) (*CreateReportResponse, error)
	// AppendReceipt adds one more receipt to an existing report
	AppendReceipt(ctx context.Context, reportID string, image EncodedImage) (*entity.Expense, error)
}

// HTTPClient talks to the expense backend over HTTP
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates an extraction client against the given base URL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CreateReportWithReceipt issues the batch-creation call
func (c *HTTPClient) CreateReportWithReceipt(ctx context.Context, reportName string, image EncodedImage) (*CreateReportResponse, error) {
	reqBody := CreateReportRequest{
		ReportName: reportName,
		Images:     []EncodedImage{image},
	}

	var resp CreateReportResponse
	if err := c.post(ctx, "/api/v1/receipts/process", reqBody, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// AppendReceipt issues the single-append call
func (c *HTTPClient) AppendReceipt(ctx context.Context, reportID string, image EncodedImage) (*entity.Expense, error) {
	reqBody := AppendReceiptRequest{
		ReportID: reportID,
		Image:    image,
	}

	var resp AppendReceiptResponse
	if err := c.post(ctx, "/api/v1/receipts/process-single", reqBody, &resp); err != nil {
		return nil, err
	}

	return &resp.Expense, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Classify(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Classify(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Classify(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Extraction service returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &Error{
			Kind:    KindHTTPStatus,
			Status:  resp.StatusCode,
			Message: errorMessage(body, resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return Classify(fmt.Errorf("failed to decode response: %w", err))
	}

	return nil
}

// errorMessage pulls a readable message out of an error response body
func errorMessage(body []byte, status int) string {
	var envelope struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Detail != "" {
			return envelope.Detail
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
