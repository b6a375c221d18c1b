// Package ingest is the client-side batch ingestion pipeline: it turns a set
// of locally selected receipt images into a persisted expense report by
// calling the remote extraction service one image at a time.
package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

// ErrNoImages is returned when ProcessReceipts is called without images.
// Callers are expected to guard before invoking a batch.
var ErrNoImages = errors.New("no images selected")

// IngestionResult is the outcome of one batch
type IngestionResult struct {
	ReportID       string                 `json:"report_id"`
	ReportName     string                 `json:"report_name"`
	Expenses       []entity.Expense       `json:"expenses"`
	FailedReceipts []entity.FailedReceipt `json:"failed_receipts"`
	Summary        entity.BatchSummary    `json:"summary"`
}

// Orchestrator drives one ingestion batch against the extraction service
type Orchestrator struct {
	client  ExtractionClient
	encoder Encoder
	logger  *zap.Logger
}

// NewOrchestrator creates a new batch ingestion orchestrator
func NewOrchestrator(client ExtractionClient, encoder Encoder, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		encoder: encoder,
		logger:  logger,
	}
}

// ProcessReceipts processes images strictly in order. The first image both
// creates the report and yields the first expense; its failure aborts the
// whole batch because without a report there is nowhere to attach the rest.
// Every later image is fault-isolated: a failure is recorded in the result
// and the batch moves on. Images are never processed concurrently, so the
// returned expenses keep the order the images were supplied in.
func (o *Orchestrator) ProcessReceipts(ctx context.Context, images []SelectedImage, reportName string) (*IngestionResult, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if reportName == "" {
		reportName = entity.DefaultReportName
	}

	o.logger.Info("Starting receipt batch",
		zap.Int("image_count", len(images)),
		zap.String("report_name", reportName))

	first, created, err := o.createReport(ctx, images[0], reportName)
	if err != nil {
		o.logger.Error("Batch creation failed",
			zap.String("filename", images[0].FileName),
			zap.Error(err))
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(images)-1)
	for _, image := range images[1:] {
		expense, err := o.appendReceipt(ctx, created.ReportID, image)
		if err != nil {
			o.logger.Warn("Receipt failed, continuing batch",
				zap.String("filename", image.FileName),
				zap.String("kind", KindOf(err).String()),
				zap.Error(err))
			outcomes = append(outcomes, Outcome{Filename: image.FileName, Err: err})
			continue
		}
		outcomes = append(outcomes, Outcome{Filename: image.FileName, Expense: expense})
	}

	expenses, failed, summary := Aggregate(*first, outcomes)

	o.logger.Info("Receipt batch finished",
		zap.String("report_id", created.ReportID),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed))

	return &IngestionResult{
		ReportID:       created.ReportID,
		ReportName:     created.ReportName,
		Expenses:       expenses,
		FailedReceipts: failed,
		Summary:        summary,
	}, nil
}

// createReport encodes the first image and issues the batch-creation call
func (o *Orchestrator) createReport(ctx context.Context, image SelectedImage, reportName string) (*entity.Expense, *CreateReportResponse, error) {
	encoded, err := o.encoder.Encode(ctx, image)
	if err != nil {
		return nil, nil, Classify(err)
	}

	resp, err := o.client.CreateReportWithReceipt(ctx, reportName, *encoded)
	if err != nil {
		return nil, nil, Classify(err)
	}

	// A report without its first expense means the service accepted the call
	// but could not extract anything. The batch has no anchor; treat it as
	// fatal like any other first-image failure.
	if len(resp.Expenses) == 0 {
		message := "report created without an expense"
		if len(resp.FailedReceipts) > 0 {
			message = resp.FailedReceipts[0].Error
		}
		return nil, nil, &Error{Kind: KindUnknown, Message: message}
	}

	return &resp.Expenses[0], resp, nil
}

// appendReceipt encodes one image and issues the single-append call
func (o *Orchestrator) appendReceipt(ctx context.Context, reportID string, image SelectedImage) (*entity.Expense, error) {
	encoded, err := o.encoder.Encode(ctx, image)
	if err != nil {
		return nil, Classify(err)
	}

	expense, err := o.client.AppendReceipt(ctx, reportID, *encoded)
	if err != nil {
		return nil, Classify(err)
	}

	return expense, nil
}
