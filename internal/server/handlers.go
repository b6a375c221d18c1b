package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
	"github.com/paymejunior/backend/internal/export"
	"github.com/paymejunior/backend/internal/receipt"
)

// ReportStore provides access to expense report persistence
type ReportStore interface {
	Create(ctx context.Context, report *entity.ExpenseReport) error
	GetByID(ctx context.Context, id string) (*entity.ExpenseReport, error)
	List(ctx context.Context, limit int) ([]*entity.ExpenseReport, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ExpenseStore provides access to expense persistence
type ExpenseStore interface {
	GetByID(ctx context.Context, id string) (*entity.Expense, error)
	ListByReport(ctx context.Context, reportID string) ([]*entity.Expense, error)
	Update(ctx context.Context, id string, update *entity.ExpenseUpdate) (*entity.Expense, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ReceiptProcessor runs receipt images through extraction and persistence
type ReceiptProcessor interface {
	ProcessReceipt(ctx context.Context, file receipt.File, reportID string) (*entity.Expense, error)
	ProcessBatch(ctx context.Context, files []receipt.File, reportID string) *entity.BatchResult
}

// ObjectRemover deletes stored receipt objects
type ObjectRemover interface {
	Delete(ctx context.Context, objectPath string) error
}

// ExcelGenerator renders expenses into a spreadsheet
type ExcelGenerator interface {
	Generate(expenses []*entity.Expense, reportName string) ([]byte, error)
}

// Handlers holds the HTTP handler dependencies
type Handlers struct {
	reports   ReportStore
	expenses  ExpenseStore
	processor ReceiptProcessor
	objects   ObjectRemover
	excel     ExcelGenerator
	logger    *zap.Logger
}

// NewHandlers creates the handler set
func NewHandlers(reports ReportStore, expenses ExpenseStore, processor ReceiptProcessor, objects ObjectRemover, excel ExcelGenerator, logger *zap.Logger) *Handlers {
	return &Handlers{
		reports:   reports,
		expenses:  expenses,
		processor: processor,
		objects:   objects,
		excel:     excel,
		logger:    logger,
	}
}

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"image/bmp":       true,
	"image/heic":      true,
	"application/pdf": true,
}

type encodedImage struct {
	Data        []byte `json:"data"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type processRequest struct {
	ReportName string         `json:"report_name"`
	Images     []encodedImage `json:"images"`
}

type processSingleRequest struct {
	ReportID string       `json:"report_id"`
	Image    encodedImage `json:"image"`
}

type createReportRequest struct {
	Name string `json:"name"`
}

type batchResponse struct {
	ReportID       string                 `json:"report_id"`
	ReportName     string                 `json:"report_name"`
	Expenses       []entity.Expense       `json:"expenses"`
	FailedReceipts []entity.FailedReceipt `json:"failed_receipts"`
	Summary        entity.BatchSummary    `json:"summary"`
}

type summaryResponse struct {
	ReportID   string `json:"report_id"`
	ReportName string `json:"report_name"`
	export.Summary
}

func errorResponse(c *gin.Context, status int, format string, args ...interface{}) {
	c.JSON(status, gin.H{"error": fmt.Sprintf(format, args...)})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ProcessReceipts handles POST /api/v1/receipts/process.
// It accepts either a JSON body with base64 image payloads or a multipart
// form with a "files" field, creates a new report and processes every image.
func (h *Handlers) ProcessReceipts(c *gin.Context) {
	files, reportName, err := h.readBatchInput(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "%v", err)
		return
	}
	if len(files) == 0 {
		errorResponse(c, http.StatusBadRequest, "no receipt images provided")
		return
	}
	for _, f := range files {
		if !allowedContentTypes[f.ContentType] {
			errorResponse(c, http.StatusBadRequest, "unsupported content type %q for file %s", f.ContentType, f.Filename)
			return
		}
	}

	if reportName == "" {
		reportName = entity.DefaultReportName
	}

	report := &entity.ExpenseReport{Name: reportName}
	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		h.logger.Error("Failed to create report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to create report")
		return
	}

	result := h.processor.ProcessBatch(c.Request.Context(), files, report.ID)

	c.JSON(http.StatusOK, batchResponse{
		ReportID:       report.ID,
		ReportName:     report.Name,
		Expenses:       result.Expenses,
		FailedReceipts: result.FailedReceipts,
		Summary:        result.Summary,
	})
}

// ProcessSingleReceipt handles POST /api/v1/receipts/process-single.
// The target report must already exist; an extraction failure is reported
// as 422 so the caller can distinguish it from transport errors.
func (h *Handlers) ProcessSingleReceipt(c *gin.Context) {
	file, reportID, err := h.readSingleInput(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "%v", err)
		return
	}
	if reportID == "" {
		errorResponse(c, http.StatusBadRequest, "report_id is required")
		return
	}
	if !allowedContentTypes[file.ContentType] {
		errorResponse(c, http.StatusBadRequest, "unsupported content type %q for file %s", file.ContentType, file.Filename)
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), reportID)
	if err != nil {
		h.logger.Error("Failed to load report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to load report")
		return
	}
	if report == nil {
		errorResponse(c, http.StatusNotFound, "report %s not found", reportID)
		return
	}

	expense, err := h.processor.ProcessReceipt(c.Request.Context(), file, reportID)
	if err != nil {
		h.logger.Warn("Receipt processing failed",
			zap.String("report_id", reportID),
			zap.String("filename", file.Filename),
			zap.Error(err))
		errorResponse(c, http.StatusUnprocessableEntity, "%v", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "expense": expense})
}

func (h *Handlers) readBatchInput(c *gin.Context) ([]receipt.File, string, error) {
	if isJSONRequest(c) {
		var req processRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, "", fmt.Errorf("invalid request body: %w", err)
		}
		files := make([]receipt.File, 0, len(req.Images))
		for _, img := range req.Images {
			files = append(files, receipt.File{
				Data:        img.Data,
				Filename:    img.Filename,
				ContentType: img.ContentType,
			})
		}
		return files, req.ReportName, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, "", fmt.Errorf("invalid multipart form: %w", err)
	}
	files := make([]receipt.File, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := readMultipartFile(fh)
		if err != nil {
			return nil, "", err
		}
		files = append(files, f)
	}
	return files, c.PostForm("report_name"), nil
}

func (h *Handlers) readSingleInput(c *gin.Context) (receipt.File, string, error) {
	if isJSONRequest(c) {
		var req processSingleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return receipt.File{}, "", fmt.Errorf("invalid request body: %w", err)
		}
		return receipt.File{
			Data:        req.Image.Data,
			Filename:    req.Image.Filename,
			ContentType: req.Image.ContentType,
		}, req.ReportID, nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return receipt.File{}, "", fmt.Errorf("missing file upload: %w", err)
	}
	f, err := readMultipartFile(fh)
	if err != nil {
		return receipt.File{}, "", err
	}
	return f, c.PostForm("report_id"), nil
}

func isJSONRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

func readMultipartFile(fh *multipart.FileHeader) (receipt.File, error) {
	f, err := fh.Open()
	if err != nil {
		return receipt.File{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return receipt.File{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return receipt.File{Data: data, Filename: fh.Filename, ContentType: contentType}, nil
}

// CreateReport handles POST /api/v1/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Name == "" {
		req.Name = entity.DefaultReportName
	}

	report := &entity.ExpenseReport{Name: req.Name}
	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		h.logger.Error("Failed to create report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to create report")
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports handles GET /api/v1/reports
func (h *Handlers) ListReports(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			errorResponse(c, http.StatusBadRequest, "invalid limit %q", raw)
			return
		}
		limit = parsed
	}

	reports, err := h.reports.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to list reports")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReport handles GET /api/v1/reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to load report")
		return
	}
	if report == nil {
		errorResponse(c, http.StatusNotFound, "report %s not found", id)
		return
	}

	c.JSON(http.StatusOK, report)
}

// DeleteReport handles DELETE /api/v1/reports/:id.
// Expense rows are removed by the database cascade; stored receipt objects
// are cleaned up best effort afterwards.
func (h *Handlers) DeleteReport(c *gin.Context) {
	id := c.Param("id")

	expenses, err := h.expenses.ListByReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to delete report")
		return
	}

	deleted, err := h.reports.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to delete report")
		return
	}
	if !deleted {
		errorResponse(c, http.StatusNotFound, "report %s not found", id)
		return
	}

	for _, expense := range expenses {
		if expense.ReceiptPath == "" {
			continue
		}
		if err := h.objects.Delete(c.Request.Context(), expense.ReceiptPath); err != nil {
			h.logger.Warn("Failed to remove stored receipt",
				zap.String("expense_id", expense.ID),
				zap.String("path", expense.ReceiptPath),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetReportExpenses handles GET /api/v1/reports/:id/expenses
func (h *Handlers) GetReportExpenses(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to load report")
		return
	}
	if report == nil {
		errorResponse(c, http.StatusNotFound, "report %s not found", id)
		return
	}

	expenses, err := h.expenses.ListByReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report_id":   report.ID,
		"report_name": report.Name,
		"expenses":    expenses,
	})
}

// GetReportSummary handles GET /api/v1/reports/:id/summary
func (h *Handlers) GetReportSummary(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to load report")
		return
	}
	if report == nil {
		errorResponse(c, http.StatusNotFound, "report %s not found", id)
		return
	}

	expenses, err := h.expenses.ListByReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, summaryResponse{
		ReportID:   report.ID,
		ReportName: report.Name,
		Summary:    export.Summarize(expenses),
	})
}

// GenerateExcel handles POST /api/v1/reports/:id/excel.
// The spreadsheet is returned as an attachment.
func (h *Handlers) GenerateExcel(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load report", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to load report")
		return
	}
	if report == nil {
		errorResponse(c, http.StatusNotFound, "report %s not found", id)
		return
	}

	expenses, err := h.expenses.ListByReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	data, err := h.excel.Generate(expenses, report.Name)
	if err != nil {
		h.logger.Error("Failed to generate spreadsheet", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to generate spreadsheet")
		return
	}

	filename := sanitizeFilename(report.Name) + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// GetExpense handles GET /api/v1/reports/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id := c.Param("id")

	expense, err := h.expenses.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load expense", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to load expense")
		return
	}
	if expense == nil {
		errorResponse(c, http.StatusNotFound, "expense %s not found", id)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// UpdateExpense handles PATCH /api/v1/reports/expenses/:id.
// Only the fields carried by ExpenseUpdate can change; identifiers,
// timestamps and the stored receipt path are not editable.
func (h *Handlers) UpdateExpense(c *gin.Context) {
	id := c.Param("id")

	var update entity.ExpenseUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	expense, err := h.expenses.Update(c.Request.Context(), id, &update)
	if err != nil {
		h.logger.Error("Failed to update expense", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to update expense")
		return
	}
	if expense == nil {
		errorResponse(c, http.StatusNotFound, "expense %s not found", id)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// DeleteExpense handles DELETE /api/v1/reports/expenses/:id.
// The stored receipt image is removed along with the row.
func (h *Handlers) DeleteExpense(c *gin.Context) {
	id := c.Param("id")

	expense, err := h.expenses.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load expense", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to load expense")
		return
	}
	if expense == nil {
		errorResponse(c, http.StatusNotFound, "expense %s not found", id)
		return
	}

	deleted, err := h.expenses.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete expense", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	if !deleted {
		errorResponse(c, http.StatusNotFound, "expense %s not found", id)
		return
	}

	if expense.ReceiptPath != "" {
		if err := h.objects.Delete(c.Request.Context(), expense.ReceiptPath); err != nil {
			h.logger.Warn("Failed to remove stored receipt",
				zap.String("expense_id", id),
				zap.String("path", expense.ReceiptPath),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		return "expense_report"
	}
	return cleaned
}
