// Package receipt turns uploaded receipt files into persisted expenses.
package receipt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

// File is one uploaded receipt
type File struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Extractor extracts structured expense data from a receipt file
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error)
}

// ObjectStore stores receipt originals
type ObjectStore interface {
	Upload(ctx context.Context, reportID, filename string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

// ExpenseWriter persists extracted expenses
type ExpenseWriter interface {
	Create(ctx context.Context, expense *entity.Expense) error
}

// ReportCounter updates the informational expense count on a report
type ReportCounter interface {
	UpdateExpenseCount(ctx context.Context, id string, count int) error
}

// Processor runs the upload -> extract -> persist pipeline for receipts
type Processor struct {
	extractor Extractor
	store     ObjectStore
	expenses  ExpenseWriter
	reports   ReportCounter
	logger    *zap.Logger
}

// NewProcessor creates a new receipt processor
func NewProcessor(extractor Extractor, store ObjectStore, expenses ExpenseWriter, reports ReportCounter, logger *zap.Logger) *Processor {
	return &Processor{
		extractor: extractor,
		store:     store,
		expenses:  expenses,
		reports:   reports,
		logger:    logger,
	}
}

// ProcessReceipt handles a single receipt: uploads the original, extracts
// expense data and persists the expense row. The uploaded object is removed
// again when extraction fails, so storage never holds receipts without a
// matching expense.
func (p *Processor) ProcessReceipt(ctx context.Context, file File, reportID string) (*entity.Expense, error) {
	receiptPath, err := p.store.Upload(ctx, reportID, file.Filename, file.Data)
	if err != nil {
		p.logger.Error("Failed to upload receipt",
			zap.String("filename", file.Filename),
			zap.Error(err))
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}

	extracted, err := p.extractor.Extract(ctx, file.Data, file.ContentType)
	if err != nil {
		if delErr := p.store.Delete(ctx, receiptPath); delErr != nil {
			p.logger.Warn("Failed to delete orphaned receipt",
				zap.String("path", receiptPath),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to extract expense data: %w", err)
	}

	expense := &entity.Expense{
		ReportID:    reportID,
		Date:        extracted.Date,
		Merchant:    extracted.Merchant,
		Description: extracted.Description,
		Amount:      extracted.Amount,
		Currency:    extracted.Currency,
		Category:    extracted.Category,
		PaymentType: extracted.PaymentType,
		City:        extracted.City,
		Items:       extracted.Items,
		ReceiptPath: receiptPath,
	}

	if err := p.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	p.logger.Info("Receipt processed",
		zap.String("filename", file.Filename),
		zap.String("expense_id", expense.ID),
		zap.String("merchant", expense.Merchant))

	return expense, nil
}

// ProcessBatch processes files strictly in order with per-file fault
// isolation: one unreadable receipt never stops the rest of the batch.
func (p *Processor) ProcessBatch(ctx context.Context, files []File, reportID string) *entity.BatchResult {
	result := &entity.BatchResult{
		Expenses:       []entity.Expense{},
		FailedReceipts: []entity.FailedReceipt{},
	}

	for _, file := range files {
		expense, err := p.ProcessReceipt(ctx, file, reportID)
		if err != nil {
			p.logger.Warn("Receipt failed",
				zap.String("filename", file.Filename),
				zap.Error(err))
			result.FailedReceipts = append(result.FailedReceipts, entity.FailedReceipt{
				Filename: file.Filename,
				Error:    err.Error(),
			})
			continue
		}
		result.Expenses = append(result.Expenses, *expense)
	}

	result.Summary = entity.BatchSummary{
		Total:      len(files),
		Successful: len(result.Expenses),
		Failed:     len(result.FailedReceipts),
	}

	if err := p.reports.UpdateExpenseCount(ctx, reportID, len(result.Expenses)); err != nil {
		p.logger.Warn("Failed to update report expense count",
			zap.String("report_id", reportID),
			zap.Error(err))
	}

	return result
}
