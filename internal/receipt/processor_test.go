package receipt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

type mockExtractor struct {
	extractFunc func(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error)
}

func (m *mockExtractor) Extract(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error) {
	if m.extractFunc != nil {
		return m.extractFunc(ctx, data, contentType)
	}
	return &entity.ExtractedExpense{
		Date:     "2026-03-01",
		Merchant: "Store",
		Amount:   10,
		Currency: "USD",
		Category: entity.CategoryOther,
	}, nil
}

type mockObjectStore struct {
	uploads []string
	deletes []string
	failOn  map[string]error
}

func (m *mockObjectStore) Upload(ctx context.Context, reportID, filename string, data []byte) (string, error) {
	if err, ok := m.failOn[filename]; ok {
		return "", err
	}
	path := reportID + "/" + filename
	m.uploads = append(m.uploads, path)
	return path, nil
}

func (m *mockObjectStore) Delete(ctx context.Context, path string) error {
	m.deletes = append(m.deletes, path)
	return nil
}

type mockExpenseWriter struct {
	created    []*entity.Expense
	createFunc func(ctx context.Context, expense *entity.Expense) error
}

func (m *mockExpenseWriter) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	expense.ID = fmt.Sprintf("exp-%d", len(m.created)+1)
	m.created = append(m.created, expense)
	return nil
}

type mockReportCounter struct {
	lastCount int
}

func (m *mockReportCounter) UpdateExpenseCount(ctx context.Context, id string, count int) error {
	m.lastCount = count
	return nil
}

func newTestProcessor(extractor *mockExtractor) (*Processor, *mockObjectStore, *mockExpenseWriter, *mockReportCounter) {
	store := &mockObjectStore{failOn: map[string]error{}}
	expenses := &mockExpenseWriter{}
	reports := &mockReportCounter{}
	p := NewProcessor(extractor, store, expenses, reports, zap.NewNop())
	return p, store, expenses, reports
}

func TestProcessor_ProcessReceipt(t *testing.T) {
	t.Run("success persists expense with receipt path", func(t *testing.T) {
		p, store, expenses, _ := newTestProcessor(&mockExtractor{})

		expense, err := p.ProcessReceipt(context.Background(), File{
			Data:        []byte("img"),
			Filename:    "a.jpg",
			ContentType: "image/jpeg",
		}, "report-1")

		require.NoError(t, err)
		assert.Equal(t, "report-1/a.jpg", expense.ReceiptPath)
		assert.Equal(t, "report-1", expense.ReportID)
		assert.Len(t, expenses.created, 1)
		assert.Empty(t, store.deletes)
	})

	t.Run("extraction failure removes uploaded object", func(t *testing.T) {
		extractor := &mockExtractor{
			extractFunc: func(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error) {
				return nil, errors.New("model returned garbage")
			},
		}
		p, store, expenses, _ := newTestProcessor(extractor)

		_, err := p.ProcessReceipt(context.Background(), File{
			Data:     []byte("img"),
			Filename: "bad.jpg",
		}, "report-1")

		require.Error(t, err)
		assert.Equal(t, []string{"report-1/bad.jpg"}, store.deletes)
		assert.Empty(t, expenses.created)
	})

	t.Run("upload failure aborts before extraction", func(t *testing.T) {
		extractorCalled := false
		extractor := &mockExtractor{
			extractFunc: func(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error) {
				extractorCalled = true
				return nil, nil
			},
		}
		p, store, _, _ := newTestProcessor(extractor)
		store.failOn["a.jpg"] = errors.New("bucket unavailable")

		_, err := p.ProcessReceipt(context.Background(), File{Filename: "a.jpg"}, "report-1")

		require.Error(t, err)
		assert.False(t, extractorCalled)
	})
}

func TestProcessor_ProcessBatch(t *testing.T) {
	t.Run("all succeed", func(t *testing.T) {
		p, _, _, reports := newTestProcessor(&mockExtractor{})

		files := []File{
			{Data: []byte("1"), Filename: "a.jpg"},
			{Data: []byte("2"), Filename: "b.jpg"},
			{Data: []byte("3"), Filename: "c.jpg"},
		}

		result := p.ProcessBatch(context.Background(), files, "report-1")

		assert.Equal(t, entity.BatchSummary{Total: 3, Successful: 3, Failed: 0}, result.Summary)
		assert.Len(t, result.Expenses, 3)
		assert.Empty(t, result.FailedReceipts)
		assert.Equal(t, 3, reports.lastCount)
	})

	t.Run("one failure does not stop the batch", func(t *testing.T) {
		extractor := &mockExtractor{
			extractFunc: func(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error) {
				if string(data) == "2" {
					return nil, errors.New("unreadable receipt")
				}
				return &entity.ExtractedExpense{Merchant: "M", Amount: 1}, nil
			},
		}
		p, _, _, reports := newTestProcessor(extractor)

		files := []File{
			{Data: []byte("1"), Filename: "a.jpg"},
			{Data: []byte("2"), Filename: "b.jpg"},
			{Data: []byte("3"), Filename: "c.jpg"},
		}

		result := p.ProcessBatch(context.Background(), files, "report-1")

		assert.Equal(t, entity.BatchSummary{Total: 3, Successful: 2, Failed: 1}, result.Summary)
		require.Len(t, result.FailedReceipts, 1)
		assert.Equal(t, "b.jpg", result.FailedReceipts[0].Filename)
		assert.Contains(t, result.FailedReceipts[0].Error, "unreadable receipt")

		// Order preserved among the survivors
		require.Len(t, result.Expenses, 2)
		assert.Equal(t, "report-1/a.jpg", result.Expenses[0].ReceiptPath)
		assert.Equal(t, "report-1/c.jpg", result.Expenses[1].ReceiptPath)
		assert.Equal(t, 2, reports.lastCount)
	})

	t.Run("summary invariant holds", func(t *testing.T) {
		extractor := &mockExtractor{
			extractFunc: func(ctx context.Context, data []byte, contentType string) (*entity.ExtractedExpense, error) {
				return nil, errors.New("always fails")
			},
		}
		p, _, _, _ := newTestProcessor(extractor)

		result := p.ProcessBatch(context.Background(), []File{{Filename: "a.jpg"}, {Filename: "b.jpg"}}, "r")

		assert.Equal(t, result.Summary.Total, result.Summary.Successful+result.Summary.Failed)
		assert.Equal(t, 2, result.Summary.Failed)
	})
}
