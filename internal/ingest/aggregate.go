package ingest

import "github.com/paymejunior/backend/internal/entity"

// Outcome is the result of attempting one receipt after the first
type Outcome struct {
	Filename string
	Expense  *entity.Expense
	Err      error
}

// Aggregate partitions ordered outcomes into expenses and failed receipts and
// computes the batch summary. The first expense is the one returned by the
// batch-creation call, which is guaranteed successful by the time this runs.
// Pure and deterministic: relative order within each partition follows the
// input order.
func Aggregate(first entity.Expense, rest []Outcome) ([]entity.Expense, []entity.FailedReceipt, entity.BatchSummary) {
	expenses := []entity.Expense{first}
	failed := []entity.FailedReceipt{}

	for _, outcome := range rest {
		if outcome.Err != nil {
			failed = append(failed, entity.FailedReceipt{
				Filename: outcome.Filename,
				Error:    outcome.Err.Error(),
			})
			continue
		}
		expenses = append(expenses, *outcome.Expense)
	}

	summary := entity.BatchSummary{
		Total:      1 + len(rest),
		Successful: len(expenses),
		Failed:     len(failed),
	}

	return expenses, failed, summary
}
