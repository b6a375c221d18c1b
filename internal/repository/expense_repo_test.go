package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

func newExpenseFixtures(t *testing.T) (*ReportRepository, *ExpenseRepository, *entity.ExpenseReport) {
	t.Helper()

	db := newTestDB(t)
	reports := NewReportRepository(db.DB, zap.NewNop())
	expenses := NewExpenseRepository(db.DB, zap.NewNop())

	report := &entity.ExpenseReport{Name: "Fixtures"}
	require.NoError(t, reports.Create(context.Background(), report))

	return reports, expenses, report
}

func TestExpenseRepository_CreateAppliesDefaults(t *testing.T) {
	_, expenses, report := newExpenseFixtures(t)
	ctx := context.Background()

	expense := &entity.Expense{
		ReportID: report.ID,
		Date:     "2026-03-01",
		Merchant: "Blue Bottle Coffee",
		Amount:   14.579,
		Category: "food & drink",
	}
	require.NoError(t, expenses.Create(ctx, expense))
	assert.NotEmpty(t, expense.ID)

	got, err := expenses.GetByID(ctx, expense.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.DefaultCurrency, got.Currency)
	assert.Equal(t, entity.DefaultPaymentType, got.PaymentType)
	assert.Equal(t, entity.CategoryOther, got.Category)
	assert.InDelta(t, 14.58, got.Amount, 0.0001)
}

func TestExpenseRepository_CreateKeepsKnownCategory(t *testing.T) {
	_, expenses, report := newExpenseFixtures(t)
	ctx := context.Background()

	expense := &entity.Expense{
		ReportID: report.ID,
		Date:     "2026-03-01",
		Merchant: "Lyft",
		Amount:   18.25,
		Category: entity.CategoryTransportation,
	}
	require.NoError(t, expenses.Create(ctx, expense))

	got, err := expenses.GetByID(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryTransportation, got.Category)
}

func TestExpenseRepository_ListByReportOrdering(t *testing.T) {
	_, expenses, report := newExpenseFixtures(t)
	ctx := context.Background()

	for _, e := range []struct {
		date     string
		merchant string
	}{
		{"2026-03-05", "Hilton"},
		{"2026-03-01", "Blue Bottle Coffee"},
		{"2026-03-03", "Lyft"},
	} {
		require.NoError(t, expenses.Create(ctx, &entity.Expense{
			ReportID: report.ID,
			Date:     e.date,
			Merchant: e.merchant,
			Amount:   10,
		}))
	}

	listed, err := expenses.ListByReport(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "Blue Bottle Coffee", listed[0].Merchant)
	assert.Equal(t, "Lyft", listed[1].Merchant)
	assert.Equal(t, "Hilton", listed[2].Merchant)
}

func TestExpenseRepository_Update(t *testing.T) {
	_, expenses, report := newExpenseFixtures(t)
	ctx := context.Background()

	expense := &entity.Expense{
		ReportID: report.ID,
		Date:     "2026-03-01",
		Merchant: "Corner Deli",
		Amount:   12.30,
		City:     "Oakland",
	}
	require.NoError(t, expenses.Create(ctx, expense))

	t.Run("applies only the provided fields", func(t *testing.T) {
		merchant := "Corner Deli & Grill"
		amount := 15.999
		updated, err := expenses.Update(ctx, expense.ID, &entity.ExpenseUpdate{
			Merchant: &merchant,
			Amount:   &amount,
		})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Corner Deli & Grill", updated.Merchant)
		assert.InDelta(t, 16.00, updated.Amount, 0.0001)
		assert.Equal(t, "Oakland", updated.City)
		assert.Equal(t, "2026-03-01", updated.Date)
	})

	t.Run("normalizes the category", func(t *testing.T) {
		category := "something weird"
		updated, err := expenses.Update(ctx, expense.ID, &entity.ExpenseUpdate{Category: &category})
		require.NoError(t, err)
		assert.Equal(t, entity.CategoryOther, updated.Category)
	})

	t.Run("empty update returns the current row", func(t *testing.T) {
		updated, err := expenses.Update(ctx, expense.ID, &entity.ExpenseUpdate{})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Corner Deli & Grill", updated.Merchant)
	})

	t.Run("missing expense returns nil", func(t *testing.T) {
		merchant := "Nobody"
		updated, err := expenses.Update(ctx, "does-not-exist", &entity.ExpenseUpdate{Merchant: &merchant})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})
}

func TestExpenseRepository_Delete(t *testing.T) {
	_, expenses, report := newExpenseFixtures(t)
	ctx := context.Background()

	expense := &entity.Expense{
		ReportID: report.ID,
		Date:     "2026-03-01",
		Merchant: "Corner Deli",
		Amount:   12.30,
	}
	require.NoError(t, expenses.Create(ctx, expense))

	deleted, err := expenses.Delete(ctx, expense.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := expenses.GetByID(ctx, expense.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = expenses.Delete(ctx, expense.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
