package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

func TestReportRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	report := &entity.ExpenseReport{Name: "Q1 Travel"}
	require.NoError(t, repo.Create(ctx, report))
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, "Q1 Travel", got.Name)
	assert.Equal(t, 0, got.TotalExpenses)
}

func TestReportRepository_GetMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db.DB, zap.NewNop())

	got, err := repo.GetByID(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	base := time.Now().UTC()
	for i, name := range []string{"Oldest", "Middle", "Newest"} {
		report := &entity.ExpenseReport{
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, report))
	}

	reports, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "Newest", reports[0].Name)
	assert.Equal(t, "Middle", reports[1].Name)
}

func TestReportRepository_UpdateExpenseCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	report := &entity.ExpenseReport{Name: "Counted"}
	require.NoError(t, repo.Create(ctx, report))

	require.NoError(t, repo.UpdateExpenseCount(ctx, report.ID, 7))

	got, err := repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.TotalExpenses)
}

func TestReportRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	reports := NewReportRepository(db.DB, zap.NewNop())
	expenses := NewExpenseRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	report := &entity.ExpenseReport{Name: "Doomed"}
	require.NoError(t, reports.Create(ctx, report))

	expense := &entity.Expense{
		ReportID: report.ID,
		Date:     "2026-03-01",
		Merchant: "Corner Deli",
		Amount:   12.30,
	}
	require.NoError(t, expenses.Create(ctx, expense))

	deleted, err := reports.Delete(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// expenses cascade with the report
	orphan, err := expenses.GetByID(ctx, expense.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan)

	deleted, err = reports.Delete(ctx, report.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
