package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

// ReportRepository persists expense reports
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new expense report and assigns its ID
func (r *ReportRepository) Create(ctx context.Context, report *entity.ExpenseReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO expense_reports (id, name, created_at, total_expenses)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.Name,
		report.CreatedAt,
		report.TotalExpenses,
	)
	if err != nil {
		r.logger.Error("Failed to create expense report", zap.Error(err))
		return fmt.Errorf("failed to create expense report: %w", err)
	}

	return nil
}

// GetByID retrieves an expense report by ID. Returns nil when not found.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entity.ExpenseReport, error) {
	query := `
		SELECT id, name, created_at, total_expenses
		FROM expense_reports
		WHERE id = ?
	`

	var report entity.ExpenseReport
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.Name,
		&report.CreatedAt,
		&report.TotalExpenses,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense report", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense report: %w", err)
	}

	return &report, nil
}

// List returns expense reports ordered by most recent
func (r *ReportRepository) List(ctx context.Context, limit int) ([]*entity.ExpenseReport, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, name, created_at, total_expenses
		FROM expense_reports
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list expense reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list expense reports: %w", err)
	}
	defer rows.Close()

	var reports []*entity.ExpenseReport
	for rows.Next() {
		var report entity.ExpenseReport
		if err := rows.Scan(&report.ID, &report.Name, &report.CreatedAt, &report.TotalExpenses); err != nil {
			return nil, fmt.Errorf("failed to scan expense report: %w", err)
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// UpdateExpenseCount sets the informational total_expenses counter
func (r *ReportRepository) UpdateExpenseCount(ctx context.Context, id string, count int) error {
	query := `UPDATE expense_reports SET total_expenses = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, count, id)
	if err != nil {
		r.logger.Error("Failed to update expense count", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update expense count: %w", err)
	}

	return nil
}

// Delete removes an expense report. Expenses cascade via the foreign key.
func (r *ReportRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expense_reports WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete expense report", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete expense report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}
