package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

// ExpenseRepository persists expenses
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// roundAmount normalizes amounts to two-decimal fixed point at the
// persistence boundary
func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// Create inserts a new expense and assigns its ID
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.Currency == "" {
		expense.Currency = entity.DefaultCurrency
	}
	if expense.PaymentType == "" {
		expense.PaymentType = entity.DefaultPaymentType
	}
	expense.Category = entity.NormalizeCategory(expense.Category)
	expense.Amount = roundAmount(expense.Amount)

	query := `
		INSERT INTO expenses (
			id, report_id, date, merchant, description, amount, currency,
			category, payment_type, city, items, receipt_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		expense.ID,
		expense.ReportID,
		expense.Date,
		expense.Merchant,
		expense.Description,
		expense.Amount,
		expense.Currency,
		expense.Category,
		expense.PaymentType,
		expense.City,
		expense.Items,
		expense.ReceiptPath,
		expense.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense",
			zap.String("report_id", expense.ReportID),
			zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense by ID. Returns nil when not found.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	query := selectExpense + ` WHERE id = ?`

	expense, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		r.logger.Error("Failed to get expense", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return expense, nil
}

// ListByReport returns all expenses of a report ordered by expense date
func (r *ExpenseRepository) ListByReport(ctx context.Context, reportID string) ([]*entity.Expense, error) {
	query := selectExpense + ` WHERE report_id = ? ORDER BY date ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.String("report_id", reportID), zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// Update applies a partial update and returns the updated expense.
// Returns nil when the expense does not exist.
func (r *ExpenseRepository) Update(ctx context.Context, id string, update *entity.ExpenseUpdate) (*entity.Expense, error) {
	var (
		sets []string
		args []interface{}
	)

	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Date != nil {
		set("date", *update.Date)
	}
	if update.Merchant != nil {
		set("merchant", *update.Merchant)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.Amount != nil {
		set("amount", roundAmount(*update.Amount))
	}
	if update.Currency != nil {
		set("currency", *update.Currency)
	}
	if update.Category != nil {
		set("category", entity.NormalizeCategory(*update.Category))
	}
	if update.PaymentType != nil {
		set("payment_type", *update.PaymentType)
	}
	if update.City != nil {
		set("city", *update.City)
	}
	if update.Items != nil {
		set("items", *update.Items)
	}

	if len(sets) > 0 {
		query := `UPDATE expenses SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		args = append(args, id)

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.Error("Failed to update expense", zap.String("id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to update expense: %w", err)
		}
	}

	return r.GetByID(ctx, id)
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

const selectExpense = `
	SELECT id, report_id, date, merchant, description, amount, currency,
		category, payment_type, city, items, receipt_path, created_at
	FROM expenses
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ExpenseRepository) scanOne(row rowScanner) (*entity.Expense, error) {
	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return expense, err
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var (
		expense     entity.Expense
		description sql.NullString
		city        sql.NullString
		items       sql.NullString
		receipt     sql.NullString
	)

	err := row.Scan(
		&expense.ID,
		&expense.ReportID,
		&expense.Date,
		&expense.Merchant,
		&description,
		&expense.Amount,
		&expense.Currency,
		&expense.Category,
		&expense.PaymentType,
		&city,
		&items,
		&receipt,
		&expense.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	expense.Description = description.String
	expense.City = city.String
	expense.Items = items.String
	expense.ReceiptPath = receipt.String

	return &expense, nil
}
