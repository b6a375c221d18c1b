package ingest

import (
	"sync"

	"github.com/paymejunior/backend/internal/entity"
)

// AppState is the single long-lived holder of the current report and its
// expenses. The orchestrator never touches it: callers commit an
// IngestionResult after ProcessReceipts returns, so readers never observe a
// half-ingested report.
type AppState struct {
	mu       sync.RWMutex
	report   *entity.ExpenseReport
	expenses []entity.Expense
}

// NewAppState creates an empty application state container
func NewAppState() *AppState {
	return &AppState{}
}

// SetCurrentReport replaces the current report
func (s *AppState) SetCurrentReport(report *entity.ExpenseReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
}

// SetExpenses replaces the expense list
func (s *AppState) SetExpenses(expenses []entity.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append([]entity.Expense(nil), expenses...)
}

// AddExpense appends one expense
func (s *AppState) AddExpense(expense entity.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, expense)
}

// UpdateExpense applies a partial update to the expense with the given ID.
// Returns false when no such expense exists.
func (s *AppState) UpdateExpense(id string, update entity.ExpenseUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID != id {
			continue
		}
		applyUpdate(&s.expenses[i], update)
		return true
	}
	return false
}

// DeleteExpense removes the expense with the given ID.
// Returns false when no such expense exists.
func (s *AppState) DeleteExpense(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true
		}
	}
	return false
}

// Reset clears the report and all expenses
func (s *AppState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = nil
	s.expenses = nil
}

// CurrentReport returns the current report, or nil
func (s *AppState) CurrentReport() *entity.ExpenseReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Expenses returns a copy of the expense list
func (s *AppState) Expenses() []entity.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Expense(nil), s.expenses...)
}

func applyUpdate(expense *entity.Expense, update entity.ExpenseUpdate) {
	if update.Date != nil {
		expense.Date = *update.Date
	}
	if update.Merchant != nil {
		expense.Merchant = *update.Merchant
	}
	if update.Description != nil {
		expense.Description = *update.Description
	}
	if update.Amount != nil {
		expense.Amount = *update.Amount
	}
	if update.Currency != nil {
		expense.Currency = *update.Currency
	}
	if update.Category != nil {
		expense.Category = entity.NormalizeCategory(*update.Category)
	}
	if update.PaymentType != nil {
		expense.PaymentType = *update.PaymentType
	}
	if update.City != nil {
		expense.City = *update.City
	}
	if update.Items != nil {
		expense.Items = *update.Items
	}
}
