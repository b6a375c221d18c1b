package entity

import "time"

// Expense categories matching the SAP Concur expense types
const (
	CategoryMeals          = "Meals"
	CategoryTransportation = "Transportation"
	CategoryOfficeSupplies = "Office Supplies"
	CategoryEntertainment  = "Entertainment"
	CategoryLodging        = "Lodging"
	CategoryOther          = "Other"
)

// Default field values applied when a receipt does not state them
const (
	DefaultCurrency    = "USD"
	DefaultPaymentType = "Credit Card"
	DefaultReportName  = "Expense Report"
)

// Categories lists all valid expense categories
var Categories = []string{
	CategoryMeals,
	CategoryTransportation,
	CategoryOfficeSupplies,
	CategoryEntertainment,
	CategoryLodging,
	CategoryOther,
}

// ValidCategory reports whether c is a known expense category
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory maps unknown categories to Other
func NormalizeCategory(c string) string {
	if ValidCategory(c) {
		return c
	}
	return CategoryOther
}

// ExpenseReport groups a set of expenses created from one submission batch
type ExpenseReport struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	TotalExpenses int       `json:"total_expenses"`
}

// Expense is a single expense record extracted from a receipt
type Expense struct {
	ID          string    `json:"id"`
	ReportID    string    `json:"report_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Merchant    string    `json:"merchant"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	PaymentType string    `json:"payment_type"`
	City        string    `json:"city,omitempty"`
	Items       string    `json:"items,omitempty"`
	ReceiptPath string    `json:"receipt_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExtractedExpense is the raw expense data returned by the vision model,
// before a report or receipt path is attached
type ExtractedExpense struct {
	Date        string  `json:"date"`
	Merchant    string  `json:"merchant"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	PaymentType string  `json:"payment_type"`
	City        string  `json:"city,omitempty"`
	Items       string  `json:"items,omitempty"`
}

// ExpenseUpdate carries partial updates to an existing expense.
// Nil fields are left unchanged.
type ExpenseUpdate struct {
	Date        *string  `json:"date,omitempty"`
	Merchant    *string  `json:"merchant,omitempty"`
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
	Category    *string  `json:"category,omitempty"`
	PaymentType *string  `json:"payment_type,omitempty"`
	City        *string  `json:"city,omitempty"`
	Items       *string  `json:"items,omitempty"`
}
