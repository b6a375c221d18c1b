package export

import "github.com/paymejunior/backend/internal/entity"

// GroupTotal is the count and amount total of one summary bucket
type GroupTotal struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Summary aggregates a report's expenses by category and by currency
type Summary struct {
	ByCategory  map[string]GroupTotal `json:"by_category"`
	ByCurrency  map[string]GroupTotal `json:"by_currency"`
	GrandTotals GrandTotals           `json:"grand_totals"`
}

// GrandTotals holds overall counts across all buckets
type GrandTotals struct {
	TotalExpenses int      `json:"total_expenses"`
	Currencies    []string `json:"currencies"`
}

// Summarize groups expenses by category and currency and sums amounts.
// Deterministic over the input order: currency listing preserves first
// appearance order.
func Summarize(expenses []*entity.Expense) Summary {
	summary := Summary{
		ByCategory: make(map[string]GroupTotal),
		ByCurrency: make(map[string]GroupTotal),
	}

	var currencies []string
	for _, expense := range expenses {
		category := expense.Category
		if category == "" {
			category = entity.CategoryOther
		}
		currency := expense.Currency
		if currency == "" {
			currency = entity.DefaultCurrency
		}

		byCat := summary.ByCategory[category]
		byCat.Count++
		byCat.Total += expense.Amount
		summary.ByCategory[category] = byCat

		if _, seen := summary.ByCurrency[currency]; !seen {
			currencies = append(currencies, currency)
		}
		byCur := summary.ByCurrency[currency]
		byCur.Count++
		byCur.Total += expense.Amount
		summary.ByCurrency[currency] = byCur
	}

	summary.GrandTotals = GrandTotals{
		TotalExpenses: len(expenses),
		Currencies:    currencies,
	}

	return summary
}
