package entity

// FailedReceipt records one receipt that could not be turned into an expense.
// It only lives inside a batch result and is never persisted.
type FailedReceipt struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchSummary counts the outcomes of one ingestion batch
type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BatchResult is the outcome of processing a set of receipts against one report
type BatchResult struct {
	Expenses       []Expense       `json:"expenses"`
	FailedReceipts []FailedReceipt `json:"failed_receipts"`
	Summary        BatchSummary    `json:"summary"`
}
