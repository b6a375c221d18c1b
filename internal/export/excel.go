package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
)

const sheetName = "Expense Report"

// headers is the SAP Concur column layout
var headers = []string{
	"Expense Date",
	"Merchant/Vendor",
	"Description",
	"Expense Type",
	"Amount",
	"Currency",
	"Payment Type",
	"City",
	"Receipt File",
}

var columnWidths = map[string]float64{
	"A": 15, // Date
	"B": 25, // Merchant
	"C": 35, // Description
	"D": 20, // Expense Type
	"E": 12, // Amount
	"F": 10, // Currency
	"G": 15, // Payment Type
	"H": 15, // City
	"I": 25, // Receipt File
}

const amountFormat = "#,##0.00"

// Generator renders SAP Concur-compatible Excel expense reports
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new Excel generator
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate renders the expenses into an xlsx workbook and returns its bytes
func (g *Generator) Generate(expenses []*entity.Expense, reportName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := g.writeHeaders(f); err != nil {
		return nil, err
	}

	numFmt := amountFormat
	border := thinBorder()

	cellStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}

	amountStyle, err := f.NewStyle(&excelize.Style{
		Border:       border,
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	for i, expense := range expenses {
		row := i + 2
		values := []interface{}{
			expense.Date,
			expense.Merchant,
			expense.Description,
			expense.Category,
			expense.Amount,
			expense.Currency,
			expense.PaymentType,
			expense.City,
			expense.ReceiptPath,
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			style := cellStyle
			if col == 4 {
				style = amountStyle
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return nil, fmt.Errorf("failed to style cell %s: %w", cell, err)
			}
		}
	}

	if len(expenses) > 0 {
		if err := g.writeTotalRow(f, len(expenses)); err != nil {
			return nil, err
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	g.logger.Info("Excel report generated",
		zap.String("report_name", reportName),
		zap.Int("expense_count", len(expenses)))

	return buf.Bytes(), nil
}

func (g *Generator) writeHeaders(f *excelize.File) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"366092"},
			Pattern: 1,
		},
		Font: &excelize.Font{
			Bold:  true,
			Color: "FFFFFF",
			Size:  11,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorder(),
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header %s: %w", header, err)
		}
	}

	return nil
}

// writeTotalRow appends a TOTAL row with a SUM formula under the last expense
func (g *Generator) writeTotalRow(f *excelize.File, expenseCount int) error {
	totalRow := expenseCount + 2
	numFmt := amountFormat

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return fmt.Errorf("failed to create total label style: %w", err)
	}

	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &numFmt,
		Border: []excelize.Border{
			{Type: "top", Style: 6}, // double line
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create total style: %w", err)
	}

	labelCell := fmt.Sprintf("D%d", totalRow)
	if err := f.SetCellValue(sheetName, labelCell, "TOTAL:"); err != nil {
		return fmt.Errorf("failed to write total label: %w", err)
	}
	if err := f.SetCellStyle(sheetName, labelCell, labelCell, labelStyle); err != nil {
		return fmt.Errorf("failed to style total label: %w", err)
	}

	totalCell := fmt.Sprintf("E%d", totalRow)
	formula := fmt.Sprintf("SUM(E2:E%d)", totalRow-1)
	if err := f.SetCellFormula(sheetName, totalCell, formula); err != nil {
		return fmt.Errorf("failed to set total formula: %w", err)
	}
	if err := f.SetCellStyle(sheetName, totalCell, totalCell, totalStyle); err != nil {
		return fmt.Errorf("failed to style total cell: %w", err)
	}

	return nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Style: 1},
		{Type: "right", Style: 1},
		{Type: "top", Style: 1},
		{Type: "bottom", Style: 1},
	}
}
