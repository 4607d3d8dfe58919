package reports

import (
	"io"

	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const statementSheet = "Statement"

var statementHeadings = []string{
	"Date", "Kind", "Reference", "Description", "Currency", "Debit", "Credit", "Balance CNY", "Balance USD",
}

// ExcelExporter is a row of an exported sheet.
type ExcelExporter interface {
	GetCellValues() []interface{}
}

type statementRow struct {
	line *models.StatementLine
}

func amountCell(d decimal.Decimal) interface{} {
	f, _ := d.Float64()
	return f
}

func (r statementRow) GetCellValues() []interface{} {
	return []interface{}{
		r.line.Date.Format("2006-01-02"),
		r.line.Kind,
		r.line.ReferenceId,
		r.line.Description,
		string(r.line.Currency),
		amountCell(r.line.Debit),
		amountCell(r.line.Credit),
		amountCell(r.line.BalanceCNY),
		amountCell(r.line.BalanceUSD),
	}
}

func setRow(f *excelize.File, sheet string, rowNo int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

// BuildAccountStatementWorkbook lays out the statement lines followed by the per currency summary.
func BuildAccountStatementWorkbook(title string, statement *models.AccountStatement) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, err
	}

	if err := setRow(f, statementSheet, 1, []interface{}{title, statement.PartyName}); err != nil {
		return nil, err
	}
	headings := make([]interface{}, len(statementHeadings))
	for i, h := range statementHeadings {
		headings[i] = h
	}
	if err := setRow(f, statementSheet, 3, headings); err != nil {
		return nil, err
	}

	rowNo := 4
	for _, line := range statement.Lines {
		var row ExcelExporter = statementRow{line: line}
		if err := setRow(f, statementSheet, rowNo, row.GetCellValues()); err != nil {
			return nil, err
		}
		rowNo++
	}

	rowNo++
	s := statement.Summary
	summary := [][]interface{}{
		{"", "", "", "", "Total", "CNY", amountCell(s.TotalCNY), "USD", amountCell(s.TotalUSD)},
		{"", "", "", "", "Paid", "CNY", amountCell(s.PaidCNY), "USD", amountCell(s.PaidUSD)},
		{"", "", "", "", "Remaining", "CNY", amountCell(s.RemainingCNY), "USD", amountCell(s.RemainingUSD)},
	}
	for _, values := range summary {
		if err := setRow(f, statementSheet, rowNo, values); err != nil {
			return nil, err
		}
		rowNo++
	}
	return f, nil
}

// WriteAccountStatement streams the workbook as .xlsx.
func WriteAccountStatement(w io.Writer, title string, statement *models.AccountStatement) error {
	f, err := BuildAccountStatementWorkbook(title, statement)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
