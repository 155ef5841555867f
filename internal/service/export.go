package service

import (
	"bytes"        // CSV buffer
	"context"      // Request scoped cancellation
	"encoding/csv" // Delimited text writer
	"fmt"          // Error wrapping
	"io"           // Writer abstraction
	"strconv"      // Number formatting

	"finance_tracker/internal/domain" // Importing domain models

	"github.com/xuri/excelize/v2" // Spreadsheet writer
)

// CSVFilename is the attachment name of the export
const CSVFilename = "transactions.csv"

// csvHeader is the fixed column order of the export
var csvHeader = []string{"type", "amount", "category", "description", "date"}

// csvDateLayout matches the ISO form JSON clients see for dates
const csvDateLayout = "2006-01-02T15:04:05.000Z07:00"

// WriteCSV renders a header row then one row per record
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w) // Handles quoting of commas and quotes
	if err := cw.Write(csvHeader); err != nil {
		return err // Return error if the header cannot be written
	}
	for _, tx := range txs {
		row := []string{
			tx.Type,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Category,
			tx.Description,
			tx.Date.UTC().Format(csvDateLayout),
		}
		if err := cw.Write(row); err != nil {
			return err // Return error if a row cannot be written
		}
	}
	cw.Flush()        // Push buffered rows to w
	return cw.Error() // Report any deferred write error
}

// ExportCSV materialises all of the caller's records. It fails with
// ErrNotFound when the caller has none.
func (s *TransactionService) ExportCSV(ctx context.Context, userID string) ([]byte, error) {
	if userID == "" {
		return nil, fail(ErrUnauthenticated, "User not authenticated")
	}
	txs, err := s.listOwned(ctx, userID) // Always read from the store
	if err != nil {
		return nil, err
	}
	// Nothing to export is reported, not an empty file
	if len(txs) == 0 {
		return nil, fail(ErrNotFound, "No transactions found")
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSXFilename is the attachment name of the spreadsheet export
const XLSXFilename = "transactions.xlsx"

// xlsxSheet holds the exported rows
const xlsxSheet = "Transactions"

// WriteXLSX renders the same columns as WriteCSV into a single-sheet workbook
func WriteXLSX(w io.Writer, txs []domain.Transaction) error {
	f := excelize.NewFile() // Workbook with one default sheet
	defer f.Close()

	// Rename the default sheet
	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &csvHeader); err != nil {
		return err // Return error if the header cannot be written
	}
	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2) // Row 1 is the header
		if err != nil {
			return err
		}
		row := []any{tx.Type, tx.Amount, tx.Category, tx.Description, tx.Date.UTC().Format(csvDateLayout)}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return err // Return error if a row cannot be written
		}
	}
	// column widths
	_ = f.SetColWidth(xlsxSheet, "A", "C", 12)
	_ = f.SetColWidth(xlsxSheet, "D", "D", 30)
	_ = f.SetColWidth(xlsxSheet, "E", "E", 26)
	return f.Write(w) // Serialise the workbook
}

// ExportXLSX is ExportCSV rendered as a spreadsheet
func (s *TransactionService) ExportXLSX(ctx context.Context, userID string) ([]byte, error) {
	if userID == "" {
		return nil, fail(ErrUnauthenticated, "User not authenticated")
	}
	txs, err := s.listOwned(ctx, userID) // Always read from the store
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, fail(ErrNotFound, "No transactions found") // Same as the CSV export
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, txs); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
