package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet excelize creates with a new workbook.
const DefaultSheet = "Sheet1"

// XLSXWriter writes rows to a single-sheet workbook: header in row 1,
// data from row 2, no index column.
type XLSXWriter struct {
	Path  string
	Sheet string
}

// NewXLSXWriter returns a writer for path using the default sheet.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{Path: path, Sheet: DefaultSheet}
}

func (w *XLSXWriter) Name() string {
	return "xlsx:" + w.Path
}

// Write replaces the workbook at Path. Readers never see a partial file:
// the workbook goes to a temp file in the same directory first.
func (w *XLSXWriter) Write(ctx context.Context, rows []Row) error {
	f, err := w.build(ctx, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	tmp, err := os.CreateTemp(filepath.Dir(w.Path), "."+filepath.Base(w.Path)+".*")
	if err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// Stream writes the workbook to out instead of a file.
func (w *XLSXWriter) Stream(ctx context.Context, out io.Writer, rows []Row) error {
	f, err := w.build(ctx, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("streaming workbook: %w", err)
	}
	return nil
}

func (w *XLSXWriter) build(ctx context.Context, rows []Row) (*excelize.File, error) {
	sheet := w.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("renaming sheet: %w", err)
		}
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			f.Close()
			return nil, err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := []interface{}{row.GameID, row.Rebounds}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	return f, nil
}
