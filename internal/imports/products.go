package imports

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/orderdeskhq/orderdesk-backend/internal/catalog"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
)

const productSheetName = "Products"

var productHeaders = []string{"Product Name", "Normal Price", "Pic", "Unit"}

// parseProductSheet reads the first sheet and returns the parseable inputs,
// their original sheet row numbers, and per-row errors for the rest.
func parseProductSheet(r io.Reader) ([]catalog.CreateProductInput, []int, []catalog.BatchRowError, error) {
	rows, err := readSheet(r, productHeaders)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		inputs    []catalog.CreateProductInput
		sheetRows []int
		rowErrs   []catalog.BatchRowError
	)
	for i, row := range rows {
		sheetRow := i + 2 // 1-based, after the header
		name := strings.TrimSpace(cell(row, 0))
		priceRaw := strings.TrimSpace(cell(row, 1))
		pic := strings.TrimSpace(cell(row, 2))
		unit := strings.TrimSpace(cell(row, 3))

		if name == "" && priceRaw == "" && pic == "" && unit == "" {
			continue
		}

		price, err := decimal.NewFromString(priceRaw)
		if err != nil {
			rowErrs = append(rowErrs, catalog.BatchRowError{
				Row: sheetRow,
				Err: fmt.Sprintf("invalid price %q", priceRaw),
			})
			continue
		}

		input := catalog.CreateProductInput{Name: name, Price: price}
		if pic != "" {
			input.Images = []string{pic}
		}
		if unit != "" {
			u := unit
			input.Unit = &u
		}
		inputs = append(inputs, input)
		sheetRows = append(sheetRows, sheetRow)
	}
	return inputs, sheetRows, rowErrs, nil
}

// ProductTemplate returns an xlsx with the expected headers and one sample row.
func (s *service) ProductTemplate() ([]byte, error) {
	return buildTemplate(productSheetName, productHeaders, []any{"Sample Widget", "99.50", "https://files.example/widget.jpg", "piece"})
}

func readSheet(r io.Reader, headers []string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open spreadsheet")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read sheet")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sheet is empty")
	}

	header := rows[0]
	for i, expected := range headers {
		if !strings.EqualFold(strings.TrimSpace(cell(header, i)), expected) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "column %d must be %q", i+1, expected)
		}
	}
	return rows[1:], nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func buildTemplate(sheet string, headers []string, sample []any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "name sheet")
	}

	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write header")
	}
	if err := f.SetSheetRow(sheet, "A2", &sample); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write sample row")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize template")
	}
	return buf.Bytes(), nil
}
