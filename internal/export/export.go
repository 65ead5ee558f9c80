// Package export рендерит табличные данные в CSV или XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format - формат выгрузки.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ParseFormat никогда не возвращает ошибку: всё, кроме xlsx, выгружается в CSV.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatXLSX)) {
		return FormatXLSX
	}
	return FormatCSV
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// Dataset - таблица, готовая к выгрузке.
// Name задаёт имя файла, Sheet - имя листа в XLSX.
type Dataset struct {
	Name   string
	Sheet  string
	Header []string
	Rows   [][]any
}

// File - результат выгрузки вместе с метаданными для ответа.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Render собирает файл целиком в памяти.
func Render(ds Dataset, format Format) (*File, error) {
	var (
		body []byte
		err  error
	)
	switch format {
	case FormatXLSX:
		body, err = renderXLSX(ds)
	default:
		format = FormatCSV
		body, err = renderCSV(ds)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s %s: %w", ds.Name, format, err)
	}
	return &File{
		Filename:    fmt.Sprintf("%s_export.%s", ds.Name, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// === CSV ===

func renderCSV(ds Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ds.Header); err != nil {
		return nil, err
	}
	record := make([]string, len(ds.Header))
	for _, row := range ds.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}

// === XLSX ===

func renderXLSX(ds Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := ds.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]any, len(ds.Header))
	for i, h := range ds.Header {
		header[i] = h
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	for i, row := range ds.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
