package importer

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	lerrors "position-ledger/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a broker export in CSV form. The header row names the
// columns; extra columns are ignored.
func ReadCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, lerrors.Wrap(err, "failed to read csv")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var rows []*Row
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, lerrors.Wrap(err, "failed to parse csv")
	}
	return deref(rows), nil
}

// ReadXLSX parses the first sheet of a broker export workbook.
func ReadXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, lerrors.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, lerrors.Wrapf(lerrors.ErrUnsupportedInput, "no sheets in %s", path)
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, lerrors.Wrap(err, "failed to read rows")
	}
	if len(cells) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(cells[0]))
	for i, name := range cells[0] {
		columns[strings.TrimSpace(name)] = i
	}
	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, c := range cells[1:] {
		if blank(c) {
			continue
		}
		rows = append(rows, Row{
			Data:       cell(c, "Data"),
			Hora:       cell(c, "Hora"),
			Produto:    cell(c, "Produto"),
			Quantidade: cell(c, "Quantidade"),
			Valor:      cell(c, "Valor"),
			Custos:     cell(c, "Custos de transação"),
		})
	}
	return rows, nil
}

// ReadFile picks the reader by file extension.
func ReadFile(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, lerrors.Wrap(err, "failed to open csv")
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, lerrors.Wrapf(lerrors.ErrUnsupportedInput, "unsupported file type %q", filepath.Ext(path))
	}
}

func deref(rows []*Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
