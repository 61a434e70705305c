package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoHeader is returned for a workbook whose first sheet has no header row.
var ErrNoHeader = errors.New("spreadsheet has no header row")

// Sheet is the first sheet of a workbook read as text. Header cells are
// trimmed; data rows are padded to the header width.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string

	index map[string]int
}

// Read loads the first sheet of an xlsx workbook with unformatted cell
// values. Rows[i] is spreadsheet line i+2.
func Read(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	// Date cells come back as serial numbers, not in their display format.
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(raw) == 0 {
		return nil, ErrNoHeader
	}

	s := &Sheet{Name: sheets[0], index: map[string]int{}}
	for i, h := range raw[0] {
		h = strings.TrimSpace(h)
		s.Header = append(s.Header, h)
		if _, dup := s.index[h]; !dup && h != "" {
			s.index[h] = i
		}
	}
	if len(s.index) == 0 {
		return nil, ErrNoHeader
	}
	for _, row := range raw[1:] {
		padded := make([]string, len(s.Header))
		copy(padded, row)
		s.Rows = append(s.Rows, padded)
	}
	return s, nil
}

// Has reports whether any of the given headers is present.
func (s *Sheet) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := s.index[n]; ok {
			return true
		}
	}
	return false
}

// Value returns the trimmed cell of row under the first header in names that
// exists in the sheet, or "" if none does.
func (s *Sheet) Value(row []string, names ...string) string {
	for _, n := range names {
		if i, ok := s.index[n]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// Blank reports whether every cell of row is empty.
func Blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
