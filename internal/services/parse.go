package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are the spreadsheet date spellings accepted on import.
var dateLayouts = []string{
	models.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2.1.2006",
	"2.1.2006.",
	"2. 1. 2006",
	"2. 1. 2006.",
	"2006/01/02",
	"2006/1/2",
	"20060102",
}

// Serial dates outside these years are rejected.
const (
	minSerialYear = 1920
	maxSerialYear = 2100
)

// NormalizeDate converts a spreadsheet date cell to YYYY-MM-DD. Blank input
// yields "". Spreadsheet serial numbers are accepted when they fall between
// minSerialYear and maxSerialYear.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.DateLayout), nil
		}
	}
	if len(s) > 10 {
		if t, err := time.Parse(models.DateLayout, s[:10]); err == nil {
			return t.Format(models.DateLayout), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil && t.Year() >= minSerialYear && t.Year() <= maxSerialYear {
			return t.Format(models.DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", s)
}

// parseFlag reads a 0/1 style column. Blank is false.
func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "ne", "no", "false", "n":
		return false, nil
	case "1", "da", "yes", "true", "x", "d", "y":
		return true, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return false, fmt.Errorf("invalid flag %q", s)
	}
	return f != 0, nil
}

// parseCount reads a non-negative integer column. Blank is 0; spreadsheet
// floats with no fraction ("3.0") are accepted.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative number %q", s)
	}
	return int(f), nil
}

// parseFee reads the fee amount. Blank is the default fee.
func parseFee(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.DefaultFeeAmount, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	return f, nil
}

// normalizeOIB undoes spreadsheet number formatting: a trailing ".0" and
// leading zeros lost in numeric cells.
func normalizeOIB(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	if s == "" || len(s) >= 11 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return strings.Repeat("0", 11-len(s)) + s
}
