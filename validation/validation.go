package validation

import (
	"net/mail"
	"strings"
	"time"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

// Date accepts "" or a YYYY-MM-DD calendar date.
func Date(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		v[field] = "invalid_date"
	}
}

// Email accepts "" or a single address.
func Email(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

// OneOf accepts "" or a member of allowed (case-insensitive).
func OneOf(field, value string, allowed []string, v Violations) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return
		}
	}
	v[field] = "not_allowed"
}

// OIB checks the 11-digit Croatian identification number including its
// ISO 7064 (MOD 11,10) control digit.
func OIB(field, value string, v Violations) {
	if value == "" {
		return
	}
	if !ValidOIB(value) {
		v[field] = "invalid_oib"
	}
}

// ValidOIB reports whether s is a well-formed OIB.
func ValidOIB(s string) bool {
	if len(s) != 11 {
		return false
	}
	a := 10
	for i := 0; i < 10; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		a = (a + int(c-'0')) % 10
		if a == 0 {
			a = 10
		}
		a = (a * 2) % 11
	}
	check := 11 - a
	if check == 10 {
		check = 0
	}
	last := s[10]
	return last >= '0' && last <= '9' && int(last-'0') == check
}
