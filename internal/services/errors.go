package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/hkpodravka/klub/validation"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrInvalidInput       = errors.New("invalid_input")
	ErrDuplicate          = errors.New("duplicate")
	ErrPortalLogin        = errors.New("portal_login_failed")
	ErrUnknownCompetition = errors.New("unknown_competition")
	ErrMissingColumn      = errors.New("missing_column")
)

// ValidationError carries per-field violation codes. It matches ErrInvalidInput.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Fields[k]
	}
	return "invalid_input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// invalid returns a *ValidationError for v, or nil when v is empty.
func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v}
}

// Violations extracts field violations from err, if it carries any.
func Violations(err error) validation.Violations {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// withUploads runs write and, once it succeeded, moves the staged files to
// their final paths. Staged files are discarded when write fails. Nil entries
// are ignored.
func withUploads(write func() error, staged ...*uploads.Staged) error {
	if err := write(); err != nil {
		for _, st := range staged {
			st.Discard()
		}
		return err
	}
	for _, st := range staged {
		if st == nil {
			continue
		}
		if err := st.Commit(); err != nil {
			return fmt.Errorf("finalize %s: %w", st.Path, err)
		}
	}
	return nil
}
