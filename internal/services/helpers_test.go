package services

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/spreadsheet"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// unique in-memory DB per test name to avoid leakage via shared cache
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFiles(t *testing.T) *uploads.Store {
	t.Helper()
	return uploads.New(t.TempDir(), quietLogger())
}

func ptr[T any](v T) *T { return &v }

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	require.NoError(t, db.Create(v).Error)
}

func newMember(first, last, oib string) *models.Member {
	return &models.Member{FirstName: first, LastName: last, OIB: ptr(oib), FeeAmount: models.DefaultFeeAmount}
}

// xlsx renders rows under columns as workbook bytes.
func xlsx(t *testing.T, columns []string, rows ...[]any) *bytes.Reader {
	t.Helper()
	b, err := (&spreadsheet.Table{Sheet: "Sheet1", Columns: columns, Rows: rows}).Bytes()
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// memberRow builds a member sheet row keyed by header.
func memberRow(values map[string]any) []any {
	row := make([]any, len(MemberColumns))
	for i, c := range MemberColumns {
		row[i] = values[c]
	}
	return row
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}
