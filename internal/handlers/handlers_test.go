package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/pdf"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/spreadsheet"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db    *gorm.DB
	files *uploads.Store

	members      *services.MemberService
	club         *services.ClubService
	groups       *services.GroupService
	coaches      *services.CoachService
	competitions *services.CompetitionService
	results      *services.ResultService
	reports      *services.ReportService
	attendance   *services.AttendanceService
	comms        *services.CommunicationService
	portal       *services.PortalService
	importer     *services.Importer
	forms        *pdf.Generator
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:h_%s?mode=memory&cache=shared&_foreign_keys=on", name)),
		&gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, db.Create(&models.ClubInfo{ID: models.ClubInfoID, Name: "HK Podravka", OIB: "60911784858"}).Error)

	log := logrus.New()
	log.SetOutput(io.Discard)
	SetLogger(log)
	files := uploads.New(t.TempDir(), log)
	members := services.NewMemberService(db, files, log)
	return &testEnv{
		db:           db,
		files:        files,
		members:      members,
		club:         services.NewClubService(db),
		groups:       services.NewGroupService(db),
		coaches:      services.NewCoachService(db, files, log),
		competitions: services.NewCompetitionService(db, files, log),
		results:      services.NewResultService(db),
		reports:      services.NewReportService(db),
		attendance:   services.NewAttendanceService(db),
		comms:        services.NewCommunicationService(db, members),
		portal:       services.NewPortalService(members),
		importer:     services.NewImporter(db, log),
		forms:        pdf.NewGenerator("", log),
	}
}

func (e *testEnv) memberHandler() *MemberHandler {
	return NewMemberHandler(e.members, e.groups, e.importer, e.reports, e.club, e.files, e.forms)
}

func (e *testEnv) competitionHandler() *CompetitionHandler {
	return NewCompetitionHandler(e.competitions, e.results, e.members, e.importer, e.files)
}

func (e *testEnv) addMember(t *testing.T, first, last, oib string) *models.Member {
	t.Helper()
	m := &models.Member{FirstName: first, LastName: last, OIB: &oib, FeeAmount: models.DefaultFeeAmount}
	require.NoError(t, e.db.Create(m).Error)
	return m
}

// jsonReq builds a request that sends and accepts JSON.
func jsonReq(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set("Accept", "application/json")
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

// multipartReq builds a multipart form with fields and one file per entry of files.
func multipartReq(t *testing.T, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".bin")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("Accept", "application/json")
	return r
}

func sheetBytes(t *testing.T, columns []string, rows ...[]any) []byte {
	t.Helper()
	b, err := (&spreadsheet.Table{Sheet: "Sheet1", Columns: columns, Rows: rows}).Bytes()
	require.NoError(t, err)
	return b
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}
