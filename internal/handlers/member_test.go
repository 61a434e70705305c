package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberCreateShowAndErrors(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()

	w := httptest.NewRecorder()
	h.Create(w, jsonReq(http.MethodPost, "/members", `{"first_name":"Ana","last_name":"Anić","oib":"11111111119","athlete_email":"ana@example.com"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Member](t, w)
	require.NotZero(t, created.ID)
	assert.Equal(t, models.DefaultFeeAmount, created.FeeAmount)

	r := jsonReq(http.MethodGet, "/members/"+itoa(created.ID), "")
	r.SetPathValue("id", itoa(created.ID))
	w = httptest.NewRecorder()
	h.Show(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana", decode[models.Member](t, w).FirstName)

	r = jsonReq(http.MethodGet, "/members/999", "")
	r.SetPathValue("id", "999")
	w = httptest.NewRecorder()
	h.Show(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, w).Error)

	r = jsonReq(http.MethodGet, "/members/abc", "")
	r.SetPathValue("id", "abc")
	w = httptest.NewRecorder()
	h.Show(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemberCreateValidation(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()

	w := httptest.NewRecorder()
	h.Create(w, jsonReq(http.MethodPost, "/members", `{"last_name":"Anić","oib":"11111111119"}`))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "invalid_input", body.Error)
	details, ok := body.Details.(map[string]any)
	require.True(t, ok, "details should be a field map: %v", body.Details)
	assert.Equal(t, "required", details["first_name"])

	w = httptest.NewRecorder()
	h.Create(w, jsonReq(http.MethodPost, "/members", `{"first_name":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemberFormCreateRedirects(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()

	r := multipartReq(t, "/members", map[string]string{
		"first_name": "Ivo",
		"last_name":  "Ivić",
		"oib":        "22222222226",
		"pays_fee":   "on",
		"fee_amount": "25,5",
	}, map[string][]byte{"photo": []byte("jpeg")})
	r.Header.Del("Accept")
	w := httptest.NewRecorder()
	h.Create(w, r)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	m, err := env.members.GetByOIB("22222222226")
	require.NoError(t, err)
	assert.Equal(t, "/members/"+itoa(m.ID), w.Header().Get("Location"))
	assert.True(t, m.PaysFee)
	assert.Equal(t, 25.5, m.FeeAmount)
	require.NotEmpty(t, m.PhotoPath)
	f, err := env.files.Open(m.PhotoPath)
	require.NoError(t, err)
	f.Close()
}

func TestMemberImportAndExport(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()

	row := func(first, oib string) []any {
		out := make([]any, len(services.MemberColumns))
		out[0], out[1], out[4] = first, "Test", oib
		return out
	}
	file := sheetBytes(t, services.MemberColumns, row("Ana", "11111111119"), row("Bez", ""), row("Ivo", "22222222226"))
	w := httptest.NewRecorder()
	h.Import(w, multipartReq(t, "/members/import", nil, map[string][]byte{"file": file}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rep := decode[services.ImportReport](t, w)
	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, 2, rep.Inserted)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, 3, rep.Errors[0].Row)

	w = httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/members/export.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, spreadsheet.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "clanovi.xlsx")
	sheet, err := spreadsheet.Read(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 2)
}

func TestMemberImportRejectsBadUploads(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()

	w := httptest.NewRecorder()
	h.Import(w, multipartReq(t, "/members/import", nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	file := sheetBytes(t, []string{"ime", "prezime"}, []any{"Ana", "Anić"})
	w = httptest.NewRecorder()
	h.Import(w, multipartReq(t, "/members/import", nil, map[string][]byte{"file": file}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_column", decode[errorBody](t, w).Error)

	w = httptest.NewRecorder()
	h.Import(w, multipartReq(t, "/members/import", nil, map[string][]byte{"file": []byte("not a workbook")}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemberTemplateIsHeaderOnly(t *testing.T) {
	env := newEnv(t)
	w := httptest.NewRecorder()
	env.memberHandler().Template(w, httptest.NewRequest(http.MethodGet, "/members/template.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	sheet, err := spreadsheet.Read(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, services.MemberColumns, sheet.Header)
	assert.Empty(t, sheet.Rows)
}

func TestMemberDocumentsAndMedical(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()
	m := env.addMember(t, "Ana", "Anić", "11111111119")
	id := itoa(m.ID)

	r := multipartReq(t, "/members/"+id+"/documents/consent", nil, map[string][]byte{"file": []byte("pdf")})
	r.SetPathValue("id", id)
	r.SetPathValue("doc", "consent")
	w := httptest.NewRecorder()
	h.UploadDocument(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	r = multipartReq(t, "/members/"+id+"/documents/passport", nil, map[string][]byte{"file": []byte("pdf")})
	r.SetPathValue("id", id)
	r.SetPathValue("doc", "passport")
	w = httptest.NewRecorder()
	h.UploadDocument(w, r)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	r = multipartReq(t, "/members/"+id+"/medical", map[string]string{"medical_valid_until": "2030-01-31"}, nil)
	r.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.Medical(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := env.members.Get(m.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ConsentPath)
	assert.NotEmpty(t, got.ConsentCheckedDate)
	assert.Equal(t, "2030-01-31", got.MedicalValidUntil)

	r = multipartReq(t, "/members/"+id+"/medical", map[string]string{"medical_valid_until": "31.1.2030"}, nil)
	r.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.Medical(w, r)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMemberDeleteKeepsResults(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()
	m := env.addMember(t, "Ana", "Anić", "11111111119")
	c := &models.Competition{Kind: models.KindInternational, Name: "Kup", DateFrom: "2024-05-01"}
	require.NoError(t, env.db.Create(c).Error)
	require.NoError(t, env.db.Create(&models.Result{CompetitionID: c.ID, MemberID: &m.ID, Placement: 1}).Error)

	r := jsonReq(http.MethodPost, "/members/"+itoa(m.ID)+"/delete", "")
	r.SetPathValue("id", itoa(m.ID))
	w := httptest.NewRecorder()
	h.Delete(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var res models.Result
	require.NoError(t, env.db.First(&res).Error)
	assert.Nil(t, res.MemberID)
}

func TestMemberResultsAndForm(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()
	m := env.addMember(t, "Ana", "Anić", "11111111119")
	for _, d := range []string{"2023-03-01", "2024-06-01"} {
		c := &models.Competition{Kind: models.KindNationalChampionship, Name: "PH " + d[:4], DateFrom: d, AgeCategory: "U15"}
		require.NoError(t, env.db.Create(c).Error)
		require.NoError(t, env.db.Create(&models.Result{CompetitionID: c.ID, MemberID: &m.ID, Placement: 2, FightsTotal: 3, Wins: 2, Losses: 1}).Error)
	}
	id := itoa(m.ID)

	r := jsonReq(http.MethodGet, "/members/"+id+"/results?year=2024", "")
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.Results(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]services.HistoryRow](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "PH 2024", rows[0].Competition)

	r = httptest.NewRequest(http.MethodGet, "/members/"+id+"/results.xlsx", nil)
	r.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.ResultsExport(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	sheet, err := spreadsheet.Read(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 2)

	r = httptest.NewRequest(http.MethodGet, "/members/"+id+"/membership-form.pdf", nil)
	r.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.MembershipForm(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestMemberListFilters(t *testing.T) {
	env := newEnv(t)
	h := env.memberHandler()
	env.addMember(t, "Ana", "Anić", "11111111119")
	vet := env.addMember(t, "Ivo", "Ivić", "22222222226")
	require.NoError(t, env.db.Model(vet).Update("veteran", true).Error)

	w := httptest.NewRecorder()
	h.List(w, jsonReq(http.MethodGet, "/members?veterans=1", ""))
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Member](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Ivo", list[0].FirstName)

	w = httptest.NewRecorder()
	h.List(w, jsonReq(http.MethodGet, "/members?q=ani", ""))
	list = decode[[]models.Member](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].FirstName)
}
