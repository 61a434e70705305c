package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hkpodravka/klub/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortalLogin(t *testing.T) {
	env := newEnv(t)
	h := NewPortalHandler(env.portal, env.members, env.files)
	m := env.addMember(t, "Ana", "Anić", "11111111119")
	require.NoError(t, env.db.Model(m).Update("parent_email", "Mama@Example.com").Error)

	w := httptest.NewRecorder()
	h.Login(w, jsonReq(http.MethodPost, "/portal/login", `{"email":" mama@example.com ","oib":"11111111119"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "portal_session", cookies[0].Name)

	r := jsonReq(http.MethodGet, "/portal", "")
	r.AddCookie(cookies[0])
	id, ok := auth.ParseSession(r)
	require.True(t, ok)
	assert.Equal(t, m.ID, id)

	w = httptest.NewRecorder()
	h.Login(w, jsonReq(http.MethodPost, "/portal/login", `{"email":"mama@example.com","oib":"22222222226"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "portal_login_failed", decode[errorBody](t, w).Error)
	assert.Empty(t, w.Result().Cookies())

	w = httptest.NewRecorder()
	h.Show(w, jsonReq(http.MethodGet, "/portal", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPortalUploadDocuments(t *testing.T) {
	env := newEnv(t)
	h := NewPortalHandler(env.portal, env.members, env.files)
	m := env.addMember(t, "Ana", "Anić", "11111111119")

	r := multipartReq(t, "/portal/documents",
		map[string]string{"medical_valid_until": "2030-06-30"},
		map[string][]byte{"application": []byte("app"), "medical": []byte("med")})
	r = r.WithContext(auth.WithMemberID(r.Context(), m.ID))
	w := httptest.NewRecorder()
	h.UploadDocuments(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := env.members.Get(m.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ApplicationPath)
	assert.NotEmpty(t, got.MedicalPath)
	assert.Equal(t, "2030-06-30", got.MedicalValidUntil)
	assert.Empty(t, got.ConsentPath)

	r = multipartReq(t, "/portal/documents", nil, nil)
	r = r.WithContext(auth.WithMemberID(r.Context(), m.ID))
	w = httptest.NewRecorder()
	h.UploadDocuments(w, r)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "required", decode[errorBody](t, w).Details.(map[string]any)["documents"])

	r = multipartReq(t, "/portal/documents", nil, map[string][]byte{"medical": []byte("med")})
	r = r.WithContext(auth.WithMemberID(r.Context(), m.ID))
	w = httptest.NewRecorder()
	h.UploadDocuments(w, r)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
