package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	w := httptest.NewRecorder()
	CreateSession(w, 42)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie got %d", len(cookies))
	}

	r := httptest.NewRequest(http.MethodGet, "/portal", nil)
	r.AddCookie(cookies[0])
	id, ok := ParseSession(r)
	if !ok || id != 42 {
		t.Fatalf("expected member 42 got %d ok=%v", id, ok)
	}
}

func TestSessionTampered(t *testing.T) {
	SetSecret("test-secret")
	w := httptest.NewRecorder()
	CreateSession(w, 7)
	c := w.Result().Cookies()[0]
	c.Value = "8" + c.Value[1:]

	r := httptest.NewRequest(http.MethodGet, "/portal", nil)
	r.AddCookie(c)
	if _, ok := ParseSession(r); ok {
		t.Fatalf("expected tampered cookie to be rejected")
	}
}

func TestRequireMember(t *testing.T) {
	h := Middleware(RequireMember(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := MemberIDFromContext(r.Context())
		if id != 5 {
			t.Errorf("expected member 5 in context got %d", id)
		}
		w.WriteHeader(http.StatusNoContent)
	})))

	r := httptest.NewRequest(http.MethodGet, "/portal/me", nil)
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/portal/me", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}

	sw := httptest.NewRecorder()
	CreateSession(sw, 5)
	r = httptest.NewRequest(http.MethodGet, "/portal/me", nil)
	r.AddCookie(sw.Result().Cookies()[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Code)
	}

	SetMemberVerifier(func(_ context.Context, _ uint) bool { return false })
	defer SetMemberVerifier(nil)
	r = httptest.NewRequest(http.MethodGet, "/portal/me", nil)
	r.AddCookie(sw.Result().Cookies()[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for deleted member got %d", w.Code)
	}
}
