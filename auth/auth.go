// Package auth keeps the parent-portal session: a signed cookie carrying the
// id of the member whose guardian logged in with e-mail and OIB.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hkpodravka/klub/httpx"
)

type ctxKey string

const (
	sessionCookieName = "portal_session"
	memberIDCtxKey    = ctxKey("memberID")
	sessionTTL        = 12 * time.Hour
)

// MemberVerifier is an optional callback to check that a session's member still exists.
type MemberVerifier func(ctx context.Context, memberID uint) bool

var (
	verifier MemberVerifier
	secret   = []byte("devsessionsecret")
)

// SetMemberVerifier configures the verifier used by RequireMember.
func SetMemberVerifier(v MemberVerifier) { verifier = v }

// SetSecret sets the HMAC key used to sign session cookies.
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie "<memberID>.<expiry>.<sig>".
func CreateSession(w http.ResponseWriter, memberID uint) {
	exp := time.Now().Add(sessionTTL)
	payload := strconv.FormatUint(uint64(memberID), 10) + "." + strconv.FormatInt(exp.Unix(), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the member id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return 0, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(payload))) {
		return 0, false
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expUnix {
		return 0, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// WithMemberID stores the member id in context.
func WithMemberID(ctx context.Context, memberID uint) context.Context {
	return context.WithValue(ctx, memberIDCtxKey, memberID)
}

// MemberIDFromContext extracts the member id.
func MemberIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(memberIDCtxKey).(uint)
	return id, ok
}

// Middleware attaches the member id to the request context if a valid session is present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := ParseSession(r); ok {
			r = r.WithContext(WithMemberID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMember rejects requests without a portal session: 401 JSON for API
// clients, redirect to /portal otherwise.
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := MemberIDFromContext(r.Context())
		if ok && verifier != nil && !verifier(r.Context(), id) {
			// Session refers to a deleted member: clear and treat as logged out.
			ClearSession(w)
			ok = false
		}
		if !ok {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			http.Redirect(w, r, "/portal", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
