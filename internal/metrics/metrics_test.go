package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	okBefore := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "200"))
	nfBefore := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "404"))

	for _, path := range []string{"/", "/", "/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, okBefore+2, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, nfBefore+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "404")))
}

func TestHandlerExposesCounters(t *testing.T) {
	ImportRows.WithLabelValues("members", OutcomeInserted).Inc()
	Exports.WithLabelValues("members").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `klub_import_rows_total{kind="members",outcome="inserted"}`))
	assert.True(t, strings.Contains(body, `klub_exports_total{report="members"}`))
}
