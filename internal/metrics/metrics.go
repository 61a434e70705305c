// Package metrics exposes Prometheus counters for imports, exports and HTTP
// traffic.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import row outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeUpdated  = "updated"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

var (
	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "klub",
		Name:      "import_rows_total",
		Help:      "Spreadsheet import rows by kind and outcome.",
	}, []string{"kind", "outcome"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "klub",
		Name:      "exports_total",
		Help:      "Generated spreadsheet and PDF downloads by report.",
	}, []string{"report"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "klub",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts every request passing through next.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rec.Status())).Inc()
	})
}

// StatusRecorder remembers the status code written through it.
type StatusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// NewStatusRecorder wraps w; the status is 200 until WriteHeader says otherwise.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// Status returns the code sent to the client.
func (s *StatusRecorder) Status() int { return s.status }

func (s *StatusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *StatusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *StatusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
