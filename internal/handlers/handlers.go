// Package handlers serves the club administration pages and their JSON
// equivalents. Every handler answers JSON when the client asks for it
// (Accept: application/json) and renders HTML otherwise.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/i18n"
	"github.com/hkpodravka/klub/internal/metrics"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/spreadsheet"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/hkpodravka/klub/view"
	"github.com/sirupsen/logrus"
)

// maxUpload bounds multipart bodies (spreadsheets, documents, photos).
const maxUpload = 32 << 20

var log = logrus.StandardLogger()

// SetLogger replaces the logger used for handler errors.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

func render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name, data); err != nil {
		log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// statusFor maps service errors to HTTP statuses and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, services.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, services.ErrPortalLogin):
		return http.StatusUnauthorized, "portal_login_failed"
	case errors.Is(err, services.ErrUnknownCompetition):
		return http.StatusUnprocessableEntity, "unknown_competition"
	case errors.Is(err, services.ErrMissingColumn):
		return http.StatusBadRequest, "missing_column"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}

var errBadRequest = errors.New("bad_request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// fail reports err as JSON or as the error page.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	}
	fields := services.Violations(err)
	if httpx.WantsJSON(r) {
		var details any
		if fields != nil {
			details = fields
		} else if status != http.StatusInternalServerError {
			details = err.Error()
		}
		httpx.JSONError(w, status, code, details)
		return
	}
	lang := i18n.LangFromContext(r.Context())
	msg := i18n.T(lang, code)
	if status == http.StatusBadRequest {
		msg = err.Error()
	}
	w.WriteHeader(status)
	if rerr := view.Render(w, r, "error.html", map[string]any{
		"Status":  status,
		"Message": msg,
		"Errors":  fields,
	}); rerr != nil {
		log.WithError(rerr).Error("render error page")
		_, _ = w.Write([]byte(msg))
	}
}

// done answers a successful mutation: the payload as JSON, or a redirect.
func done(w http.ResponseWriter, r *http.Request, status int, payload any, redirect string) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, payload)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid %s", name)
	}
	return uint(id), nil
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid json: %v", err)
	}
	return nil
}

// parseForm accepts urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return badRequest("invalid multipart form: %v", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return badRequest("invalid form: %v", err)
	}
	return nil
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	return n
}

func formFloat(r *http.Request, key string, def float64) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(r.FormValue(key)), ",", ".")
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return -1
	}
	return f
}

func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "1", "on", "true", "yes", "da":
		return true
	}
	return false
}

func formUint(r *http.Request, key string) *uint {
	n, err := strconv.ParseUint(strings.TrimSpace(r.FormValue(key)), 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	id := uint(n)
	return &id
}

func formIDs(r *http.Request, key string) []uint {
	var ids []uint
	for _, v := range r.Form[key] {
		for _, part := range strings.Split(v, ",") {
			if n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil && n > 0 {
				ids = append(ids, uint(n))
			}
		}
	}
	return ids
}

func queryUint(r *http.Request, key string) uint {
	n, _ := strconv.ParseUint(r.URL.Query().Get(key), 10, 64)
	return uint(n)
}

// stage copies the uploaded file field into the staging area. A missing
// field yields nil without error unless required.
func stage(files *uploads.Store, r *http.Request, field string, p uploads.Partition, required bool) (*uploads.Staged, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, badRequest("missing file %q", field)
		}
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("read file %q: %v", field, err)
	}
	defer f.Close()
	return files.Stage(p, hdr.Filename, f)
}

// sendTable writes t as an xlsx download and counts it under report.
func sendTable(w http.ResponseWriter, r *http.Request, report, filename string, t *spreadsheet.Table) {
	body, err := t.Bytes()
	if err != nil {
		fail(w, r, err)
		return
	}
	metrics.Exports.WithLabelValues(report).Inc()
	httpx.Attachment(w, spreadsheet.ContentType, filename, body)
}

// importSheet runs an import over the uploaded "file" field and shows the
// report. Row failures do not fail the request.
func importSheet(w http.ResponseWriter, r *http.Request, run func(io.Reader) (*services.ImportReport, error), back string) {
	if err := parseForm(r); err != nil {
		fail(w, r, err)
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		fail(w, r, badRequest("missing file %q", "file"))
		return
	}
	defer f.Close()
	rep, err := run(f)
	if err != nil {
		if !errors.Is(err, services.ErrMissingColumn) {
			err = badRequest("%v", err)
		}
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, rep)
		return
	}
	data := map[string]any{"Report": rep, "Back": back}
	if ferr := rep.FirstError(); ferr != nil {
		data["Message"] = ferr.Error()
	}
	render(w, r, "import.html", data)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
