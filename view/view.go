package view

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hkpodravka/klub/auth"
	"github.com/hkpodravka/klub/i18n"
)

var (
	baseDir  string
	once     sync.Once
	devMode  bool
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	partials = []string{
		filepath.Join("partials", "nav.html"),
		filepath.Join("partials", "errors-alert.html"),
		filepath.Join("partials", "import-report.html"),
		filepath.Join("partials", "member-fields.html"),
	}
)

// SetDevMode disables the template cache so edits show up without a restart.
func SetDevMode(dev bool) { devMode = dev }

// SetBaseDir overrides the template base directory (useful for tests or custom setups).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

func detectBase() {
	for _, c := range []string{"templates", "../templates", "../../templates"} {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the template helpers bound to the request language.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.LangFromContext(r.Context())
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
		"join": strings.Join,
		"add":  func(a, b int) int { return a + b },
		// medicalDays renders the days left on a medical certificate, "" when unknown.
		"medicalDays": func(validUntil string) string {
			if validUntil == "" {
				return ""
			}
			exp, err := time.Parse("2006-01-02", validUntil)
			if err != nil {
				return ""
			}
			now := time.Now()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			return fmt.Sprint(int(exp.Sub(today).Hours() / 24))
		},
		"asset": versionedAsset,
		// dict creates a map from key-value pairs for passing to sub-templates.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				if key, ok := values[i].(string); ok {
					m[key] = values[i+1]
				}
			}
			return m
		},
	}
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	b, err := os.ReadFile(filepath.Join("static", rel))
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return fmt.Sprintf("/static/%s?v=%x", rel, h[:8])
}

// Render parses (or reuses) name wrapped in layout.html plus the shared partials
// and executes it with data. Templates that are full documents skip the layout.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsPortal"]; !exists {
		_, inPortal := auth.MemberIDFromContext(r.Context())
		data["IsPortal"] = inPortal
	}

	lang := i18n.LangFromContext(r.Context())
	key := lang + ":" + name
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[key]
		tplCache.RUnlock()
		if ok {
			return execute(w, t, data)
		}
	}

	mainPath := filepath.Join(baseDir, name)
	content, err := os.ReadFile(mainPath)
	if err != nil {
		return err
	}
	files := []string{mainPath}
	root := "layout.html"
	if !bytes.Contains(bytes.ToLower(content), []byte("<!doctype")) {
		layoutPath := filepath.Join(baseDir, "layout.html")
		if fi, err := os.Stat(layoutPath); err == nil && !fi.IsDir() {
			files = append([]string{layoutPath}, files...)
		} else {
			root = filepath.Base(mainPath)
		}
	} else {
		root = filepath.Base(mainPath)
	}
	for _, p := range partials {
		full := filepath.Join(baseDir, p)
		if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
			files = append(files, full)
		}
	}
	t, err := template.New(root).Funcs(Funcs(r)).ParseFiles(files...)
	if err != nil {
		return err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	return execute(w, t, data)
}

// execute renders into a buffer first so a template error never leaves a half-written page.
func execute(w http.ResponseWriter, t *template.Template, data map[string]any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, err := buf.WriteTo(w)
	return err
}
