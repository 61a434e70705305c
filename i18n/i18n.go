// Package i18n holds the UI message catalogue (Croatian default, English).
package i18n

import (
	"context"
	"strings"
)

const DefaultLang = "hr"

type ctxKey struct{}

var messages = map[string]map[string]string{
	"hr": {
		"required":             "Obavezno",
		"invalid_date":         "Neispravan datum",
		"invalid_email":        "Neispravan e-mail",
		"invalid_oib":          "Neispravan OIB",
		"must_not_be_negative": "Ne smije biti negativno",
		"not_allowed":          "Nedopuštena vrijednost",
		"nav.dashboard":        "Početna",
		"nav.club":             "Klub",
		"nav.members":          "Članovi",
		"nav.coaches":          "Treneri",
		"nav.competitions":     "Natjecanja",
		"nav.stats":            "Statistika",
		"nav.veterans":         "Veterani",
		"nav.communication":    "Komunikacija",
		"nav.attendance":       "Prisustvo",
		"nav.portal":           "Roditelji",
		"members.title":        "Članovi",
		"members.import":       "Uvoz iz Excela",
		"members.export":       "Izvoz u Excel",
		"members.template":     "Predložak",
		"members.medical_days": "Dana do isteka liječničkog",
		"members.none":         "Nema članova.",
		"import.done":          "Uvoz završen",
		"import.failed":        "Uvoz nije uspio",
		"stats.title":          "Statistika natjecanja",
		"stats.year":           "Godina",
		"stats.competitions":   "Natjecanja",
		"stats.gold":           "Zlato",
		"stats.silver":         "Srebro",
		"stats.bronze":         "Bronca",
		"stats.fights":         "Borbe",
		"stats.wins":           "Pobjede",
		"stats.losses":         "Porazi",
		"stats.empty":          "Nema podataka za odabrano razdoblje.",
		"competitions.title":   "Natjecanja",
		"portal.title":         "Roditeljski pristup",
		"portal.login_failed":  "Neispravan e-mail ili OIB.",
		"not_found":            "Nije pronađeno",
		"invalid_input":        "Neispravan unos",
		"duplicate":            "Zapis već postoji",
		"portal_login_failed":  "Neispravan e-mail ili OIB.",
		"unknown_competition":  "Nepoznato natjecanje",
		"missing_column":       "Nedostaje obavezni stupac",
		"bad_request":          "Neispravan zahtjev",
		"internal_error":       "Greška na poslužitelju",
		"before_start":         "Završetak je prije početka",
	},
	"en": {
		"required":             "Required",
		"invalid_date":         "Invalid date",
		"invalid_email":        "Invalid e-mail",
		"invalid_oib":          "Invalid OIB",
		"must_not_be_negative": "Must not be negative",
		"not_allowed":          "Value not allowed",
		"nav.dashboard":        "Home",
		"nav.club":             "Club",
		"nav.members":          "Members",
		"nav.coaches":          "Coaches",
		"nav.competitions":     "Competitions",
		"nav.stats":            "Statistics",
		"nav.veterans":         "Veterans",
		"nav.communication":    "Communication",
		"nav.attendance":       "Attendance",
		"nav.portal":           "Parents",
		"members.title":        "Members",
		"members.import":       "Import from Excel",
		"members.export":       "Export to Excel",
		"members.template":     "Template",
		"members.medical_days": "Days until medical expires",
		"members.none":         "No members.",
		"import.done":          "Import finished",
		"import.failed":        "Import failed",
		"stats.title":          "Competition statistics",
		"stats.year":           "Year",
		"stats.competitions":   "Competitions",
		"stats.gold":           "Gold",
		"stats.silver":         "Silver",
		"stats.bronze":         "Bronze",
		"stats.fights":         "Fights",
		"stats.wins":           "Wins",
		"stats.losses":         "Losses",
		"stats.empty":          "No data for the selected period.",
		"competitions.title":   "Competitions",
		"portal.title":         "Parent portal",
		"portal.login_failed":  "Wrong e-mail or OIB.",
		"not_found":            "Not found",
		"invalid_input":        "Invalid input",
		"duplicate":            "Record already exists",
		"portal_login_failed":  "Wrong e-mail or OIB.",
		"unknown_competition":  "Unknown competition",
		"missing_column":       "A required column is missing",
		"bad_request":          "Bad request",
		"internal_error":       "Server error",
		"before_start":         "End is before start",
	},
}

// T returns the message for code in lang, falling back to Croatian and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// DetectLanguage picks the first supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if Supported(base) {
			return base
		}
	}
	return DefaultLang
}

// WithLang stores the language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the language stored in ctx or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && Supported(l) {
		return l
	}
	return DefaultLang
}
