package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/services"
)

type StatsHandler struct {
	reports      *services.ReportService
	competitions *services.CompetitionService
}

func NewStatsHandler(reports *services.ReportService, competitions *services.CompetitionService) *StatsHandler {
	return &StatsHandler{reports: reports, competitions: competitions}
}

// queryList reads a repeated or comma separated query parameter.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func reportFilter(r *http.Request) services.ReportFilter {
	return services.ReportFilter{
		Years:         queryList(r, "year"),
		AgeCategories: queryList(r, "age"),
		Kinds:         queryList(r, "kind"),
	}
}

// Index renders every report for the current filter on one page.
func (h *StatsHandler) Index(w http.ResponseWriter, r *http.Request) {
	f := reportFilter(r)
	perYear, err := h.reports.CompetitionsPerYear(f)
	if err != nil {
		fail(w, r, err)
		return
	}
	cross, err := h.reports.CategoryKindCrossTab(f)
	if err != nil {
		fail(w, r, err)
		return
	}
	medals, err := h.reports.MedalTally(f)
	if err != nil {
		fail(w, r, err)
		return
	}
	fights, err := h.reports.FightTotals(f)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"per_year": perYear,
			"crosstab": cross,
			"medals":   medals,
			"fights":   fights,
		})
		return
	}
	years, err := h.competitions.Years()
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "stats.html", map[string]any{
		"Filter":        f,
		"PerYear":       perYear,
		"CrossTab":      cross,
		"Medals":        medals,
		"Fights":        fights,
		"Years":         years,
		"Kinds":         models.CompetitionKinds,
		"AgeCategories": models.AgeCategories,
	})
}

func (h *StatsHandler) PerYear(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CompetitionsPerYear(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *StatsHandler) PerYearExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CompetitionsPerYear(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "per_year", "natjecanja_po_godinama.xlsx", services.YearCountTable(rows))
}

func (h *StatsHandler) CrossTab(w http.ResponseWriter, r *http.Request) {
	ct, err := h.reports.CategoryKindCrossTab(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ct)
}

func (h *StatsHandler) CrossTabExport(w http.ResponseWriter, r *http.Request) {
	ct, err := h.reports.CategoryKindCrossTab(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "crosstab", "kategorije_vrste.xlsx", ct.Table())
}

func (h *StatsHandler) Medals(w http.ResponseWriter, r *http.Request) {
	tally, err := h.reports.MedalTally(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tally)
}

// MedalsExport downloads one breakdown chosen by ?by=year|age|kind.
func (h *StatsHandler) MedalsExport(w http.ResponseWriter, r *http.Request) {
	tally, err := h.reports.MedalTally(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	rows, sheet, label := tally.ByYear, "Medalje po godinama", "Godina"
	switch r.URL.Query().Get("by") {
	case "", "year":
	case "age":
		rows, sheet, label = tally.ByAgeCategory, "Medalje po kategorijama", "Kategorija"
	case "kind":
		rows, sheet, label = tally.ByKind, "Medalje po vrstama", "Vrsta"
	default:
		fail(w, r, badRequest("invalid breakdown %q", r.URL.Query().Get("by")))
		return
	}
	sendTable(w, r, "medals", "medalje.xlsx", services.MedalTable(sheet, label, rows))
}

func (h *StatsHandler) Fights(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.FightTotals(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *StatsHandler) FightsExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.FightTotals(reportFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "fights", "borbe.xlsx", services.FightTable(rows))
}

// SummaryExport downloads the workbook for one year (?year=, default current).
func (h *StatsHandler) SummaryExport(w http.ResponseWriter, r *http.Request) {
	year := strings.TrimSpace(r.URL.Query().Get("year"))
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}
	if n, err := strconv.Atoi(year); err != nil || n < 1900 || n > 9999 {
		fail(w, r, badRequest("invalid year %q", year))
		return
	}
	t, err := h.reports.YearSummary(year)
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "year_summary", "izvjestaj_"+year+".xlsx", t)
}
