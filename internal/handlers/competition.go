package handlers

import (
	"net/http"
	"strings"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/uploads"
)

type CompetitionHandler struct {
	competitions *services.CompetitionService
	results      *services.ResultService
	members      *services.MemberService
	importer     *services.Importer
	files        *uploads.Store
}

func NewCompetitionHandler(
	competitions *services.CompetitionService,
	results *services.ResultService,
	members *services.MemberService,
	importer *services.Importer,
	files *uploads.Store,
) *CompetitionHandler {
	return &CompetitionHandler{
		competitions: competitions,
		results:      results,
		members:      members,
		importer:     importer,
		files:        files,
	}
}

// List shows competitions, optionally for one year (?year=2024).
func (h *CompetitionHandler) List(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("year")
	list, err := h.competitions.List(year)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	years, err := h.competitions.Years()
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "competitions/index.html", map[string]any{
		"Competitions":  list,
		"Years":         years,
		"SelectedYear":  year,
		"Kinds":         models.CompetitionKinds,
		"Styles":        models.Styles,
		"AgeCategories": models.AgeCategories,
	})
}

func (h *CompetitionHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.competitions.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	members, err := h.members.List(services.MemberFilter{})
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "competitions/show.html", map[string]any{
		"Competition": c,
		"Members":     members,
		"Styles":      models.Styles,
	})
}

// splitList reads a comma or newline separated list.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func competitionInput(r *http.Request) (*models.Competition, error) {
	c := &models.Competition{}
	if isJSONBody(r) {
		return c, decodeJSON(r, c)
	}
	if err := parseForm(r); err != nil {
		return nil, err
	}
	c.Kind = r.FormValue("kind")
	c.KindOther = r.FormValue("kind_other")
	c.Name = r.FormValue("name")
	c.DateFrom = r.FormValue("date_from")
	c.DateTo = r.FormValue("date_to")
	c.Place = r.FormValue("place")
	c.Style = r.FormValue("style")
	c.AgeCategory = r.FormValue("age_category")
	c.Country = r.FormValue("country")
	c.CountryISO3 = r.FormValue("country_iso3")
	c.TeamRank = formInt(r, "team_rank")
	c.ClubCompetitors = formInt(r, "club_competitors")
	c.TotalCompetitors = formInt(r, "total_competitors")
	c.ClubsCount = formInt(r, "clubs_count")
	c.CountriesCount = formInt(r, "countries_count")
	c.Coaches = splitList(r.FormValue("coaches"))
	c.Notes = r.FormValue("notes")
	c.BulletinURL = r.FormValue("bulletin_url")
	c.WebsiteLink = r.FormValue("website_link")
	return c, nil
}

func (h *CompetitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := competitionInput(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.competitions.Create(c); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, c, "/competitions/"+itoa(c.ID))
}

// Delete removes the competition and every result recorded for it.
func (h *CompetitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.competitions.Delete(id); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, "/competitions")
}

func (h *CompetitionHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := parseForm(r); err != nil {
		fail(w, r, err)
		return
	}
	st, err := stage(h.files, r, "file", uploads.CompetitionImages, true)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.competitions.AddGalleryImage(id, st); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, map[string]any{"competition_id": id, "path": st.Path}, "/competitions/"+itoa(id))
}

func resultInput(r *http.Request, competitionID uint) (*models.Result, error) {
	res := &models.Result{}
	if isJSONBody(r) {
		if err := decodeJSON(r, res); err != nil {
			return nil, err
		}
		res.CompetitionID = competitionID
		return res, nil
	}
	if err := parseForm(r); err != nil {
		return nil, err
	}
	res.CompetitionID = competitionID
	res.MemberID = formUint(r, "member_id")
	res.Category = r.FormValue("category")
	res.Style = r.FormValue("style")
	res.FightsTotal = formInt(r, "fights_total")
	res.Wins = formInt(r, "wins")
	res.Losses = formInt(r, "losses")
	res.Placement = formInt(r, "placement")
	res.WinsOver = models.ParseOpponents(r.FormValue("wins_over"))
	res.LossesTo = models.ParseOpponents(r.FormValue("losses_to"))
	res.Note = r.FormValue("note")
	return res, nil
}

// AddResult records a result; a second entry for the same member updates it.
func (h *CompetitionHandler) AddResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := resultInput(r, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.results.Save(res); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, res, "/competitions/"+itoa(id))
}

func (h *CompetitionHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.results.Delete(id); err != nil {
		fail(w, r, err)
		return
	}
	back := "/competitions"
	if cid := r.FormValue("competition_id"); cid != "" {
		back += "/" + cid
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, back)
}

func (h *CompetitionHandler) ImportResults(w http.ResponseWriter, r *http.Request) {
	importSheet(w, r, h.importer.ImportResults, "/competitions")
}

func (h *CompetitionHandler) ResultsTemplate(w http.ResponseWriter, r *http.Request) {
	sendTable(w, r, "results_template", "rezultati_predlozak.xlsx", services.ResultTemplate())
}

func (h *CompetitionHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.competitions.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "results", "rezultati_"+itoa(id)+".xlsx", services.ResultTable(c))
}

func (h *CompetitionHandler) Export(w http.ResponseWriter, r *http.Request) {
	list, err := h.competitions.List(r.URL.Query().Get("year"))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "competitions", "natjecanja.xlsx", services.CompetitionTable(list))
}
