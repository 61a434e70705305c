package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/uploads"
	"gorm.io/gorm"
)

// DashboardHandler serves the landing page and the health probes.
type DashboardHandler struct {
	db      *gorm.DB
	club    *services.ClubService
	reports *services.ReportService
}

func NewDashboardHandler(db *gorm.DB, club *services.ClubService, reports *services.ReportService) *DashboardHandler {
	return &DashboardHandler{db: db, club: club, reports: reports}
}

type dashboardStats struct {
	Members         int64               `json:"members"`
	Active          int64               `json:"active"`
	Veterans        int64               `json:"veterans"`
	Coaches         int64               `json:"coaches"`
	Competitions    int64               `json:"competitions_this_year"`
	Medals          []services.MedalRow `json:"medals_this_year"`
	MedicalExpiring []models.Member     `json:"medical_expiring"`
}

func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	year := strconv.Itoa(time.Now().Year())
	var st dashboardStats
	h.db.Model(&models.Member{}).Count(&st.Members)
	h.db.Model(&models.Member{}).Where("active_competitor = ?", true).Count(&st.Active)
	h.db.Model(&models.Member{}).Where("veteran = ?", true).Count(&st.Veterans)
	h.db.Model(&models.Coach{}).Count(&st.Coaches)
	h.db.Model(&models.Competition{}).Where("substr(date_from, 1, 4) = ?", year).Count(&st.Competitions)

	tally, err := h.reports.MedalTally(services.ReportFilter{Years: []string{year}})
	if err != nil {
		fail(w, r, err)
		return
	}
	st.Medals = tally.ByYear

	// certificates expiring within 30 days, including already expired ones
	limit := time.Now().AddDate(0, 0, 30).Format(models.DateLayout)
	st.MedicalExpiring = []models.Member{}
	h.db.Where("medical_valid_until <> '' AND medical_valid_until <= ?", limit).
		Order("medical_valid_until").Limit(20).Find(&st.MedicalExpiring)

	club, err := h.club.Get()
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"club": club, "stats": st})
		return
	}
	render(w, r, "index.html", map[string]any{"Club": club, "Stats": st, "CurrentYear": year})
}

// Health reports whether the database answers.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// FileHandler serves stored uploads by their relative path.
type FileHandler struct {
	files *uploads.Store
}

func NewFileHandler(files *uploads.Store) *FileHandler {
	return &FileHandler{files: files}
}

func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	f, err := h.files.Open(r.PathValue("path"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}
