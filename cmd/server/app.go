package main

import (
	"context"
	"net/http"

	"github.com/hkpodravka/klub/auth"
	"github.com/hkpodravka/klub/i18n"
	"github.com/hkpodravka/klub/internal/config"
	"github.com/hkpodravka/klub/internal/handlers"
	"github.com/hkpodravka/klub/internal/metrics"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/pdf"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux         *http.ServeMux
	db          *gorm.DB
	defaultLang string

	dashboard     *handlers.DashboardHandler
	files         *handlers.FileHandler
	club          *handlers.ClubHandler
	groups        *handlers.GroupHandler
	members       *handlers.MemberHandler
	coaches       *handlers.CoachHandler
	competitions  *handlers.CompetitionHandler
	stats         *handlers.StatsHandler
	communication *handlers.CommunicationHandler
	attendance    *handlers.AttendanceHandler
	portal        *handlers.PortalHandler
}

// NewApp wires services and handlers over db and the uploads store.
func NewApp(db *gorm.DB, cfg *config.Config, store *uploads.Store, log *logrus.Logger) *App {
	clubSvc := services.NewClubService(db)
	groupSvc := services.NewGroupService(db)
	memberSvc := services.NewMemberService(db, store, log)
	coachSvc := services.NewCoachService(db, store, log)
	competitionSvc := services.NewCompetitionService(db, store, log)
	resultSvc := services.NewResultService(db)
	reportSvc := services.NewReportService(db)
	attendanceSvc := services.NewAttendanceService(db)
	commSvc := services.NewCommunicationService(db, memberSvc)
	portalSvc := services.NewPortalService(memberSvc)
	importer := services.NewImporter(db, log)
	forms := pdf.NewGenerator(cfg.PDF.FontPath, log)

	auth.SetMemberVerifier(func(ctx context.Context, id uint) bool {
		var n int64
		db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).Count(&n)
		return n > 0
	})

	app := &App{
		mux:         http.NewServeMux(),
		db:          db,
		defaultLang: cfg.App.DefaultLang,

		dashboard:     handlers.NewDashboardHandler(db, clubSvc, reportSvc),
		files:         handlers.NewFileHandler(store),
		club:          handlers.NewClubHandler(clubSvc, store),
		groups:        handlers.NewGroupHandler(groupSvc, memberSvc),
		members:       handlers.NewMemberHandler(memberSvc, groupSvc, importer, reportSvc, clubSvc, store, forms),
		coaches:       handlers.NewCoachHandler(coachSvc, groupSvc, store),
		competitions:  handlers.NewCompetitionHandler(competitionSvc, resultSvc, memberSvc, importer, store),
		stats:         handlers.NewStatsHandler(reportSvc, competitionSvc),
		communication: handlers.NewCommunicationHandler(commSvc, memberSvc, groupSvc),
		attendance:    handlers.NewAttendanceHandler(attendanceSvc, memberSvc, coachSvc, groupSvc),
		portal:        handlers.NewPortalHandler(portalSvc, memberSvc, store),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// portal session + language preference
	handler := auth.Middleware(a.withPreferences(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Health and metrics
	a.mux.HandleFunc("GET /health", a.dashboard.Health)
	a.mux.HandleFunc("GET /healthz", a.dashboard.Health)
	a.mux.Handle("GET /metrics", metrics.Handler())

	a.mux.HandleFunc("GET /{$}", a.dashboard.Index)

	// Club
	a.mux.HandleFunc("GET /club", a.club.Show)
	a.mux.HandleFunc("POST /club", a.club.Update)
	a.mux.HandleFunc("POST /club/documents", a.club.UploadDocument)

	// Groups
	a.mux.HandleFunc("GET /groups", a.groups.List)
	a.mux.HandleFunc("POST /groups", a.groups.Create)
	a.mux.HandleFunc("POST /groups/{id}/delete", a.groups.Delete)

	// Members
	mh := a.members
	a.mux.HandleFunc("GET /members", mh.List)
	a.mux.HandleFunc("GET /members/new", mh.New)
	a.mux.HandleFunc("POST /members", mh.Create)
	a.mux.HandleFunc("POST /members/import", mh.Import)
	a.mux.HandleFunc("GET /members/export.xlsx", mh.Export)
	a.mux.HandleFunc("GET /members/template.xlsx", mh.Template)
	a.mux.HandleFunc("GET /members/{id}", mh.Show)
	a.mux.HandleFunc("POST /members/{id}", mh.Update)
	a.mux.HandleFunc("POST /members/{id}/delete", mh.Delete)
	a.mux.HandleFunc("POST /members/{id}/group", a.groups.Assign)
	a.mux.HandleFunc("POST /members/{id}/documents/{doc}", mh.UploadDocument)
	a.mux.HandleFunc("POST /members/{id}/medical", mh.Medical)
	a.mux.HandleFunc("GET /members/{id}/results", mh.Results)
	a.mux.HandleFunc("GET /members/{id}/results.xlsx", mh.ResultsExport)
	a.mux.HandleFunc("GET /members/{id}/membership-form.pdf", mh.MembershipForm)
	a.mux.HandleFunc("GET /members/{id}/attendance", a.attendance.MemberSessions)

	// Coaches
	ch := a.coaches
	a.mux.HandleFunc("GET /coaches", ch.List)
	a.mux.HandleFunc("POST /coaches", ch.Create)
	a.mux.HandleFunc("GET /coaches/export.xlsx", ch.Export)
	a.mux.HandleFunc("GET /coaches/{id}", ch.Show)
	a.mux.HandleFunc("POST /coaches/{id}", ch.Update)
	a.mux.HandleFunc("POST /coaches/{id}/delete", ch.Delete)
	a.mux.HandleFunc("POST /coaches/{id}/documents/{doc}", ch.UploadDocument)

	// Competitions and results
	cp := a.competitions
	a.mux.HandleFunc("GET /competitions", cp.List)
	a.mux.HandleFunc("POST /competitions", cp.Create)
	a.mux.HandleFunc("GET /competitions/export.xlsx", cp.Export)
	a.mux.HandleFunc("GET /competitions/{id}", cp.Show)
	a.mux.HandleFunc("POST /competitions/{id}/delete", cp.Delete)
	a.mux.HandleFunc("POST /competitions/{id}/gallery", cp.AddImage)
	a.mux.HandleFunc("POST /competitions/{id}/results", cp.AddResult)
	a.mux.HandleFunc("GET /competitions/{id}/results.xlsx", cp.ExportResults)
	a.mux.HandleFunc("POST /results/{id}/delete", cp.DeleteResult)
	a.mux.HandleFunc("POST /results/import", cp.ImportResults)
	a.mux.HandleFunc("GET /results/template.xlsx", cp.ResultsTemplate)

	// Statistics
	sh := a.stats
	a.mux.HandleFunc("GET /stats", sh.Index)
	a.mux.HandleFunc("GET /stats/per-year", sh.PerYear)
	a.mux.HandleFunc("GET /stats/per-year.xlsx", sh.PerYearExport)
	a.mux.HandleFunc("GET /stats/crosstab", sh.CrossTab)
	a.mux.HandleFunc("GET /stats/crosstab.xlsx", sh.CrossTabExport)
	a.mux.HandleFunc("GET /stats/medals", sh.Medals)
	a.mux.HandleFunc("GET /stats/medals.xlsx", sh.MedalsExport)
	a.mux.HandleFunc("GET /stats/fights", sh.Fights)
	a.mux.HandleFunc("GET /stats/fights.xlsx", sh.FightsExport)
	a.mux.HandleFunc("GET /stats/summary.xlsx", sh.SummaryExport)

	// Veterans and communication
	a.mux.HandleFunc("GET /veterans", a.communication.Veterans)
	a.mux.HandleFunc("GET /communication", a.communication.Index)
	a.mux.HandleFunc("POST /communication/compose", a.communication.Compose)
	a.mux.HandleFunc("GET /communication/recipients.xlsx", a.communication.RecipientsExport)

	// Attendance
	at := a.attendance
	a.mux.HandleFunc("GET /attendance", at.Index)
	a.mux.HandleFunc("POST /attendance/coach", at.RecordCoachSession)
	a.mux.HandleFunc("POST /attendance/members", at.RecordMemberSessions)
	a.mux.HandleFunc("POST /attendance/camp", at.RecordCamp)
	a.mux.HandleFunc("GET /attendance/coach-minutes", at.CoachMinutes)
	a.mux.HandleFunc("GET /attendance/report", at.MemberReport)

	// Parent portal
	a.mux.HandleFunc("GET /portal", a.portal.Show)
	a.mux.HandleFunc("POST /portal/login", a.portal.Login)
	a.mux.HandleFunc("POST /portal/logout", a.portal.Logout)
	a.mux.Handle("POST /portal/documents", auth.RequireMember(http.HandlerFunc(a.portal.UploadDocuments)))

	// Files
	a.mux.HandleFunc("GET /files/{path...}", a.files.Serve)
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
}

// withPreferences picks the UI language from ?lang=, the lang cookie or
// Accept-Language, in that order.
func (a *App) withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := a.defaultLang
		if h := r.Header.Get("Accept-Language"); h != "" {
			lang = i18n.DetectLanguage(h)
		}
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
