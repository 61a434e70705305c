package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/metrics"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/pdf"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/uploads"
)

type MemberHandler struct {
	members  *services.MemberService
	groups   *services.GroupService
	importer *services.Importer
	reports  *services.ReportService
	club     *services.ClubService
	files    *uploads.Store
	forms    *pdf.Generator
}

func NewMemberHandler(
	members *services.MemberService,
	groups *services.GroupService,
	importer *services.Importer,
	reports *services.ReportService,
	club *services.ClubService,
	files *uploads.Store,
	forms *pdf.Generator,
) *MemberHandler {
	return &MemberHandler{
		members:  members,
		groups:   groups,
		importer: importer,
		reports:  reports,
		club:     club,
		files:    files,
		forms:    forms,
	}
}

func memberFilter(r *http.Request) services.MemberFilter {
	q := r.URL.Query()
	return services.MemberFilter{
		Query:        q.Get("q"),
		GroupID:      queryUint(r, "group_id"),
		ActiveOnly:   q.Get("active") == "1",
		VeteransOnly: q.Get("veterans") == "1",
	}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	f := memberFilter(r)
	members, err := h.members.List(f)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, members)
		return
	}
	groups, err := h.groups.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "members/index.html", map[string]any{
		"Members": members,
		"Groups":  groups,
		"Filter":  f,
		"Today":   time.Now(),
	})
}

// Show renders the member card: data, documents and competition history.
func (h *MemberHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	m, err := h.members.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, m)
		return
	}
	history, err := h.reports.AthleteHistory(id, "")
	if err != nil {
		fail(w, r, err)
		return
	}
	groups, err := h.groups.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	days, hasMedical := m.DaysUntilMedicalExpiry(time.Now())
	render(w, r, "members/show.html", map[string]any{
		"Member":      m,
		"History":     history,
		"Groups":      groups,
		"MedicalDays": days,
		"HasMedical":  hasMedical,
	})
}

func (h *MemberHandler) New(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "members/form.html", map[string]any{
		"Member": &models.Member{FeeAmount: models.DefaultFeeAmount},
		"Groups": groups,
	})
}

// memberInput reads a member from a JSON body or from form fields.
func memberInput(r *http.Request) (*models.Member, error) {
	m := &models.Member{FeeAmount: models.DefaultFeeAmount}
	if isJSONBody(r) {
		return m, decodeJSON(r, m)
	}
	if err := parseForm(r); err != nil {
		return nil, err
	}
	m.FirstName = r.FormValue("first_name")
	m.LastName = r.FormValue("last_name")
	m.DOB = r.FormValue("dob")
	m.Gender = r.FormValue("gender")
	if oib := strings.TrimSpace(r.FormValue("oib")); oib != "" {
		m.OIB = &oib
	}
	m.Street = r.FormValue("street")
	m.City = r.FormValue("city")
	m.PostalCode = r.FormValue("postal_code")
	m.AthleteEmail = r.FormValue("athlete_email")
	m.ParentEmail = r.FormValue("parent_email")
	m.IDCardNumber = r.FormValue("id_card_number")
	m.IDCardIssuer = r.FormValue("id_card_issuer")
	m.IDCardValidUntil = r.FormValue("id_card_valid_until")
	m.PassportNumber = r.FormValue("passport_number")
	m.PassportIssuer = r.FormValue("passport_issuer")
	m.PassportValidUntil = r.FormValue("passport_valid_until")
	m.ActiveCompetitor = formBool(r, "active_competitor")
	m.Veteran = formBool(r, "veteran")
	m.OtherFlag = formBool(r, "other_flag")
	m.PaysFee = formBool(r, "pays_fee")
	m.FeeAmount = formFloat(r, "fee_amount", models.DefaultFeeAmount)
	m.GroupID = formUint(r, "group_id")
	m.MedicalValidUntil = r.FormValue("medical_valid_until")
	return m, nil
}

// Create inserts a member, or updates the one with the same OIB.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	m, err := memberInput(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var photo *uploads.Staged
	if !isJSONBody(r) {
		if photo, err = stage(h.files, r, "photo", uploads.MemberPhotos, false); err != nil {
			fail(w, r, err)
			return
		}
	}
	if err := h.members.Save(m, photo); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, m, "/members/"+itoa(m.ID))
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	m, err := memberInput(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.members.Update(id, m); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, m, "/members/"+itoa(id))
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.members.Delete(id); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, "/members")
}

// Import upserts the uploaded roster. Row failures do not fail the request;
// they are listed in the report.
func (h *MemberHandler) Import(w http.ResponseWriter, r *http.Request) {
	importSheet(w, r, h.importer.ImportMembers, "/members")
}

func (h *MemberHandler) Export(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(memberFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "members", "clanovi.xlsx", services.MemberTable(members))
}

func (h *MemberHandler) Template(w http.ResponseWriter, r *http.Request) {
	sendTable(w, r, "members_template", "clanovi_predlozak.xlsx", services.MemberTemplate())
}

// UploadDocument stores a photo, application or consent form.
func (h *MemberHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	doc := services.MemberDoc(r.PathValue("doc"))
	if err := parseForm(r); err != nil {
		fail(w, r, err)
		return
	}
	st, err := stage(h.files, r, "file", doc.Partition(), true)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.members.SetDocument(id, doc, st); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"member_id": id, "doc": doc, "path": st.Path}, "/members/"+itoa(id))
}

// Medical records the certificate expiry and optionally its scan.
func (h *MemberHandler) Medical(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := parseForm(r); err != nil {
		fail(w, r, err)
		return
	}
	st, err := stage(h.files, r, "file", uploads.MemberMedical, false)
	if err != nil {
		fail(w, r, err)
		return
	}
	validUntil := r.FormValue("medical_valid_until")
	if err := h.members.SetMedical(id, validUntil, st); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"member_id": id, "medical_valid_until": validUntil}, "/members/"+itoa(id))
}

// Results lists the member's competition history, optionally for one year.
func (h *MemberHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	m, err := h.members.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	year := r.URL.Query().Get("year")
	rows, err := h.reports.AthleteHistory(id, year)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, rows)
		return
	}
	render(w, r, "members/results.html", map[string]any{"Member": m, "History": rows, "SelectedYear": year})
}

func (h *MemberHandler) ResultsExport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	m, err := h.members.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	rows, err := h.reports.AthleteHistory(id, r.URL.Query().Get("year"))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "athlete_history", "rezultati_"+itoa(id)+".xlsx", services.HistoryTable(m.FullName(), rows))
}

// MembershipForm renders the printable membership application.
func (h *MemberHandler) MembershipForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	m, err := h.members.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	club, err := h.club.Get()
	if err != nil {
		fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	err = h.forms.MembershipForm(&buf,
		pdf.Club{Name: club.Name, Address: club.Address, OIB: club.OIB, IBAN: club.IBAN, Email: club.Email, Web: club.Web},
		pdf.Applicant{
			FullName:     m.FullName(),
			DOB:          m.DOB,
			OIB:          m.OIBValue(),
			Address:      m.Address(),
			AthleteEmail: m.AthleteEmail,
			ParentEmail:  m.ParentEmail,
			Group:        m.GroupName(),
		})
	if err != nil {
		fail(w, r, err)
		return
	}
	metrics.Exports.WithLabelValues("membership_form").Inc()
	httpx.Attachment(w, "application/pdf", "pristupnica_"+itoa(id)+".pdf", buf.Bytes())
}
