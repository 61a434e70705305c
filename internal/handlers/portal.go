package handlers

import (
	"errors"
	"net/http"

	"github.com/hkpodravka/klub/auth"
	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/uploads"
)

// PortalHandler serves the parent portal, where guardians look up their
// child by e-mail and OIB and hand in documents.
type PortalHandler struct {
	portal  *services.PortalService
	members *services.MemberService
	files   *uploads.Store
}

func NewPortalHandler(portal *services.PortalService, members *services.MemberService, files *uploads.Store) *PortalHandler {
	return &PortalHandler{portal: portal, members: members, files: files}
}

// Show renders the login form, or the member's document page when a session
// exists.
func (h *PortalHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.MemberIDFromContext(r.Context())
	if !ok {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		render(w, r, "portal.html", map[string]any{"Email": ""})
		return
	}
	m, err := h.members.Get(id)
	if err != nil {
		auth.ClearSession(w)
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, m)
		return
	}
	render(w, r, "portal.html", map[string]any{"Member": m})
}

func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		OIB   string `json:"oib"`
	}
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			fail(w, r, err)
			return
		}
	} else {
		in.Email, in.OIB = r.FormValue("email"), r.FormValue("oib")
	}
	m, err := h.portal.Login(in.Email, in.OIB)
	if err != nil {
		if !httpx.WantsJSON(r) && errors.Is(err, services.ErrPortalLogin) {
			w.WriteHeader(http.StatusUnauthorized)
			render(w, r, "portal.html", map[string]any{"LoginFailed": true, "Email": in.Email})
			return
		}
		fail(w, r, err)
		return
	}
	auth.CreateSession(w, m.ID)
	done(w, r, http.StatusOK, map[string]any{"member_id": m.ID, "name": m.FullName()}, "/portal")
}

func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	done(w, r, http.StatusOK, map[string]any{"logged_out": true}, "/portal")
}

// UploadDocuments takes the application, consent and medical certificate in
// one submission. Either all given files are stored or none.
func (h *PortalHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.MemberIDFromContext(r.Context())
	if err := parseForm(r); err != nil {
		fail(w, r, err)
		return
	}
	var docs services.PortalDocuments
	discard := func() {
		for _, st := range []*uploads.Staged{docs.Application, docs.Consent, docs.Medical} {
			st.Discard()
		}
	}
	var err error
	if docs.Application, err = stage(h.files, r, "application", uploads.MemberForms, false); err != nil {
		fail(w, r, err)
		return
	}
	if docs.Consent, err = stage(h.files, r, "consent", uploads.MemberForms, false); err != nil {
		discard()
		fail(w, r, err)
		return
	}
	if docs.Medical, err = stage(h.files, r, "medical", uploads.MemberMedical, false); err != nil {
		discard()
		fail(w, r, err)
		return
	}
	docs.MedicalValidUntil = r.FormValue("medical_valid_until")
	if err := h.portal.UploadDocuments(id, docs); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"member_id": id, "uploaded": true}, "/portal")
}
