package handlers

import (
	"net/http"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/uploads"
)

type CoachHandler struct {
	coaches *services.CoachService
	groups  *services.GroupService
	files   *uploads.Store
}

func NewCoachHandler(coaches *services.CoachService, groups *services.GroupService, files *uploads.Store) *CoachHandler {
	return &CoachHandler{coaches: coaches, groups: groups, files: files}
}

func (h *CoachHandler) List(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.coaches.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, coaches)
		return
	}
	groups, err := h.groups.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "coaches/index.html", map[string]any{"Coaches": coaches, "Groups": groups})
}

func (h *CoachHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.coaches.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	groups, err := h.groups.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "coaches/show.html", map[string]any{"Coach": c, "Groups": groups})
}

func coachInput(r *http.Request) (*models.Coach, error) {
	c := &models.Coach{}
	if isJSONBody(r) {
		return c, decodeJSON(r, c)
	}
	if err := parseForm(r); err != nil {
		return nil, err
	}
	c.FirstName = r.FormValue("first_name")
	c.LastName = r.FormValue("last_name")
	c.DOB = r.FormValue("dob")
	c.OIB = r.FormValue("oib")
	c.Email = r.FormValue("email")
	c.IBAN = r.FormValue("iban")
	c.GroupID = formUint(r, "group_id")
	return c, nil
}

func (h *CoachHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := coachInput(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.coaches.Create(c); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, c, "/coaches/"+itoa(c.ID))
}

func (h *CoachHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := coachInput(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.coaches.Update(id, c); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, c, "/coaches/"+itoa(id))
}

func (h *CoachHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.coaches.Delete(id); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, "/coaches")
}

// UploadDocument stores a contract, photo or additional document.
func (h *CoachHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := parseForm(r); err != nil {
		fail(w, r, err)
		return
	}
	doc := services.CoachDoc(r.PathValue("doc"))
	st, err := stage(h.files, r, "file", doc.Partition(), true)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.coaches.SetDocument(id, doc, st); err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"coach_id": id, "doc": doc, "path": st.Path}, "/coaches/"+itoa(id))
}

func (h *CoachHandler) Export(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.coaches.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "coaches", "treneri.xlsx", services.CoachTable(coaches))
}
