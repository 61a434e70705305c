package handlers

import (
	"net/http"
	"strings"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/services"
	"github.com/hkpodravka/klub/internal/uploads"
)

type ClubHandler struct {
	club  *services.ClubService
	files *uploads.Store
}

func NewClubHandler(club *services.ClubService, files *uploads.Store) *ClubHandler {
	return &ClubHandler{club: club, files: files}
}

// Show renders the club identity and its documents.
func (h *ClubHandler) Show(w http.ResponseWriter, r *http.Request) {
	club, err := h.club.Get()
	if err != nil {
		fail(w, r, err)
		return
	}
	docs, err := h.club.ListDocuments()
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"club": club, "documents": docs})
		return
	}
	render(w, r, "club.html", map[string]any{"Club": club, "Documents": docs})
}

func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.ClubInput
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			fail(w, r, err)
			return
		}
	} else {
		if err := parseForm(r); err != nil {
			fail(w, r, err)
			return
		}
		in = clubFromForm(r)
	}
	club, err := h.club.Update(in)
	if err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusOK, club, "/club")
}

// clubFromForm reads the board lists from repeated board_name/board_phone/
// board_email fields (likewise supervisory_*).
func clubFromForm(r *http.Request) services.ClubInput {
	return services.ClubInput{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		Address:     r.FormValue("address"),
		OIB:         r.FormValue("oib"),
		Web:         r.FormValue("web"),
		IBAN:        r.FormValue("iban"),
		President:   r.FormValue("president"),
		Secretary:   r.FormValue("secretary"),
		Board:       boardFromForm(r, "board"),
		Supervisory: boardFromForm(r, "supervisory"),
		Instagram:   r.FormValue("instagram"),
		Facebook:    r.FormValue("facebook"),
		TikTok:      r.FormValue("tiktok"),
	}
}

func boardFromForm(r *http.Request, prefix string) []models.BoardMember {
	names := r.Form[prefix+"_name"]
	phones := r.Form[prefix+"_phone"]
	emails := r.Form[prefix+"_email"]
	at := func(list []string, i int) string {
		if i < len(list) {
			return strings.TrimSpace(list[i])
		}
		return ""
	}
	out := make([]models.BoardMember, 0, len(names))
	for i, n := range names {
		out = append(out, models.BoardMember{Name: n, Phone: at(phones, i), Email: at(emails, i)})
	}
	return out
}

func (h *ClubHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		fail(w, r, err)
		return
	}
	st, err := stage(h.files, r, "file", uploads.ClubDocs, true)
	if err != nil {
		fail(w, r, err)
		return
	}
	doc, err := h.club.AddDocument(r.FormValue("kind"), st)
	if err != nil {
		fail(w, r, err)
		return
	}
	done(w, r, http.StatusCreated, doc, "/club")
}
