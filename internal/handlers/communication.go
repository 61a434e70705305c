package handlers

import (
	"net/http"

	"github.com/hkpodravka/klub/httpx"
	"github.com/hkpodravka/klub/internal/services"
)

type CommunicationHandler struct {
	comms   *services.CommunicationService
	members *services.MemberService
	groups  *services.GroupService
}

func NewCommunicationHandler(comms *services.CommunicationService, members *services.MemberService, groups *services.GroupService) *CommunicationHandler {
	return &CommunicationHandler{comms: comms, members: members, groups: groups}
}

// Veterans lists members flagged as veterans.
func (h *CommunicationHandler) Veterans(w http.ResponseWriter, r *http.Request) {
	vets, err := h.members.Veterans()
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, vets)
		return
	}
	render(w, r, "veterans.html", map[string]any{"Members": vets})
}

func (h *CommunicationHandler) Index(w http.ResponseWriter, r *http.Request) {
	history, err := h.comms.History(50)
	if err != nil {
		fail(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, history)
		return
	}
	groups, err := h.groups.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	members, err := h.members.List(services.MemberFilter{})
	if err != nil {
		fail(w, r, err)
		return
	}
	render(w, r, "communication.html", map[string]any{
		"History": history,
		"Groups":  groups,
		"Members": members,
	})
}

type composeInput struct {
	services.RecipientFilter
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Phone   string `json:"phone"`
}

type composeResult struct {
	Recipients int      `json:"recipients"`
	Emails     []string `json:"emails"`
	Mailto     string   `json:"mailto"`
	WhatsApp   string   `json:"whatsapp"`
	LogID      uint     `json:"log_id"`
}

func recipientFilter(r *http.Request) services.RecipientFilter {
	return services.RecipientFilter{
		ActiveOnly:   formBool(r, "active_only"),
		VeteransOnly: formBool(r, "veterans_only"),
		GroupID:      formID(r, "group_id"),
		MemberIDs:    formIDs(r, "member_ids"),
	}
}

func formID(r *http.Request, key string) uint {
	if id := formUint(r, key); id != nil {
		return *id
	}
	return 0
}

// Compose resolves the recipients, records the message and returns the
// mailto and WhatsApp links the browser opens. Nothing is sent server-side.
func (h *CommunicationHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var in composeInput
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
		in.RecipientFilter = recipientFilter(r)
		in.Subject, in.Body, in.Phone = r.FormValue("subject"), r.FormValue("body"), r.FormValue("phone")
	}
	rcpt, err := h.comms.Recipients(in.RecipientFilter)
	if err != nil {
		fail(w, r, err)
		return
	}
	entry, err := h.comms.Log(in.Subject, in.Body, rcpt.Emails)
	if err != nil {
		fail(w, r, err)
		return
	}
	text := in.Subject
	if in.Body != "" {
		text += "\n\n" + in.Body
	}
	res := composeResult{
		Recipients: len(rcpt.Members),
		Emails:     rcpt.Emails,
		Mailto:     services.MailtoLink(rcpt.Emails, in.Subject, in.Body),
		WhatsApp:   services.WhatsAppLink(in.Phone, text),
		LogID:      entry.ID,
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, res)
		return
	}
	render(w, r, "compose.html", map[string]any{"Result": res, "Subject": in.Subject})
}

// RecipientsExport downloads the selected recipients as a spreadsheet.
func (h *CommunicationHandler) RecipientsExport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fail(w, r, badRequest("invalid query: %v", err))
		return
	}
	rcpt, err := h.comms.Recipients(recipientFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	sendTable(w, r, "recipients", "primatelji.xlsx", rcpt.Table())
}
