package services

import (
	"net/url"
	"strings"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/spreadsheet"
	"github.com/hkpodravka/klub/validation"
	"gorm.io/gorm"
)

// RecipientFilter selects who receives a message. Explicit ids restrict the
// selection further.
type RecipientFilter struct {
	ActiveOnly   bool   `json:"active_only"`
	VeteransOnly bool   `json:"veterans_only"`
	GroupID      uint   `json:"group_id"`
	MemberIDs    []uint `json:"member_ids"`
}

// Recipients is the selected members and their distinct e-mail addresses.
type Recipients struct {
	Members []models.Member `json:"members"`
	Emails  []string        `json:"emails"`
}

type CommunicationService struct {
	DB      *gorm.DB
	Members *MemberService
}

func NewCommunicationService(db *gorm.DB, members *MemberService) *CommunicationService {
	return &CommunicationService{DB: db, Members: members}
}

// Recipients resolves f to members and de-duplicated addresses (athlete and
// guardian, compared case-insensitively, in member order).
func (s *CommunicationService) Recipients(f RecipientFilter) (*Recipients, error) {
	members, err := s.Members.List(MemberFilter{
		ActiveOnly:   f.ActiveOnly,
		VeteransOnly: f.VeteransOnly,
		GroupID:      f.GroupID,
		IDs:          f.MemberIDs,
	})
	if err != nil {
		return nil, err
	}
	out := &Recipients{Members: members, Emails: []string{}}
	seen := map[string]bool{}
	for i := range members {
		for _, e := range members[i].Emails() {
			key := strings.ToLower(e)
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Emails = append(out.Emails, e)
		}
	}
	return out, nil
}

// Table renders the recipients as a spreadsheet.
func (r *Recipients) Table() *spreadsheet.Table {
	t := &spreadsheet.Table{
		Sheet:   "Primatelji",
		Columns: []string{"ime", "prezime", "email_sportasa", "email_roditelja", "grupa"},
		Rows:    make([][]any, 0, len(r.Members)),
	}
	for i := range r.Members {
		m := &r.Members[i]
		t.Rows = append(t.Rows, []any{m.FirstName, m.LastName, m.AthleteEmail, m.ParentEmail, m.GroupName()})
	}
	return t
}

// MailtoLink builds a mailto: URL addressing everyone in bcc.
func MailtoLink(emails []string, subject, body string) string {
	params := make([]string, 0, 3)
	if len(emails) > 0 {
		params = append(params, "bcc="+mailtoEscape(strings.Join(emails, ",")))
	}
	if subject != "" {
		params = append(params, "subject="+mailtoEscape(subject))
	}
	if body != "" {
		params = append(params, "body="+mailtoEscape(body))
	}
	link := "mailto:"
	if len(params) > 0 {
		link += "?" + strings.Join(params, "&")
	}
	return link
}

// mailtoEscape percent-encodes s; mail clients do not decode '+' as a space.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WhatsAppLink builds a wa.me share link. Without a phone number the user
// picks the chat in WhatsApp.
func WhatsAppLink(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return "https://wa.me/" + digits + "?text=" + mailtoEscape(text)
}

// Log records a sent message.
func (s *CommunicationService) Log(subject, body string, recipients []string) (*models.CommLog, error) {
	entry := models.CommLog{
		Subject:    strings.TrimSpace(subject),
		Body:       strings.TrimSpace(body),
		Recipients: recipients,
	}
	v := make(validation.Violations)
	validation.Required("subject", entry.Subject, v)
	if len(recipients) == 0 {
		v["recipients"] = "required"
	}
	if err := invalid(v); err != nil {
		return nil, err
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// History returns the most recent log entries, newest first.
func (s *CommunicationService) History(limit int) ([]models.CommLog, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []models.CommLog{}
	err := s.DB.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}
