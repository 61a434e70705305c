package models

import (
	"strings"
	"time"
)

// DateLayout is the canonical storage format of calendar dates.
const DateLayout = "2006-01-02"

// DefaultFeeAmount is the monthly membership fee (EUR) applied when none is given.
const DefaultFeeAmount = 30.0

// Member is a club member (athlete, veteran or other). OIB is the natural key
// used by spreadsheet imports; it is unique when present.
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Identity
	FirstName string  `gorm:"size:100;not null" json:"first_name"`
	LastName  string  `gorm:"size:100;not null" json:"last_name"`
	DOB       string  `gorm:"column:dob;size:10" json:"dob,omitempty"`
	Gender    string  `gorm:"size:2" json:"gender,omitempty"`
	OIB       *string `gorm:"column:oib;size:11;uniqueIndex" json:"oib,omitempty"`

	// Contact
	Street       string `gorm:"size:255" json:"street,omitempty"`
	City         string `gorm:"size:100" json:"city,omitempty"`
	PostalCode   string `gorm:"size:10" json:"postal_code,omitempty"`
	AthleteEmail string `gorm:"size:255" json:"athlete_email,omitempty"`
	ParentEmail  string `gorm:"size:255" json:"parent_email,omitempty"`

	// Identity documents
	IDCardNumber       string `gorm:"column:id_card_number;size:50" json:"id_card_number,omitempty"`
	IDCardIssuer       string `gorm:"column:id_card_issuer;size:100" json:"id_card_issuer,omitempty"`
	IDCardValidUntil   string `gorm:"column:id_card_valid_until;size:10" json:"id_card_valid_until,omitempty"`
	PassportNumber     string `gorm:"size:50" json:"passport_number,omitempty"`
	PassportIssuer     string `gorm:"size:100" json:"passport_issuer,omitempty"`
	PassportValidUntil string `gorm:"size:10" json:"passport_valid_until,omitempty"`

	// Status and fee
	ActiveCompetitor bool    `gorm:"not null;default:false" json:"active_competitor"`
	Veteran          bool    `gorm:"not null;default:false" json:"veteran"`
	OtherFlag        bool    `gorm:"not null;default:false" json:"other_flag"`
	PaysFee          bool    `gorm:"not null;default:false" json:"pays_fee"`
	FeeAmount        float64 `gorm:"not null" json:"fee_amount"`

	GroupID *uint  `gorm:"index" json:"group_id,omitempty"`
	Group   *Group `json:"group,omitempty"`

	// Attachments (paths relative to the uploads root)
	PhotoPath          string `gorm:"size:500" json:"photo_path,omitempty"`
	ApplicationPath    string `gorm:"size:500" json:"application_path,omitempty"`
	ConsentPath        string `gorm:"size:500" json:"consent_path,omitempty"`
	MedicalPath        string `gorm:"size:500" json:"medical_path,omitempty"`
	MedicalValidUntil  string `gorm:"size:10" json:"medical_valid_until,omitempty"`
	ConsentCheckedDate string `gorm:"size:10" json:"consent_checked_date,omitempty"`

	Results  []Result        `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	Sessions []MemberSession `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// FullName returns "First Last".
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// OIBValue returns the OIB or "" when absent.
func (m *Member) OIBValue() string {
	if m.OIB == nil {
		return ""
	}
	return *m.OIB
}

// GroupName returns the name of the loaded group, if any.
func (m *Member) GroupName() string {
	if m.Group == nil {
		return ""
	}
	return m.Group.Name
}

// GroupIDValue returns the group id or 0 when unassigned.
func (m *Member) GroupIDValue() uint {
	if m.GroupID == nil {
		return 0
	}
	return *m.GroupID
}

// Address returns street, postal code and city on one line.
func (m *Member) Address() string {
	parts := make([]string, 0, 2)
	if m.Street != "" {
		parts = append(parts, m.Street)
	}
	if place := strings.TrimSpace(m.PostalCode + " " + m.City); place != "" {
		parts = append(parts, place)
	}
	return strings.Join(parts, ", ")
}

// Emails returns the distinct non-empty contact addresses, athlete first.
func (m *Member) Emails() []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range []string{m.AthleteEmail, m.ParentEmail} {
		e = strings.TrimSpace(e)
		key := strings.ToLower(e)
		if e == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// DaysUntilMedicalExpiry reports how many days remain until the medical
// certificate expires (negative once expired). ok is false when no valid
// expiry date is stored.
func (m *Member) DaysUntilMedicalExpiry(now time.Time) (days int, ok bool) {
	if m.MedicalValidUntil == "" {
		return 0, false
	}
	exp, err := time.ParseInLocation(DateLayout, m.MedicalValidUntil, now.Location())
	if err != nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(exp.Sub(today).Hours() / 24), true
}
