package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Coach is a club coach. OIB is informational only and not unique.
type Coach struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	DOB       string `gorm:"column:dob;size:10" json:"dob,omitempty"`
	OIB       string `gorm:"column:oib;size:11" json:"oib,omitempty"`
	Email     string `gorm:"size:255" json:"email,omitempty"`
	IBAN      string `gorm:"column:iban;size:34" json:"iban,omitempty"`

	GroupID *uint  `gorm:"index" json:"group_id,omitempty"`
	Group   *Group `json:"group,omitempty"`

	ContractPath string                      `gorm:"size:500" json:"contract_path,omitempty"`
	OtherDocs    datatypes.JSONSlice[string] `json:"other_docs"`
	PhotoPath    string                      `gorm:"size:500" json:"photo_path,omitempty"`

	Sessions []CoachSession `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
}

// FullName returns "First Last".
func (c *Coach) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// GroupIDValue returns the group id or 0 when unassigned.
func (c *Coach) GroupIDValue() uint {
	if c.GroupID == nil {
		return 0
	}
	return *c.GroupID
}
