package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClubInfoID is the primary key of the singleton club row.
const ClubInfoID = 1

// BoardMember is one entry of the governance or supervisory board.
type BoardMember struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// ClubInfo holds the club identity. Exactly one row (id = ClubInfoID) exists after seeding.
type ClubInfo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
	OIB     string `gorm:"column:oib;size:11" json:"oib,omitempty"`
	Web     string `gorm:"size:255" json:"web,omitempty"`
	IBAN    string `gorm:"column:iban;size:34" json:"iban,omitempty"`

	President   string                           `gorm:"size:255" json:"president,omitempty"`
	Secretary   string                           `gorm:"size:255" json:"secretary,omitempty"`
	Board       datatypes.JSONSlice[BoardMember] `json:"board"`
	Supervisory datatypes.JSONSlice[BoardMember] `json:"supervisory"`

	Instagram string `gorm:"size:255" json:"instagram,omitempty"`
	Facebook  string `gorm:"size:255" json:"facebook,omitempty"`
	TikTok    string `gorm:"column:tiktok;size:255" json:"tiktok,omitempty"`
}

// TableName keeps the singleton table name singular.
func (ClubInfo) TableName() string { return "club_info" }

// Club document kinds.
const (
	DocKindStatute = "statut"
	DocKindOther   = "ostalo"
)

// ClubDoc is an uploaded club-level document (statute, decisions, ...).
type ClubDoc struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Kind       string    `gorm:"size:50;not null" json:"kind"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	Path       string    `gorm:"size:500;not null" json:"path"`
	UploadedAt time.Time `gorm:"not null" json:"uploaded_at"`
}

// Group is a training group. Members and coaches reference it by id.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`

	Members []Member `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Coaches []Coach  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

// DefaultGroups are created on first start.
var DefaultGroups = []string{"Hrvači", "Hrvačice", "Veterani", "Ostalo"}

// CommLog records one outgoing message to members.
type CommLog struct {
	ID         uint                        `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time                   `json:"created_at"`
	Subject    string                      `gorm:"size:255" json:"subject"`
	Body       string                      `gorm:"type:text" json:"body"`
	Recipients datatypes.JSONSlice[string] `json:"recipients"`
}
