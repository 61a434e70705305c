package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Competition kinds.
const (
	KindNationalChampionship = "PRVENSTVO HRVATSKE"
	KindInternational        = "MEĐUNARODNI TURNIR"
	KindNationalTeam         = "REPREZENTATIVNI NASTUP"
	KindSeniorLeague         = "HRVAČKA LIGA ZA SENIORE"
	KindCadetLeague          = "MEĐUNARODNA HRVAČKA LIGA ZA KADETE"
	KindRegional             = "REGIONALNO PRVENSTVO"
	KindGirlsLeague          = "LIGA ZA DJEVOJČICE"
	KindOther                = "OSTALO"
)

// CompetitionKinds lists the kinds in display order.
var CompetitionKinds = []string{
	KindNationalChampionship, KindInternational, KindNationalTeam, KindSeniorLeague,
	KindCadetLeague, KindRegional, KindGirlsLeague, KindOther,
}

// Wrestling styles.
var Styles = []string{"GR", "FS", "WW", "BW", "MODIFICIRANO"}

// AgeCategories lists the age categories in ascending order.
var AgeCategories = []string{"POČETNICI", "U11", "U13", "U15", "U17", "U20", "U23", "SENIORI"}

// Contains reports whether v is one of list (case-insensitive).
func Contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// Competition is one event the club attended.
type Competition struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Kind        string `gorm:"size:100;not null" json:"kind"`
	KindOther   string `gorm:"size:255" json:"kind_other,omitempty"`
	Name        string `gorm:"size:255;not null" json:"name"`
	DateFrom    string `gorm:"size:10;not null;index" json:"date_from"`
	DateTo      string `gorm:"size:10" json:"date_to,omitempty"`
	Place       string `gorm:"size:255" json:"place,omitempty"`
	Style       string `gorm:"size:20" json:"style,omitempty"`
	AgeCategory string `gorm:"size:20" json:"age_category,omitempty"`
	Country     string `gorm:"size:100" json:"country,omitempty"`
	CountryISO3 string `gorm:"column:country_iso3;size:3" json:"country_iso3,omitempty"`

	TeamRank         int `gorm:"not null;default:0" json:"team_rank"`
	ClubCompetitors  int `gorm:"not null;default:0" json:"club_competitors"`
	TotalCompetitors int `gorm:"not null;default:0" json:"total_competitors"`
	ClubsCount       int `gorm:"not null;default:0" json:"clubs_count"`
	CountriesCount   int `gorm:"not null;default:0" json:"countries_count"`

	Coaches     datatypes.JSONSlice[string] `json:"coaches"`
	Notes       string                      `gorm:"type:text" json:"notes,omitempty"`
	BulletinURL string                      `gorm:"column:bulletin_url;size:500" json:"bulletin_url,omitempty"`
	WebsiteLink string                      `gorm:"size:500" json:"website_link,omitempty"`
	Gallery     datatypes.JSONSlice[string] `json:"gallery"`

	Results []Result `gorm:"constraint:OnDelete:CASCADE;" json:"results,omitempty"`
}

// Year returns the calendar year of the start date ("" if unknown).
func (c *Competition) Year() string {
	if len(c.DateFrom) < 4 {
		return ""
	}
	return c.DateFrom[:4]
}

// DisplayKind returns the free-text kind for OSTALO entries, the kind otherwise.
func (c *Competition) DisplayKind() string {
	if c.Kind == KindOther && c.KindOther != "" {
		return c.KindOther
	}
	return c.Kind
}
