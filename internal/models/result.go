package models

import (
	"strings"

	"gorm.io/datatypes"
)

// Medal buckets derived from placement.
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
	MedalNone   = ""
)

// Opponent is a named wrestler the athlete won or lost against.
type Opponent struct {
	Name string `json:"name"`
	Club string `json:"club,omitempty"`
}

// Result is one athlete's outcome at a competition. The member reference is
// cleared, not deleted, when the member is removed.
type Result struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	CompetitionID uint    `gorm:"not null;uniqueIndex:idx_results_competition_member" json:"competition_id"`
	MemberID      *uint   `gorm:"uniqueIndex:idx_results_competition_member" json:"member_id,omitempty"`
	Member        *Member `json:"member,omitempty"`

	Category    string                        `gorm:"size:50" json:"category,omitempty"`
	Style       string                        `gorm:"size:20" json:"style,omitempty"`
	FightsTotal int                           `gorm:"not null;default:0" json:"fights_total"`
	Wins        int                           `gorm:"not null;default:0" json:"wins"`
	Losses      int                           `gorm:"not null;default:0" json:"losses"`
	Placement   int                           `gorm:"not null;default:0" json:"placement"`
	WinsOver    datatypes.JSONSlice[Opponent] `json:"wins_over"`
	LossesTo    datatypes.JSONSlice[Opponent] `json:"losses_to"`
	Note        string                        `gorm:"type:text" json:"note,omitempty"`
}

// Medal classifies the placement into exactly one bucket.
func (r *Result) Medal() string {
	switch r.Placement {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return MedalNone
	}
}

// ParseOpponents reads "name;club|name;club". Blank segments are dropped.
func ParseOpponents(s string) []Opponent {
	var out []Opponent
	for _, seg := range strings.Split(s, "|") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		name, club, _ := strings.Cut(seg, ";")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Opponent{Name: name, Club: strings.TrimSpace(club)})
	}
	return out
}

// FormatOpponents is the inverse of ParseOpponents.
func FormatOpponents(list []Opponent) string {
	parts := make([]string, 0, len(list))
	for _, o := range list {
		if o.Club == "" {
			parts = append(parts, o.Name)
			continue
		}
		parts = append(parts, o.Name+";"+o.Club)
	}
	return strings.Join(parts, "|")
}
