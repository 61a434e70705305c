package models

import (
	"fmt"
	"time"
)

// Training places offered by the attendance form.
var AttendancePlaces = []string{"DVORANA SJEVER", "IGRALIŠTE ANG", "IGRALIŠTE SREDNJA"}

// CoachSession is one training session held by a coach.
type CoachSession struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	CoachID  *uint     `gorm:"index" json:"coach_id,omitempty"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	StartsAt time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`
	Place    string    `gorm:"size:100" json:"place,omitempty"`
	Minutes  int       `gorm:"not null;default:0" json:"minutes"`
}

// MemberSession is a member's attendance on one day. Camp marks a training
// camp record instead of a regular session.
type MemberSession struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MemberID  uint   `gorm:"not null;index" json:"member_id"`
	Date      string `gorm:"size:10;not null;index" json:"date"`
	GroupID   *uint  `gorm:"index" json:"group_id,omitempty"`
	Present   bool   `gorm:"not null;default:false" json:"present"`
	Minutes   int    `gorm:"not null;default:0" json:"minutes"`
	Note      string `gorm:"size:500" json:"note,omitempty"`
	Camp      bool   `gorm:"not null;default:false" json:"camp"`
	CampWhere string `gorm:"size:255" json:"camp_where,omitempty"`
	CampCoach string `gorm:"size:255" json:"camp_coach,omitempty"`
}

// CampNote is the note stored on camp records.
func CampNote(trainings int) string {
	return fmt.Sprintf("Pripreme - %d treninga", trainings)
}
