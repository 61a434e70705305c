package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/validation"
	"gorm.io/gorm"
)

// Presence is one member's line on a group attendance sheet.
type Presence struct {
	MemberID uint   `json:"member_id"`
	Present  bool   `json:"present"`
	Minutes  int    `json:"minutes"`
	Note     string `json:"note"`
}

// CampInput records a training camp for several members.
type CampInput struct {
	Date      string `json:"date"`
	Where     string `json:"where"`
	Coach     string `json:"coach"`
	Trainings int    `json:"trainings"`
	Minutes   int    `json:"minutes"`
	MemberIDs []uint `json:"member_ids"`
}

// CoachMinutes sums a coach's sessions.
type CoachMinutes struct {
	CoachID   uint   `json:"coach_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Sessions  int    `json:"sessions"`
	Minutes   int    `json:"minutes"`
}

// AttendanceRow sums a member's attendance over a period.
type AttendanceRow struct {
	MemberID  uint   `json:"member_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Sessions  int    `json:"sessions"`
	Present   int    `json:"present"`
	Minutes   int    `json:"minutes"`
	Camps     int    `json:"camps"`
}

type AttendanceService struct{ DB *gorm.DB }

func NewAttendanceService(db *gorm.DB) *AttendanceService { return &AttendanceService{DB: db} }

// RecordCoachSession stores a session in UTC; its length in minutes is
// derived from the start and end times.
func (s *AttendanceService) RecordCoachSession(cs *models.CoachSession) error {
	v := make(validation.Violations)
	if cs.StartsAt.IsZero() {
		v["starts_at"] = "required"
	}
	if cs.EndsAt.IsZero() {
		v["ends_at"] = "required"
	}
	if v.Empty() && cs.EndsAt.Before(cs.StartsAt) {
		v["ends_at"] = "before_start"
	}
	if err := invalid(v); err != nil {
		return err
	}
	cs.Place = strings.TrimSpace(cs.Place)
	cs.StartsAt = cs.StartsAt.UTC()
	cs.EndsAt = cs.EndsAt.UTC()
	cs.Minutes = int(cs.EndsAt.Sub(cs.StartsAt).Minutes())
	return s.DB.Create(cs).Error
}

// RecordMemberSessions stores one attendance sheet for a group and day.
func (s *AttendanceService) RecordMemberSessions(date string, groupID *uint, entries []Presence) error {
	v := make(validation.Violations)
	validation.Required("date", date, v)
	validation.Date("date", date, v)
	for i, e := range entries {
		if e.MemberID == 0 {
			v["entries."+strconv.Itoa(i)+".member_id"] = "required"
		}
		validation.NonNegativeInt("entries."+strconv.Itoa(i)+".minutes", e.Minutes, v)
	}
	if err := invalid(v); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.MemberSession, len(entries))
	for i, e := range entries {
		rows[i] = models.MemberSession{
			MemberID: e.MemberID,
			Date:     date,
			GroupID:  groupID,
			Present:  e.Present,
			Minutes:  e.Minutes,
			Note:     strings.TrimSpace(e.Note),
		}
	}
	return s.DB.Create(&rows).Error
}

// RecordCamp stores a present camp record for every member of in.
func (s *AttendanceService) RecordCamp(in CampInput) ([]models.MemberSession, error) {
	v := make(validation.Violations)
	validation.Required("date", in.Date, v)
	validation.Date("date", in.Date, v)
	validation.Required("where", in.Where, v)
	validation.NonNegativeInt("trainings", in.Trainings, v)
	validation.NonNegativeInt("minutes", in.Minutes, v)
	if len(in.MemberIDs) == 0 {
		v["member_ids"] = "required"
	}
	if err := invalid(v); err != nil {
		return nil, err
	}
	rows := make([]models.MemberSession, len(in.MemberIDs))
	for i, id := range in.MemberIDs {
		rows[i] = models.MemberSession{
			MemberID:  id,
			Date:      in.Date,
			Present:   true,
			Minutes:   in.Minutes,
			Note:      models.CampNote(in.Trainings),
			Camp:      true,
			CampWhere: strings.TrimSpace(in.Where),
			CampCoach: strings.TrimSpace(in.Coach),
		}
	}
	if err := s.DB.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CoachSessions lists sessions starting in [from, to), newest first.
func (s *AttendanceService) CoachSessions(from, to time.Time) ([]models.CoachSession, error) {
	out := []models.CoachSession{}
	err := s.DB.Where("starts_at >= ? AND starts_at < ?", from.UTC(), to.UTC()).
		Order("starts_at DESC").Find(&out).Error
	return out, err
}

// MemberSessions lists a member's records between two dates (inclusive).
func (s *AttendanceService) MemberSessions(memberID uint, from, to string) ([]models.MemberSession, error) {
	q := s.DB.Where("member_id = ?", memberID)
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}
	out := []models.MemberSession{}
	err := q.Order("date DESC, id DESC").Find(&out).Error
	return out, err
}

// CoachMinutes sums every coach's sessions in a calendar year.
func (s *AttendanceService) CoachMinutes(year int) ([]CoachMinutes, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	out := []CoachMinutes{}
	err := s.DB.Table("coach_sessions AS s").
		Select("c.id AS coach_id, c.first_name, c.last_name, COUNT(s.id) AS sessions, COALESCE(SUM(s.minutes), 0) AS minutes").
		Joins("JOIN coaches c ON c.id = s.coach_id").
		Where("s.starts_at >= ? AND s.starts_at < ?", from, to).
		Group("c.id, c.first_name, c.last_name").
		Order("c.last_name, c.first_name").
		Scan(&out).Error
	return out, err
}

// MemberAttendance sums attendance per member between two dates (inclusive).
// A non-nil groupID keeps only sessions recorded for that group.
func (s *AttendanceService) MemberAttendance(groupID *uint, from, to string) ([]AttendanceRow, error) {
	q := s.DB.Table("member_sessions AS s").
		Select("m.id AS member_id, m.first_name, m.last_name, COUNT(s.id) AS sessions, " +
			"SUM(CASE WHEN s.present THEN 1 ELSE 0 END) AS present, " +
			"COALESCE(SUM(CASE WHEN s.present THEN s.minutes ELSE 0 END), 0) AS minutes, " +
			"SUM(CASE WHEN s.camp THEN 1 ELSE 0 END) AS camps").
		Joins("JOIN members m ON m.id = s.member_id")
	if groupID != nil {
		q = q.Where("s.group_id = ?", *groupID)
	}
	if from != "" {
		q = q.Where("s.date >= ?", from)
	}
	if to != "" {
		q = q.Where("s.date <= ?", to)
	}
	out := []AttendanceRow{}
	err := q.Group("m.id, m.first_name, m.last_name").
		Order("m.last_name, m.first_name").
		Scan(&out).Error
	return out, err
}
