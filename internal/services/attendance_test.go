package services

import (
	"testing"
	"time"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCoachSession(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAttendanceService(db)
	coach := &models.Coach{FirstName: "Marko", LastName: "Trener"}
	mustCreate(t, db, coach)

	zagreb := time.FixedZone("CET", 3600)
	start := time.Date(2024, 3, 5, 17, 30, 0, 0, zagreb)
	cs := &models.CoachSession{CoachID: &coach.ID, StartsAt: start, EndsAt: start.Add(90 * time.Minute), Place: " DVORANA SJEVER "}
	require.NoError(t, svc.RecordCoachSession(cs))
	assert.Equal(t, 90, cs.Minutes)
	assert.Equal(t, time.UTC, cs.StartsAt.Location())
	assert.Equal(t, "DVORANA SJEVER", cs.Place)

	bad := &models.CoachSession{CoachID: &coach.ID, StartsAt: start, EndsAt: start.Add(-time.Minute)}
	err := svc.RecordCoachSession(bad)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "before_start", Violations(err)["ends_at"])

	err = svc.RecordCoachSession(&models.CoachSession{CoachID: &coach.ID})
	assert.Equal(t, "required", Violations(err)["starts_at"])
	assert.Equal(t, "required", Violations(err)["ends_at"])

	list, err := svc.CoachSessions(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cs.ID, list[0].ID)
}

func TestCoachMinutes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAttendanceService(db)
	a := &models.Coach{FirstName: "Ana", LastName: "Babić"}
	b := &models.Coach{FirstName: "Ivo", LastName: "Zorić"}
	mustCreate(t, db, a)
	mustCreate(t, db, b)

	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 18, 0, 0, 0, time.UTC) }
	sessions := []*models.CoachSession{
		{CoachID: &a.ID, StartsAt: at(2024, 1, 10), EndsAt: at(2024, 1, 10).Add(60 * time.Minute)},
		{CoachID: &a.ID, StartsAt: at(2024, 12, 31), EndsAt: at(2024, 12, 31).Add(90 * time.Minute)},
		{CoachID: &a.ID, StartsAt: at(2023, 12, 31), EndsAt: at(2023, 12, 31).Add(45 * time.Minute)},
		{CoachID: &b.ID, StartsAt: at(2024, 6, 1), EndsAt: at(2024, 6, 1).Add(30 * time.Minute)},
	}
	for _, cs := range sessions {
		require.NoError(t, svc.RecordCoachSession(cs))
	}

	got, err := svc.CoachMinutes(2024)
	require.NoError(t, err)
	assert.Equal(t, []CoachMinutes{
		{CoachID: a.ID, FirstName: "Ana", LastName: "Babić", Sessions: 2, Minutes: 150},
		{CoachID: b.ID, FirstName: "Ivo", LastName: "Zorić", Sessions: 1, Minutes: 30},
	}, got)

	none, err := svc.CoachMinutes(2020)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemberAttendanceAndCamps(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAttendanceService(db)
	g := &models.Group{Name: "Hrvači"}
	mustCreate(t, db, g)
	ana := newMember("Ana", "Anić", "11111111119")
	ivo := newMember("Ivo", "Ivić", "22222222226")
	mustCreate(t, db, ana)
	mustCreate(t, db, ivo)

	require.NoError(t, svc.RecordMemberSessions("2024-02-01", &g.ID, []Presence{
		{MemberID: ana.ID, Present: true, Minutes: 90},
		{MemberID: ivo.ID, Present: false, Minutes: 90, Note: " bolestan "},
	}))
	require.NoError(t, svc.RecordMemberSessions("2024-02-03", &g.ID, []Presence{
		{MemberID: ana.ID, Present: true, Minutes: 60},
	}))

	camp, err := svc.RecordCamp(CampInput{
		Date: "2024-07-10", Where: "Poreč", Coach: "Marko", Trainings: 12, Minutes: 900,
		MemberIDs: []uint{ana.ID, ivo.ID},
	})
	require.NoError(t, err)
	require.Len(t, camp, 2)
	assert.True(t, camp[0].Camp)
	assert.True(t, camp[0].Present)
	assert.Equal(t, "Pripreme - 12 treninga", camp[0].Note)
	assert.Nil(t, camp[0].GroupID)

	rows, err := svc.MemberAttendance(nil, "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, []AttendanceRow{
		{MemberID: ana.ID, FirstName: "Ana", LastName: "Anić", Sessions: 3, Present: 3, Minutes: 1050, Camps: 1},
		{MemberID: ivo.ID, FirstName: "Ivo", LastName: "Ivić", Sessions: 2, Present: 1, Minutes: 900, Camps: 1},
	}, rows)

	grouped, err := svc.MemberAttendance(&g.ID, "", "2024-02-02")
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Equal(t, 90, grouped[0].Minutes)
	assert.Equal(t, 0, grouped[1].Present)

	history, err := svc.MemberSessions(ivo.ID, "2024-02-01", "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Camp)
	assert.Equal(t, "bolestan", history[1].Note)
}

func TestAttendanceValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAttendanceService(db)

	err := svc.RecordMemberSessions("01.02.2024", nil, []Presence{{MemberID: 0, Minutes: -5}})
	require.ErrorIs(t, err, ErrInvalidInput)
	v := Violations(err)
	assert.Equal(t, "invalid_date", v["date"])
	assert.Equal(t, "required", v["entries.0.member_id"])
	assert.Equal(t, "must_not_be_negative", v["entries.0.minutes"])

	require.NoError(t, svc.RecordMemberSessions("2024-02-01", nil, nil))

	_, err = svc.RecordCamp(CampInput{Date: "2024-07-10"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "required", Violations(err)["where"])
	assert.Equal(t, "required", Violations(err)["member_ids"])
}
