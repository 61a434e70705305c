package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stage(t *testing.T, files *uploads.Store, p uploads.Partition, name string) *uploads.Staged {
	t.Helper()
	st, err := files.Stage(p, name, strings.NewReader("content of "+name))
	require.NoError(t, err)
	return st
}

func stagingEmpty(t *testing.T, files *uploads.Store) bool {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(files.Root, ".staging"))
	if os.IsNotExist(err) {
		return true
	}
	require.NoError(t, err)
	return len(entries) == 0
}

func TestMemberSaveValidation(t *testing.T) {
	db := setupTestDB(t)
	files := newFiles(t)
	svc := NewMemberService(db, files, quietLogger())

	cases := []struct {
		name  string
		m     *models.Member
		field string
		code  string
	}{
		{"missing oib", &models.Member{FirstName: "A", LastName: "B"}, "oib", "required"},
		{"bad checksum", &models.Member{FirstName: "A", LastName: "B", OIB: ptr("12345678901")}, "oib", "invalid_oib"},
		{"missing name", &models.Member{LastName: "B", OIB: ptr("11111111119")}, "first_name", "required"},
		{"bad email", &models.Member{FirstName: "A", LastName: "B", OIB: ptr("11111111119"), ParentEmail: "nope"}, "parent_email", "invalid_email"},
		{"bad date", &models.Member{FirstName: "A", LastName: "B", OIB: ptr("11111111119"), DOB: "15.3.2012"}, "dob", "invalid_date"},
		{"bad gender", &models.Member{FirstName: "A", LastName: "B", OIB: ptr("11111111119"), Gender: "X"}, "gender", "not_allowed"},
		{"negative fee", &models.Member{FirstName: "A", LastName: "B", OIB: ptr("11111111119"), FeeAmount: -1}, "fee_amount", "must_not_be_negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			photo := stage(t, files, uploads.MemberPhotos, "a.jpg")
			err := svc.Save(tc.m, photo)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, tc.code, Violations(err)[tc.field])
			assert.True(t, stagingEmpty(t, files))
		})
	}

	var n int64
	db.Model(&models.Member{}).Count(&n)
	assert.Zero(t, n)
}

func TestMemberSaveUpdatesExistingOIB(t *testing.T) {
	db := setupTestDB(t)
	files := newFiles(t)
	svc := NewMemberService(db, files, quietLogger())

	photo := stage(t, files, uploads.MemberPhotos, "ana.jpg")
	first := newMember(" Ana ", "Anić", "11111111119")
	first.Gender = "z"
	require.NoError(t, svc.Save(first, photo))
	assert.Equal(t, "Ana", first.FirstName)
	assert.Equal(t, "Ž", first.Gender)
	assert.FileExists(t, files.Abs(photo.Path))

	second := newMember("Ana", "Horvat", "11111111119")
	require.NoError(t, svc.Save(second, nil))
	assert.Equal(t, first.ID, second.ID)

	got, err := svc.GetByOIB("11111111119")
	require.NoError(t, err)
	assert.Equal(t, "Horvat", got.LastName)
	assert.Equal(t, photo.Path, got.PhotoPath)

	var n int64
	db.Model(&models.Member{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestMemberUpdate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMemberService(db, nil, quietLogger())
	ana := newMember("Ana", "Anić", "11111111119")
	ana.MedicalPath = "members/medical/a.pdf"
	require.NoError(t, svc.Save(ana, nil))
	require.NoError(t, svc.Save(newMember("Ivo", "Ivić", "22222222226"), nil))

	edit := newMember("Ana", "Anić", "11111111119")
	edit.City = "Koprivnica"
	require.NoError(t, svc.Update(ana.ID, edit))
	got, err := svc.Get(ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Koprivnica", got.City)
	assert.Equal(t, "members/medical/a.pdf", got.MedicalPath)

	clash := newMember("Ana", "Anić", "22222222226")
	assert.ErrorIs(t, svc.Update(ana.ID, clash), ErrDuplicate)
	assert.ErrorIs(t, svc.Update(999, newMember("X", "Y", "33333333335")), ErrNotFound)
}

func TestMemberList(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMemberService(db, nil, quietLogger())
	g := &models.Group{Name: "Hrvači"}
	mustCreate(t, db, g)

	a := newMember("Ana", "Zorić", "11111111119")
	a.ActiveCompetitor = true
	a.GroupID = &g.ID
	b := newMember("Ivo", "Babić", "22222222226")
	b.Veteran = true
	c := newMember("Marko", "Babić", "33333333335")
	c.ActiveCompetitor = true
	for _, m := range []*models.Member{a, b, c} {
		mustCreate(t, db, m)
	}

	names := func(list []models.Member) []string {
		out := []string{}
		for _, m := range list {
			out = append(out, m.FirstName)
		}
		return out
	}

	all, err := svc.List(MemberFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ivo", "Marko", "Ana"}, names(all))
	assert.Equal(t, "Hrvači", all[2].GroupName())

	active, err := svc.List(MemberFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Marko", "Ana"}, names(active))

	vets, err := svc.Veterans()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ivo"}, names(vets))

	grouped, err := svc.ByGroup(g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, names(grouped))

	found, err := svc.List(MemberFilter{Query: "BAB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ivo", "Marko"}, names(found))

	byID, err := svc.List(MemberFilter{IDs: []uint{a.ID, c.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Marko", "Ana"}, names(byID))
}

func TestMemberDocuments(t *testing.T) {
	db := setupTestDB(t)
	files := newFiles(t)
	svc := NewMemberService(db, files, quietLogger())
	svc.now = func() time.Time { return time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC) }
	m := newMember("Ana", "Anić", "11111111119")
	require.NoError(t, svc.Save(m, nil))

	consent := stage(t, files, MemberConsent.Partition(), "privola.pdf")
	require.NoError(t, svc.SetDocument(m.ID, MemberConsent, consent))
	got, err := svc.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, consent.Path, got.ConsentPath)
	assert.Equal(t, "2024-09-01", got.ConsentCheckedDate)
	assert.True(t, strings.HasPrefix(got.ConsentPath, string(uploads.MemberForms)+"/"))

	replacement := stage(t, files, MemberConsent.Partition(), "privola2.pdf")
	require.NoError(t, svc.SetDocument(m.ID, MemberConsent, replacement))
	assert.NoFileExists(t, files.Abs(consent.Path))
	assert.FileExists(t, files.Abs(replacement.Path))

	bogus := stage(t, files, uploads.MemberForms, "x.pdf")
	assert.ErrorIs(t, svc.SetDocument(m.ID, MemberDoc("passport"), bogus), ErrInvalidInput)

	orphan := stage(t, files, uploads.MemberPhotos, "x.jpg")
	assert.ErrorIs(t, svc.SetDocument(999, MemberPhoto, orphan), ErrNotFound)
	assert.True(t, stagingEmpty(t, files))
}

func TestMemberSetMedical(t *testing.T) {
	db := setupTestDB(t)
	files := newFiles(t)
	svc := NewMemberService(db, files, quietLogger())
	m := newMember("Ana", "Anić", "11111111119")
	require.NoError(t, svc.Save(m, nil))

	cert := stage(t, files, uploads.MemberMedical, "lijecnicki.pdf")
	err := svc.SetMedical(m.ID, "", cert)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "required", Violations(err)["medical_valid_until"])
	assert.True(t, stagingEmpty(t, files))

	cert = stage(t, files, uploads.MemberMedical, "lijecnicki.pdf")
	require.NoError(t, svc.SetMedical(m.ID, "2025-06-30", cert))
	require.NoError(t, svc.SetMedical(m.ID, "2025-12-31", nil))

	got, err := svc.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", got.MedicalValidUntil)
	assert.Equal(t, cert.Path, got.MedicalPath)
	assert.FileExists(t, files.Abs(cert.Path))
}

func TestMemberDelete(t *testing.T) {
	db := setupTestDB(t)
	files := newFiles(t)
	svc := NewMemberService(db, files, quietLogger())
	photo := stage(t, files, uploads.MemberPhotos, "ana.jpg")
	m := newMember("Ana", "Anić", "11111111119")
	require.NoError(t, svc.Save(m, photo))

	comp := seedCompetition(t, db, "Kup", "2024-01-01", models.KindInternational, "U15")
	res := &models.Result{CompetitionID: comp.ID, MemberID: &m.ID, Placement: 1}
	require.NoError(t, NewResultService(db).Save(res))
	require.NoError(t, NewAttendanceService(db).RecordMemberSessions("2024-02-01", nil, []Presence{{MemberID: m.ID, Present: true, Minutes: 90}}))

	require.NoError(t, svc.Delete(m.ID))

	var kept models.Result
	require.NoError(t, db.First(&kept, res.ID).Error)
	assert.Nil(t, kept.MemberID)
	var sessions int64
	db.Model(&models.MemberSession{}).Count(&sessions)
	assert.Zero(t, sessions)
	assert.NoFileExists(t, files.Abs(photo.Path))

	assert.ErrorIs(t, svc.Delete(m.ID), ErrNotFound)
}
