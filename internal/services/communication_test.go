package services

import (
	"testing"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientsDeduplicateEmails(t *testing.T) {
	db := setupTestDB(t)
	members := NewMemberService(db, nil, quietLogger())
	svc := NewCommunicationService(db, members)

	a := newMember("Ana", "Anić", "11111111119")
	a.AthleteEmail = "ana@example.com"
	a.ParentEmail = "Obitelj@Example.com"
	a.ActiveCompetitor = true
	b := newMember("Ivo", "Anić", "22222222226")
	b.ParentEmail = "obitelj@example.com"
	b.ActiveCompetitor = true
	c := newMember("Pero", "Perić", "33333333335")
	c.AthleteEmail = "pero@example.com"
	for _, m := range []*models.Member{a, b, c} {
		mustCreate(t, db, m)
	}

	all, err := svc.Recipients(RecipientFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Members, 3)
	assert.Equal(t, []string{"ana@example.com", "Obitelj@Example.com", "pero@example.com"}, all.Emails)

	active, err := svc.Recipients(RecipientFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com", "Obitelj@Example.com"}, active.Emails)

	picked, err := svc.Recipients(RecipientFilter{MemberIDs: []uint{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{"obitelj@example.com"}, picked.Emails)

	table := all.Table()
	assert.Equal(t, "Primatelji", table.Sheet)
	assert.Len(t, table.Rows, 3)

	none, err := svc.Recipients(RecipientFilter{VeteransOnly: true})
	require.NoError(t, err)
	assert.NotNil(t, none.Emails)
	assert.Empty(t, none.Emails)
}

func TestMailtoLink(t *testing.T) {
	cases := []struct {
		name    string
		emails  []string
		subject string
		body    string
		want    string
	}{
		{"empty", nil, "", "", "mailto:"},
		{"bcc only", []string{"a@x.hr", "b@x.hr"}, "", "", "mailto:?bcc=a%40x.hr%2Cb%40x.hr"},
		{"all parts", []string{"a@x.hr"}, "Trening sutra", "Početak u 18 h", "mailto:?bcc=a%40x.hr&subject=Trening%20sutra&body=Po%C4%8Detak%20u%2018%20h"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MailtoLink(tc.emails, tc.subject, tc.body))
		})
	}
}

func TestWhatsAppLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/385911234567?text=Bok%20svima%21", WhatsAppLink("+385 91 123 4567", "Bok svima!"))
	assert.Equal(t, "https://wa.me/?text=x", WhatsAppLink("", "x"))
}

func TestCommunicationLog(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCommunicationService(db, NewMemberService(db, nil, quietLogger()))

	_, err := svc.Log(" ", "tekst", nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "required", Violations(err)["subject"])
	assert.Equal(t, "required", Violations(err)["recipients"])

	first, err := svc.Log("Trening", "Sutra u 18", []string{"a@x.hr"})
	require.NoError(t, err)
	second, err := svc.Log("Natjecanje", "", []string{"a@x.hr", "b@x.hr"})
	require.NoError(t, err)

	history, err := svc.History(0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, []string{"a@x.hr", "b@x.hr"}, []string(history[0].Recipients))

	limited, err := svc.History(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.NotEqual(t, first.ID, limited[0].ID)
}
