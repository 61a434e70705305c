package services

import (
	"strings"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/spreadsheet"
)

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MemberTable renders members with the import headers, so the sheet can be
// edited and imported back. Groups must be preloaded.
func MemberTable(members []models.Member) *spreadsheet.Table {
	t := &spreadsheet.Table{Sheet: "Clanovi", Columns: MemberColumns, Rows: make([][]any, 0, len(members))}
	for i := range members {
		m := &members[i]
		t.Rows = append(t.Rows, []any{
			m.FirstName, m.LastName, m.DOB, m.Gender, m.OIBValue(),
			m.Street, m.City, m.PostalCode, m.AthleteEmail, m.ParentEmail,
			m.IDCardNumber, m.IDCardValidUntil, m.IDCardIssuer,
			m.PassportNumber, m.PassportValidUntil, m.PassportIssuer,
			flag(m.ActiveCompetitor), flag(m.Veteran), flag(m.OtherFlag), flag(m.PaysFee),
			m.FeeAmount, m.GroupName(),
		})
	}
	return t
}

// ResultTable renders a competition's results with the import headers.
// Members must be preloaded; results without a member keep a blank OIB.
func ResultTable(c *models.Competition) *spreadsheet.Table {
	t := &spreadsheet.Table{Sheet: "Rezultati " + c.Name, Columns: ResultColumns, Rows: make([][]any, 0, len(c.Results))}
	for _, r := range c.Results {
		oib := ""
		if r.Member != nil {
			oib = r.Member.OIBValue()
		}
		t.Rows = append(t.Rows, []any{
			r.CompetitionID, oib, r.Category, r.Style,
			r.FightsTotal, r.Wins, r.Losses, r.Placement,
			models.FormatOpponents(r.WinsOver), models.FormatOpponents(r.LossesTo), r.Note,
		})
	}
	return t
}

// CompetitionTable renders the competition list.
func CompetitionTable(list []models.Competition) *spreadsheet.Table {
	t := &spreadsheet.Table{
		Sheet: "Natjecanja",
		Columns: []string{
			"id", "vrsta", "naziv", "datum_od", "datum_do", "mjesto", "stil", "uzrast",
			"drzava", "drzava_iso3", "ekipni_plasman", "natjecatelja_kluba", "ukupno_natjecatelja",
			"broj_klubova", "broj_zemalja", "treneri", "napomena", "bilten", "web",
		},
		Rows: make([][]any, 0, len(list)),
	}
	for _, c := range list {
		t.Rows = append(t.Rows, []any{
			c.ID, c.DisplayKind(), c.Name, c.DateFrom, c.DateTo, c.Place, c.Style, c.AgeCategory,
			c.Country, c.CountryISO3, c.TeamRank, c.ClubCompetitors, c.TotalCompetitors,
			c.ClubsCount, c.CountriesCount, strings.Join(c.Coaches, ", "), c.Notes, c.BulletinURL, c.WebsiteLink,
		})
	}
	return t
}

// CoachTable renders the coach list. Groups must be preloaded.
func CoachTable(list []models.Coach) *spreadsheet.Table {
	t := &spreadsheet.Table{
		Sheet:   "Treneri",
		Columns: []string{"ime", "prezime", "datum_rodenja", "oib", "email", "iban", "grupa"},
		Rows:    make([][]any, 0, len(list)),
	}
	for _, c := range list {
		group := ""
		if c.Group != nil {
			group = c.Group.Name
		}
		t.Rows = append(t.Rows, []any{c.FirstName, c.LastName, c.DOB, c.OIB, c.Email, c.IBAN, group})
	}
	return t
}
