package services

import (
	"strings"

	"github.com/hkpodravka/klub/internal/spreadsheet"
)

// Member spreadsheet headers, in sheet order.
const (
	colFirstName        = "ime"
	colLastName         = "prezime"
	colDOB              = "datum_rodenja(YYYY-MM-DD)"
	colGender           = "spol(M/Ž)"
	colOIB              = "oib"
	colStreet           = "ulica_i_broj"
	colCity             = "grad"
	colPostalCode       = "postanski_broj"
	colAthleteEmail     = "email_sportasa"
	colParentEmail      = "email_roditelja"
	colIDCardNumber     = "br_osobne"
	colIDCardValidUntil = "osobna_vrijedi_do(YYYY-MM-DD)"
	colIDCardIssuer     = "osobna_izdavatelj"
	colPassportNumber   = "br_putovnice"
	colPassportValid    = "putovnica_vrijedi_do(YYYY-MM-DD)"
	colPassportIssuer   = "putovnica_izdavatelj"
	colActive           = "aktivni_natjecatelj(0/1)"
	colVeteran          = "veteran(0/1)"
	colOther            = "ostalo(0/1)"
	colPaysFee          = "placa_clanarinu(0/1)"
	colFeeAmount        = "iznos_clanarine(EUR)"
	colGroup            = "grupa"
)

// MemberColumns is the member import and export contract.
var MemberColumns = []string{
	colFirstName, colLastName, colDOB, colGender, colOIB,
	colStreet, colCity, colPostalCode, colAthleteEmail, colParentEmail,
	colIDCardNumber, colIDCardValidUntil, colIDCardIssuer,
	colPassportNumber, colPassportValid, colPassportIssuer,
	colActive, colVeteran, colOther, colPaysFee, colFeeAmount, colGroup,
}

// Result spreadsheet headers, in sheet order.
const (
	colCompetitionID = "competition_id"
	colMemberOIB     = "member_oib"
	colCategory      = "kategorija"
	colStyle         = "stil"
	colFightsTotal   = "ukupno_borbi"
	colWins          = "pobjede"
	colLosses        = "porazi"
	colPlacement     = "plasman"
	colWinsOver      = "pobjeda_protiv(ime_prezime;klub)|..."
	colLossesTo      = "poraz_od(ime_prezime;klub)|..."
	colNote          = "napomena"
)

// ResultColumns is the result import and export contract.
var ResultColumns = []string{
	colCompetitionID, colMemberOIB, colCategory, colStyle,
	colFightsTotal, colWins, colLosses, colPlacement,
	colWinsOver, colLossesTo, colNote,
}

// resultAliases lists older template headers accepted for a result column.
var resultAliases = map[string][]string{
	colStyle:       {"stil(GR/FS/WW/BW/MODIFICIRANO)"},
	colFightsTotal: {"borbi"},
	colWins:        {"pobjeda"},
	colLosses:      {"poraza"},
	colPlacement:   {"plasman(1-100)"},
	colWinsOver:    {"pobjeda_protiv", "pobjede_detalji(ime;klub | ...)"},
	colLossesTo:    {"poraz_od", "porazi_detalji(ime;klub | ... )"},
}

// headerNames returns col followed by the names it may also appear under:
// its registered aliases and the header without the parenthesised hint.
func headerNames(col string) []string {
	names := append([]string{col}, resultAliases[col]...)
	if i := strings.IndexByte(col, '('); i > 0 {
		names = append(names, col[:i])
	}
	return names
}

// cell reads column col of row, honouring header aliases.
func cell(s *spreadsheet.Sheet, row []string, col string) string {
	return s.Value(row, headerNames(col)...)
}

// MemberTemplate is an empty member import sheet.
func MemberTemplate() *spreadsheet.Table {
	return &spreadsheet.Table{Sheet: "ClanoviPredlozak", Columns: MemberColumns, Rows: [][]any{}}
}

// ResultTemplate is an empty result import sheet.
func ResultTemplate() *spreadsheet.Table {
	return &spreadsheet.Table{Sheet: "RezultatiPredlozak", Columns: ResultColumns, Rows: [][]any{}}
}
