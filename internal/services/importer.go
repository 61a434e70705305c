package services

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hkpodravka/klub/internal/metrics"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/spreadsheet"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Import kinds, used as metric labels.
const (
	ImportMembersKind = "members"
	ImportResultsKind = "results"
)

// RowError is a spreadsheet row that could not be imported. Row is the
// 1-based spreadsheet line, header included.
type RowError struct {
	Row int    `json:"row"`
	Key string `json:"key,omitempty"`
	Err string `json:"error"`
}

func (e RowError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("row %d (%s): %s", e.Row, e.Key, e.Err)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}

// ImportReport summarizes one import. Every row is applied on its own; rows
// imported before a failing row stay committed.
type ImportReport struct {
	Kind     string     `json:"kind"`
	Rows     int        `json:"rows"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors"`
}

// OK reports whether every row was applied or deliberately skipped.
func (r *ImportReport) OK() bool { return r.Failed == 0 }

// FirstError returns the first failing row, or nil.
func (r *ImportReport) FirstError() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

func (r *ImportReport) count(outcome string) {
	switch outcome {
	case metrics.OutcomeInserted:
		r.Inserted++
	case metrics.OutcomeUpdated:
		r.Updated++
	case metrics.OutcomeSkipped:
		r.Skipped++
	case metrics.OutcomeFailed:
		r.Failed++
	}
	metrics.ImportRows.WithLabelValues(r.Kind, outcome).Inc()
}

func (r *ImportReport) fail(row int, key string, err error) {
	r.Errors = append(r.Errors, RowError{Row: row, Key: key, Err: err.Error()})
	r.count(metrics.OutcomeFailed)
}

// Importer applies member and result spreadsheets to the store.
type Importer struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewImporter(db *gorm.DB, log *logrus.Logger) *Importer {
	return &Importer{DB: db, Log: log}
}

// ImportMembers upserts every row of the member sheet keyed by OIB. Mapped
// fields of existing members are fully replaced, blanks included. The group
// column is resolved by name and created when missing.
func (im *Importer) ImportMembers(r io.Reader) (*ImportReport, error) {
	sheet, err := spreadsheet.Read(r)
	if err != nil {
		return nil, err
	}
	if !sheet.Has(colOIB) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colOIB)
	}
	rep := &ImportReport{Kind: ImportMembersKind, Errors: []RowError{}}
	for i, row := range sheet.Rows {
		if spreadsheet.Blank(row) {
			continue
		}
		rep.Rows++
		line := i + 2
		m, group, err := memberFromRow(sheet, row)
		if err != nil {
			rep.fail(line, cell(sheet, row, colOIB), err)
			continue
		}
		var inserted bool
		err = im.DB.Transaction(func(tx *gorm.DB) error {
			if m.GroupID, err = resolveGroup(tx, group); err != nil {
				return err
			}
			inserted, err = upsertMember(tx, m)
			return err
		})
		if err != nil {
			rep.fail(line, m.OIBValue(), err)
			continue
		}
		if inserted {
			rep.count(metrics.OutcomeInserted)
		} else {
			rep.count(metrics.OutcomeUpdated)
		}
	}
	im.logReport(rep)
	return rep, nil
}

func memberFromRow(s *spreadsheet.Sheet, row []string) (*models.Member, string, error) {
	oib := normalizeOIB(cell(s, row, colOIB))
	if oib == "" {
		return nil, "", errors.New("oib is required")
	}
	m := &models.Member{
		FirstName:      cell(s, row, colFirstName),
		LastName:       cell(s, row, colLastName),
		Gender:         normalizeGender(cell(s, row, colGender)),
		OIB:            &oib,
		Street:         cell(s, row, colStreet),
		City:           cell(s, row, colCity),
		PostalCode:     strings.TrimSuffix(cell(s, row, colPostalCode), ".0"),
		AthleteEmail:   cell(s, row, colAthleteEmail),
		ParentEmail:    cell(s, row, colParentEmail),
		IDCardNumber:   cell(s, row, colIDCardNumber),
		IDCardIssuer:   cell(s, row, colIDCardIssuer),
		PassportNumber: cell(s, row, colPassportNumber),
		PassportIssuer: cell(s, row, colPassportIssuer),
	}
	dates := []struct {
		col string
		dst *string
	}{
		{colDOB, &m.DOB},
		{colIDCardValidUntil, &m.IDCardValidUntil},
		{colPassportValid, &m.PassportValidUntil},
	}
	for _, d := range dates {
		v, err := NormalizeDate(cell(s, row, d.col))
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", d.col, err)
		}
		*d.dst = v
	}
	flags := []struct {
		col string
		dst *bool
	}{
		{colActive, &m.ActiveCompetitor},
		{colVeteran, &m.Veteran},
		{colOther, &m.OtherFlag},
		{colPaysFee, &m.PaysFee},
	}
	for _, f := range flags {
		v, err := parseFlag(cell(s, row, f.col))
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", f.col, err)
		}
		*f.dst = v
	}
	fee, err := parseFee(cell(s, row, colFeeAmount))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", colFeeAmount, err)
	}
	m.FeeAmount = fee
	return m, cell(s, row, colGroup), nil
}

// ImportResults upserts every row of the result sheet keyed by competition
// and member. Rows whose member OIB is unknown are skipped; rows citing an
// unknown competition fail.
func (im *Importer) ImportResults(r io.Reader) (*ImportReport, error) {
	sheet, err := spreadsheet.Read(r)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{colCompetitionID, colMemberOIB} {
		if !sheet.Has(headerNames(col)...) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	rep := &ImportReport{Kind: ImportResultsKind, Errors: []RowError{}}
	for i, row := range sheet.Rows {
		if spreadsheet.Blank(row) {
			continue
		}
		rep.Rows++
		line := i + 2
		oib := normalizeOIB(cell(sheet, row, colMemberOIB))
		// Rows for unknown athletes are dropped before their cells are checked.
		var member models.Member
		err := gorm.ErrRecordNotFound
		if oib != "" {
			err = im.DB.Select("id").Where("oib = ?", oib).Take(&member).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			im.Log.WithFields(logrus.Fields{"row": line, "oib": oib}).Debug("result import: member not found, skipping")
			rep.count(metrics.OutcomeSkipped)
			continue
		}
		if err != nil {
			rep.fail(line, oib, err)
			continue
		}
		res, err := resultFromRow(sheet, row)
		if err != nil {
			rep.fail(line, oib, err)
			continue
		}
		res.MemberID = &member.ID
		var inserted bool
		err = im.DB.Transaction(func(tx *gorm.DB) error {
			if err := competitionExists(tx, res.CompetitionID); err != nil {
				return err
			}
			inserted, err = upsertResult(tx, res)
			return err
		})
		if err != nil {
			rep.fail(line, oib, err)
			continue
		}
		if inserted {
			rep.count(metrics.OutcomeInserted)
		} else {
			rep.count(metrics.OutcomeUpdated)
		}
	}
	im.logReport(rep)
	return rep, nil
}

func resultFromRow(s *spreadsheet.Sheet, row []string) (*models.Result, error) {
	compID, err := strconv.ParseUint(strings.TrimSuffix(cell(s, row, colCompetitionID), ".0"), 10, 64)
	if err != nil || compID == 0 {
		return nil, fmt.Errorf("%s: invalid competition id %q", colCompetitionID, cell(s, row, colCompetitionID))
	}
	res := &models.Result{
		CompetitionID: uint(compID),
		Category:      cell(s, row, colCategory),
		Style:         strings.ToUpper(cell(s, row, colStyle)),
		WinsOver:      models.ParseOpponents(cell(s, row, colWinsOver)),
		LossesTo:      models.ParseOpponents(cell(s, row, colLossesTo)),
		Note:          cell(s, row, colNote),
	}
	counts := []struct {
		col string
		dst *int
	}{
		{colFightsTotal, &res.FightsTotal},
		{colWins, &res.Wins},
		{colLosses, &res.Losses},
		{colPlacement, &res.Placement},
	}
	for _, c := range counts {
		v, err := parseCount(cell(s, row, c.col))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.col, err)
		}
		*c.dst = v
	}
	normalizeResult(res)
	return res, nil
}

func (im *Importer) logReport(rep *ImportReport) {
	entry := im.Log.WithFields(logrus.Fields{
		"kind":     rep.Kind,
		"rows":     rep.Rows,
		"inserted": rep.Inserted,
		"updated":  rep.Updated,
		"skipped":  rep.Skipped,
		"failed":   rep.Failed,
	})
	if rep.Failed > 0 {
		entry.WithError(rep.FirstError()).Warn("import finished with errors")
		return
	}
	entry.Info("import finished")
}
