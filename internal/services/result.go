package services

import (
	"errors"
	"strings"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resultColumns are overwritten when a result for the same competition and
// member is entered again.
var resultColumns = []string{
	"category", "style", "fights_total", "wins", "losses", "placement",
	"wins_over", "losses_to", "note",
}

type ResultService struct{ DB *gorm.DB }

func NewResultService(db *gorm.DB) *ResultService { return &ResultService{DB: db} }

// Save inserts a result. A second result for the same competition and member
// updates the first one instead.
func (s *ResultService) Save(r *models.Result) error {
	normalizeResult(r)
	if err := invalid(validateResult(r)); err != nil {
		return err
	}
	if err := competitionExists(s.DB, r.CompetitionID); err != nil {
		return err
	}
	err := s.DB.Omit(clause.Associations).Create(r).Error
	if err == nil || !isDuplicate(err) {
		return err
	}
	var existing models.Result
	if err := s.DB.Where("competition_id = ? AND member_id = ?", r.CompetitionID, r.MemberID).First(&existing).Error; err != nil {
		return notFound(err)
	}
	r.ID = existing.ID
	return s.DB.Model(r).Select(resultColumns).Updates(r).Error
}

// ListByCompetition returns the results of one competition with their members.
func (s *ResultService) ListByCompetition(competitionID uint) ([]models.Result, error) {
	results := []models.Result{}
	err := s.DB.Preload("Member").
		Where("competition_id = ?", competitionID).
		Order("placement = 0, placement, id").
		Find(&results).Error
	return results, err
}

func (s *ResultService) Delete(id uint) error {
	res := s.DB.Delete(&models.Result{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func competitionExists(db *gorm.DB, id uint) error {
	var n int64
	if err := db.Model(&models.Competition{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownCompetition
	}
	return nil
}

// upsertResult inserts r or overwrites the result already stored for the same
// competition and member. It reports whether a new row was created.
func upsertResult(tx *gorm.DB, r *models.Result) (bool, error) {
	var existing models.Result
	err := tx.Select("id").
		Where("competition_id = ? AND member_id = ?", r.CompetitionID, r.MemberID).
		Take(&existing).Error
	switch {
	case err == nil:
		r.ID = existing.ID
		return false, tx.Model(r).Select(resultColumns).Updates(r).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, tx.Omit(clause.Associations).Create(r).Error
	default:
		return false, err
	}
}

func normalizeResult(r *models.Result) {
	r.Category = strings.TrimSpace(r.Category)
	r.Style = strings.ToUpper(strings.TrimSpace(r.Style))
	r.Note = strings.TrimSpace(r.Note)
	if r.WinsOver == nil {
		r.WinsOver = []models.Opponent{}
	}
	if r.LossesTo == nil {
		r.LossesTo = []models.Opponent{}
	}
}

func validateResult(r *models.Result) validation.Violations {
	v := make(validation.Violations)
	if r.CompetitionID == 0 {
		v["competition_id"] = "required"
	}
	validation.NonNegativeInt("fights_total", r.FightsTotal, v)
	validation.NonNegativeInt("wins", r.Wins, v)
	validation.NonNegativeInt("losses", r.Losses, v)
	validation.NonNegativeInt("placement", r.Placement, v)
	return v
}
