package services

import (
	"slices"
	"strings"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/hkpodravka/klub/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompetitionService struct {
	DB    *gorm.DB
	Files *uploads.Store
	Log   *logrus.Logger
}

func NewCompetitionService(db *gorm.DB, files *uploads.Store, log *logrus.Logger) *CompetitionService {
	return &CompetitionService{DB: db, Files: files, Log: log}
}

// List returns competitions, newest first. A non-empty year keeps only
// competitions starting in that calendar year.
func (s *CompetitionService) List(year string) ([]models.Competition, error) {
	q := s.DB.Model(&models.Competition{})
	if year = strings.TrimSpace(year); year != "" {
		q = q.Where("substr(date_from, 1, 4) = ?", year)
	}
	list := []models.Competition{}
	err := q.Order("date_from DESC, id DESC").Find(&list).Error
	return list, err
}

// Years returns the distinct competition years, newest first.
func (s *CompetitionService) Years() ([]string, error) {
	years := []string{}
	err := s.DB.Raw("SELECT DISTINCT substr(date_from, 1, 4) AS y FROM competitions ORDER BY y DESC").
		Scan(&years).Error
	return years, err
}

// Get returns a competition with its results and their members.
func (s *CompetitionService) Get(id uint) (*models.Competition, error) {
	var c models.Competition
	err := s.DB.
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("placement = 0, placement, id") }).
		Preload("Results.Member").
		First(&c, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *CompetitionService) Create(c *models.Competition) error {
	normalizeCompetition(c)
	if err := invalid(validateCompetition(c)); err != nil {
		return err
	}
	return s.DB.Omit(clause.Associations).Create(c).Error
}

// Delete removes a competition together with all of its results and gallery files.
func (s *CompetitionService) Delete(id uint) error {
	var c models.Competition
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("competition_id = ?", id).Delete(&models.Result{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return err
	}
	if s.Files != nil {
		for _, p := range c.Gallery {
			if err := s.Files.Remove(p); err != nil {
				s.Log.WithError(err).WithField("path", p).Warn("remove gallery image")
			}
		}
	}
	return nil
}

// AddGalleryImage appends a staged image to the competition gallery.
func (s *CompetitionService) AddGalleryImage(id uint, st *uploads.Staged) error {
	var c models.Competition
	if err := s.DB.First(&c, id).Error; err != nil {
		st.Discard()
		return notFound(err)
	}
	gallery := append(slices.Clone([]string(c.Gallery)), st.Path)
	return withUploads(func() error {
		return s.DB.Model(&models.Competition{}).Where("id = ?", id).
			Update("gallery", datatypes.JSONSlice[string](gallery)).Error
	}, st)
}

func normalizeCompetition(c *models.Competition) {
	c.Kind = strings.ToUpper(strings.TrimSpace(c.Kind))
	c.KindOther = strings.TrimSpace(c.KindOther)
	if c.Kind != models.KindOther {
		c.KindOther = ""
	}
	c.Name = strings.TrimSpace(c.Name)
	c.DateFrom = strings.TrimSpace(c.DateFrom)
	c.DateTo = strings.TrimSpace(c.DateTo)
	c.Style = strings.ToUpper(strings.TrimSpace(c.Style))
	c.AgeCategory = strings.ToUpper(strings.TrimSpace(c.AgeCategory))
	c.CountryISO3 = strings.ToUpper(strings.TrimSpace(c.CountryISO3))
	coaches := make([]string, 0, len(c.Coaches))
	for _, name := range c.Coaches {
		if name = strings.TrimSpace(name); name != "" {
			coaches = append(coaches, name)
		}
	}
	c.Coaches = coaches
}

func validateCompetition(c *models.Competition) validation.Violations {
	v := make(validation.Violations)
	validation.Required("kind", c.Kind, v)
	validation.OneOf("kind", c.Kind, models.CompetitionKinds, v)
	if c.Kind == models.KindOther {
		validation.Required("kind_other", c.KindOther, v)
	}
	validation.Required("name", c.Name, v)
	validation.Required("date_from", c.DateFrom, v)
	validation.Date("date_from", c.DateFrom, v)
	validation.Date("date_to", c.DateTo, v)
	if _, bad := v["date_to"]; !bad && c.DateTo != "" && c.DateTo < c.DateFrom {
		v["date_to"] = "before_start"
	}
	validation.OneOf("style", c.Style, models.Styles, v)
	validation.OneOf("age_category", c.AgeCategory, models.AgeCategories, v)
	validation.NonNegativeInt("team_rank", c.TeamRank, v)
	validation.NonNegativeInt("club_competitors", c.ClubCompetitors, v)
	validation.NonNegativeInt("total_competitors", c.TotalCompetitors, v)
	validation.NonNegativeInt("clubs_count", c.ClubsCount, v)
	validation.NonNegativeInt("countries_count", c.CountriesCount, v)
	return v
}
