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

// CoachDoc names a coach attachment slot. Other documents accumulate.
type CoachDoc string

const (
	CoachContract CoachDoc = "contract"
	CoachPhoto    CoachDoc = "photo"
	CoachOther    CoachDoc = "other"
)

// Partition is the uploads partition the document is stored in.
func (d CoachDoc) Partition() uploads.Partition {
	switch d {
	case CoachContract:
		return uploads.CoachContracts
	case CoachPhoto:
		return uploads.CoachPhotos
	default:
		return uploads.CoachDocs
	}
}

type CoachService struct {
	DB    *gorm.DB
	Files *uploads.Store
	Log   *logrus.Logger
}

func NewCoachService(db *gorm.DB, files *uploads.Store, log *logrus.Logger) *CoachService {
	return &CoachService{DB: db, Files: files, Log: log}
}

func (s *CoachService) List() ([]models.Coach, error) {
	coaches := []models.Coach{}
	err := s.DB.Preload("Group").Order("last_name, first_name, id").Find(&coaches).Error
	return coaches, err
}

func (s *CoachService) Get(id uint) (*models.Coach, error) {
	var c models.Coach
	if err := s.DB.Preload("Group").First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *CoachService) Create(c *models.Coach) error {
	normalizeCoach(c)
	if err := invalid(validateCoach(c)); err != nil {
		return err
	}
	return s.DB.Omit(clause.Associations).Create(c).Error
}

// Update overwrites the coach with id, keeping stored attachments.
func (s *CoachService) Update(id uint, c *models.Coach) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	normalizeCoach(c)
	if err := invalid(validateCoach(c)); err != nil {
		return err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.ContractPath = existing.ContractPath
	c.PhotoPath = existing.PhotoPath
	c.OtherDocs = existing.OtherDocs
	c.Group = nil
	return s.DB.Omit(clause.Associations).Save(c).Error
}

// Delete removes a coach. Their sessions stay, without the coach reference.
func (s *CoachService) Delete(id uint) error {
	var c models.Coach
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.CoachSession{}).Where("coach_id = ?", id).Update("coach_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return err
	}
	s.removeFiles(append([]string{c.ContractPath, c.PhotoPath}, c.OtherDocs...)...)
	return nil
}

// SetDocument stores st as the contract or photo, replacing the previous file,
// or appends it to the other documents.
func (s *CoachService) SetDocument(id uint, doc CoachDoc, st *uploads.Staged) error {
	c, err := s.Get(id)
	if err != nil {
		st.Discard()
		return err
	}
	var replaced string
	updates := map[string]any{}
	switch doc {
	case CoachContract:
		replaced = c.ContractPath
		updates["contract_path"] = st.Path
	case CoachPhoto:
		replaced = c.PhotoPath
		updates["photo_path"] = st.Path
	case CoachOther:
		docs := append(slices.Clone([]string(c.OtherDocs)), st.Path)
		updates["other_docs"] = datatypes.JSONSlice[string](docs)
	default:
		st.Discard()
		return invalid(validation.Violations{"doc": "not_allowed"})
	}
	err = withUploads(func() error {
		return s.DB.Model(&models.Coach{}).Where("id = ?", id).Updates(updates).Error
	}, st)
	if err != nil {
		return err
	}
	s.removeFiles(replaced)
	return nil
}

func (s *CoachService) removeFiles(paths ...string) {
	if s.Files == nil {
		return
	}
	for _, p := range paths {
		if err := s.Files.Remove(p); err != nil {
			s.Log.WithError(err).WithField("path", p).Warn("remove coach file")
		}
	}
}

func normalizeCoach(c *models.Coach) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.OIB = strings.TrimSpace(c.OIB)
	c.Email = strings.TrimSpace(c.Email)
	c.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(c.IBAN), " ", ""))
}

func validateCoach(c *models.Coach) validation.Violations {
	v := make(validation.Violations)
	validation.Required("first_name", c.FirstName, v)
	validation.Required("last_name", c.LastName, v)
	validation.Date("dob", c.DOB, v)
	validation.OIB("oib", c.OIB, v)
	validation.Email("email", c.Email, v)
	return v
}
