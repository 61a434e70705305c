package services

import (
	"errors"
	"strings"
	"time"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/hkpodravka/klub/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberDoc names a member attachment slot.
type MemberDoc string

const (
	MemberPhoto       MemberDoc = "photo"
	MemberApplication MemberDoc = "application"
	MemberConsent     MemberDoc = "consent"
	MemberMedical     MemberDoc = "medical"
)

// Partition is the uploads partition the document is stored in.
func (d MemberDoc) Partition() uploads.Partition {
	switch d {
	case MemberPhoto:
		return uploads.MemberPhotos
	case MemberMedical:
		return uploads.MemberMedical
	default:
		return uploads.MemberForms
	}
}

func (d MemberDoc) valid() bool {
	switch d {
	case MemberPhoto, MemberApplication, MemberConsent, MemberMedical:
		return true
	}
	return false
}

// memberColumns are overwritten by an import upsert. Attachment paths are
// not part of the spreadsheet and stay untouched.
var memberColumns = []string{
	"first_name", "last_name", "dob", "gender",
	"street", "city", "postal_code", "athlete_email", "parent_email",
	"id_card_number", "id_card_issuer", "id_card_valid_until",
	"passport_number", "passport_issuer", "passport_valid_until",
	"active_competitor", "veteran", "other_flag", "pays_fee", "fee_amount",
	"group_id", "updated_at",
}

// MemberFilter narrows List. Zero values match everything.
type MemberFilter struct {
	Query        string
	GroupID      uint
	ActiveOnly   bool
	VeteransOnly bool
	IDs          []uint
}

type MemberService struct {
	DB    *gorm.DB
	Files *uploads.Store
	Log   *logrus.Logger
	now   func() time.Time
}

func NewMemberService(db *gorm.DB, files *uploads.Store, log *logrus.Logger) *MemberService {
	return &MemberService{DB: db, Files: files, Log: log, now: time.Now}
}

// List returns members ordered by last and first name, with their group.
func (s *MemberService) List(f MemberFilter) ([]models.Member, error) {
	q := s.DB.Preload("Group")
	if f.Query != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(f.Query)) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR oib LIKE ?", like, like, like)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.ActiveOnly {
		q = q.Where("active_competitor = ?", true)
	}
	if f.VeteransOnly {
		q = q.Where("veteran = ?", true)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	members := []models.Member{}
	err := q.Order("last_name, first_name, id").Find(&members).Error
	return members, err
}

// Veterans returns members flagged as veterans.
func (s *MemberService) Veterans() ([]models.Member, error) {
	return s.List(MemberFilter{VeteransOnly: true})
}

// ByGroup returns the members of one group.
func (s *MemberService) ByGroup(groupID uint) ([]models.Member, error) {
	return s.List(MemberFilter{GroupID: groupID})
}

func (s *MemberService) Get(id uint) (*models.Member, error) {
	var m models.Member
	if err := s.DB.Preload("Group").First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *MemberService) GetByOIB(oib string) (*models.Member, error) {
	var m models.Member
	if err := s.DB.Preload("Group").Where("oib = ?", strings.TrimSpace(oib)).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// Save inserts a member entered through the form. When the OIB already
// exists the existing row is updated instead, keeping its attachments unless
// a new photo is supplied.
func (s *MemberService) Save(m *models.Member, photo *uploads.Staged) error {
	normalizeMember(m)
	if err := invalid(validateMember(m)); err != nil {
		photo.Discard()
		return err
	}
	if photo != nil {
		m.PhotoPath = photo.Path
	}
	return withUploads(func() error {
		err := s.DB.Omit(clause.Associations).Create(m).Error
		if err == nil || !isDuplicate(err) {
			return err
		}
		var existing models.Member
		if err := s.DB.Where("oib = ?", m.OIBValue()).First(&existing).Error; err != nil {
			return notFound(err)
		}
		s.Log.WithField("oib", m.OIBValue()).Info("member exists, updating by oib")
		keepAttachments(m, &existing)
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
		return s.DB.Omit(clause.Associations).Save(m).Error
	}, photo)
}

// Update overwrites the member with id. Empty attachment paths keep the
// stored ones.
func (s *MemberService) Update(id uint, m *models.Member) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	normalizeMember(m)
	if err := invalid(validateMember(m)); err != nil {
		return err
	}
	keepAttachments(m, existing)
	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	m.Group = nil
	if err := s.DB.Omit(clause.Associations).Save(m).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Delete removes a member. Their results are kept with the member reference
// cleared; attendance records are removed. Attachments are deleted afterwards.
func (s *MemberService) Delete(id uint) error {
	var m models.Member
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.Result{}).Where("member_id = ?", id).Update("member_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", id).Delete(&models.MemberSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		return err
	}
	s.removeFiles(m.PhotoPath, m.ApplicationPath, m.ConsentPath, m.MedicalPath)
	return nil
}

// SetDocument stores st in the attachment slot doc, replacing any earlier file.
// Uploading a consent form also records today as the consent check date.
func (s *MemberService) SetDocument(id uint, doc MemberDoc, st *uploads.Staged) error {
	if !doc.valid() {
		st.Discard()
		return invalid(validation.Violations{"doc": "not_allowed"})
	}
	updates := map[string]any{string(doc) + "_path": st.Path}
	if doc == MemberConsent {
		updates["consent_checked_date"] = s.now().Format(models.DateLayout)
	}
	return s.updateAttachments(id, updates, st)
}

// SetMedical records the medical certificate expiry and, when st is given,
// the certificate file.
func (s *MemberService) SetMedical(id uint, validUntil string, st *uploads.Staged) error {
	validUntil = strings.TrimSpace(validUntil)
	v := make(validation.Violations)
	validation.Required("medical_valid_until", validUntil, v)
	validation.Date("medical_valid_until", validUntil, v)
	if err := invalid(v); err != nil {
		st.Discard()
		return err
	}
	updates := map[string]any{"medical_valid_until": validUntil}
	if st != nil {
		updates["medical_path"] = st.Path
	}
	return s.updateAttachments(id, updates, st)
}

// updateAttachments writes updates to the member row, finalizes the staged
// files and removes the files they replaced.
func (s *MemberService) updateAttachments(id uint, updates map[string]any, staged ...*uploads.Staged) error {
	existing, err := s.Get(id)
	if err != nil {
		for _, st := range staged {
			st.Discard()
		}
		return err
	}
	err = withUploads(func() error {
		return s.DB.Model(&models.Member{}).Where("id = ?", id).Updates(updates).Error
	}, staged...)
	if err != nil {
		return err
	}
	old := map[string]string{
		"photo_path":       existing.PhotoPath,
		"application_path": existing.ApplicationPath,
		"consent_path":     existing.ConsentPath,
		"medical_path":     existing.MedicalPath,
	}
	for col, prev := range old {
		if next, ok := updates[col]; ok && next != prev {
			s.removeFiles(prev)
		}
	}
	return nil
}

func (s *MemberService) removeFiles(paths ...string) {
	if s.Files == nil {
		return
	}
	for _, p := range paths {
		if err := s.Files.Remove(p); err != nil {
			s.Log.WithError(err).WithField("path", p).Warn("remove member file")
		}
	}
}

// upsertMember inserts m or overwrites every imported column of the row with
// the same OIB. It reports whether a new row was created.
func upsertMember(tx *gorm.DB, m *models.Member) (bool, error) {
	var existing models.Member
	err := tx.Select("id", "created_at").Where("oib = ?", m.OIBValue()).Take(&existing).Error
	switch {
	case err == nil:
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
		return false, tx.Model(m).Select(memberColumns).Updates(m).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, tx.Omit(clause.Associations).Create(m).Error
	default:
		return false, err
	}
}

func keepAttachments(m, existing *models.Member) {
	if m.PhotoPath == "" {
		m.PhotoPath = existing.PhotoPath
	}
	if m.ApplicationPath == "" {
		m.ApplicationPath = existing.ApplicationPath
	}
	if m.ConsentPath == "" {
		m.ConsentPath = existing.ConsentPath
	}
	if m.MedicalPath == "" {
		m.MedicalPath = existing.MedicalPath
	}
	if m.MedicalValidUntil == "" {
		m.MedicalValidUntil = existing.MedicalValidUntil
	}
	if m.ConsentCheckedDate == "" {
		m.ConsentCheckedDate = existing.ConsentCheckedDate
	}
}

func normalizeMember(m *models.Member) {
	m.FirstName = strings.TrimSpace(m.FirstName)
	m.LastName = strings.TrimSpace(m.LastName)
	m.Gender = normalizeGender(m.Gender)
	m.AthleteEmail = strings.TrimSpace(m.AthleteEmail)
	m.ParentEmail = strings.TrimSpace(m.ParentEmail)
	if m.OIB != nil {
		oib := strings.TrimSpace(*m.OIB)
		if oib == "" {
			m.OIB = nil
		} else {
			m.OIB = &oib
		}
	}
}

// validateMember checks form input. The OIB is mandatory and checksummed.
func validateMember(m *models.Member) validation.Violations {
	v := make(validation.Violations)
	validation.Required("first_name", m.FirstName, v)
	validation.Required("last_name", m.LastName, v)
	validation.Required("oib", m.OIBValue(), v)
	validation.OIB("oib", m.OIBValue(), v)
	validation.Date("dob", m.DOB, v)
	validation.OneOf("gender", m.Gender, []string{"M", "Ž"}, v)
	validation.Email("athlete_email", m.AthleteEmail, v)
	validation.Email("parent_email", m.ParentEmail, v)
	validation.Date("id_card_valid_until", m.IDCardValidUntil, v)
	validation.Date("passport_valid_until", m.PassportValidUntil, v)
	validation.Date("medical_valid_until", m.MedicalValidUntil, v)
	validation.NonNegativeFloat("fee_amount", m.FeeAmount, v)
	return v
}

func normalizeGender(g string) string {
	switch strings.ToUpper(strings.TrimSpace(g)) {
	case "M":
		return "M"
	case "Ž", "Z", "F", "W":
		return "Ž"
	}
	return strings.ToUpper(strings.TrimSpace(g))
}
