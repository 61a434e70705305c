package services

import (
	"errors"
	"strings"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/hkpodravka/klub/validation"
	"gorm.io/gorm"
)

// PortalDocuments are the files a parent may hand in through the portal.
// Nil entries are left unchanged.
type PortalDocuments struct {
	Application       *uploads.Staged
	Consent           *uploads.Staged
	Medical           *uploads.Staged
	MedicalValidUntil string
}

func (d PortalDocuments) staged() []*uploads.Staged {
	return []*uploads.Staged{d.Application, d.Consent, d.Medical}
}

// PortalService serves the parent portal: members look themselves up by a
// contact e-mail and their OIB.
type PortalService struct {
	Members *MemberService
}

func NewPortalService(members *MemberService) *PortalService {
	return &PortalService{Members: members}
}

// Login finds the member whose athlete or guardian e-mail matches email
// (case-insensitively) and whose OIB equals oib.
func (s *PortalService) Login(email, oib string) (*models.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	oib = strings.TrimSpace(oib)
	if email == "" || oib == "" {
		return nil, ErrPortalLogin
	}
	var m models.Member
	err := s.Members.DB.Preload("Group").
		Where("oib = ?", oib).
		Where("LOWER(athlete_email) = ? OR LOWER(parent_email) = ?", email, email).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortalLogin
		}
		return nil, err
	}
	return &m, nil
}

// UploadDocuments stores the handed-in documents on the member in one update.
func (s *PortalService) UploadDocuments(memberID uint, d PortalDocuments) error {
	updates := map[string]any{}
	if d.Application != nil {
		updates["application_path"] = d.Application.Path
	}
	if d.Consent != nil {
		updates["consent_path"] = d.Consent.Path
		updates["consent_checked_date"] = s.Members.now().Format(models.DateLayout)
	}
	if d.Medical != nil {
		v := make(validation.Violations)
		validation.Required("medical_valid_until", d.MedicalValidUntil, v)
		validation.Date("medical_valid_until", d.MedicalValidUntil, v)
		if err := invalid(v); err != nil {
			for _, st := range d.staged() {
				st.Discard()
			}
			return err
		}
		updates["medical_path"] = d.Medical.Path
		updates["medical_valid_until"] = d.MedicalValidUntil
	}
	if len(updates) == 0 {
		return invalid(validation.Violations{"documents": "required"})
	}
	return s.Members.updateAttachments(memberID, updates, d.staged()...)
}
