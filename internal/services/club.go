package services

import (
	"strings"
	"time"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/hkpodravka/klub/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClubInput is the editable part of the club record.
type ClubInput struct {
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Address     string               `json:"address"`
	OIB         string               `json:"oib"`
	Web         string               `json:"web"`
	IBAN        string               `json:"iban"`
	President   string               `json:"president"`
	Secretary   string               `json:"secretary"`
	Board       []models.BoardMember `json:"board"`
	Supervisory []models.BoardMember `json:"supervisory"`
	Instagram   string               `json:"instagram"`
	Facebook    string               `json:"facebook"`
	TikTok      string               `json:"tiktok"`
}

type ClubService struct{ DB *gorm.DB }

func NewClubService(db *gorm.DB) *ClubService { return &ClubService{DB: db} }

// Get returns the singleton club row.
func (s *ClubService) Get() (*models.ClubInfo, error) {
	var c models.ClubInfo
	if err := s.DB.First(&c, models.ClubInfoID).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Update overwrites the club identity. Board entries without a name are dropped.
func (s *ClubService) Update(in ClubInput) (*models.ClubInfo, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.OIB = strings.TrimSpace(in.OIB)
	in.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.IBAN), " ", ""))

	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.Email("email", in.Email, v)
	validation.OIB("oib", in.OIB, v)
	if err := invalid(v); err != nil {
		return nil, err
	}

	c, err := s.Get()
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Email = strings.TrimSpace(in.Email)
	c.Address = strings.TrimSpace(in.Address)
	c.OIB = in.OIB
	c.Web = strings.TrimSpace(in.Web)
	c.IBAN = in.IBAN
	c.President = strings.TrimSpace(in.President)
	c.Secretary = strings.TrimSpace(in.Secretary)
	c.Board = datatypes.JSONSlice[models.BoardMember](cleanBoard(in.Board))
	c.Supervisory = datatypes.JSONSlice[models.BoardMember](cleanBoard(in.Supervisory))
	c.Instagram = strings.TrimSpace(in.Instagram)
	c.Facebook = strings.TrimSpace(in.Facebook)
	c.TikTok = strings.TrimSpace(in.TikTok)
	if err := s.DB.Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func cleanBoard(in []models.BoardMember) []models.BoardMember {
	out := make([]models.BoardMember, 0, len(in))
	for _, b := range in {
		b.Name = strings.TrimSpace(b.Name)
		if b.Name == "" {
			continue
		}
		b.Phone = strings.TrimSpace(b.Phone)
		b.Email = strings.TrimSpace(b.Email)
		out = append(out, b)
	}
	return out
}

// AddDocument records a staged club document and finalizes the file.
func (s *ClubService) AddDocument(kind string, st *uploads.Staged) (*models.ClubDoc, error) {
	if kind == "" {
		kind = models.DocKindOther
	}
	v := make(validation.Violations)
	validation.OneOf("kind", kind, []string{models.DocKindStatute, models.DocKindOther}, v)
	if err := invalid(v); err != nil {
		st.Discard()
		return nil, err
	}
	doc := models.ClubDoc{Kind: kind, Filename: st.Filename, Path: st.Path, UploadedAt: time.Now()}
	err := withUploads(func() error { return s.DB.Create(&doc).Error }, st)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns club documents, newest first.
func (s *ClubService) ListDocuments() ([]models.ClubDoc, error) {
	docs := []models.ClubDoc{}
	err := s.DB.Order("uploaded_at DESC, id DESC").Find(&docs).Error
	return docs, err
}
