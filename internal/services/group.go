package services

import (
	"strings"

	"github.com/hkpodravka/klub/internal/models"
	"github.com/hkpodravka/klub/validation"
	"gorm.io/gorm"
)

// GroupCount is a group with the number of members assigned to it.
type GroupCount struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Members     int    `json:"members"`
}

type GroupService struct{ DB *gorm.DB }

func NewGroupService(db *gorm.DB) *GroupService { return &GroupService{DB: db} }

// List returns all groups ordered by name.
func (s *GroupService) List() ([]models.Group, error) {
	groups := []models.Group{}
	err := s.DB.Order("name").Find(&groups).Error
	return groups, err
}

// Counts returns every group with its member count.
func (s *GroupService) Counts() ([]GroupCount, error) {
	out := []GroupCount{}
	err := s.DB.Table(`"groups" AS g`).
		Select("g.id, g.name, g.description, COUNT(m.id) AS members").
		Joins("LEFT JOIN members m ON m.group_id = g.id").
		Group("g.id, g.name, g.description").
		Order("g.name").
		Scan(&out).Error
	return out, err
}

func (s *GroupService) Create(name, description string) (*models.Group, error) {
	g := models.Group{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	v := make(validation.Violations)
	validation.Required("name", g.Name, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	if err := s.DB.Create(&g).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &g, nil
}

// Delete removes a group; its members and coaches become unassigned.
func (s *GroupService) Delete(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := tx.First(&g, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.Member{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Coach{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&g).Error
	})
}

// AssignMember sets or clears (groupID nil) a member's group.
func (s *GroupService) AssignMember(memberID uint, groupID *uint) error {
	if groupID != nil {
		var n int64
		if err := s.DB.Model(&models.Group{}).Where("id = ?", *groupID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	res := s.DB.Model(&models.Member{}).Where("id = ?", memberID).Update("group_id", groupID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// resolveGroup returns the id of the group called name, creating it when
// missing. A blank name resolves to nil.
func resolveGroup(tx *gorm.DB, name string) (*uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	g := models.Group{Name: name}
	if err := tx.Where(models.Group{Name: name}).FirstOrCreate(&g).Error; err != nil {
		return nil, err
	}
	return &g.ID, nil
}
