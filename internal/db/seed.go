package db

import (
	"errors"
	"fmt"

	"github.com/hkpodravka/klub/internal/config"
	"github.com/hkpodravka/klub/internal/models"
	"gorm.io/gorm"
)

// Seed inserts the singleton club row and the default groups when they are
// missing. Existing rows are never touched, so Seed can run on every start.
func Seed(db *gorm.DB, club config.ClubConfig) error {
	var existing models.ClubInfo
	err := db.First(&existing, models.ClubInfoID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		info := models.ClubInfo{
			ID:      models.ClubInfoID,
			Name:    club.Name,
			Email:   club.Email,
			Address: club.Address,
			OIB:     club.OIB,
			Web:     club.Web,
			IBAN:    club.IBAN,
		}
		if err := db.Create(&info).Error; err != nil {
			return fmt.Errorf("seed club: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load club: %w", err)
	}

	for _, name := range models.DefaultGroups {
		var g models.Group
		if err := db.Where("name = ?", name).First(&g).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&models.Group{Name: name}).Error; err != nil {
				return fmt.Errorf("seed group %s: %w", name, err)
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Init migrates and seeds.
func Init(db *gorm.DB, cfg *config.Config) error {
	if err := Migrate(db, cfg.App.Migrations); err != nil {
		return err
	}
	return Seed(db, cfg.Club)
}
