package db

import (
	"errors"
	"fmt"

	"github.com/zulandar/incidentdesk/internal/config"
	"github.com/zulandar/incidentdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.ReceivedMessage{},
		&models.VerificationRequest{},
		&models.ResponseDispatch{},
		&models.Contact{},
		&models.IncidentReport{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedContacts upserts directory entries from configuration, keyed by name
// and barangay. A captain entry replaces the barangay's existing captain
// in place so a barangay never ends up with two.
func SeedContacts(db *gorm.DB, contacts []config.ContactConfig) error {
	for _, cc := range contacts {
		c := models.Contact{
			Name:     cc.Name,
			Phone:    cc.Phone,
			Barangay: cc.Barangay,
			Agency:   models.Agency(cc.Agency),
		}
		if c.Agency.IsCaptain() {
			replaced, err := replaceCaptain(db, c)
			if err != nil {
				return fmt.Errorf("db: seed contact %q: %w", cc.Name, err)
			}
			if replaced {
				continue
			}
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "barangay"}},
			DoUpdates: clause.AssignmentColumns([]string{"phone", "agency", "updated_at"}),
		}).Create(&c)
		if result.Error != nil {
			return fmt.Errorf("db: seed contact %q: %w", cc.Name, result.Error)
		}
	}
	return nil
}

// replaceCaptain overwrites the oldest captain row of c's barangay with c.
// It reports false when the barangay has no captain yet.
func replaceCaptain(db *gorm.DB, c models.Contact) (bool, error) {
	var current models.Contact
	err := db.Where("barangay = ? AND agency = ?", c.Barangay, string(models.AgencyBarangayCaptain)).
		Order("created_at ASC, id ASC").
		First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = db.Model(&current).Updates(map[string]any{
		"name":  c.Name,
		"phone": c.Phone,
	}).Error
	return err == nil, err
}
