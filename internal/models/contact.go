package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a directory entry for a barangay captain or a responder agency.
type Contact struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:128;not null;uniqueIndex:idx_contact_name_barangay" json:"Name"`
	Phone     string    `gorm:"size:32" json:"Number"`
	Barangay  string    `gorm:"size:64;index;uniqueIndex:idx_contact_name_barangay" json:"Barangay"`
	Agency    Agency    `gorm:"size:64;index" json:"Agency"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IncidentReport is an operator-authored report. It has no workflow of its
// own and is only served through the REST passthrough.
type IncidentReport struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Cause     string    `gorm:"size:256" json:"cause"`
	DateTime  string    `gorm:"size:64" json:"dateTime"`
	Location  string    `gorm:"size:256" json:"location"`
	Images    []string  `gorm:"serializer:json;type:text" json:"images"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (IncidentReport) TableName() string { return "incident_reports" }

func (r *IncidentReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
