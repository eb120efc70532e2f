package store

import (
	"github.com/zulandar/incidentdesk/internal/models"
	"gorm.io/gorm"
)

// Set bundles the stores for every record kind over one database handle.
type Set struct {
	DB         *gorm.DB
	Messages   *Store[models.ReceivedMessage]
	Requests   *Store[models.VerificationRequest]
	Dispatches *Store[models.ResponseDispatch]
	Contacts   *Store[models.Contact]
	Reports    *Store[models.IncidentReport]
}

// NewSet builds all stores from db.
func NewSet(db *gorm.DB) (*Set, error) {
	var err error
	s := &Set{DB: db}
	if s.Messages, err = New[models.ReceivedMessage](db, "message"); err != nil {
		return nil, err
	}
	if s.Requests, err = New[models.VerificationRequest](db, "verification request"); err != nil {
		return nil, err
	}
	if s.Dispatches, err = New[models.ResponseDispatch](db, "response dispatch"); err != nil {
		return nil, err
	}
	if s.Contacts, err = New[models.Contact](db, "contact"); err != nil {
		return nil, err
	}
	if s.Reports, err = New[models.IncidentReport](db, "incident report"); err != nil {
		return nil, err
	}
	return s, nil
}
