package api

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/store"
)

func (s *server) checkNewContact(c *gin.Context, ct *models.Contact) error {
	if ct.Name == "" {
		return fault.New(fault.ErrMissingField, "Name is required")
	}
	if ct.Agency == "" {
		return fault.New(fault.ErrMissingField, "Agency is required")
	}
	return s.checkCaptainSlot(c.Request.Context(), ct)
}

// checkContactUpdate applies the body to a copy of the stored contact and
// checks the result.
func (s *server) checkContactUpdate(c *gin.Context, id string, body []byte, keys map[string]json.RawMessage) error {
	ctx := c.Request.Context()
	cur, err := s.stores.Contacts.Get(ctx, id)
	if err != nil {
		return err
	}
	next := *cur
	if err := json.Unmarshal(body, &next); err != nil {
		return fault.Wrap(fault.ErrInvalidValue, err, "invalid contact body")
	}
	if next.Name == "" {
		return fault.New(fault.ErrMissingField, "Name is required")
	}
	return s.checkCaptainSlot(ctx, &next)
}

// checkCaptainSlot refuses a second captain for a barangay.
func (s *server) checkCaptainSlot(ctx context.Context, ct *models.Contact) error {
	if !ct.Agency.IsCaptain() {
		return nil
	}
	if ct.Barangay == "" {
		return fault.New(fault.ErrMissingField, "Barangay is required for a %s", models.AgencyBarangayCaptain)
	}
	existing, err := s.stores.Contacts.List(ctx, store.Filter{
		"agency":   string(models.AgencyBarangayCaptain),
		"barangay": ct.Barangay,
	})
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID != ct.ID {
			return fault.New(fault.ErrDuplicateCaptain, "%s already has a captain: %s (%s)", ct.Barangay, e.Name, e.ID)
		}
	}
	return nil
}
