package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/verify"
)

// checkNewMessage admits only intake statuses and derives the color code
// from the incident type.
func (s *server) checkNewMessage(c *gin.Context, m *models.ReceivedMessage) error {
	if m.Sender == "" {
		return fault.New(fault.ErrMissingField, "sender is required")
	}
	if m.Status == "" {
		m.Status = models.StatusNonVerified
	}
	if !m.Status.Intake() {
		return fault.New(fault.ErrInvalidValue, "new messages must be %s or %s, got %q",
			models.StatusNotConfirmed, models.StatusNonVerified, m.Status)
	}
	if m.IncidentType == nil || *m.IncidentType == "" {
		if m.ColorCode != nil {
			return fault.New(fault.ErrInvalidValue, "colorCode requires incidentType")
		}
		m.IncidentType = nil
		return nil
	}
	cl, err := s.taxonomy.Classify(*m.IncidentType)
	if err != nil {
		return err
	}
	m.ColorCode = &cl.ColorCode
	return nil
}

func checkMessageUpdate(c *gin.Context, id string, body []byte, keys map[string]json.RawMessage) error {
	return refuseKeys(keys, "is set by the verification workflow", "status", "incidentType", "colorCode")
}

type verifyBody struct {
	IncidentType string `json:"incidentType" binding:"required"`
	Barangay     string `json:"barangay" binding:"required"`
	RequestKey   string `json:"requestKey" binding:"omitempty,max=64"`
}

func (s *server) handleVerify(c *gin.Context) {
	var body verifyBody
	if err := bind(c, &body); err != nil {
		c.Error(err)
		return
	}
	req, err := s.verify.Begin(c.Request.Context(), verify.BeginOpts{
		MessageID:    c.Param("id"),
		IncidentType: body.IncidentType,
		Barangay:     body.Barangay,
		RequestKey:   body.RequestKey,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *server) handleDecline(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := s.verify.Decline(ctx, id); err != nil {
		c.Error(err)
		return
	}
	msg, err := s.stores.Messages.Get(ctx, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

type dispatchBody struct {
	ContactID string `json:"contactId" binding:"required"`
}

func (s *server) handleDispatch(c *gin.Context) {
	var body dispatchBody
	if err := bind(c, &body); err != nil {
		c.Error(err)
		return
	}
	d, err := s.dispatch.Dispatch(c.Request.Context(), c.Param("id"), body.ContactID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *server) handleOutstanding(c *gin.Context) {
	reqs, err := s.verify.Outstanding(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if reqs == nil {
		reqs = []models.VerificationRequest{}
	}
	c.JSON(http.StatusOK, reqs)
}
