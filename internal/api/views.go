package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/incidentdesk/internal/dashboard"
	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/outbox"
	"github.com/zulandar/incidentdesk/internal/verify"
)

func (s *server) handleResponders(c *gin.Context) {
	contacts, err := s.dispatch.Responders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

func (s *server) handleTaxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": s.taxonomy.Categories(),
		"barangays":  s.reporter.Barangays().Names(),
	})
}

type classifyBody struct {
	IncidentType string `json:"incidentType" binding:"required"`
}

func (s *server) handleClassify(c *gin.Context) {
	var body classifyBody
	if err := bind(c, &body); err != nil {
		c.Error(err)
		return
	}
	cl, err := s.taxonomy.Classify(body.IncidentType)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (s *server) handleCounts(c *gin.Context) {
	counts, err := s.reporter.Counts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// handleInbox is GET /dashboard/inbox?barangay=X&status=A&status=B.
func (s *server) handleInbox(c *gin.Context) {
	f := dashboard.InboxFilter{Barangay: c.Query("barangay")}
	for _, raw := range c.QueryArray("status") {
		st, err := models.ParseMessageStatus(raw)
		if err != nil {
			c.Error(fault.Wrap(fault.ErrInvalidValue, err, "invalid status filter"))
			return
		}
		f.Statuses = append(f.Statuses, st)
	}
	msgs, err := s.reporter.Inbox(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	if msgs == nil {
		msgs = []models.ReceivedMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (s *server) handleOutbox(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.Error(fault.New(fault.ErrInvalidValue, "limit must be a non-negative integer, got %q", raw))
			return
		}
		limit = n
	}
	items, err := outbox.Pending(c.Request.Context(), s.stores.DB, limit)
	if err != nil {
		c.Error(err)
		return
	}
	if items == nil {
		items = []outbox.Item{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *server) handleUnaddressed(c *gin.Context) {
	reqs, err := outbox.Unaddressed(c.Request.Context(), s.stores.DB)
	if err != nil {
		c.Error(err)
		return
	}
	if reqs == nil {
		reqs = []models.VerificationRequest{}
	}
	c.JSON(http.StatusOK, reqs)
}

func (s *server) handleOrphans(c *gin.Context) {
	orphans, err := s.auditor.Run(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if orphans == nil {
		orphans = []verify.Orphan{}
	}
	c.JSON(http.StatusOK, orphans)
}
