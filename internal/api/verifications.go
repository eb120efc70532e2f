package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/verify"
)

type createVerificationBody struct {
	MessageID    string `json:"sms_received_documentId" binding:"required"`
	IncidentType string `json:"incidentType" binding:"required"`
	Barangay     string `json:"barangay" binding:"required"`
	RequestKey   string `json:"requestKey" binding:"omitempty,max=64"`
}

// handleCreateVerification is POST /sms-verifications. Requests are only
// created through Begin so the message status moves with them.
func (s *server) handleCreateVerification(c *gin.Context) {
	var body createVerificationBody
	if err := bind(c, &body); err != nil {
		c.Error(err)
		return
	}
	req, err := s.verify.Begin(c.Request.Context(), verify.BeginOpts{
		MessageID:    body.MessageID,
		IncidentType: body.IncidentType,
		Barangay:     body.Barangay,
		RequestKey:   body.RequestKey,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

type updateVerificationBody struct {
	Reply    *string `json:"response" binding:"omitempty,captain_reply"`
	Delivery *string `json:"messageStatus" binding:"omitempty,request_delivery"`
}

// handleUpdateVerification applies gateway writes: a delivery result, a
// captain reply, or both. The reply is applied first.
func (s *server) handleUpdateVerification(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	body, keys, err := readObject(c)
	if err != nil {
		c.Error(err)
		return
	}
	if err := onlyKeys(keys, "response", "messageStatus"); err != nil {
		c.Error(err)
		return
	}
	var upd updateVerificationBody
	if err := decode(body, &upd); err != nil {
		c.Error(err)
		return
	}

	// The reply carries the preconditions; a refused reply leaves the
	// delivery status as it was.
	if upd.Reply != nil {
		if err := s.verify.Resolve(ctx, id, models.CaptainReply(*upd.Reply)); err != nil {
			c.Error(err)
			return
		}
	}
	if upd.Delivery != nil {
		if err := s.verify.RecordDelivery(ctx, id, models.RequestDelivery(*upd.Delivery)); err != nil {
			c.Error(err)
			return
		}
	}
	s.respondRequest(c, id)
}

type replyBody struct {
	Reply string `json:"reply" binding:"required,captain_reply"`
}

func (s *server) handleReply(c *gin.Context) {
	var body replyBody
	if err := bind(c, &body); err != nil {
		c.Error(err)
		return
	}
	id := c.Param("id")
	if err := s.verify.Resolve(c.Request.Context(), id, models.CaptainReply(body.Reply)); err != nil {
		c.Error(err)
		return
	}
	s.respondRequest(c, id)
}

func (s *server) respondRequest(c *gin.Context, id string) {
	req, err := s.stores.Requests.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type updateDispatchBody struct {
	Delivery *string `json:"messageStatus" binding:"omitempty,dispatch_delivery"`
	Reply    *string `json:"response" binding:"omitempty,eq=Acknowledged"`
}

func (s *server) handleUpdateDispatch(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	body, keys, err := readObject(c)
	if err != nil {
		c.Error(err)
		return
	}
	if err := onlyKeys(keys, "response", "messageStatus"); err != nil {
		c.Error(err)
		return
	}
	var upd updateDispatchBody
	if err := decode(body, &upd); err != nil {
		c.Error(err)
		return
	}

	if upd.Reply != nil {
		if err := s.dispatch.Acknowledge(ctx, id); err != nil {
			c.Error(err)
			return
		}
	}
	if upd.Delivery != nil {
		if err := s.dispatch.RecordDelivery(ctx, id, models.DispatchDelivery(*upd.Delivery)); err != nil {
			c.Error(err)
			return
		}
	}
	d, err := s.stores.Dispatches.Get(ctx, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, d)
}
