package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/store"
	"go.uber.org/zap"
)

// Orphan reasons.
const (
	OrphanMessageMissing   = "message_missing"
	OrphanNotVerifying     = "message_not_verifying"
	OrphanDuplicateWaiting = "duplicate_waiting"
)

// Orphan is a waiting request that does not match its message's state.
type Orphan struct {
	Request       models.VerificationRequest `json:"request"`
	MessageStatus models.MessageStatus       `json:"messageStatus,omitempty"`
	Reason        string                     `json:"reason"`
}

// Outstanding returns the requests for messageID still waiting on the
// captain, oldest first.
func (c *Coordinator) Outstanding(ctx context.Context, messageID string) ([]models.VerificationRequest, error) {
	reqs, err := c.stores.Requests.List(ctx, store.Filter{
		"message_id":    messageID,
		"captain_reply": string(models.ReplyWaiting),
	})
	if err != nil {
		return nil, fmt.Errorf("verify: outstanding for %s: %w", messageID, err)
	}
	return reqs, nil
}

// RecordDelivery stores the gateway's delivery result for the confirmation
// SMS. It does not affect the message status.
func (c *Coordinator) RecordDelivery(ctx context.Context, requestID string, status models.RequestDelivery) error {
	if status != models.RequestSent && status != models.RequestFailed {
		return fault.New(fault.ErrInvalidValue, "delivery status must be %s or %s, got %q",
			models.RequestSent, models.RequestFailed, status)
	}
	err := c.stores.Requests.Update(ctx, requestID, map[string]any{"dispatch_status": string(status)})
	if errors.Is(err, fault.ErrRecordNotFound) {
		return fault.New(fault.ErrRequestNotFound, "verification request not found: %s", requestID)
	}
	if err != nil {
		return fmt.Errorf("verify: record delivery %s: %w", requestID, err)
	}
	c.log.Debug("verification delivery recorded",
		zap.String("request_id", requestID),
		zap.String("dispatch_status", string(status)),
	)
	return nil
}

// Orphans lists waiting requests left behind by an interrupted or racing
// Begin: the message is gone, was never moved to Verifying, or has more than
// one waiting request. It only reports; nothing is repaired.
func (c *Coordinator) Orphans(ctx context.Context) ([]Orphan, error) {
	waiting, err := c.stores.Requests.List(ctx, store.Filter{"captain_reply": string(models.ReplyWaiting)})
	if err != nil {
		return nil, fmt.Errorf("verify: orphans: %w", err)
	}
	if len(waiting) == 0 {
		return nil, nil
	}

	var ids []string
	perMessage := make(map[string]int)
	for _, r := range waiting {
		if perMessage[r.MessageID] == 0 {
			ids = append(ids, r.MessageID)
		}
		perMessage[r.MessageID]++
	}
	msgs, err := c.stores.Messages.List(ctx, store.Filter{"id": ids})
	if err != nil {
		return nil, fmt.Errorf("verify: orphans: %w", err)
	}
	status := make(map[string]models.MessageStatus, len(msgs))
	for _, m := range msgs {
		status[m.ID] = m.Status
	}

	var out []Orphan
	for _, r := range waiting {
		st, ok := status[r.MessageID]
		switch {
		case !ok:
			out = append(out, Orphan{Request: r, Reason: OrphanMessageMissing})
		case st.Intake():
			out = append(out, Orphan{Request: r, MessageStatus: st, Reason: OrphanNotVerifying})
		case st == models.StatusVerifying && perMessage[r.MessageID] > 1:
			out = append(out, Orphan{Request: r, MessageStatus: st, Reason: OrphanDuplicateWaiting})
		}
	}
	return out, nil
}

func (c *Coordinator) requestByKey(ctx context.Context, key string) (*models.VerificationRequest, error) {
	reqs, err := c.stores.Requests.List(ctx, store.Filter{"request_key": key})
	if err != nil {
		return nil, fmt.Errorf("verify: lookup request key %s: %w", key, err)
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}
