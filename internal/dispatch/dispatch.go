// Package dispatch notifies responder agencies about verified incidents.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/metrics"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/store"
	"go.uber.org/zap"
)

// Coordinator creates ResponseDispatch records.
type Coordinator struct {
	stores *store.Set
	log    *zap.Logger
}

// New returns a Coordinator. A nil logger is replaced with a no-op logger.
func New(stores *store.Set, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{stores: stores, log: logger}
}

// Responders returns every contact that is not a barangay captain, oldest
// first.
func (c *Coordinator) Responders(ctx context.Context) ([]models.Contact, error) {
	all, err := c.stores.Contacts.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dispatch: list responders: %w", err)
	}
	out := make([]models.Contact, 0, len(all))
	for _, ct := range all {
		if !ct.Agency.IsCaptain() {
			out = append(out, ct)
		}
	}
	return out, nil
}

// ResponderText is the SMS sent to a responder agency.
func ResponderText(contactName, incidentType, body string) string {
	return fmt.Sprintf("Hello %s, there is an incident of type %s: \"%s\". Please respond to the emergency.",
		contactName, incidentType, body)
}

// ResponseNote is the trail written onto the message after a dispatch.
func ResponseNote(agency models.Agency) string {
	return "Response sent to " + string(agency)
}

// Dispatch sends a verified message to a responder. The message status is
// not changed, so a message may be dispatched to several responders.
func (c *Coordinator) Dispatch(ctx context.Context, messageID, contactID string) (*models.ResponseDispatch, error) {
	msg, err := c.stores.Messages.Get(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if msg.Status != models.StatusVerified {
		return nil, fault.New(fault.ErrMessageNotVerified, "message %s is %s; only %s messages can be dispatched",
			msg.ID, msg.Status, models.StatusVerified)
	}

	contact, err := c.stores.Contacts.Get(ctx, contactID)
	if err != nil {
		if errors.Is(err, fault.ErrRecordNotFound) {
			return nil, fault.New(fault.ErrContactNotFound, "contact not found: %s", contactID)
		}
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if contact.Agency.IsCaptain() {
		return nil, fault.New(fault.ErrNotResponder, "contact %s is a barangay captain, not a responder", contact.ID)
	}

	incidentType := ""
	if msg.IncidentType != nil {
		incidentType = *msg.IncidentType
	}
	d := &models.ResponseDispatch{
		MessageID:      msg.ID,
		ContactID:      contact.ID,
		Agency:         contact.Agency,
		OutgoingText:   ResponderText(contact.Name, incidentType, msg.Body),
		TargetPhone:    contact.Phone,
		DispatchStatus: models.DispatchWaiting,
		ReplyStatus:    models.ReplyStatusWaiting,
	}
	if _, err := c.stores.Dispatches.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("dispatch: create: %w", err)
	}

	note := ResponseNote(contact.Agency)
	if err := c.stores.Messages.Update(ctx, msg.ID, map[string]any{"response_note": note}); err != nil {
		records := map[string]string{"message_id": msg.ID, "response_dispatch_id": d.ID}
		rerr := fault.Reconcile(err, records, "dispatch %s created but message %s response note not written", d.ID, msg.ID)
		metrics.ReconciliationErrors.WithLabelValues("dispatch").Inc()
		c.log.Error("workflow left records needing reconciliation",
			zap.String("operation", "dispatch"),
			zap.Any("records", records),
			zap.Error(rerr),
		)
		return nil, rerr
	}

	metrics.Dispatches.WithLabelValues(string(contact.Agency)).Inc()
	c.log.Info("responder dispatched",
		zap.String("message_id", msg.ID),
		zap.String("dispatch_id", d.ID),
		zap.String("contact_id", contact.ID),
		zap.String("agency", string(contact.Agency)),
	)
	return d, nil
}

// RecordDelivery stores the gateway's delivery result for a dispatch.
func (c *Coordinator) RecordDelivery(ctx context.Context, dispatchID string, status models.DispatchDelivery) error {
	if status != models.DispatchSent && status != models.DispatchFailed {
		return fault.New(fault.ErrInvalidValue, "delivery status must be %s or %s, got %q",
			models.DispatchSent, models.DispatchFailed, status)
	}
	if err := c.stores.Dispatches.Update(ctx, dispatchID, map[string]any{"dispatch_status": string(status)}); err != nil {
		return fmt.Errorf("dispatch: record delivery: %w", err)
	}
	return nil
}

// Acknowledge marks that the responder agency replied to the dispatch.
func (c *Coordinator) Acknowledge(ctx context.Context, dispatchID string) error {
	ok, err := c.stores.Dispatches.CompareAndSwap(ctx, dispatchID, "reply_status",
		[]string{string(models.ReplyStatusWaiting)},
		map[string]any{"reply_status": string(models.ReplyStatusAcknowledged)})
	if err != nil {
		return fmt.Errorf("dispatch: acknowledge: %w", err)
	}
	if !ok {
		return fault.New(fault.ErrAlreadyResolved, "dispatch %s already acknowledged", dispatchID)
	}
	c.log.Info("dispatch acknowledged", zap.String("dispatch_id", dispatchID))
	return nil
}
