// Package verify drives a received message through captain verification.
//
// A verification touches two records: the VerificationRequest is created
// first, then the message status is moved with a compare-and-swap. When the
// second write does not land the caller gets a fault.ErrReconciliation naming
// both ids; nothing is rolled back or retried here.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/metrics"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/store"
	"github.com/zulandar/incidentdesk/internal/taxonomy"
	"go.uber.org/zap"
)

// Opts configures a Coordinator. Stores is required.
type Opts struct {
	Stores   *store.Set
	Taxonomy *taxonomy.Taxonomy
	Policy   CaptainPolicy
	Logger   *zap.Logger
	Now      func() time.Time
}

// Coordinator owns the message status state machine.
type Coordinator struct {
	stores   *store.Set
	taxonomy *taxonomy.Taxonomy
	policy   CaptainPolicy
	log      *zap.Logger
	now      func() time.Time
}

// New returns a Coordinator. Missing optional fields default to the built-in
// taxonomy, a no-op logger and time.Now.
func New(opts Opts) *Coordinator {
	c := &Coordinator{
		stores:   opts.Stores,
		taxonomy: opts.Taxonomy,
		policy:   opts.Policy,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if c.taxonomy == nil {
		c.taxonomy = taxonomy.Default()
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Policy returns the captain policy in effect.
func (c *Coordinator) Policy() CaptainPolicy { return c.policy }

// BeginOpts holds parameters for starting a verification.
type BeginOpts struct {
	MessageID    string
	IncidentType string // taxonomy label
	Barangay     string
	// RequestKey makes Begin idempotent: a retry with the same key returns
	// the request created by the first call.
	RequestKey string
}

// Begin classifies the message, creates a VerificationRequest addressed to
// the barangay captain and moves the message to Verifying.
func (c *Coordinator) Begin(ctx context.Context, opts BeginOpts) (*models.VerificationRequest, error) {
	if opts.MessageID == "" {
		return nil, fault.New(fault.ErrMissingField, "message id is required")
	}
	cls, err := c.taxonomy.Classify(opts.IncidentType)
	if err != nil {
		return nil, err
	}
	barangay := strings.TrimSpace(opts.Barangay)
	if barangay == "" {
		return nil, fault.New(fault.ErrMissingField, "barangay is required")
	}

	msg, err := c.stores.Messages.Get(ctx, opts.MessageID)
	if err != nil {
		return nil, fmt.Errorf("verify: begin: %w", err)
	}

	if opts.RequestKey != "" {
		existing, err := c.requestByKey(ctx, opts.RequestKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.MessageID != msg.ID {
				return nil, fault.New(fault.ErrInvalidValue, "request key %s was used for message %s", opts.RequestKey, existing.MessageID)
			}
			return c.replay(ctx, msg, existing)
		}
	}

	if !CanTransition(msg.Status, models.StatusVerifying) {
		return nil, fault.New(fault.ErrInvalidTransition, "message %s is %s; verification starts from %s or %s",
			msg.ID, msg.Status, models.StatusNotConfirmed, models.StatusNonVerified)
	}

	outstanding, err := c.Outstanding(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if len(outstanding) > 0 {
		return nil, fault.New(fault.ErrVerificationInFlight, "message %s already has verification request %s waiting",
			msg.ID, outstanding[0].ID)
	}

	var captainName, captainPhone string
	captain, err := c.CaptainFor(ctx, barangay)
	switch {
	case err == nil:
		captainName, captainPhone = captain.Name, captain.Phone
	case errors.Is(err, fault.ErrNoCaptainConfigured) && c.policy == AllowMissingCaptain:
		c.log.Warn("no barangay captain configured; sending without contact",
			zap.String("message_id", msg.ID),
			zap.String("barangay", barangay),
		)
	default:
		return nil, err
	}

	req := &models.VerificationRequest{
		MessageID:      msg.ID,
		RequestKey:     opts.RequestKey,
		OutgoingText:   ConfirmationPrompt(captainName, msg.Body, barangay),
		CaptainName:    captainName,
		TargetPhone:    captainPhone,
		IncidentType:   cls.IncidentType,
		ColorCode:      cls.ColorCode,
		Barangay:       barangay,
		DispatchStatus: models.RequestSending,
		CaptainReply:   models.ReplyWaiting,
	}
	if _, err := c.stores.Requests.Create(ctx, req); err != nil {
		// A concurrent Begin with the same key won the unique index.
		if opts.RequestKey != "" {
			if winner, lookupErr := c.requestByKey(ctx, opts.RequestKey); lookupErr == nil && winner != nil {
				if winner.MessageID != msg.ID {
					return nil, fault.New(fault.ErrInvalidValue, "request key %s was used for message %s", opts.RequestKey, winner.MessageID)
				}
				return c.replay(ctx, msg, winner)
			}
		}
		return nil, fmt.Errorf("verify: begin: %w", err)
	}

	if err := c.markVerifying(ctx, msg, req); err != nil {
		return nil, err
	}
	return req, nil
}

// replay finishes a Begin that was interrupted after the request was
// created, then returns the existing request.
func (c *Coordinator) replay(ctx context.Context, msg *models.ReceivedMessage, req *models.VerificationRequest) (*models.VerificationRequest, error) {
	if req.CaptainReply == models.ReplyWaiting && msg.Status.Intake() {
		if err := c.markVerifying(ctx, msg, req); err != nil {
			return nil, err
		}
	}
	c.log.Debug("verification replayed",
		zap.String("message_id", msg.ID),
		zap.String("request_id", req.ID),
		zap.String("request_key", req.RequestKey),
	)
	return req, nil
}

func (c *Coordinator) markVerifying(ctx context.Context, msg *models.ReceivedMessage, req *models.VerificationRequest) error {
	records := map[string]string{
		"message_id":              msg.ID,
		"verification_request_id": req.ID,
	}
	ok, err := c.stores.Messages.CompareAndSwap(ctx, msg.ID, "status", sourcesOf(models.StatusVerifying), map[string]any{
		"status":        string(models.StatusVerifying),
		"incident_type": req.IncidentType,
		"color_code":    string(req.ColorCode),
		"barangay":      req.Barangay,
	})
	if err != nil {
		return c.reconcile("begin", err, records, "message %s not moved to %s after request %s was created",
			msg.ID, models.StatusVerifying, req.ID)
	}
	if !ok {
		return c.reconcile("begin", nil, records, "message %s left its intake status before request %s was recorded",
			msg.ID, req.ID)
	}

	metrics.WorkflowTransitions.WithLabelValues(string(msg.Status), string(models.StatusVerifying)).Inc()
	c.log.Info("verification started",
		zap.String("message_id", msg.ID),
		zap.String("request_id", req.ID),
		zap.String("from", string(msg.Status)),
		zap.String("to", string(models.StatusVerifying)),
		zap.String("barangay", req.Barangay),
		zap.String("incident_type", req.IncidentType),
	)
	return nil
}

// Resolve records the captain's reply and reflects it onto the message:
// Yes verifies it, No declines it. A reply arriving after an operator
// declined the message is kept for audit and the message is untouched. A
// request whose message is missing, or was never moved to Verifying, is
// refused and left waiting so the audit still reports it.
func (c *Coordinator) Resolve(ctx context.Context, requestID string, reply models.CaptainReply) error {
	if !reply.Answered() {
		return fault.New(fault.ErrInvalidValue, "reply must be %s or %s, got %q", models.ReplyYes, models.ReplyNo, reply)
	}

	req, err := c.stores.Requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, fault.ErrRecordNotFound) {
			return fault.New(fault.ErrRequestNotFound, "verification request not found: %s", requestID)
		}
		return fmt.Errorf("verify: resolve: %w", err)
	}
	if req.CaptainReply != models.ReplyWaiting {
		return fault.New(fault.ErrAlreadyResolved, "verification request %s already answered %s", req.ID, req.CaptainReply)
	}

	records := map[string]string{
		"message_id":              req.MessageID,
		"verification_request_id": req.ID,
	}
	msg, err := c.stores.Messages.Get(ctx, req.MessageID)
	if err != nil {
		if errors.Is(err, fault.ErrRecordNotFound) {
			return c.reconcile("resolve", nil, records, "message %s of request %s is missing", req.MessageID, req.ID)
		}
		return fmt.Errorf("verify: resolve %s: %w", req.ID, err)
	}
	if msg.Status != models.StatusVerifying && msg.Status != models.StatusDeclined {
		return fault.New(fault.ErrInvalidTransition, "message %s is %s; request %s can only be answered while it is %s",
			msg.ID, msg.Status, req.ID, models.StatusVerifying)
	}

	ok, err := c.stores.Requests.CompareAndSwap(ctx, req.ID, "captain_reply", []string{string(models.ReplyWaiting)}, map[string]any{
		"captain_reply": string(reply),
		"resolved_at":   c.now(),
	})
	if err != nil {
		return fmt.Errorf("verify: resolve %s: %w", req.ID, err)
	}
	if !ok {
		return fault.New(fault.ErrAlreadyResolved, "verification request %s was answered concurrently", req.ID)
	}

	if msg.Status == models.StatusDeclined {
		c.logLateReply(req, reply)
		return nil
	}

	target := models.StatusDeclined
	if reply == models.ReplyYes {
		target = models.StatusVerified
	}
	ok, err = c.stores.Messages.CompareAndSwap(ctx, msg.ID, "status", []string{string(models.StatusVerifying)}, map[string]any{
		"status": string(target),
	})
	if err != nil {
		return c.reconcile("resolve", err, records, "reply %s recorded on request %s but message %s not updated",
			reply, req.ID, msg.ID)
	}
	if !ok {
		// Only a concurrent operator decline may win here.
		current, err := c.stores.Messages.Get(ctx, msg.ID)
		if err == nil && current.Status == models.StatusDeclined {
			c.logLateReply(req, reply)
			return nil
		}
		return c.reconcile("resolve", nil, records, "reply %s recorded on request %s but message %s left %s",
			reply, req.ID, msg.ID, models.StatusVerifying)
	}

	metrics.WorkflowTransitions.WithLabelValues(string(models.StatusVerifying), string(target)).Inc()
	c.log.Info("verification resolved",
		zap.String("message_id", msg.ID),
		zap.String("request_id", req.ID),
		zap.String("from", string(models.StatusVerifying)),
		zap.String("to", string(target)),
	)
	return nil
}

func (c *Coordinator) logLateReply(req *models.VerificationRequest, reply models.CaptainReply) {
	c.log.Info("captain reply recorded after operator decline",
		zap.String("message_id", req.MessageID),
		zap.String("request_id", req.ID),
		zap.String("reply", string(reply)),
	)
}

// Decline is the operator override: it declines the message from any
// non-terminal status, regardless of an outstanding request.
func (c *Coordinator) Decline(ctx context.Context, messageID string) error {
	msg, err := c.stores.Messages.Get(ctx, messageID)
	if err != nil {
		return fmt.Errorf("verify: decline: %w", err)
	}
	if !CanTransition(msg.Status, models.StatusDeclined) {
		return fault.New(fault.ErrInvalidTransition, "message %s is %s and cannot be declined", msg.ID, msg.Status)
	}

	ok, err := c.stores.Messages.CompareAndSwap(ctx, msg.ID, "status", sourcesOf(models.StatusDeclined), map[string]any{
		"status": string(models.StatusDeclined),
	})
	if err != nil {
		return fmt.Errorf("verify: decline %s: %w", msg.ID, err)
	}
	if !ok {
		return fault.New(fault.ErrInvalidTransition, "message %s reached a terminal status concurrently", msg.ID)
	}

	metrics.WorkflowTransitions.WithLabelValues(string(msg.Status), string(models.StatusDeclined)).Inc()
	c.log.Info("message declined",
		zap.String("message_id", msg.ID),
		zap.String("from", string(msg.Status)),
		zap.String("to", string(models.StatusDeclined)),
	)
	return nil
}

func (c *Coordinator) reconcile(op string, cause error, records map[string]string, format string, args ...any) error {
	err := fault.Reconcile(cause, records, format, args...)
	metrics.ReconciliationErrors.WithLabelValues(op).Inc()
	c.log.Error("workflow left records needing reconciliation",
		zap.String("operation", op),
		zap.Any("records", records),
		zap.Error(err),
	)
	return err
}
