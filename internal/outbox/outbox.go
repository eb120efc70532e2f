// Package outbox lists the outbound SMS the gateway still has to send.
package outbox

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/incidentdesk/internal/models"
	"gorm.io/gorm"
)

// Kind names the record an outbox item was read from.
type Kind string

const (
	KindVerification Kind = "verification"
	KindDispatch     Kind = "dispatch"
)

// Item is one outbound SMS.
type Item struct {
	Kind        Kind      `json:"kind"`
	ID          string    `json:"id"`
	MessageID   string    `json:"messageId"`
	TargetPhone string    `json:"number"`
	Text        string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Pending returns verification requests still Sending and dispatches still
// Waiting that have a phone number, oldest first. A limit of zero or less
// returns everything.
func Pending(ctx context.Context, db *gorm.DB, limit int) ([]Item, error) {
	var reqs []models.VerificationRequest
	if err := db.WithContext(ctx).
		Where("dispatch_status = ? AND target_phone <> ?", string(models.RequestSending), "").
		Order("created_at ASC, id ASC").
		Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("outbox: pending verifications: %w", err)
	}

	var dispatches []models.ResponseDispatch
	if err := db.WithContext(ctx).
		Where("dispatch_status = ? AND target_phone <> ?", string(models.DispatchWaiting), "").
		Order("created_at ASC, id ASC").
		Find(&dispatches).Error; err != nil {
		return nil, fmt.Errorf("outbox: pending dispatches: %w", err)
	}

	items := make([]Item, 0, len(reqs)+len(dispatches))
	for _, r := range reqs {
		items = append(items, Item{
			Kind:        KindVerification,
			ID:          r.ID,
			MessageID:   r.MessageID,
			TargetPhone: r.TargetPhone,
			Text:        r.OutgoingText,
			CreatedAt:   r.CreatedAt,
		})
	}
	for _, d := range dispatches {
		items = append(items, Item{
			Kind:        KindDispatch,
			ID:          d.ID,
			MessageID:   d.MessageID,
			TargetPhone: d.TargetPhone,
			Text:        d.OutgoingText,
			CreatedAt:   d.CreatedAt,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Unaddressed returns verification requests created without a captain phone
// number. They never reach the gateway and have to be followed up by hand.
func Unaddressed(ctx context.Context, db *gorm.DB) ([]models.VerificationRequest, error) {
	var reqs []models.VerificationRequest
	if err := db.WithContext(ctx).
		Where("captain_reply = ? AND (target_phone = ? OR target_phone IS NULL)", string(models.ReplyWaiting), "").
		Order("created_at ASC, id ASC").
		Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("outbox: unaddressed: %w", err)
	}
	return reqs, nil
}
