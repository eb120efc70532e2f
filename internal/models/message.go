package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceivedMessage is an inbound citizen SMS. It is the root record: requests
// and dispatches reference it by MessageID.
type ReceivedMessage struct {
	ID           string        `gorm:"primaryKey;size:64" json:"id"`
	Sender       string        `gorm:"size:32;not null" json:"sender"`
	Body         string        `gorm:"type:text" json:"message"`
	ReceivedAt   time.Time     `gorm:"index" json:"timestamp"`
	IncidentType *string       `gorm:"size:64" json:"incidentType"`
	ColorCode    *ColorCode    `gorm:"size:16" json:"colorCode"`
	Barangay     *string       `gorm:"size:64;index" json:"barangay"`
	Status       MessageStatus `gorm:"size:16;default:Non Verified;index" json:"status"`
	ResponseNote *string       `gorm:"type:text" json:"response"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (ReceivedMessage) TableName() string { return "sms_received" }

func (m *ReceivedMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Now()
	}
	return nil
}

// VerificationRequest is the confirmation SMS sent to a barangay captain.
type VerificationRequest struct {
	ID             string          `gorm:"primaryKey;size:64" json:"id"`
	MessageID      string          `gorm:"size:64;not null;index" json:"sms_received_documentId"`
	RequestKey     string          `gorm:"size:64;uniqueIndex" json:"requestKey"`
	OutgoingText   string          `gorm:"type:text" json:"message"`
	CaptainName    string          `gorm:"size:128" json:"captainName"`
	TargetPhone    string          `gorm:"size:32" json:"number"`
	IncidentType   string          `gorm:"size:64" json:"incidentType"`
	ColorCode      ColorCode       `gorm:"size:16" json:"colorCode"`
	Barangay       string          `gorm:"size:64" json:"barangay"`
	DispatchStatus RequestDelivery `gorm:"size:16;default:Sending;index" json:"messageStatus"`
	CaptainReply   CaptainReply    `gorm:"size:16;default:Waiting;index" json:"response"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	ResolvedAt     *time.Time      `json:"resolvedAt"`
}

func (VerificationRequest) TableName() string { return "sms_verification" }

func (r *VerificationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RequestKey == "" {
		r.RequestKey = uuid.NewString()
	}
	return nil
}

// ResponseDispatch is the notification sent to a responder agency once a
// message is verified.
type ResponseDispatch struct {
	ID             string           `gorm:"primaryKey;size:64" json:"id"`
	MessageID      string           `gorm:"size:64;not null;index" json:"sms_received_documentId"`
	ContactID      string           `gorm:"size:64;index" json:"contactId"`
	Agency         Agency           `gorm:"size:64" json:"agency"`
	OutgoingText   string           `gorm:"type:text" json:"message"`
	TargetPhone    string           `gorm:"size:32" json:"number"`
	DispatchStatus DispatchDelivery `gorm:"size:16;default:Waiting;index" json:"messageStatus"`
	ReplyStatus    ReplyStatus      `gorm:"size:16;default:Waiting" json:"response"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (ResponseDispatch) TableName() string { return "sms_response" }

func (d *ResponseDispatch) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
