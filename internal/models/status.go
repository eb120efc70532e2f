package models

import "fmt"

// MessageStatus is the verification state of a ReceivedMessage. The values are
// persisted verbatim; the SMS gateway writes the first two.
type MessageStatus string

const (
	StatusNotConfirmed MessageStatus = "Not Confirmed"
	StatusNonVerified  MessageStatus = "Non Verified"
	StatusVerifying    MessageStatus = "Verifying"
	StatusVerified     MessageStatus = "Verified"
	StatusDeclined     MessageStatus = "Declined"
)

// MessageStatuses lists every message status in workflow order.
var MessageStatuses = []MessageStatus{
	StatusNotConfirmed,
	StatusNonVerified,
	StatusVerifying,
	StatusVerified,
	StatusDeclined,
}

func (s MessageStatus) Valid() bool {
	for _, v := range MessageStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Intake reports whether s is a status the gateway may create a message in.
func (s MessageStatus) Intake() bool {
	return s == StatusNotConfirmed || s == StatusNonVerified
}

// Terminal reports whether no further verification transition is possible.
func (s MessageStatus) Terminal() bool {
	return s == StatusVerified || s == StatusDeclined
}

// DisplayLabel is the dashboard label for the status.
func (s MessageStatus) DisplayLabel() string {
	if s == StatusNonVerified {
		return "Non-Verified"
	}
	return string(s)
}

// RequestDelivery is the delivery state of the outbound confirmation SMS.
type RequestDelivery string

const (
	RequestSending RequestDelivery = "Sending"
	RequestSent    RequestDelivery = "Sent"
	RequestFailed  RequestDelivery = "Failed"
)

func (d RequestDelivery) Valid() bool {
	switch d {
	case RequestSending, RequestSent, RequestFailed:
		return true
	}
	return false
}

// CaptainReply is the barangay captain's answer to a verification request.
type CaptainReply string

const (
	ReplyWaiting CaptainReply = "Waiting"
	ReplyYes     CaptainReply = "Yes"
	ReplyNo      CaptainReply = "No"
)

func (r CaptainReply) Valid() bool {
	switch r {
	case ReplyWaiting, ReplyYes, ReplyNo:
		return true
	}
	return false
}

// Answered reports whether r is a final captain answer.
func (r CaptainReply) Answered() bool {
	return r == ReplyYes || r == ReplyNo
}

// DispatchDelivery is the delivery state of a responder notification.
type DispatchDelivery string

const (
	DispatchWaiting DispatchDelivery = "Waiting"
	DispatchSent    DispatchDelivery = "Sent"
	DispatchFailed  DispatchDelivery = "Failed"
)

func (d DispatchDelivery) Valid() bool {
	switch d {
	case DispatchWaiting, DispatchSent, DispatchFailed:
		return true
	}
	return false
}

// ReplyStatus records whether the responder agency acknowledged a dispatch.
type ReplyStatus string

const (
	ReplyStatusWaiting      ReplyStatus = "Waiting"
	ReplyStatusAcknowledged ReplyStatus = "Acknowledged"
)

// Agency names a contact's organisation. Values other than the constants are
// allowed for responder agencies.
type Agency string

const (
	AgencyFireStation     Agency = "Fire Station"
	AgencyPoliceStation   Agency = "Police Station"
	AgencyRuralHealthUnit Agency = "Rural Health Unit"
	AgencyBarangayCaptain Agency = "Barangay Captain"
)

// IsCaptain reports whether the agency is the barangay captain role.
func (a Agency) IsCaptain() bool {
	return a == AgencyBarangayCaptain
}

// ColorCode is the severity tag derived from an incident type.
type ColorCode string

const (
	ColorGreen    ColorCode = "Green"
	ColorYellow   ColorCode = "Yellow"
	ColorBlue     ColorCode = "Blue"
	ColorRed      ColorCode = "Red"
	ColorCyanBlue ColorCode = "Cyan Blue"
)

// ParseMessageStatus converts a persisted or user-supplied value into a
// MessageStatus.
func ParseMessageStatus(s string) (MessageStatus, error) {
	st := MessageStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid message status %q", s)
	}
	return st, nil
}

func ParseRequestDelivery(s string) (RequestDelivery, error) {
	d := RequestDelivery(s)
	if !d.Valid() {
		return "", fmt.Errorf("invalid request delivery status %q", s)
	}
	return d, nil
}

func ParseCaptainReply(s string) (CaptainReply, error) {
	r := CaptainReply(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid captain reply %q", s)
	}
	return r, nil
}

func ParseDispatchDelivery(s string) (DispatchDelivery, error) {
	d := DispatchDelivery(s)
	if !d.Valid() {
		return "", fmt.Errorf("invalid dispatch delivery status %q", s)
	}
	return d, nil
}
