package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zulandar/incidentdesk/internal/dashboard"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/outbox"
	"github.com/zulandar/incidentdesk/internal/verify"
)

func TestWorkflow_VerifyReplyDispatch(t *testing.T) {
	a := newTestAPI(t)
	a.seedContact(t, "Juan", "Bagacay", models.AgencyBarangayCaptain)
	fireID := a.seedContact(t, "Bureau", "", models.AgencyFireStation)
	msgID := a.seedMessage(t, models.StatusNonVerified)

	// Begin verification.
	w := a.do(t, http.MethodPost, "/sms-received/"+msgID+"/verify", map[string]any{
		"incidentType": "Critical or Life-Threatening Incidents",
		"barangay":     "Bagacay",
		"requestKey":   "key-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	req := decodeBody[models.VerificationRequest](t, w)
	assert.Equal(t, msgID, req.MessageID)
	assert.Equal(t, models.ReplyWaiting, req.CaptainReply)
	assert.Contains(t, req.OutgoingText, "Good day Juan")

	// The gateway sees the prompt in the outbox.
	w = a.do(t, http.MethodGet, "/outbox", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody[[]outbox.Item](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, req.ID, items[0].ID)

	// A second verify is refused while the first is outstanding.
	w = a.do(t, http.MethodPost, "/sms-received/"+msgID+"/verify", map[string]any{
		"incidentType": "Medical Emergencies", "barangay": "Bagacay",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Dispatch before verification completes is refused.
	w = a.do(t, http.MethodPost, "/sms-received/"+msgID+"/dispatch", map[string]any{"contactId": fireID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message_not_verified", decodeBody[ErrorResponse](t, w).Code)

	// Gateway marks the prompt sent, then the captain answers.
	w = a.do(t, http.MethodPatch, "/sms-verifications/"+req.ID, map[string]any{"messageStatus": "Sent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.RequestSent, decodeBody[models.VerificationRequest](t, w).DispatchStatus)

	w = a.do(t, http.MethodPost, "/sms-verifications/"+req.ID+"/reply", map[string]any{"reply": "Yes"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ReplyYes, decodeBody[models.VerificationRequest](t, w).CaptainReply)

	w = a.do(t, http.MethodGet, "/sms-received/"+msgID, nil)
	assert.Equal(t, models.StatusVerified, decodeBody[models.ReceivedMessage](t, w).Status)

	// Replying twice is refused.
	w = a.do(t, http.MethodPost, "/sms-verifications/"+req.ID+"/reply", map[string]any{"reply": "No"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_resolved", decodeBody[ErrorResponse](t, w).Code)

	// Dispatch to the fire station.
	w = a.do(t, http.MethodPost, "/sms-received/"+msgID+"/dispatch", map[string]any{"contactId": fireID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decodeBody[models.ResponseDispatch](t, w)
	assert.Equal(t, models.AgencyFireStation, d.Agency)

	w = a.do(t, http.MethodPatch, "/response-dispatches/"+d.ID, map[string]any{"messageStatus": "Sent", "response": "Acknowledged"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d = decodeBody[models.ResponseDispatch](t, w)
	assert.Equal(t, models.DispatchSent, d.DispatchStatus)
	assert.Equal(t, models.ReplyStatusAcknowledged, d.ReplyStatus)

	w = a.do(t, http.MethodGet, "/sms-received/"+msgID, nil)
	msg := decodeBody[models.ReceivedMessage](t, w)
	require.NotNil(t, msg.ResponseNote)
	assert.Equal(t, "Response sent to Fire Station", *msg.ResponseNote)

	// Dashboard views.
	w = a.do(t, http.MethodGet, "/dashboard/counts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decodeBody[dashboard.Counts](t, w)
	assert.Equal(t, 1, counts.Total)
	assert.Equal(t, 1, counts.Categories["Critical or Life-Threatening Incidents"])
	assert.Equal(t, 1, counts.Statuses["Verified"])

	w = a.do(t, http.MethodGet, "/dashboard/inbox?barangay=Bagacay&status=Verified", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]models.ReceivedMessage](t, w), 1)
}

func TestCreateVerification_RunsBegin(t *testing.T) {
	a := newTestAPI(t)
	a.seedContact(t, "Juan", "Bagacay", models.AgencyBarangayCaptain)
	msgID := a.seedMessage(t, models.StatusNotConfirmed)

	w := a.do(t, http.MethodPost, "/sms-verifications", map[string]any{
		"sms_received_documentId": msgID,
		"incidentType":            "Warnings or Potential Threats",
		"barangay":                "Bagacay",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeBody[map[string]string](t, w)["id"])

	w = a.do(t, http.MethodGet, "/sms-received/"+msgID, nil)
	msg := decodeBody[models.ReceivedMessage](t, w)
	assert.Equal(t, models.StatusVerifying, msg.Status)
	require.NotNil(t, msg.ColorCode)
	assert.Equal(t, models.ColorYellow, *msg.ColorCode)
}

func TestVerify_NoCaptain(t *testing.T) {
	a := newTestAPI(t)
	msgID := a.seedMessage(t, models.StatusNonVerified)
	w := a.do(t, http.MethodPost, "/sms-received/"+msgID+"/verify", map[string]any{
		"incidentType": "Medical Emergencies", "barangay": "Tinampo",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no_captain_configured", decodeBody[ErrorResponse](t, w).Code)

	w = a.do(t, http.MethodGet, "/sms-received/"+msgID, nil)
	assert.Equal(t, models.StatusNonVerified, decodeBody[models.ReceivedMessage](t, w).Status)
}

func TestVerify_MissingMessage(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodPost, "/sms-received/nope/verify", map[string]any{
		"incidentType": "Medical Emergencies", "barangay": "Tinampo",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateVerification_Guards(t *testing.T) {
	a := newTestAPI(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"unknown field", map[string]any{"number": "0917"}, http.StatusBadRequest},
		{"reply waiting", map[string]any{"response": "Waiting"}, http.StatusBadRequest},
		{"delivery sending", map[string]any{"messageStatus": "Sending"}, http.StatusBadRequest},
		{"not an object", `["Yes"]`, http.StatusBadRequest},
		{"missing request", map[string]any{"response": "Yes"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPatch, "/sms-verifications/missing", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestUpdateVerification_RefusedReplyKeepsDelivery(t *testing.T) {
	a := newTestAPI(t)
	a.seedContact(t, "Juan", "Bagacay", models.AgencyBarangayCaptain)
	msgID := a.seedMessage(t, models.StatusNonVerified)

	w := a.do(t, http.MethodPost, "/sms-received/"+msgID+"/verify", map[string]any{
		"incidentType": "Medical Emergencies", "barangay": "Bagacay",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	req := decodeBody[models.VerificationRequest](t, w)

	w = a.do(t, http.MethodPatch, "/sms-verifications/"+req.ID, map[string]any{"response": "Yes"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Already answered: the whole update is refused.
	w = a.do(t, http.MethodPatch, "/sms-verifications/"+req.ID, map[string]any{"response": "No", "messageStatus": "Failed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_resolved", decodeBody[ErrorResponse](t, w).Code)

	w = a.do(t, http.MethodGet, "/sms-verifications/"+req.ID, nil)
	got := decodeBody[models.VerificationRequest](t, w)
	assert.Equal(t, models.RequestSending, got.DispatchStatus)
	assert.Equal(t, models.ReplyYes, got.CaptainReply)
}

func TestReply_BodyErrors(t *testing.T) {
	a := newTestAPI(t)
	tests := []struct {
		name string
		body any
		code string
	}{
		{"empty object", map[string]any{}, "missing_field"},
		{"malformed", `{"reply":`, "invalid_value"},
		{"wrong type", map[string]any{"reply": 1}, "invalid_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPost, "/sms-verifications/x/reply", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, w).Code)
		})
	}
}

func TestReply_InvalidValue(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodPost, "/sms-verifications/x/reply", map[string]any{"reply": "Maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_value", decodeBody[ErrorResponse](t, w).Code)
}

func TestDecline(t *testing.T) {
	a := newTestAPI(t)
	msgID := a.seedMessage(t, models.StatusNonVerified)

	w := a.do(t, http.MethodPost, "/sms-received/"+msgID+"/decline", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusDeclined, decodeBody[models.ReceivedMessage](t, w).Status)

	w = a.do(t, http.MethodPost, "/sms-received/"+msgID+"/decline", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_transition", decodeBody[ErrorResponse](t, w).Code)
}

func TestDispatch_ToCaptainRefused(t *testing.T) {
	a := newTestAPI(t)
	capID := a.seedContact(t, "Juan", "Bagacay", models.AgencyBarangayCaptain)
	msgID := a.seedMessage(t, models.StatusVerified)

	w := a.do(t, http.MethodPost, "/sms-received/"+msgID+"/dispatch", map[string]any{"contactId": capID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_responder", decodeBody[ErrorResponse](t, w).Code)

	w = a.do(t, http.MethodGet, "/response-dispatches", nil)
	assert.Empty(t, decodeBody[[]models.ResponseDispatch](t, w))
}

func TestResponders(t *testing.T) {
	a := newTestAPI(t)
	a.seedContact(t, "Juan", "Bagacay", models.AgencyBarangayCaptain)
	a.seedContact(t, "RHU", "", models.AgencyRuralHealthUnit)

	w := a.do(t, http.MethodGet, "/responders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[[]models.Contact](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "RHU", got[0].Name)
}

func TestInbox_BadStatus(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodGet, "/dashboard/inbox?status=Lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutbox_BadLimit(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodGet, "/outbox?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrphans(t *testing.T) {
	a := newTestAPI(t)
	msgID := a.seedMessage(t, models.StatusNonVerified)
	_, err := a.stores.Requests.Create(t.Context(), &models.VerificationRequest{
		MessageID:      msgID,
		DispatchStatus: models.RequestSending,
		CaptainReply:   models.ReplyWaiting,
	})
	require.NoError(t, err)

	w := a.do(t, http.MethodGet, "/reconciliation/orphans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	orphans := decodeBody[[]verify.Orphan](t, w)
	require.Len(t, orphans, 1)
	assert.Equal(t, verify.OrphanNotVerifying, orphans[0].Reason)

	w = a.do(t, http.MethodGet, "/outbox/unaddressed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]models.VerificationRequest](t, w), 1)
}
