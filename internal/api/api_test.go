package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zulandar/incidentdesk/internal/db"
	"github.com/zulandar/incidentdesk/internal/dispatch"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/store"
	"github.com/zulandar/incidentdesk/internal/verify"
	"gorm.io/driver/sqlite"
)

type testAPI struct {
	handler http.Handler
	stores  *store.Set
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gdb, err := db.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(gdb))

	stores, err := store.NewSet(gdb)
	require.NoError(t, err)
	h, err := NewHandler(StartOpts{
		Stores:   stores,
		Verify:   verify.New(verify.Opts{Stores: stores}),
		Dispatch: dispatch.New(stores, nil),
	})
	require.NoError(t, err)
	return &testAPI{handler: h, stores: stores}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func (a *testAPI) seedMessage(t *testing.T, status models.MessageStatus) string {
	t.Helper()
	id, err := a.stores.Messages.Create(context.Background(), &models.ReceivedMessage{
		Sender: "+639170000001",
		Body:   "Flooding on the main road",
		Status: status,
	})
	require.NoError(t, err)
	return id
}

func (a *testAPI) seedContact(t *testing.T, name, barangay string, agency models.Agency) string {
	t.Helper()
	id, err := a.stores.Contacts.Create(context.Background(), &models.Contact{
		Name: name, Phone: "0917" + name, Barangay: barangay, Agency: agency,
	})
	require.NoError(t, err)
	return id
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodGet, "/healthz", nil)
	w := a.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "incidentdesk_http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/contacts", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewHandler_RequiresStores(t *testing.T) {
	_, err := NewHandler(StartOpts{})
	assert.Error(t, err)
}

func TestMessages_CRUD(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/sms-received", map[string]any{
		"sender":       "+639171112222",
		"message":      "Fire near the market",
		"incidentType": "Critical or Life-Threatening Incidents",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeBody[map[string]string](t, w)["id"]
	require.NotEmpty(t, id)

	w = a.do(t, http.MethodGet, "/sms-received/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	msg := decodeBody[models.ReceivedMessage](t, w)
	assert.Equal(t, models.StatusNonVerified, msg.Status)
	require.NotNil(t, msg.ColorCode)
	assert.Equal(t, models.ColorRed, *msg.ColorCode)

	w = a.do(t, http.MethodPatch, "/sms-received/"+id, map[string]any{"barangay": "Tinampo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msg = decodeBody[models.ReceivedMessage](t, w)
	require.NotNil(t, msg.Barangay)
	assert.Equal(t, "Tinampo", *msg.Barangay)

	w = a.do(t, http.MethodGet, "/sms-received?status=Non%20Verified", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]models.ReceivedMessage](t, w), 1)

	w = a.do(t, http.MethodDelete, "/sms-received/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/sms-received/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "record_not_found", decodeBody[ErrorResponse](t, w).Code)
}

func TestMessages_CreateGuards(t *testing.T) {
	a := newTestAPI(t)
	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing sender", map[string]any{"message": "x"}, "missing_field"},
		{"workflow status", map[string]any{"sender": "1", "status": "Verified"}, "invalid_value"},
		{"unknown type", map[string]any{"sender": "1", "incidentType": "Alien Landing"}, "invalid_taxonomy"},
		{"color without type", map[string]any{"sender": "1", "colorCode": "Red"}, "invalid_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPost, "/sms-received", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, w).Code)
		})
	}
}

func TestMessages_PatchRefusesWorkflowFields(t *testing.T) {
	a := newTestAPI(t)
	id := a.seedMessage(t, models.StatusNonVerified)
	for _, field := range []string{"status", "incidentType", "colorCode"} {
		w := a.do(t, http.MethodPut, "/sms-received/"+id, map[string]any{field: "Verified"})
		assert.Equal(t, http.StatusBadRequest, w.Code, field)
	}
}

func TestMessages_UnknownFilter(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodGet, "/sms-received?color=Red", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContacts_DuplicateCaptain(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodPost, "/contacts", map[string]any{
		"Name": "Juan", "Number": "0917", "Barangay": "Bagacay", "Agency": "Barangay Captain",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/contacts", map[string]any{
		"Name": "Pedro", "Number": "0918", "Barangay": "Bagacay", "Agency": "Barangay Captain",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duplicate_captain", decodeBody[ErrorResponse](t, w).Code)

	// A responder can be promoted only where no captain exists.
	rid := a.seedContact(t, "Maria", "Bagacay", models.AgencyFireStation)
	w = a.do(t, http.MethodPatch, "/contacts/"+rid, map[string]any{"Agency": "Barangay Captain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(t, http.MethodPatch, "/contacts/"+rid, map[string]any{"Agency": "Barangay Captain", "Barangay": "Tinampo"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestContacts_CaptainCanUpdateOwnRecord(t *testing.T) {
	a := newTestAPI(t)
	id := a.seedContact(t, "Juan", "Bagacay", models.AgencyBarangayCaptain)
	w := a.do(t, http.MethodPatch, "/contacts/"+id, map[string]any{"Number": "09990000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "09990000000", decodeBody[models.Contact](t, w).Phone)
}

func TestIncidentReports_Passthrough(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodPost, "/incident-reports", map[string]any{
		"cause": "Landslide", "location": "Purok 3", "images": []string{"a.jpg", "b.jpg"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeBody[map[string]string](t, w)["id"]

	w = a.do(t, http.MethodGet, "/incident-reports/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, decodeBody[models.IncidentReport](t, w).Images)

	w = a.do(t, http.MethodPatch, "/incident-reports/missing", map[string]any{"cause": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassifyAndTaxonomy(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, http.MethodPost, "/classify", map[string]any{"incidentType": "Medical Emergencies"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"incidentType":"Medical Emergencies","colorCode":"Blue"}`, w.Body.String())

	w = a.do(t, http.MethodPost, "/classify", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_field", decodeBody[ErrorResponse](t, w).Code)

	w = a.do(t, http.MethodGet, "/taxonomy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tax := decodeBody[map[string][]any](t, w)
	assert.Len(t, tax["categories"], 5)
	assert.NotEmpty(t, tax["barangays"])
}
