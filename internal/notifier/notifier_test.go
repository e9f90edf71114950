package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

func testBatches() []models.AlertBatch {
	return []models.AlertBatch{
		{
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			IsLatest:  true,
			Alerts: []models.AlertFact{
				{VitalType: models.VitalHeartRate, Value: 130, Severity: models.SeverityEmergency, Message: "Critical heart rate: 130 bpm"},
				{VitalType: models.VitalGlucose, Value: 145, Severity: models.SeverityWarning, Message: "Abnormal glucose level: 145 mg/dL"},
			},
		},
	}
}

func TestBuildAlertEmailHTML_OnlyEmergencyFacts(t *testing.T) {
	html := buildAlertEmailHTML("Dr. Smith", testBatches())

	assert.Contains(t, html, "Dr. Smith")
	assert.Contains(t, html, "Critical heart rate: 130 bpm")
	// warning 级别事实不进邮件
	assert.NotContains(t, html, "Abnormal glucose level")
	assert.Contains(t, html, "Critical Health Alert")
}

func TestWebhookNotifier_Success(t *testing.T) {
	var received WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, 5*time.Second, zap.NewNop())

	err := n.Notify(context.Background(), "caregiver-channel", "Dr. Smith", testBatches())

	require.NoError(t, err)
	assert.Equal(t, "caregiver-channel", received.Recipient)
	assert.Equal(t, "Dr. Smith", received.PatientLabel)
	require.Len(t, received.Alerts, 1)
	assert.Equal(t, models.VitalHeartRate, received.Alerts[0].Alerts[0].VitalType)
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, 5*time.Second, zap.NewNop())

	err := n.Notify(context.Background(), "caregiver-channel", "Dr. Smith", testBatches())

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotifier)
	assert.True(t, strings.Contains(err.Error(), "500"))
}

func TestWebhookNotifier_EmptyBatches_NoCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, 5*time.Second, zap.NewNop())

	err := n.Notify(context.Background(), "caregiver-channel", "Dr. Smith", nil)

	require.NoError(t, err)
	assert.False(t, called)
}
