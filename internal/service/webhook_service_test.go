package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/models"
)

type mockWebhookLeads struct {
	upserted  *models.TrialLead
	cancelled []string
}

func (m *mockWebhookLeads) UpsertByCalendlyURI(_ context.Context, lead *models.TrialLead) error {
	cp := *lead
	m.upserted = &cp
	return nil
}

func (m *mockWebhookLeads) CancelByCalendlyURI(_ context.Context, uri string) error {
	m.cancelled = append(m.cancelled, uri)
	return nil
}

func signBody(key string, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	fmt.Fprintf(mac, "%s.%s", ts, body)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookVerifySignature(t *testing.T) {
	svc := NewWebhookService(&mockWebhookLeads{}, "signing-key", nil)
	body := []byte(`{"event":"invitee.created"}`)

	header := signBody("signing-key", "1700000000", body)
	require.NoError(t, svc.VerifySignature(body, header))

	require.Error(t, svc.VerifySignature(body, signBody("wrong-key", "1700000000", body)))
	require.Error(t, svc.VerifySignature(body, "garbage"))
	require.Error(t, svc.VerifySignature([]byte("tampered"), header))
}

func TestWebhookVerifySignatureSkippedWithoutKey(t *testing.T) {
	svc := NewWebhookService(&mockWebhookLeads{}, "", nil)
	require.NoError(t, svc.VerifySignature([]byte("anything"), ""))
}

func TestWebhookInviteeCreated(t *testing.T) {
	leads := &mockWebhookLeads{}
	svc := NewWebhookService(leads, "", nil)

	body := []byte(`{
		"event": "invitee.created",
		"payload": {
			"uri": "https://api.calendly.com/scheduled_events/ABC/invitees/XYZ",
			"name": "Maria Lopez",
			"email": "maria@example.test",
			"text_reminder_number": "+57 300 111 2233",
			"scheduled_event": {"start_time": "2026-04-11T15:00:00.000000Z"},
			"questions_and_answers": [
				{"question": "Celular", "answer": "+57 301 555 0101"},
				{"question": "Nombre de tu hijo(a)", "answer": "Tomas"},
				{"question": "Edad de tu hijo(a)", "answer": "9"},
				{"question": "Ciudad", "answer": "Medellin"},
				{"question": "Ha tenido experiencia previa con programacion?", "answer": "No"},
				{"question": "Como nos conociste?", "answer": "Instagram"}
			]
		}
	}`)

	require.NoError(t, svc.Process(context.Background(), body))
	lead := leads.upserted
	require.NotNil(t, lead)
	assert.Equal(t, "Maria Lopez", lead.ParentName)
	assert.Equal(t, "+57 301 555 0101", lead.ParentPhone, "celular answer wins over reminder number")
	assert.Equal(t, "Tomas", lead.ChildName)
	assert.Equal(t, models.LeadStatusScheduled, lead.Status)
	assert.Equal(t, time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC), lead.TrialClassDate)
	require.NotNil(t, lead.Notes)
	assert.Contains(t, *lead.Notes, "Edad: 9")
	assert.Contains(t, *lead.Notes, "Ciudad: Medellin")
	assert.Contains(t, *lead.Notes, "Referido: Instagram")
}

func TestWebhookInviteeCreatedFallbacks(t *testing.T) {
	leads := &mockWebhookLeads{}
	svc := NewWebhookService(leads, "", nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }

	body := []byte(`{
		"event": "invitee.created",
		"payload": {
			"uri": "https://api.calendly.com/invitees/NOQA",
			"name": "Carlos Ruiz",
			"text_reminder_number": "+57 310 000 9999",
			"questions_and_answers": []
		}
	}`)

	require.NoError(t, svc.Process(context.Background(), body))
	lead := leads.upserted
	require.NotNil(t, lead)
	assert.Equal(t, "+57 310 000 9999", lead.ParentPhone)
	assert.Equal(t, "(por confirmar)", lead.ChildName)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), lead.TrialClassDate)
	assert.Nil(t, lead.Notes)
	assert.Nil(t, lead.ParentEmail)
}

func TestWebhookInviteeCanceled(t *testing.T) {
	leads := &mockWebhookLeads{}
	svc := NewWebhookService(leads, "", nil)

	body := []byte(`{"event": "invitee.canceled", "payload": {"uri": "https://api.calendly.com/invitees/GONE"}}`)
	require.NoError(t, svc.Process(context.Background(), body))
	assert.Equal(t, []string{"https://api.calendly.com/invitees/GONE"}, leads.cancelled)
}

func TestWebhookUnknownEventAcknowledged(t *testing.T) {
	leads := &mockWebhookLeads{}
	svc := NewWebhookService(leads, "", nil)

	require.NoError(t, svc.Process(context.Background(), []byte(`{"event": "routing_form_submission.created", "payload": {}}`)))
	assert.Nil(t, leads.upserted)
	assert.Empty(t, leads.cancelled)
}

func TestWebhookMalformedBody(t *testing.T) {
	svc := NewWebhookService(&mockWebhookLeads{}, "", nil)
	require.Error(t, svc.Process(context.Background(), []byte("{not json")))
}
