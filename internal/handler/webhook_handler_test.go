package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type fakeWebhookSrv struct {
	verifyErr  error
	processErr error
	processed  []byte
}

func (f *fakeWebhookSrv) VerifySignature(_ []byte, _ string) error {
	return f.verifyErr
}

func (f *fakeWebhookSrv) Process(_ context.Context, rawBody []byte) error {
	f.processed = rawBody
	return f.processErr
}

func TestWebhookHandlerCalendlyOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWebhookSrv{}
	handler := NewWebhookHandler(srv)

	body := []byte(`{"event":"invitee.created"}`)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/calendly", bytes.NewReader(body))
	c.Request.Header.Set("Calendly-Webhook-Signature", "t=1,v1=abc")

	handler.Calendly(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, srv.processed)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Data["ok"])
}

func TestWebhookHandlerCalendlyRejectsBadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWebhookSrv{verifyErr: appErrors.ErrInvalidSignature}
	handler := NewWebhookHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/calendly", bytes.NewReader([]byte(`{}`)))

	handler.Calendly(c)

	assert.Equal(t, appErrors.ErrInvalidSignature.Status, rec.Code)
	assert.Nil(t, srv.processed)
}

func TestWebhookHandlerCalendlyProcessFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWebhookSrv{processErr: errors.New("boom")}
	handler := NewWebhookHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/calendly", bytes.NewReader([]byte(`{}`)))

	handler.Calendly(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
