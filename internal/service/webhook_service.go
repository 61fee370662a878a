package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type webhookLeadRepository interface {
	UpsertByCalendlyURI(ctx context.Context, lead *models.TrialLead) error
	CancelByCalendlyURI(ctx context.Context, uri string) error
}

var (
	sigTimestampRe = regexp.MustCompile(`t=(\d+)`)
	sigDigestRe    = regexp.MustCompile(`v1=([a-f0-9]+)`)
)

// WebhookService ingests Calendly booking events into trial leads.
type WebhookService struct {
	leads      webhookLeadRepository
	signingKey string
	logger     *zap.Logger
	now        func() time.Time
}

// NewWebhookService constructs the Calendly webhook service. An empty
// signing key disables signature verification.
func NewWebhookService(leads webhookLeadRepository, signingKey string, logger *zap.Logger) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		leads:      leads,
		signingKey: signingKey,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// VerifySignature checks the Calendly-Webhook-Signature header
// ("t=<unix_ts>,v1=<hex>") against HMAC-SHA256 of "<ts>.<rawBody>".
func (s *WebhookService) VerifySignature(rawBody []byte, signatureHeader string) error {
	if s.signingKey == "" {
		return nil
	}
	tMatch := sigTimestampRe.FindStringSubmatch(signatureHeader)
	vMatch := sigDigestRe.FindStringSubmatch(signatureHeader)
	if tMatch == nil || vMatch == nil {
		return appErrors.Clone(appErrors.ErrInvalidSignature, "malformed signature header")
	}

	mac := hmac.New(sha256.New, []byte(s.signingKey))
	mac.Write([]byte(tMatch[1]))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(vMatch[1])) {
		return appErrors.Clone(appErrors.ErrInvalidSignature, "signature mismatch")
	}
	return nil
}

// Process handles a verified Calendly event body. Unknown events are
// acknowledged without side effects.
func (s *WebhookService) Process(ctx context.Context, rawBody []byte) error {
	var event models.CalendlyEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed webhook payload")
	}

	switch event.Event {
	case "invitee.created":
		return s.handleInviteeCreated(ctx, event.Payload)
	case "invitee.canceled":
		return s.handleInviteeCanceled(ctx, event.Payload)
	default:
		s.logger.Info("calendly event ignored", zap.String("event", event.Event))
		return nil
	}
}

func (s *WebhookService) handleInviteeCreated(ctx context.Context, payload models.CalendlyInvitee) error {
	phone := answerFor(payload.QuestionsAnswers, "celular")
	if phone == "" {
		phone = payload.TextReminderNumber
	}
	childName := answerFor(payload.QuestionsAnswers, "hijo")
	if childName == "" {
		childName = answerFor(payload.QuestionsAnswers, "niño")
	}
	if childName == "" {
		childName = "(por confirmar)"
	}

	var noteParts []string
	if age := answerFor(payload.QuestionsAnswers, "edad"); age != "" {
		noteParts = append(noteParts, fmt.Sprintf("Edad: %s", age))
	}
	if city := answerFor(payload.QuestionsAnswers, "ciudad"); city != "" {
		noteParts = append(noteParts, fmt.Sprintf("Ciudad: %s", city))
	}
	if exp := answerFor(payload.QuestionsAnswers, "experiencia"); exp != "" {
		noteParts = append(noteParts, fmt.Sprintf("Exp. previa: %s", exp))
	}
	referral := answerFor(payload.QuestionsAnswers, "conociste")
	if referral == "" {
		referral = answerFor(payload.QuestionsAnswers, "conocido")
	}
	if referral != "" {
		noteParts = append(noteParts, fmt.Sprintf("Referido: %s", referral))
	}

	trialDate := s.now().Truncate(24 * time.Hour)
	if payload.ScheduledEvent.StartTime != "" {
		if parsed, err := time.Parse(time.RFC3339, payload.ScheduledEvent.StartTime); err == nil {
			trialDate = parsed.UTC().Truncate(24 * time.Hour)
		} else {
			s.logger.Warn("unparseable calendly start_time",
				zap.String("start_time", payload.ScheduledEvent.StartTime))
		}
	}

	uri := payload.URI
	lead := &models.TrialLead{
		CalendlyURI:    &uri,
		ParentName:     payload.Name,
		ParentPhone:    phone,
		ChildName:      childName,
		TrialClassDate: trialDate,
		Status:         models.LeadStatusScheduled,
	}
	if payload.Email != "" {
		email := payload.Email
		lead.ParentEmail = &email
	}
	if len(noteParts) > 0 {
		notes := strings.Join(noteParts, " | ")
		lead.Notes = &notes
	}

	if err := s.leads.UpsertByCalendlyURI(ctx, lead); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert trial lead")
	}
	s.logger.Info("trial lead booked via calendly",
		zap.String("calendly_uri", uri),
		zap.Time("trial_class_date", trialDate))
	return nil
}

func (s *WebhookService) handleInviteeCanceled(ctx context.Context, payload models.CalendlyInvitee) error {
	if err := s.leads.CancelByCalendlyURI(ctx, payload.URI); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel trial lead")
	}
	s.logger.Info("trial lead cancelled via calendly", zap.String("calendly_uri", payload.URI))
	return nil
}

// answerFor finds the answer whose question contains the keyword,
// matching case-insensitively.
func answerFor(qas []models.CalendlyQuestionAndReply, keyword string) string {
	for _, qa := range qas {
		if strings.Contains(strings.ToLower(qa.Question), strings.ToLower(keyword)) {
			return strings.TrimSpace(qa.Answer)
		}
	}
	return ""
}
