package models

// CalendlyEvent is the envelope Calendly posts to the webhook endpoint.
type CalendlyEvent struct {
	Event   string          `json:"event"`
	Payload CalendlyInvitee `json:"payload"`
}

// CalendlyInvitee carries the booking details for invitee events.
type CalendlyInvitee struct {
	URI                string                     `json:"uri"`
	Name               string                     `json:"name"`
	Email              string                     `json:"email"`
	TextReminderNumber string                     `json:"text_reminder_number"`
	ScheduledEvent     CalendlyScheduledEvent     `json:"scheduled_event"`
	QuestionsAnswers   []CalendlyQuestionAndReply `json:"questions_and_answers"`
}

// CalendlyScheduledEvent holds the scheduled meeting window.
type CalendlyScheduledEvent struct {
	StartTime string `json:"start_time"`
}

// CalendlyQuestionAndReply is one custom form question with its answer.
type CalendlyQuestionAndReply struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
