package models

import "time"

// TrialLeadStatus tracks a prospective student's trial class lifecycle.
type TrialLeadStatus string

const (
	LeadStatusScheduled TrialLeadStatus = "scheduled"
	LeadStatusAttended  TrialLeadStatus = "attended"
	LeadStatusConverted TrialLeadStatus = "converted"
	LeadStatusCancelled TrialLeadStatus = "cancelled"
	LeadStatusNoShow    TrialLeadStatus = "no_show"
)

// Valid reports whether the status is a supported value.
func (s TrialLeadStatus) Valid() bool {
	switch s {
	case LeadStatusScheduled, LeadStatusAttended, LeadStatusConverted, LeadStatusCancelled, LeadStatusNoShow:
		return true
	default:
		return false
	}
}

// leadTransitions is the allowed status transition table. Converted is
// terminal; cancelled and no-show leads can be re-booked.
var leadTransitions = map[TrialLeadStatus][]TrialLeadStatus{
	LeadStatusScheduled: {LeadStatusAttended, LeadStatusCancelled, LeadStatusNoShow},
	LeadStatusAttended:  {LeadStatusConverted, LeadStatusNoShow},
	LeadStatusNoShow:    {LeadStatusScheduled, LeadStatusCancelled},
	LeadStatusCancelled: {LeadStatusScheduled},
	LeadStatusConverted: {},
}

// CanTransition reports whether moving from s to next is allowed.
// A no-op transition (same status) is always permitted.
func (s TrialLeadStatus) CanTransition(next TrialLeadStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range leadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TrialLead is a prospective student booked for a trial class.
type TrialLead struct {
	ID             string          `db:"id" json:"id"`
	ParentName     string          `db:"parent_name" json:"parent_name"`
	ParentPhone    string          `db:"parent_phone" json:"parent_phone"`
	ParentEmail    *string         `db:"parent_email" json:"parent_email,omitempty"`
	ChildName      string          `db:"child_name" json:"child_name"`
	DateOfBirth    *time.Time      `db:"date_of_birth" json:"date_of_birth,omitempty"`
	TrialClassDate time.Time       `db:"trial_class_date" json:"trial_class_date"`
	Status         TrialLeadStatus `db:"status" json:"status"`
	CalendlyURI    *string         `db:"calendly_uri" json:"calendly_uri,omitempty"`
	Notes          *string         `db:"notes" json:"notes,omitempty"`
	CreatedBy      *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// TrialLeadFilter scopes lead listing queries.
type TrialLeadFilter struct {
	Status    *TrialLeadStatus
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
