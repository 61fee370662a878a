package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadStatusTransitions(t *testing.T) {
	cases := []struct {
		from    TrialLeadStatus
		to      TrialLeadStatus
		allowed bool
	}{
		{LeadStatusScheduled, LeadStatusAttended, true},
		{LeadStatusScheduled, LeadStatusCancelled, true},
		{LeadStatusScheduled, LeadStatusNoShow, true},
		{LeadStatusScheduled, LeadStatusConverted, false},
		{LeadStatusAttended, LeadStatusConverted, true},
		{LeadStatusAttended, LeadStatusNoShow, true},
		{LeadStatusAttended, LeadStatusScheduled, false},
		{LeadStatusNoShow, LeadStatusScheduled, true},
		{LeadStatusNoShow, LeadStatusCancelled, true},
		{LeadStatusNoShow, LeadStatusConverted, false},
		{LeadStatusCancelled, LeadStatusScheduled, true},
		{LeadStatusCancelled, LeadStatusAttended, false},
		{LeadStatusConverted, LeadStatusScheduled, false},
		{LeadStatusConverted, LeadStatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestLeadStatusNoOpTransition(t *testing.T) {
	for _, s := range []TrialLeadStatus{LeadStatusScheduled, LeadStatusAttended, LeadStatusConverted, LeadStatusCancelled, LeadStatusNoShow} {
		assert.True(t, s.CanTransition(s))
	}
}
