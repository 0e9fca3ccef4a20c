// internal/models/status_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartnerStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    PartnerStatus
		to      PartnerStatus
		allowed bool
	}{
		{"lead to pending", PartnerStatusLead, PartnerStatusPending, true},
		{"pending to screening", PartnerStatusPending, PartnerStatusScreening, true},
		{"screening to service selection", PartnerStatusScreening, PartnerStatusServiceSelection, true},
		{"service selection to trial", PartnerStatusServiceSelection, PartnerStatusTrialPeriod, true},
		{"trial to approved", PartnerStatusTrialPeriod, PartnerStatusApproved, true},

		{"lead cannot skip to screening", PartnerStatusLead, PartnerStatusScreening, false},
		{"lead cannot skip to approved", PartnerStatusLead, PartnerStatusApproved, false},
		{"pending cannot skip to trial", PartnerStatusPending, PartnerStatusTrialPeriod, false},
		{"screening cannot skip to approved", PartnerStatusScreening, PartnerStatusApproved, false},

		{"no backward move", PartnerStatusScreening, PartnerStatusPending, false},
		{"no self transition", PartnerStatusPending, PartnerStatusPending, false},

		{"approved is terminal", PartnerStatusApproved, PartnerStatusRejected, false},
		{"rejected is terminal", PartnerStatusRejected, PartnerStatusPending, false},
		{"rejected cannot be approved", PartnerStatusRejected, PartnerStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPartnerStatusRejectedReachableFromEveryNonTerminalState(t *testing.T) {
	nonTerminal := []PartnerStatus{
		PartnerStatusLead,
		PartnerStatusPending,
		PartnerStatusScreening,
		PartnerStatusServiceSelection,
		PartnerStatusTrialPeriod,
	}

	for _, status := range nonTerminal {
		assert.True(t, status.CanTransitionTo(PartnerStatusRejected), "expected %s -> rejected to be legal", status)
	}
}

func TestPartnerStatusIsTerminal(t *testing.T) {
	assert.True(t, PartnerStatusApproved.IsTerminal())
	assert.True(t, PartnerStatusRejected.IsTerminal())

	assert.False(t, PartnerStatusLead.IsTerminal())
	assert.False(t, PartnerStatusPending.IsTerminal())
	assert.False(t, PartnerStatusScreening.IsTerminal())
	assert.False(t, PartnerStatusServiceSelection.IsTerminal())
	assert.False(t, PartnerStatusTrialPeriod.IsTerminal())
}

func TestPartnerStatusIsValid(t *testing.T) {
	valid := []PartnerStatus{
		PartnerStatusLead, PartnerStatusPending, PartnerStatusScreening,
		PartnerStatusServiceSelection, PartnerStatusTrialPeriod,
		PartnerStatusApproved, PartnerStatusRejected,
	}
	for _, status := range valid {
		assert.True(t, status.IsValid(), "expected %s to be valid", status)
	}

	assert.False(t, PartnerStatus("").IsValid())
	assert.False(t, PartnerStatus("suspended").IsValid())
	assert.False(t, PartnerStatus("Lead").IsValid())
}
