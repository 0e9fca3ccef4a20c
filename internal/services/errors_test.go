// internal/services/errors_test.go
package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftlink/partner-backend/internal/models"
)

func TestInvalidStateTransitionError(t *testing.T) {
	err := &InvalidStateTransitionError{
		Current:   models.PartnerStatusPending,
		Requested: models.PartnerStatusApproved,
	}

	assert.Contains(t, err.Error(), "pending")
	assert.Contains(t, err.Error(), "approved")
	assert.True(t, IsInvalidTransition(err))
}

func TestIsInvalidTransitionUnwrapsWrappedErrors(t *testing.T) {
	err := &InvalidStateTransitionError{
		Current:   models.PartnerStatusLead,
		Requested: models.PartnerStatusTrialPeriod,
	}
	wrapped := fmt.Errorf("transition failed: %w", err)

	assert.True(t, IsInvalidTransition(wrapped))
}

func TestIsInvalidTransitionRejectsOtherErrors(t *testing.T) {
	assert.False(t, IsInvalidTransition(nil))
	assert.False(t, IsInvalidTransition(errors.New("boom")))
	assert.False(t, IsInvalidTransition(ErrNoEligiblePartner))
}
