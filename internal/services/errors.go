// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/craftlink/partner-backend/internal/models"
)

// Sentinel errors surfaced by the lifecycle, invitation and assignment flows.
// Handlers map these onto HTTP status codes.
var (
	ErrTokenExpired         = errors.New("invitation token has expired")
	ErrTokenAlreadyConsumed = errors.New("invitation token has already been used")
	ErrInvalidInvitation    = errors.New("invitation parameters are invalid")
	ErrNoEligiblePartner    = errors.New("no eligible partner available")
	ErrAssignmentContended  = errors.New("assignment claim contended, retry budget exhausted")
	ErrTrialOutcomeFinal    = errors.New("trial outcome is final and cannot be changed")
)

// InvalidStateTransitionError reports a partner status change that the
// transition table does not allow. The requested target is preserved so the
// caller can tell an illegal edge from an unknown status.
type InvalidStateTransitionError struct {
	Current   models.PartnerStatus
	Requested models.PartnerStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid partner status transition from %s to %s", e.Current, e.Requested)
}

func IsInvalidTransition(err error) bool {
	var ite *InvalidStateTransitionError
	return errors.As(err, &ite)
}
