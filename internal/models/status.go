// internal/models/status.go
package models

// PartnerStatus is the primary state-machine field on Partner. Partners move
// forward through the pipeline one gate at a time; rejected is terminal and
// reachable from every non-terminal state.
type PartnerStatus string

const (
	PartnerStatusLead             PartnerStatus = "lead"
	PartnerStatusPending          PartnerStatus = "pending"
	PartnerStatusScreening        PartnerStatus = "screening"
	PartnerStatusServiceSelection PartnerStatus = "service_selection"
	PartnerStatusTrialPeriod      PartnerStatus = "trial_period"
	PartnerStatusApproved         PartnerStatus = "approved"
	PartnerStatusRejected         PartnerStatus = "rejected"
)

// partnerTransitions is the single source of truth for legal status edges.
// No state may be skipped forward.
var partnerTransitions = map[PartnerStatus][]PartnerStatus{
	PartnerStatusLead:             {PartnerStatusPending, PartnerStatusRejected},
	PartnerStatusPending:          {PartnerStatusScreening, PartnerStatusRejected},
	PartnerStatusScreening:        {PartnerStatusServiceSelection, PartnerStatusRejected},
	PartnerStatusServiceSelection: {PartnerStatusTrialPeriod, PartnerStatusRejected},
	PartnerStatusTrialPeriod:      {PartnerStatusApproved, PartnerStatusRejected},
}

func (s PartnerStatus) CanTransitionTo(next PartnerStatus) bool {
	for _, allowed := range partnerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PartnerStatus) IsTerminal() bool {
	return s == PartnerStatusApproved || s == PartnerStatusRejected
}

func (s PartnerStatus) IsValid() bool {
	switch s {
	case PartnerStatusLead, PartnerStatusPending, PartnerStatusScreening,
		PartnerStatusServiceSelection, PartnerStatusTrialPeriod,
		PartnerStatusApproved, PartnerStatusRejected:
		return true
	}
	return false
}
