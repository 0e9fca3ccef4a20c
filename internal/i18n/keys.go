// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Leads
	KeyLeadCreated        = "lead.created"
	KeyLeadNotFound       = "lead.not_found"
	KeyLeadInvited        = "lead.invited"
	KeyLeadInviteRedeemed = "lead.invite_redeemed"
	KeyLeadInviteInvalid  = "lead.invite_invalid"
	KeyLeadInviteExpired  = "lead.invite_expired"
	KeyLeadInviteConsumed = "lead.invite_consumed"

	// Partners
	KeyPartnerNotFound           = "partner.not_found"
	KeyPartnerApplicationCreated = "partner.application_created"
	KeyPartnerApplicationUpdated = "partner.application_updated"
	KeyPartnerScreeningPassed    = "partner.screening_passed"
	KeyPartnerServicesSelected   = "partner.services_selected"
	KeyPartnerTrialStarted       = "partner.trial_started"
	KeyPartnerApproved           = "partner.approved"
	KeyPartnerRejected           = "partner.rejected"
	KeyPartnerInvalidTransition  = "partner.invalid_transition"

	// Trials
	KeyTrialNotFound        = "trial.not_found"
	KeyTrialOutcomeRecorded = "trial.outcome_recorded"
	KeyTrialImmutable       = "trial.immutable"

	// Orders and assignments
	KeyOrderNotFound      = "order.not_found"
	KeyOrderCreated       = "order.created"
	KeyOrderQueued        = "order.queued"
	KeyAssignmentNotFound = "assignment.not_found"
	KeyAssignmentCreated  = "assignment.created"
	KeyAssignmentComplete = "assignment.completed"
	KeyAssignmentCancel   = "assignment.cancelled"
	KeyAssignmentContended = "assignment.contended"
	KeyNoEligiblePartner   = "assignment.no_eligible_partner"

	// Admin
	KeyAdminActionSuccess   = "admin.action_success"
	KeyAdminAccessDenied    = "admin.access_denied"
	KeyAdminSettingsUpdated = "admin.settings_updated"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationEmail    = "validation.invalid_email"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"

	// Notifications
	KeyNotificationSent   = "notification.sent"
	KeyNotificationFailed = "notification.failed"
)
