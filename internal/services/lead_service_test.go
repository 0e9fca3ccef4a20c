// internal/services/lead_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/craftlink/partner-backend/internal/models"
)

func validInvitationParams() *InvitationParams {
	return &InvitationParams{
		Invited: true,
		Name:    "Mei-Ling Chen",
		Email:   "mei.chen@example.com",
		Skills:  "plumbing,electrical",
		LeadID:  "7c9e6679-7425-40de-944b-e07fc1f90ae7",
	}
}

func TestValidateInvitationParamsValid(t *testing.T) {
	assert.NoError(t, ValidateInvitationParams(validInvitationParams()))
}

func TestValidateInvitationParamsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *InvitationParams)
	}{
		{"invited flag false", func(p *InvitationParams) { p.Invited = false }},
		{"missing name", func(p *InvitationParams) { p.Name = "" }},
		{"whitespace name", func(p *InvitationParams) { p.Name = "   " }},
		{"missing email", func(p *InvitationParams) { p.Email = "" }},
		{"malformed email", func(p *InvitationParams) { p.Email = "not-an-email" }},
		{"missing skills", func(p *InvitationParams) { p.Skills = "" }},
		{"missing lead id", func(p *InvitationParams) { p.LeadID = "" }},
		{"malformed lead id", func(p *InvitationParams) { p.LeadID = "12345" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validInvitationParams()
			tt.mutate(params)
			assert.ErrorIs(t, ValidateInvitationParams(params), ErrInvalidInvitation)
		})
	}
}

func TestValidateInvitationParamsNil(t *testing.T) {
	assert.ErrorIs(t, ValidateInvitationParams(nil), ErrInvalidInvitation)
}

func redeemableLead(now time.Time) *models.PartnerLead {
	expires := now.Add(time.Hour)
	return &models.PartnerLead{
		BaseModel: models.BaseModel{
			ID: uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7"),
		},
		Email:           "mei.chen@example.com",
		InvitationToken: "token-abc",
		TokenExpiresAt:  &expires,
	}
}

func TestCheckInvitationRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid link redeems", func(t *testing.T) {
		assert.NoError(t, checkInvitationRedeemable(redeemableLead(now), validInvitationParams(), now))
	})

	t.Run("email match is case insensitive", func(t *testing.T) {
		params := validInvitationParams()
		params.Email = "MEI.CHEN@example.com"
		assert.NoError(t, checkInvitationRedeemable(redeemableLead(now), params, now))
	})

	t.Run("lead id mismatch", func(t *testing.T) {
		params := validInvitationParams()
		params.LeadID = uuid.New().String()
		assert.ErrorIs(t, checkInvitationRedeemable(redeemableLead(now), params, now), ErrInvalidInvitation)
	})

	t.Run("email mismatch", func(t *testing.T) {
		params := validInvitationParams()
		params.Email = "someone.else@example.com"
		assert.ErrorIs(t, checkInvitationRedeemable(redeemableLead(now), params, now), ErrInvalidInvitation)
	})

	t.Run("consumed token fails second redemption", func(t *testing.T) {
		lead := redeemableLead(now)
		consumed := now.Add(-time.Minute)
		lead.TokenConsumedAt = &consumed
		assert.ErrorIs(t, checkInvitationRedeemable(lead, validInvitationParams(), now), ErrTokenAlreadyConsumed)
	})

	t.Run("expired token", func(t *testing.T) {
		lead := redeemableLead(now)
		expired := now.Add(-time.Second)
		lead.TokenExpiresAt = &expired
		assert.ErrorIs(t, checkInvitationRedeemable(lead, validInvitationParams(), now), ErrTokenExpired)
	})

	t.Run("missing expiry counts as expired", func(t *testing.T) {
		lead := redeemableLead(now)
		lead.TokenExpiresAt = nil
		assert.ErrorIs(t, checkInvitationRedeemable(lead, validInvitationParams(), now), ErrTokenExpired)
	})
}
