// internal/services/trial_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
)

func testTrialConfig() config.TrialConfig {
	return config.TrialConfig{
		MinTrials:        3,
		QualityThreshold: 4.0,
		OnTimeThreshold:  0.80,
		FailureCap:       2,
		PeriodDays:       30,
		SeedTrialCount:   3,
	}
}

func completedTrial(quality float64, onTime bool) models.TrialService {
	return models.TrialService{
		Status:         models.TrialStatusCompleted,
		QualityRating:  &quality,
		OnTimeDelivery: &onTime,
	}
}

func failedTrial() models.TrialService {
	return models.TrialService{Status: models.TrialStatusFailed}
}

func TestEvaluateTrialsAdvancesWhenThresholdsMet(t *testing.T) {
	trials := []models.TrialService{
		completedTrial(4.5, true),
		completedTrial(4.0, true),
		completedTrial(4.1, true),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	assert.Equal(t, TrialDecisionAdvance, eval.Decision)
	assert.Equal(t, 3, eval.CompletedCount)
	assert.Equal(t, 0, eval.FailedCount)
	assert.InDelta(t, 4.2, eval.AverageQuality, 1e-9)
	assert.Equal(t, 1.0, eval.OnTimeRate)
}

func TestEvaluateTrialsRejectsAtFailureCap(t *testing.T) {
	trials := []models.TrialService{
		completedTrial(5.0, true),
		completedTrial(5.0, true),
		completedTrial(5.0, true),
		failedTrial(),
		failedTrial(),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	// The failure cap wins even when the completed trials look perfect
	assert.Equal(t, TrialDecisionReject, eval.Decision)
	assert.Equal(t, 2, eval.FailedCount)
	assert.Contains(t, eval.Reason, "cap")
}

func TestEvaluateTrialsHoldsBelowMinTrials(t *testing.T) {
	trials := []models.TrialService{
		completedTrial(5.0, true),
		completedTrial(4.8, true),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	assert.Equal(t, TrialDecisionHold, eval.Decision)
	assert.Equal(t, 2, eval.CompletedCount)
}

func TestEvaluateTrialsHoldsBelowQualityThreshold(t *testing.T) {
	trials := []models.TrialService{
		completedTrial(4.0, true),
		completedTrial(3.5, true),
		completedTrial(3.8, true),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	assert.Equal(t, TrialDecisionHold, eval.Decision)
	assert.Contains(t, eval.Reason, "quality")
}

func TestEvaluateTrialsHoldsBelowOnTimeThreshold(t *testing.T) {
	trials := []models.TrialService{
		completedTrial(4.5, true),
		completedTrial(4.5, true),
		completedTrial(4.5, false),
		completedTrial(4.5, false),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	// 2 of 4 on time is well below the 0.80 threshold
	assert.Equal(t, TrialDecisionHold, eval.Decision)
	assert.Equal(t, 0.5, eval.OnTimeRate)
	assert.Contains(t, eval.Reason, "on-time")
}

func TestEvaluateTrialsExactThresholdsAdvance(t *testing.T) {
	trials := []models.TrialService{
		completedTrial(4.0, true),
		completedTrial(4.0, true),
		completedTrial(4.0, true),
		completedTrial(4.0, true),
		completedTrial(4.0, false),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	// 4/5 on time meets the 0.80 threshold exactly, quality sits exactly
	// on 4.0
	assert.Equal(t, TrialDecisionAdvance, eval.Decision)
	assert.Equal(t, 0.8, eval.OnTimeRate)
}

func TestEvaluateTrialsIgnoresNonTerminalTrials(t *testing.T) {
	trials := []models.TrialService{
		{Status: models.TrialStatusAssigned},
		{Status: models.TrialStatusInProgress},
		completedTrial(4.5, true),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	assert.Equal(t, TrialDecisionHold, eval.Decision)
	assert.Equal(t, 1, eval.CompletedCount)
	assert.Equal(t, 0, eval.FailedCount)
}

func TestEvaluateTrialsSingleFailureBelowCapHolds(t *testing.T) {
	trials := []models.TrialService{
		failedTrial(),
		completedTrial(4.5, true),
	}

	eval := EvaluateTrials(trials, testTrialConfig())

	assert.Equal(t, TrialDecisionHold, eval.Decision)
	assert.Equal(t, 1, eval.FailedCount)
}

func TestEvaluateTrialsEmpty(t *testing.T) {
	eval := EvaluateTrials(nil, testTrialConfig())

	assert.Equal(t, TrialDecisionHold, eval.Decision)
	assert.Equal(t, 0, eval.CompletedCount)
	assert.Equal(t, 0.0, eval.AverageQuality)
	assert.Equal(t, 0.0, eval.OnTimeRate)
}
