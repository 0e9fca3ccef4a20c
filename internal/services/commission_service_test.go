// internal/services/commission_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
)

func testCommissionConfig() config.CommissionConfig {
	return config.CommissionConfig{
		FlatAmount:     25.0,
		PercentageRate: 0.15,
		Tiers: []config.CommissionTier{
			{MinVolume: 0, Rate: 0.10},
			{MinVolume: 5000, Rate: 0.12},
			{MinVolume: 20000, Rate: 0.15},
		},
	}
}

func TestCalculateCommissionFlat(t *testing.T) {
	breakdown := CalculateCommission(models.CommissionTypeFlat, 1000, testCommissionConfig(), 0)

	assert.Equal(t, models.CommissionTypeFlat, breakdown.Type)
	assert.Equal(t, 0.0, breakdown.Rate)
	assert.Equal(t, 25.0, breakdown.Amount)

	// Flat commissions ignore the service price entirely
	high := CalculateCommission(models.CommissionTypeFlat, 99999, testCommissionConfig(), 0)
	assert.Equal(t, 25.0, high.Amount)
}

func TestCalculateCommissionPercentage(t *testing.T) {
	breakdown := CalculateCommission(models.CommissionTypePercentage, 1000, testCommissionConfig(), 0)

	assert.Equal(t, models.CommissionTypePercentage, breakdown.Type)
	assert.Equal(t, 0.15, breakdown.Rate)
	assert.Equal(t, 150.0, breakdown.Amount)
}

func TestCalculateCommissionPercentageRoundsToCents(t *testing.T) {
	breakdown := CalculateCommission(models.CommissionTypePercentage, 33.33, testCommissionConfig(), 0)

	// 33.33 * 0.15 = 4.9995, rounds to 5.00
	assert.Equal(t, 5.0, breakdown.Amount)
}

func TestCalculateCommissionTiered(t *testing.T) {
	cfg := testCommissionConfig()

	tests := []struct {
		name       string
		volume     float64
		wantRate   float64
		wantAmount float64
	}{
		{"zero volume uses base tier", 0, 0.10, 100.0},
		{"below first boundary", 4999.99, 0.10, 100.0},
		{"exactly at first boundary", 5000, 0.12, 120.0},
		{"between boundaries", 12000, 0.12, 120.0},
		{"exactly at second boundary", 20000, 0.15, 150.0},
		{"far past top tier", 1000000, 0.15, 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown := CalculateCommission(models.CommissionTypeTiered, 1000, cfg, tt.volume)
			assert.Equal(t, models.CommissionTypeTiered, breakdown.Type)
			assert.Equal(t, tt.wantRate, breakdown.Rate)
			assert.Equal(t, tt.wantAmount, breakdown.Amount)
		})
	}
}

func TestCalculateCommissionUnknownTypeFallsBackToPercentage(t *testing.T) {
	breakdown := CalculateCommission(models.CommissionType("barter"), 200, testCommissionConfig(), 0)

	assert.Equal(t, models.CommissionTypePercentage, breakdown.Type)
	assert.Equal(t, 30.0, breakdown.Amount)
}

func TestCalculateCommissionIsDeterministic(t *testing.T) {
	cfg := testCommissionConfig()

	first := CalculateCommission(models.CommissionTypeTiered, 750.50, cfg, 5000)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, CalculateCommission(models.CommissionTypeTiered, 750.50, cfg, 5000))
	}
}
