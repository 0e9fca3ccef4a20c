// internal/services/commission_service.go
package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
)

// CommissionBreakdown is the computed commission for one assignment. Rate is
// zero for flat commissions; Amount is always the payable value.
type CommissionBreakdown struct {
	Type   models.CommissionType `json:"type"`
	Rate   float64               `json:"rate"`
	Amount float64               `json:"amount"`
}

// CalculateCommission computes the commission for a service price without
// touching the database. completedVolume is the partner's completed assignment
// volume for the current period and only matters for tiered commissions.
func CalculateCommission(ctype models.CommissionType, price float64, cfg config.CommissionConfig, completedVolume float64) CommissionBreakdown {
	switch ctype {
	case models.CommissionTypeFlat:
		return CommissionBreakdown{Type: ctype, Rate: 0, Amount: roundCents(cfg.FlatAmount)}
	case models.CommissionTypePercentage:
		return CommissionBreakdown{Type: ctype, Rate: cfg.PercentageRate, Amount: roundCents(price * cfg.PercentageRate)}
	case models.CommissionTypeTiered:
		rate := tieredRate(cfg.Tiers, completedVolume)
		return CommissionBreakdown{Type: ctype, Rate: rate, Amount: roundCents(price * rate)}
	default:
		// Unknown types fall back to percentage so an assignment never goes
		// out without a commission figure.
		return CommissionBreakdown{Type: models.CommissionTypePercentage, Rate: cfg.PercentageRate, Amount: roundCents(price * cfg.PercentageRate)}
	}
}

// tieredRate picks the rate of the highest tier whose MinVolume the partner
// has reached. Tiers are configured in ascending volume order and the first
// tier starts at zero, so there is always a match.
func tieredRate(tiers []config.CommissionTier, completedVolume float64) float64 {
	rate := 0.0
	for _, tier := range tiers {
		if completedVolume >= tier.MinVolume {
			rate = tier.Rate
		}
	}
	return rate
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CommissionService resolves the inputs CalculateCommission needs from the
// database, mainly the partner's completed volume for tiered rates.
type CommissionService struct {
	db     *gorm.DB
	config *config.Config
}

func NewCommissionService(db *gorm.DB, config *config.Config) *CommissionService {
	return &CommissionService{db: db, config: config}
}

// ForAssignment computes the commission a partner owes on a service. The same
// inputs always produce the same breakdown; nothing here depends on time or
// randomness.
func (s *CommissionService) ForAssignment(partnerID uuid.UUID, service *models.Service) (CommissionBreakdown, error) {
	volume := 0.0
	if service.CommissionType == models.CommissionTypeTiered {
		v, err := s.completedVolume(partnerID)
		if err != nil {
			return CommissionBreakdown{}, err
		}
		volume = v
	}

	return CalculateCommission(service.CommissionType, service.Price, s.commissionConfig(), volume), nil
}

// commissionConfig resolves the commission parameters, honoring the admin
// settings override for the percentage rate.
func (s *CommissionService) commissionConfig() config.CommissionConfig {
	cfg := s.config.Commission
	if value, ok := lookupSetting(s.db, "commission", "percentage_rate"); ok {
		if f, ok := settingFloat(value); ok && f >= 0 && f <= 1 {
			cfg.PercentageRate = f
		}
	}
	return cfg
}

// completedVolume sums the service prices of the partner's completed
// assignments.
func (s *CommissionService) completedVolume(partnerID uuid.UUID) (float64, error) {
	var volume float64
	err := s.db.Model(&models.ServicePartnerAssignment{}).
		Joins("JOIN services ON services.id = service_partner_assignments.service_id").
		Where("service_partner_assignments.partner_id = ? AND service_partner_assignments.status = ?",
			partnerID, models.AssignmentStatusCompleted).
		Select("COALESCE(SUM(services.price), 0)").
		Scan(&volume).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum completed volume: %w", err)
	}
	return volume, nil
}
