// internal/services/assignment_service.go
package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/database"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/utils"
)

// errDuplicateActiveAssignment is raised when the partial unique index on
// active assignments per order rejects a second insert. The claim path turns
// it into an idempotent return of the winning assignment.
var errDuplicateActiveAssignment = errors.New("order already has an active assignment")

// activeAssignmentStatuses are the statuses that occupy an order.
var activeAssignmentStatuses = []models.AssignmentStatus{
	models.AssignmentStatusAssigned, models.AssignmentStatusInProgress,
}

// AssignmentService matches orders to partners. The load counter claim is
// optimistic: partners are never locked during candidate selection, only at
// the moment of increment, and a lost race moves on or retries with backoff.
type AssignmentService struct {
	db                  *gorm.DB
	config              *config.Config
	historyService      *HistoryService
	commissionService   *CommissionService
	notificationService *NotificationService
}

type CreateOrderRequest struct {
	ServiceID   uuid.UUID `json:"service_id" validate:"required"`
	CustomerRef string    `json:"customer_ref" validate:"required,max=255"`
	IsTrial     bool      `json:"is_trial,omitempty"`
}

type ManualAssignRequest struct {
	PartnerID uuid.UUID `json:"partner_id" validate:"required"`
	Notes     string    `json:"notes,omitempty"`
}

type AssignmentSearchParams struct {
	utils.PaginationParams
	PartnerID *uuid.UUID               `json:"partner_id,omitempty"`
	Status    *models.AssignmentStatus `json:"status,omitempty"`
}

func NewAssignmentService(db *gorm.DB, config *config.Config, historyService *HistoryService, commissionService *CommissionService, notificationService *NotificationService) *AssignmentService {
	return &AssignmentService{
		db:                  db,
		config:              config,
		historyService:      historyService,
		commissionService:   commissionService,
		notificationService: notificationService,
	}
}

// CreateOrder registers an incoming order and immediately runs the
// assignment engine on it.
func (s *AssignmentService) CreateOrder(req *CreateOrderRequest) (*models.Order, *models.ServicePartnerAssignment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	var service models.Service
	if err := s.db.First(&service, req.ServiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New("service not found")
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	if !service.IsActive {
		return nil, nil, errors.New("service is not active")
	}

	order := &models.Order{
		ServiceID:   req.ServiceID,
		CustomerRef: req.CustomerRef,
		Status:      models.OrderStatusPending,
		IsTrial:     req.IsTrial,
	}
	if err := s.db.Create(order).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	assignment, err := s.AssignOrder(order.ID, "system")
	if err != nil {
		if errors.Is(err, ErrNoEligiblePartner) {
			// Order stays queued for manual assignment
			s.db.First(order, order.ID)
			return order, nil, nil
		}
		return order, nil, err
	}

	s.db.First(order, order.ID)
	return order, assignment, nil
}

// AssignOrder runs the engine for one order. Repeated delivery of the same
// order event is idempotent: an existing active assignment is returned as-is.
// When no eligible partner exists the order is queued and ErrNoEligiblePartner
// returned.
func (s *AssignmentService) AssignOrder(orderID uuid.UUID, actor string) (*models.ServicePartnerAssignment, error) {
	var order models.Order
	if err := s.db.Preload("Service").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("order is %s and cannot be assigned", order.Status)
	}

	// Duplicate event: return the existing active assignment. This check is
	// best effort; the partial unique index on active assignments per order
	// catches the race where two deliveries pass it concurrently.
	if existing, err := s.activeAssignmentForOrder(orderID); err == nil {
		return existing, nil
	}

	strategy := NewStrategy(s.resolveStrategyName())

	candidates, err := s.eligibleCandidates(&order)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		if err := s.queueOrder(&order, "no eligible partner", actor); err != nil {
			return nil, err
		}
		return nil, ErrNoEligiblePartner
	}

	// Scoring normalizes load against the same cap the claim enforces
	assignmentCfg := s.config.Assignment
	assignmentCfg.MaxActiveAssignments = s.loadCap()

	ctx := &StrategyContext{
		CategoryID:     order.Service.CategoryID,
		LastAssignedID: s.rotationPointer(order.Service.CategoryID),
		Candidates:     candidates,
		Config:         assignmentCfg,
	}

	ranked := SelectCandidates(strategy, ctx)

	assignment, err := s.claimAndAssign(&order, ranked, strategy.Name(), actor)
	if err != nil {
		if errors.Is(err, ErrNoEligiblePartner) {
			if qErr := s.queueOrder(&order, "all candidates at capacity", actor); qErr != nil {
				return nil, qErr
			}
		}
		return nil, err
	}

	return assignment, nil
}

// eligibleCandidates loads partners able to take this order: expertise in the
// service category, load below the cap, and either approved or, for trial
// orders, in trial_period with a trial task on this service. Ordered by
// creation time so round-robin rotation is stable.
func (s *AssignmentService) eligibleCandidates(order *models.Order) ([]Candidate, error) {
	loadCap := s.loadCap()

	query := s.db.Model(&models.Partner{}).
		Joins("JOIN partner_expertises ON partner_expertises.partner_id = partners.id").
		Where("partner_expertises.category_id = ?", order.Service.CategoryID).
		Where("partners.active_assignments < ?", loadCap)

	if order.IsTrial {
		query = query.Where(
			"partners.status = ? OR (partners.status = ? AND partners.id IN (SELECT partner_id FROM trial_services WHERE service_id = ?))",
			models.PartnerStatusApproved, models.PartnerStatusTrialPeriod, order.ServiceID)
	} else {
		query = query.Where("partners.status = ?", models.PartnerStatusApproved)
	}

	var partners []models.Partner
	if err := query.Distinct("partners.*").
		Order("partners.created_at ASC").
		Find(&partners).Error; err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	candidates := make([]Candidate, 0, len(partners))
	for _, p := range partners {
		years, err := s.categoryExperience(p.ID, order.Service.CategoryID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{Partner: p, YearsExperience: years})
	}

	return candidates, nil
}

func (s *AssignmentService) categoryExperience(partnerID uuid.UUID, categoryID string) (int, error) {
	var years int
	err := s.db.Model(&models.PartnerExpertise{}).
		Where("partner_id = ? AND category_id = ?", partnerID, categoryID).
		Select("COALESCE(MAX(years_experience), 0)").
		Scan(&years).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read expertise: %w", err)
	}
	return years, nil
}

// claimAndAssign walks the ranked candidates and claims the first one whose
// load counter can be bumped. A failed compare-and-swap is re-read: if the
// partner is now at capacity or out of the pipeline the next candidate is
// tried; a pure version race retries the same candidate with jittered backoff
// until the retry budget runs out.
func (s *AssignmentService) claimAndAssign(order *models.Order, ranked []Candidate, strategyName, actor string) (*models.ServicePartnerAssignment, error) {
	loadCap := s.loadCap()
	contended := false

	for _, candidate := range ranked {
		partner := candidate.Partner

		for attempt := 0; attempt <= s.config.Assignment.ClaimRetries; attempt++ {
			if attempt > 0 {
				s.backoff(attempt)
				if err := s.db.First(&partner, partner.ID).Error; err != nil {
					return nil, fmt.Errorf("failed to re-read partner: %w", err)
				}
			}

			result := s.db.Model(&models.Partner{}).
				Where("id = ? AND version = ? AND active_assignments < ?",
					partner.ID, partner.Version, loadCap).
				Updates(map[string]interface{}{
					"active_assignments": gorm.Expr("active_assignments + 1"),
					"version":            gorm.Expr("version + 1"),
				})
			if result.Error != nil {
				return nil, fmt.Errorf("claim update failed: %w", result.Error)
			}

			if result.RowsAffected == 1 {
				assignment, err := s.finalizeAssignment(order, &partner, strategyName, actor)
				if err != nil {
					// Roll the claim back so the counter stays accurate
					s.releaseLoad(partner.ID)
					if errors.Is(err, errDuplicateActiveAssignment) {
						// A concurrent delivery won the order; hand back its
						// assignment so duplicate events stay idempotent
						return s.activeAssignmentForOrder(order.ID)
					}
					return nil, err
				}
				return assignment, nil
			}

			// Claim missed: find out why
			var current models.Partner
			if err := s.db.First(&current, partner.ID).Error; err != nil {
				return nil, fmt.Errorf("failed to re-read partner: %w", err)
			}
			if current.ActiveAssignments >= loadCap || current.Status.IsTerminal() && current.Status != models.PartnerStatusApproved {
				// Genuinely ineligible now, move to the next candidate
				break
			}
			partner = current
			contended = true
		}
	}

	if contended {
		return nil, ErrAssignmentContended
	}
	return nil, ErrNoEligiblePartner
}

// finalizeAssignment runs after a successful claim: it writes the assignment
// row, commission figures, rotation pointer, order status and ledger entries
// in one transaction.
func (s *AssignmentService) finalizeAssignment(order *models.Order, partner *models.Partner, strategyName, actor string) (*models.ServicePartnerAssignment, error) {
	breakdown, err := s.commissionService.ForAssignment(partner.ID, &order.Service)
	if err != nil {
		return nil, err
	}

	assignment := &models.ServicePartnerAssignment{
		PartnerID:        partner.ID,
		ServiceID:        order.ServiceID,
		OrderID:          &order.ID,
		Status:           models.AssignmentStatusAssigned,
		Strategy:         strategyName,
		CommissionType:   breakdown.Type,
		CommissionRate:   breakdown.Rate,
		CommissionAmount: breakdown.Amount,
		AssignedAt:       time.Now(),
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(assignment).Error; err != nil {
			if isDuplicateActiveAssignment(err) {
				return errDuplicateActiveAssignment
			}
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		previousOrderStatus := order.Status
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"status":       models.OrderStatusAssigned,
				"queued_at":    nil,
				"queue_reason": "",
			}).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		if err := s.advanceRotation(tx, order.Service.CategoryID, partner.ID); err != nil {
			return err
		}

		if _, err := s.historyService.Append(tx, models.HistoryEntityAssignment, assignment.ID,
			"", string(models.AssignmentStatusAssigned), actor,
			fmt.Sprintf("assigned via %s strategy", strategyName)); err != nil {
			return err
		}

		if _, err := s.historyService.Append(tx, models.HistoryEntityOrder, order.ID,
			string(previousOrderStatus), string(models.OrderStatusAssigned), actor, ""); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	go func() {
		if s.notificationService != nil {
			s.notificationService.SendAssignmentNotification(assignment, partner, &order.Service)
		}
	}()

	logrus.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"partner_id": partner.ID,
		"strategy":   strategyName,
		"commission": assignment.CommissionAmount,
	}).Info("Order assigned")

	return assignment, nil
}

// ManualAssign lets an admin place a queued order with a specific partner.
// The load cap still applies; the claim path is the same as automatic
// assignment.
func (s *AssignmentService) ManualAssign(orderID uuid.UUID, req *ManualAssignRequest, actor string) (*models.ServicePartnerAssignment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order models.Order
	if err := s.db.Preload("Service").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("order is %s and cannot be assigned", order.Status)
	}

	if _, err := s.activeAssignmentForOrder(orderID); err == nil {
		return nil, errors.New("order already has an active assignment")
	}

	var partner models.Partner
	if err := s.db.First(&partner, req.PartnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("partner not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	assignment, err := s.claimAndAssign(&order, []Candidate{{Partner: partner}}, "manual", actor)
	if err != nil {
		return nil, err
	}

	if req.Notes != "" {
		s.db.Model(assignment).Update("notes", req.Notes)
	}

	return assignment, nil
}

// CompleteAssignment closes an assignment and releases the partner's load
// slot.
func (s *AssignmentService) CompleteAssignment(assignmentID uuid.UUID, actor string) (*models.ServicePartnerAssignment, error) {
	return s.closeAssignment(assignmentID, models.AssignmentStatusCompleted, models.OrderStatusCompleted, actor, "")
}

// CancelAssignment cancels an assignment and requeues the order for another
// partner.
func (s *AssignmentService) CancelAssignment(assignmentID uuid.UUID, actor, reason string) (*models.ServicePartnerAssignment, error) {
	assignment, err := s.closeAssignment(assignmentID, models.AssignmentStatusCancelled, models.OrderStatusQueued, actor, reason)
	if err != nil {
		return nil, err
	}

	if assignment.OrderID != nil {
		now := time.Now()
		s.db.Model(&models.Order{}).Where("id = ?", *assignment.OrderID).
			Updates(map[string]interface{}{"queued_at": now, "queue_reason": "assignment cancelled"})
	}

	return assignment, nil
}

func (s *AssignmentService) closeAssignment(assignmentID uuid.UUID, next models.AssignmentStatus, orderStatus models.OrderStatus, actor, notes string) (*models.ServicePartnerAssignment, error) {
	var assignment models.ServicePartnerAssignment

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&assignment, assignmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("assignment not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if assignment.Status == next {
			return nil
		}
		if !assignment.Status.IsActive() {
			return fmt.Errorf("assignment is already %s", assignment.Status)
		}

		previous := assignment.Status
		now := time.Now()
		assignment.Status = next
		if next == models.AssignmentStatusCompleted {
			assignment.CompletedAt = &now
		} else {
			assignment.CancelledAt = &now
		}
		if notes != "" {
			assignment.Notes = notes
		}

		if err := tx.Save(&assignment).Error; err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}

		// Release the load slot taken at claim time
		if err := tx.Model(&models.Partner{}).
			Where("id = ? AND active_assignments > 0", assignment.PartnerID).
			Updates(map[string]interface{}{
				"active_assignments": gorm.Expr("active_assignments - 1"),
				"version":            gorm.Expr("version + 1"),
			}).Error; err != nil {
			return fmt.Errorf("failed to release load: %w", err)
		}

		if assignment.OrderID != nil {
			var order models.Order
			if err := tx.First(&order, *assignment.OrderID).Error; err == nil {
				previousOrderStatus := order.Status
				if err := tx.Model(&order).Update("status", orderStatus).Error; err != nil {
					return fmt.Errorf("failed to update order: %w", err)
				}
				if _, err := s.historyService.Append(tx, models.HistoryEntityOrder, order.ID,
					string(previousOrderStatus), string(orderStatus), actor, notes); err != nil {
					return err
				}
			}
		}

		if _, err := s.historyService.Append(tx, models.HistoryEntityAssignment, assignment.ID,
			string(previous), string(next), actor, notes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &assignment, nil
}

// Query methods

func (s *AssignmentService) GetAssignment(id uuid.UUID) (*models.ServicePartnerAssignment, error) {
	var assignment models.ServicePartnerAssignment
	if err := s.db.Preload("Partner").Preload("Service").First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("assignment not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &assignment, nil
}

func (s *AssignmentService) SearchAssignments(params AssignmentSearchParams) ([]models.ServicePartnerAssignment, int64, error) {
	query := s.db.Model(&models.ServicePartnerAssignment{}).Preload("Service")

	if params.PartnerID != nil {
		query = query.Where("partner_id = ?", *params.PartnerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	allowedSortFields := []string{"created_at", "assigned_at", "status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var assignments []models.ServicePartnerAssignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	return assignments, total, nil
}

func (s *AssignmentService) GetOrder(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Service").Preload("Assignments").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *AssignmentService) ListQueuedOrders(params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Preload("Service").
		Where("status = ?", models.OrderStatusQueued)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count queued orders: %w", err)
	}

	query = query.Order("queued_at ASC")
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch queued orders: %w", err)
	}

	return orders, total, nil
}

// Internal helpers

func (s *AssignmentService) queueOrder(order *models.Order, reason, actor string) error {
	if order.Status == models.OrderStatusQueued {
		return nil
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		now := time.Now()
		previous := order.Status
		if err := tx.Model(order).Updates(map[string]interface{}{
			"status":       models.OrderStatusQueued,
			"queued_at":    now,
			"queue_reason": reason,
		}).Error; err != nil {
			return fmt.Errorf("failed to queue order: %w", err)
		}

		if _, err := s.historyService.Append(tx, models.HistoryEntityOrder, order.ID,
			string(previous), string(models.OrderStatusQueued), actor, reason); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return err
	}

	go func() {
		if s.notificationService != nil {
			s.notificationService.SendOrderQueuedNotification(order, reason)
		}
	}()

	return nil
}

// resolveStrategyName prefers the admin settings override and falls back to
// the configured default.
func (s *AssignmentService) resolveStrategyName() string {
	if value, ok := lookupSetting(s.db, "assignment", "strategy"); ok {
		if raw, ok := settingString(value); ok {
			switch raw {
			case StrategyRating, StrategyRoundRobin, StrategyCombined:
				return raw
			}
		}
	}
	return s.config.Assignment.Strategy
}

// loadCap resolves the per-partner concurrent assignment cap, honoring the
// admin settings override.
func (s *AssignmentService) loadCap() int {
	if value, ok := lookupSetting(s.db, "assignment", "max_active_assignments"); ok {
		if override, ok := settingInt(value); ok && override >= 1 {
			return override
		}
	}
	return s.config.Assignment.MaxActiveAssignments
}

// activeAssignmentForOrder returns the assignment currently occupying an
// order, if any.
func (s *AssignmentService) activeAssignmentForOrder(orderID uuid.UUID) (*models.ServicePartnerAssignment, error) {
	var existing models.ServicePartnerAssignment
	if err := s.db.Where("order_id = ? AND status IN ?", orderID, activeAssignmentStatuses).
		First(&existing).Error; err != nil {
		return nil, fmt.Errorf("no active assignment for order: %w", err)
	}
	return &existing, nil
}

// isDuplicateActiveAssignment recognizes the unique violation raised by
// idx_assignments_order_active.
func isDuplicateActiveAssignment(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "idx_assignments_order_active") ||
		strings.Contains(msg, "duplicate key value")
}

func (s *AssignmentService) rotationPointer(categoryID string) *uuid.UUID {
	var rotation models.AssignmentRotation
	if err := s.db.Where("category_id = ?", categoryID).First(&rotation).Error; err != nil {
		return nil
	}
	return rotation.LastPartnerID
}

func (s *AssignmentService) advanceRotation(tx *gorm.DB, categoryID string, partnerID uuid.UUID) error {
	var rotation models.AssignmentRotation
	err := tx.Where("category_id = ?", categoryID).First(&rotation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rotation = models.AssignmentRotation{CategoryID: categoryID}
	} else if err != nil {
		return fmt.Errorf("failed to read rotation: %w", err)
	}

	rotation.LastPartnerID = &partnerID
	if err := tx.Save(&rotation).Error; err != nil {
		return fmt.Errorf("failed to advance rotation: %w", err)
	}
	return nil
}

func (s *AssignmentService) releaseLoad(partnerID uuid.UUID) {
	if err := s.db.Model(&models.Partner{}).
		Where("id = ? AND active_assignments > 0", partnerID).
		Updates(map[string]interface{}{
			"active_assignments": gorm.Expr("active_assignments - 1"),
			"version":            gorm.Expr("version + 1"),
		}).Error; err != nil {
		logrus.WithError(err).WithField("partner_id", partnerID).Error("Failed to release claimed load")
	}
}

// backoff sleeps for a jittered multiple of the configured base before a
// claim retry.
func (s *AssignmentService) backoff(attempt int) {
	base := time.Duration(s.config.Assignment.ClaimBackoffMs) * time.Millisecond
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	time.Sleep(base*time.Duration(attempt) + jitter)
}
