// internal/services/strategy.go
package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
)

// Strategy names accepted by the config and the admin settings panel.
const (
	StrategyRating     = "rating"
	StrategyRoundRobin = "round_robin"
	StrategyCombined   = "combined"
)

// Candidate is one eligible partner with the inputs scoring needs already
// resolved. YearsExperience is the partner's experience in the order's
// category.
type Candidate struct {
	Partner         models.Partner
	YearsExperience int
}

// StrategyContext carries everything a strategy may score against.
// Candidates must be ordered by partner creation time ascending; the
// round-robin strategy depends on that order being stable.
type StrategyContext struct {
	CategoryID     string
	LastAssignedID *uuid.UUID
	Candidates     []Candidate
	Config         config.AssignmentConfig
}

// AssignmentStrategy scores a candidate for an order. Higher is better.
// Scoring must be deterministic: the same context always yields the same
// scores.
type AssignmentStrategy interface {
	Name() string
	Score(c Candidate, ctx *StrategyContext) float64
}

// NewStrategy maps a configured strategy name to its implementation.
// Unknown names fall back to combined, which Validate() should have
// prevented anyway.
func NewStrategy(name string) AssignmentStrategy {
	switch name {
	case StrategyRating:
		return ratingStrategy{}
	case StrategyRoundRobin:
		return roundRobinStrategy{}
	default:
		return combinedStrategy{}
	}
}

// ratingStrategy prefers the highest-rated partner. Ratings are on a 0-5
// scale.
type ratingStrategy struct{}

func (ratingStrategy) Name() string { return StrategyRating }

func (ratingStrategy) Score(c Candidate, _ *StrategyContext) float64 {
	return normalizeRating(c.Partner.Rating)
}

// roundRobinStrategy rotates through candidates in creation order, resuming
// after the partner that received the previous assignment in this category.
// The candidate next in rotation gets the highest score, the previously
// assigned partner the lowest.
type roundRobinStrategy struct{}

func (roundRobinStrategy) Name() string { return StrategyRoundRobin }

func (roundRobinStrategy) Score(c Candidate, ctx *StrategyContext) float64 {
	n := len(ctx.Candidates)
	if n == 0 {
		return 0
	}

	lastIdx := -1
	if ctx.LastAssignedID != nil {
		for i, cand := range ctx.Candidates {
			if cand.Partner.ID == *ctx.LastAssignedID {
				lastIdx = i
				break
			}
		}
	}

	idx := -1
	for i, cand := range ctx.Candidates {
		if cand.Partner.ID == c.Partner.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}

	// Distance 1 means "next in rotation". The previously assigned partner
	// wraps to distance n and scores lowest.
	distance := idx - lastIdx
	if distance <= 0 {
		distance += n
	}

	return float64(n-distance+1) / float64(n)
}

// combinedStrategy blends rating, current load and category experience with
// configurable weights. All components are normalized to [0,1] before
// weighting.
type combinedStrategy struct{}

func (combinedStrategy) Name() string { return StrategyCombined }

func (combinedStrategy) Score(c Candidate, ctx *StrategyContext) float64 {
	cfg := ctx.Config

	rating := normalizeRating(c.Partner.Rating)

	loadCap := cfg.MaxActiveAssignments
	if loadCap < 1 {
		loadCap = 1
	}
	load := float64(c.Partner.ActiveAssignments) / float64(loadCap)
	if load > 1 {
		load = 1
	}

	years := c.YearsExperience
	if years > 20 {
		years = 20
	}
	experience := float64(years) / 20.0

	return cfg.RatingWeight*rating + cfg.LoadWeight*(1-load) + cfg.ExperienceWeight*experience
}

func normalizeRating(rating float64) float64 {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		return 1
	}
	return rating / 5.0
}

// SelectCandidates scores and orders candidates, best first. Ties break on
// lower active load, then earlier partner creation, then partner id, so the
// result is fully deterministic.
func SelectCandidates(strategy AssignmentStrategy, ctx *StrategyContext) []Candidate {
	type scored struct {
		candidate Candidate
		score     float64
	}

	ranked := make([]scored, 0, len(ctx.Candidates))
	for _, c := range ctx.Candidates {
		ranked = append(ranked, scored{candidate: c, score: strategy.Score(c, ctx)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		pi, pj := ranked[i].candidate.Partner, ranked[j].candidate.Partner
		if pi.ActiveAssignments != pj.ActiveAssignments {
			return pi.ActiveAssignments < pj.ActiveAssignments
		}
		if !pi.CreatedAt.Equal(pj.CreatedAt) {
			return pi.CreatedAt.Before(pj.CreatedAt)
		}
		return pi.ID.String() < pj.ID.String()
	})

	ordered := make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		ordered = append(ordered, r.candidate)
	}
	return ordered
}
