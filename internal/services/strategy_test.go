// internal/services/strategy_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
)

func testAssignmentConfig() config.AssignmentConfig {
	return config.AssignmentConfig{
		Strategy:             StrategyCombined,
		RatingWeight:         0.5,
		LoadWeight:           0.3,
		ExperienceWeight:     0.2,
		MaxActiveAssignments: 5,
	}
}

func testCandidate(id string, createdAt time.Time, rating float64, load int, years int) Candidate {
	return Candidate{
		Partner: models.Partner{
			BaseModel: models.BaseModel{
				ID:        uuid.MustParse(id),
				CreatedAt: createdAt,
			},
			Rating:            rating,
			ActiveAssignments: load,
		},
		YearsExperience: years,
	}
}

func TestNewStrategy(t *testing.T) {
	assert.Equal(t, StrategyRating, NewStrategy(StrategyRating).Name())
	assert.Equal(t, StrategyRoundRobin, NewStrategy(StrategyRoundRobin).Name())
	assert.Equal(t, StrategyCombined, NewStrategy(StrategyCombined).Name())
	assert.Equal(t, StrategyCombined, NewStrategy("unknown").Name())
}

func TestRatingStrategyScore(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	strategy := NewStrategy(StrategyRating)
	ctx := &StrategyContext{Config: testAssignmentConfig()}

	assert.Equal(t, 1.0, strategy.Score(testCandidate("11111111-1111-1111-1111-111111111111", base, 5.0, 0, 0), ctx))
	assert.Equal(t, 0.9, strategy.Score(testCandidate("22222222-2222-2222-2222-222222222222", base, 4.5, 0, 0), ctx))
	assert.Equal(t, 0.0, strategy.Score(testCandidate("33333333-3333-3333-3333-333333333333", base, 0, 0, 0), ctx))
	// Out-of-range ratings are clamped
	assert.Equal(t, 1.0, strategy.Score(testCandidate("44444444-4444-4444-4444-444444444444", base, 7.2, 0, 0), ctx))
	assert.Equal(t, 0.0, strategy.Score(testCandidate("55555555-5555-5555-5555-555555555555", base, -1, 0, 0), ctx))
}

func TestRoundRobinStrategyRotatesPastLastAssigned(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testCandidate("aaaaaaaa-0000-0000-0000-000000000001", base, 4, 0, 0)
	b := testCandidate("aaaaaaaa-0000-0000-0000-000000000002", base.Add(time.Hour), 5, 0, 0)
	c := testCandidate("aaaaaaaa-0000-0000-0000-000000000003", base.Add(2*time.Hour), 3, 0, 0)

	lastAssigned := a.Partner.ID
	ctx := &StrategyContext{
		CategoryID:     "plumbing",
		LastAssignedID: &lastAssigned,
		Candidates:     []Candidate{a, b, c},
		Config:         testAssignmentConfig(),
	}

	ordered := SelectCandidates(NewStrategy(StrategyRoundRobin), ctx)

	// The partner after the last assigned one wins; the last assigned wraps
	// to the back regardless of rating.
	assert.Equal(t, b.Partner.ID, ordered[0].Partner.ID)
	assert.Equal(t, c.Partner.ID, ordered[1].Partner.ID)
	assert.Equal(t, a.Partner.ID, ordered[2].Partner.ID)
}

func TestRoundRobinStrategyNoPointerStartsAtFirstCandidate(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testCandidate("aaaaaaaa-0000-0000-0000-000000000001", base, 1, 0, 0)
	b := testCandidate("aaaaaaaa-0000-0000-0000-000000000002", base.Add(time.Hour), 5, 0, 0)

	ctx := &StrategyContext{
		CategoryID: "plumbing",
		Candidates: []Candidate{a, b},
		Config:     testAssignmentConfig(),
	}

	ordered := SelectCandidates(NewStrategy(StrategyRoundRobin), ctx)

	assert.Equal(t, a.Partner.ID, ordered[0].Partner.ID)
	assert.Equal(t, b.Partner.ID, ordered[1].Partner.ID)
}

func TestRoundRobinStrategyPointerOnLastWrapsToFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testCandidate("aaaaaaaa-0000-0000-0000-000000000001", base, 4, 0, 0)
	b := testCandidate("aaaaaaaa-0000-0000-0000-000000000002", base.Add(time.Hour), 4, 0, 0)
	c := testCandidate("aaaaaaaa-0000-0000-0000-000000000003", base.Add(2*time.Hour), 4, 0, 0)

	lastAssigned := c.Partner.ID
	ctx := &StrategyContext{
		CategoryID:     "plumbing",
		LastAssignedID: &lastAssigned,
		Candidates:     []Candidate{a, b, c},
		Config:         testAssignmentConfig(),
	}

	ordered := SelectCandidates(NewStrategy(StrategyRoundRobin), ctx)

	assert.Equal(t, a.Partner.ID, ordered[0].Partner.ID)
}

func TestCombinedStrategyScore(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	strategy := NewStrategy(StrategyCombined)
	ctx := &StrategyContext{Config: testAssignmentConfig()}

	// rating 4.0/5 = 0.8, load 2/5 leaves 0.6 headroom, 10 years = 0.5
	score := strategy.Score(testCandidate("11111111-1111-1111-1111-111111111111", base, 4.0, 2, 10), ctx)
	assert.InDelta(t, 0.5*0.8+0.3*0.6+0.2*0.5, score, 1e-9)

	// Perfect candidate scores the sum of the weights
	perfect := strategy.Score(testCandidate("22222222-2222-2222-2222-222222222222", base, 5.0, 0, 20), ctx)
	assert.InDelta(t, 1.0, perfect, 1e-9)

	// Experience is capped at 20 years
	veteran := strategy.Score(testCandidate("33333333-3333-3333-3333-333333333333", base, 5.0, 0, 35), ctx)
	assert.InDelta(t, perfect, veteran, 1e-9)
}

func TestCombinedStrategyPrefersLessLoadedOnEqualRating(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	busy := testCandidate("aaaaaaaa-0000-0000-0000-000000000001", base, 4.5, 4, 5)
	idle := testCandidate("aaaaaaaa-0000-0000-0000-000000000002", base.Add(time.Hour), 4.5, 0, 5)

	ctx := &StrategyContext{
		Candidates: []Candidate{busy, idle},
		Config:     testAssignmentConfig(),
	}

	ordered := SelectCandidates(NewStrategy(StrategyCombined), ctx)

	assert.Equal(t, idle.Partner.ID, ordered[0].Partner.ID)
}

func TestSelectCandidatesTieBreaks(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Identical scores force the tie-break chain: lower load, then earlier
	// creation, then id order.
	loaded := testCandidate("aaaaaaaa-0000-0000-0000-000000000003", base, 4.0, 3, 10)
	older := testCandidate("aaaaaaaa-0000-0000-0000-000000000002", base, 4.0, 1, 10)
	newer := testCandidate("aaaaaaaa-0000-0000-0000-000000000001", base.Add(time.Hour), 4.0, 1, 10)

	ctx := &StrategyContext{
		Candidates: []Candidate{loaded, newer, older},
		Config:     testAssignmentConfig(),
	}

	ordered := SelectCandidates(NewStrategy(StrategyRating), ctx)

	assert.Equal(t, older.Partner.ID, ordered[0].Partner.ID)
	assert.Equal(t, newer.Partner.ID, ordered[1].Partner.ID)
	assert.Equal(t, loaded.Partner.ID, ordered[2].Partner.ID)
}

func TestSelectCandidatesSameIDTieBreaksOnUUIDOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := testCandidate("bbbbbbbb-0000-0000-0000-000000000001", base, 4.0, 1, 10)
	first := testCandidate("aaaaaaaa-0000-0000-0000-000000000001", base, 4.0, 1, 10)

	ctx := &StrategyContext{
		Candidates: []Candidate{second, first},
		Config:     testAssignmentConfig(),
	}

	ordered := SelectCandidates(NewStrategy(StrategyRating), ctx)

	assert.Equal(t, first.Partner.ID, ordered[0].Partner.ID)
	assert.Equal(t, second.Partner.ID, ordered[1].Partner.ID)
}

func TestSelectCandidatesIsDeterministic(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		testCandidate("aaaaaaaa-0000-0000-0000-000000000001", base, 4.2, 1, 3),
		testCandidate("aaaaaaaa-0000-0000-0000-000000000002", base.Add(time.Hour), 4.8, 3, 8),
		testCandidate("aaaaaaaa-0000-0000-0000-000000000003", base.Add(2*time.Hour), 3.9, 0, 15),
	}

	ctx := &StrategyContext{Candidates: candidates, Config: testAssignmentConfig()}
	strategy := NewStrategy(StrategyCombined)

	first := SelectCandidates(strategy, ctx)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, SelectCandidates(strategy, ctx))
	}
}

func TestSelectCandidatesEmpty(t *testing.T) {
	ctx := &StrategyContext{Config: testAssignmentConfig()}
	assert.Empty(t, SelectCandidates(NewStrategy(StrategyCombined), ctx))
}
