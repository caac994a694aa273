// Package admin implements the administrative operations: manual awards,
// revocation, on-demand ranking recomputation and catalog reseeding. They go
// through the same stores and uniqueness rules as the automated runs.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/internal/ranking"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// ErrInvalidRequest marks malformed admin input.
var ErrInvalidRequest = errors.New("invalid request")

// Store is what the admin operations read and delete.
type Store interface {
	GetParticipant(ctx context.Context, p contracts.Participant) (*contracts.ParticipantRecord, error)
	GetBadgeByCode(ctx context.Context, code string) (*contracts.BadgeDefinition, error)
	DeleteAward(ctx context.Context, id string) (bool, error)
}

// Awarder records awards (the evaluation engine).
type Awarder interface {
	Award(ctx context.Context, p contracts.Participant, b contracts.BadgeDefinition, periodKey string, meta map[string]interface{}, now time.Time) (contracts.AwardStatus, error)
	Keys(now time.Time) period.Keys
}

// Ranker recomputes one leaderboard.
type Ranker interface {
	Recompute(ctx context.Context, pt period.Type, key string, now time.Time) (*ranking.Leaderboard, error)
}

// Seeder writes the badge catalog.
type Seeder interface {
	Seed(ctx context.Context) (*badges.SeedResult, error)
}

// Service runs administrative operations
type Service struct {
	store   Store
	awarder Awarder
	ranker  Ranker
	seeder  Seeder
	logger  *logger.Logger
}

// NewService creates a new admin service
func NewService(store Store, awarder Awarder, ranker Ranker, seeder Seeder, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		awarder: awarder,
		ranker:  ranker,
		seeder:  seeder,
		logger:  log.WithField("module", "admin"),
	}
}

// AwardRequest asks for one manual award. An empty PeriodKey is derived from
// the badge category the same way automated awards are filed.
type AwardRequest struct {
	ParticipantKind string `json:"participantKind"`
	ParticipantID   string `json:"participantId"`
	BadgeCode       string `json:"badgeCode"`
	PeriodKey       string `json:"periodKey,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// AwardResult reports a manual award.
type AwardResult struct {
	Participant contracts.Participant `json:"participant"`
	BadgeCode   string                `json:"badgeCode"`
	PeriodKey   string                `json:"periodKey"`
	Status      contracts.AwardStatus `json:"status"`
}

// AwardManually grants a badge. Granting an already held (participant,
// badge, period) returns AwardStatusAlreadyAwarded without error.
func (s *Service) AwardManually(ctx context.Context, req AwardRequest, now time.Time) (*AwardResult, error) {
	kind, err := contracts.ParseParticipantKind(req.ParticipantKind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	id := strings.TrimSpace(req.ParticipantID)
	code := strings.TrimSpace(req.BadgeCode)
	if id == "" || code == "" {
		return nil, fmt.Errorf("%w: participantId and badgeCode are required", ErrInvalidRequest)
	}
	p := contracts.Participant{Kind: kind, ID: id}

	if _, err := s.store.GetParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("lookup participant %s: %w", p, err)
	}

	badge, err := s.store.GetBadgeByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup badge %s: %w", code, err)
	}
	if !badge.Active {
		return nil, fmt.Errorf("award %s: %w", code, contracts.ErrBadgeInactive)
	}

	key := strings.TrimSpace(req.PeriodKey)
	if key == "" {
		key = badges.PeriodKeyFor(*badge, s.awarder.Keys(now))
	} else if !validPeriodKey(key) {
		return nil, fmt.Errorf("%w: %q", period.ErrInvalidPeriodKey, key)
	}

	meta := map[string]interface{}{"source": "manual"}
	if req.Reason != "" {
		meta["reason"] = req.Reason
	}

	status, err := s.awarder.Award(ctx, p, *badge, key, meta, now)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"participant": p.String(),
		"badge":       code,
		"period_key":  key,
		"status":      string(status),
	}).Info("Manual award")

	return &AwardResult{Participant: p, BadgeCode: code, PeriodKey: key, Status: status}, nil
}

// validPeriodKey accepts "lifetime" or any key one of the period types can parse.
func validPeriodKey(key string) bool {
	if key == period.Lifetime {
		return true
	}
	for _, pt := range period.Types {
		if _, err := period.RangeOf(pt, key, time.UTC); err == nil {
			return true
		}
	}
	return false
}

// RevokeResult reports a revocation. A missing award is not an error.
type RevokeResult struct {
	AwardID string `json:"awardId"`
	Revoked bool   `json:"revoked"`
	Reason  string `json:"reason,omitempty"`
}

// Revoke deletes one award by id.
func (s *Service) Revoke(ctx context.Context, awardID string) (*RevokeResult, error) {
	awardID = strings.TrimSpace(awardID)
	result := &RevokeResult{AwardID: awardID}
	if awardID == "" {
		result.Reason = "award id is required"
		return result, nil
	}

	deleted, err := s.store.DeleteAward(ctx, awardID)
	if err != nil {
		return nil, fmt.Errorf("revoke award %s: %w", awardID, err)
	}
	if !deleted {
		result.Reason = contracts.ErrAwardNotFound.Error()
		return result, nil
	}

	result.Revoked = true
	s.logger.WithField("award_id", awardID).Info("Award revoked")
	return result, nil
}

// RecomputeRanking rebuilds the leaderboard of an arbitrary period.
func (s *Service) RecomputeRanking(ctx context.Context, periodType, periodKey string, now time.Time) (*ranking.Leaderboard, error) {
	pt, err := period.ParseType(periodType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.ranker.Recompute(ctx, pt, strings.TrimSpace(periodKey), now)
}

// Reseed upserts the badge catalog.
func (s *Service) Reseed(ctx context.Context) (*badges.SeedResult, error) {
	return s.seeder.Seed(ctx)
}
