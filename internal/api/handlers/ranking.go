package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
	"github.com/HatimBenzahra/rework-sub001/pkg/redis"
)

// LeaderboardReader reads stored leaderboards (the ranking engine).
type LeaderboardReader interface {
	Leaderboard(ctx context.Context, pt period.Type, key string) ([]contracts.RankSnapshot, error)
}

// RankingHandler serves leaderboards
// SSOT: leaderboard read API lives only here
type RankingHandler struct {
	reader LeaderboardReader
	cache  Cache
	logger *logger.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(reader LeaderboardReader, cache Cache, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		reader: reader,
		cache:  cache,
		logger: log,
	}
}

// LeaderboardResponse is one period's leaderboard
type LeaderboardResponse struct {
	PeriodType period.Type              `json:"periodType"`
	PeriodKey  string                   `json:"periodKey"`
	ComputedAt *time.Time               `json:"computedAt,omitempty"`
	Entries    []contracts.RankSnapshot `json:"entries"`
}

// GetLeaderboard returns the stored leaderboard of one period
// GET /api/rankings/{periodType}/{periodKey}
func (h *RankingHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	pt, err := period.ParseType(vars["periodType"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := vars["periodKey"]

	var resp LeaderboardResponse
	err = h.cache.GetOrSet(r.Context(), redis.LeaderboardKey(string(pt), key), &resp, redis.TTLMedium, func() (interface{}, error) {
		entries, err := h.reader.Leaderboard(r.Context(), pt, key)
		if err != nil {
			return nil, err
		}
		out := LeaderboardResponse{PeriodType: pt, PeriodKey: key, Entries: entries}
		if out.Entries == nil {
			out.Entries = []contracts.RankSnapshot{}
		}
		if len(entries) > 0 {
			at := entries[0].ComputedAt
			out.ComputedAt = &at
		}
		return out, nil
	})
	if err != nil {
		respondDomainError(w, err, h.logger, "Failed to retrieve leaderboard")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
