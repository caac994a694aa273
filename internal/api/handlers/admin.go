package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/HatimBenzahra/rework-sub001/internal/admin"
	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
	"github.com/HatimBenzahra/rework-sub001/pkg/redis"
)

// AdminHandler exposes the administrative operations
// SSOT: admin HTTP endpoints live only here
type AdminHandler struct {
	service *admin.Service
	cache   Cache
	now     func() time.Time
	logger  *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service *admin.Service, cache Cache, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		cache:   cache,
		now:     time.Now,
		logger:  log,
	}
}

// AwardBadge grants a badge manually
// POST /api/admin/awards
// {"participantKind": "commercial", "participantId": "...", "badgeCode": "...", "periodKey": "2026-03"}
func (h *AdminHandler) AwardBadge(w http.ResponseWriter, r *http.Request) {
	var req admin.AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.AwardManually(r.Context(), req, h.now())
	if err != nil {
		respondDomainError(w, err, h.logger, "Failed to award badge")
		return
	}

	status := http.StatusOK
	if result.Status == contracts.AwardStatusAwarded {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

// RevokeAward deletes an award
// DELETE /api/admin/awards/{id}
func (h *AdminHandler) RevokeAward(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.service.Revoke(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("award_id", id).Error("Failed to revoke award")
		respondError(w, http.StatusInternalServerError, "Failed to revoke award")
		return
	}

	if !result.Revoked {
		respondJSON(w, http.StatusNotFound, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RecomputeRequest selects the leaderboard to rebuild
type RecomputeRequest struct {
	PeriodType string `json:"periodType"`
	PeriodKey  string `json:"periodKey"`
}

// RecomputeRanking rebuilds one leaderboard
// POST /api/admin/rankings/recompute
func (h *AdminHandler) RecomputeRanking(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	board, err := h.service.RecomputeRanking(r.Context(), req.PeriodType, req.PeriodKey, h.now())
	if err != nil {
		respondDomainError(w, err, h.logger, "Failed to recompute ranking")
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// SeedBadges upserts the badge catalog
// POST /api/admin/badges/seed
func (h *AdminHandler) SeedBadges(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Reseed(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to seed badge catalog")
		respondError(w, http.StatusInternalServerError, "Failed to seed badge catalog")
		return
	}

	if err := h.cache.Delete(r.Context(), redis.CatalogKey(badges.CatalogVersion)); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate catalog cache")
	}

	respondJSON(w, http.StatusOK, result)
}
