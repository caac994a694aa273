package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
	"github.com/HatimBenzahra/rework-sub001/pkg/redis"
)

// BadgeStore reads the catalog and earned awards.
type BadgeStore interface {
	ListActiveBadges(ctx context.Context) ([]contracts.BadgeDefinition, error)
	GetParticipant(ctx context.Context, p contracts.Participant) (*contracts.ParticipantRecord, error)
	ListAwards(ctx context.Context, p contracts.Participant) ([]contracts.Award, error)
}

// BadgeHandler serves the catalog and participant awards
type BadgeHandler struct {
	store  BadgeStore
	cache  Cache
	logger *logger.Logger
}

// NewBadgeHandler creates a new badge handler
func NewBadgeHandler(store BadgeStore, cache Cache, log *logger.Logger) *BadgeHandler {
	return &BadgeHandler{
		store:  store,
		cache:  cache,
		logger: log,
	}
}

// ListBadges returns the active catalog
// GET /api/badges
func (h *BadgeHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	var list []contracts.BadgeDefinition
	err := h.cache.GetOrSet(r.Context(), redis.CatalogKey(badges.CatalogVersion), &list, redis.TTLLong, func() (interface{}, error) {
		return h.store.ListActiveBadges(r.Context())
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to list badges")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve badges")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version": badges.CatalogVersion,
		"count":   len(list),
		"badges":  list,
	})
}

// ListAwards returns every award of one participant
// GET /api/participants/{kind}/{id}/awards
func (h *BadgeHandler) ListAwards(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := contracts.ParseParticipantKind(vars["kind"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := contracts.Participant{Kind: kind, ID: vars["id"]}

	if _, err := h.store.GetParticipant(r.Context(), p); err != nil {
		respondDomainError(w, err, h.logger, "Failed to retrieve participant")
		return
	}

	awards, err := h.store.ListAwards(r.Context(), p)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list awards")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve awards")
		return
	}
	if awards == nil {
		awards = []contracts.Award{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"participant": p,
		"count":       len(awards),
		"awards":      awards,
	})
}
