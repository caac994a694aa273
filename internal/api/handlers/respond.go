package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/admin"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Cache is the read-through cache used for leaderboards and the catalog.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error
	Delete(ctx context.Context, keys ...string) error
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, admin.ErrInvalidRequest), errors.Is(err, period.ErrInvalidPeriodKey):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrBadgeNotFound), errors.Is(err, contracts.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrBadgeInactive):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondDomainError writes err with its mapped status. Server errors are
// logged and their detail hidden.
func respondDomainError(w http.ResponseWriter, err error, log *logger.Logger, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error(msg)
		respondError(w, status, msg)
		return
	}
	respondError(w, status, err.Error())
}
