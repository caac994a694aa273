package contracts

import "errors"

var (
	ErrBadgeNotFound       = errors.New("badge not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAwardNotFound       = errors.New("award not found")
	ErrBadgeInactive       = errors.New("badge is inactive")

	// ErrUpstreamUnavailable wraps transport failures of the contract feed.
	ErrUpstreamUnavailable = errors.New("contract feed unavailable")
	// ErrUpstreamAuth wraps token acquisition failures.
	ErrUpstreamAuth = errors.New("contract feed authentication failed")
)
