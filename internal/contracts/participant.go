package contracts

import (
	"fmt"
	"strings"
)

// ParticipantKind tells the two ranked populations apart.
type ParticipantKind string

const (
	// KindCommercial is a field-sales agent with a prospecting history.
	KindCommercial ParticipantKind = "commercial"
	// KindManager is a manager-level seller. Managers never have door activity.
	KindManager ParticipantKind = "manager"
)

// ParseParticipantKind accepts the canonical names case-insensitively.
func ParseParticipantKind(s string) (ParticipantKind, error) {
	switch ParticipantKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCommercial:
		return KindCommercial, nil
	case KindManager:
		return KindManager, nil
	}
	return "", fmt.Errorf("unknown participant kind %q", s)
}

// Participant identifies exactly one person in exactly one population.
type Participant struct {
	Kind ParticipantKind `json:"kind"`
	ID   string          `json:"id"`
}

// Commercial is a shorthand constructor.
func Commercial(id string) Participant { return Participant{Kind: KindCommercial, ID: id} }

// Manager is a shorthand constructor.
func Manager(id string) Participant { return Participant{Kind: KindManager, ID: id} }

// IsFieldSales reports whether activity metrics apply to p.
func (p Participant) IsFieldSales() bool {
	return p.Kind == KindCommercial
}

func (p Participant) String() string {
	return string(p.Kind) + ":" + p.ID
}

// Less orders commercials first, then by id. Used for deterministic tie order.
func (p Participant) Less(o Participant) bool {
	if p.Kind != o.Kind {
		return p.Kind == KindCommercial
	}
	return p.ID < o.ID
}

// ParticipantRecord is a participant with its directory data.
type ParticipantRecord struct {
	Participant
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
