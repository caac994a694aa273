package contracts

import (
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// ValidatedContract is one externally validated sale, keyed by its external id.
// Contracts whose participant could not be resolved are stored but never
// evaluated nor ranked.
type ValidatedContract struct {
	ExternalID            string                 `json:"external_id"`
	ExternalProspectID    string                 `json:"external_prospect_id"`
	ExternalParticipantID string                 `json:"external_participant_id"`
	ExternalProductID     string                 `json:"external_product_id,omitempty"`
	Participant           *Participant           `json:"participant,omitempty"`
	ProductID             *string                `json:"product_id,omitempty"`
	ValidatedAt           time.Time              `json:"validated_at"`
	SignedAt              *time.Time             `json:"signed_at,omitempty"`
	Periods               period.Keys            `json:"periods"`
	Snapshot              map[string]interface{} `json:"snapshot,omitempty"`
	SyncedAt              time.Time              `json:"synced_at"`
}

// Resolved reports whether the contract is attributed to a participant.
func (c *ValidatedContract) Resolved() bool {
	return c.Participant != nil && c.Participant.ID != ""
}

// Product is an entry of the internal product catalog.
type Product struct {
	ID             string   `json:"id"`
	ExternalID     string   `json:"external_id"`
	Key            string   `json:"key"`
	Name           string   `json:"name"`
	ReferencePrice *float64 `json:"reference_price,omitempty"`
}

// Price returns the reference price or zero when unknown.
func (p Product) Price() float64 {
	if p.ReferencePrice == nil {
		return 0
	}
	return *p.ReferencePrice
}

// Internal product keys.
const (
	ProductMobile      = "MOBILE"
	ProductFibre       = "FIBRE"
	ProductElectricity = "ENERGIE_ELEC"
	ProductGas         = "ENERGIE_GAZ"
	ProductInsurance   = "ASSURANCE"
	ProductAlarm       = "ALARME"
	ProductTV          = "TV"
)

// Door visit statuses, in their normalized form.
const (
	DoorAbsent        = "absent"
	DoorAppointment   = "rdv_pris"
	DoorArgued        = "argumente"
	DoorSigned        = "signe"
	DoorRefused       = "refus"
	DoorNotInterested = "pas_interesse"
)

// ProspectingEvent is one door visit recorded by a field-sales agent.
type ProspectingEvent struct {
	CommercialID string    `json:"commercial_id"`
	DoorID       string    `json:"door_id"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}
