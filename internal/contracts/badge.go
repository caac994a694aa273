package contracts

import (
	"encoding/json"
	"time"
)

// BadgeCategory groups badges by how they are earned.
type BadgeCategory string

const (
	CategoryProgression BadgeCategory = "PROGRESSION"
	CategoryProduct     BadgeCategory = "PRODUIT"
	CategoryPerformance BadgeCategory = "PERFORMANCE"
	CategoryTrophy      BadgeCategory = "TROPHEE"
)

// BadgeDefinition is one catalog entry. Code is the stable identity.
type BadgeDefinition struct {
	ID             string        `json:"id"`
	Code           string        `json:"code"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Category       BadgeCategory `json:"category"`
	Condition      Condition     `json:"-"`
	Tier           int           `json:"tier"`
	Active         bool          `json:"active"`
	CatalogVersion string        `json:"catalog_version"`
}

type badgeJSON BadgeDefinition

// MarshalJSON inlines the condition in its persisted shape.
func (b BadgeDefinition) MarshalJSON() ([]byte, error) {
	var cond json.RawMessage
	if b.Condition != nil {
		raw, err := EncodeCondition(b.Condition)
		if err != nil {
			return nil, err
		}
		cond = raw
	}
	return json.Marshal(struct {
		badgeJSON
		Condition json.RawMessage `json:"condition,omitempty"`
	}{badgeJSON(b), cond})
}

// UnmarshalJSON decodes the inlined condition back into its variant.
func (b *BadgeDefinition) UnmarshalJSON(data []byte) error {
	var aux struct {
		badgeJSON
		Condition json.RawMessage `json:"condition"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = BadgeDefinition(aux.badgeJSON)
	if len(aux.Condition) > 0 {
		cond, err := DecodeCondition(aux.Condition)
		if err != nil {
			return err
		}
		b.Condition = cond
	}
	return nil
}

// AwardStatus reports what CreateAward did.
type AwardStatus string

const (
	AwardStatusAwarded        AwardStatus = "awarded"
	AwardStatusAlreadyAwarded AwardStatus = "already_awarded"
)

// Award is one badge earned by one participant for one period key.
// (Participant, BadgeID, PeriodKey) is unique.
type Award struct {
	ID          string                 `json:"id"`
	Participant Participant            `json:"participant"`
	BadgeID     string                 `json:"badge_id"`
	BadgeCode   string                 `json:"badge_code"`
	PeriodKey   string                 `json:"period_key"`
	AwardedAt   time.Time              `json:"awarded_at"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
