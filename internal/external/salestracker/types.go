package salestracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID accepts a JSON string or number. Anything else decodes to "".
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*id = ""
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*id = ID(strings.TrimSpace(s))
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
	}
	return nil
}

func (id ID) String() string { return string(id) }

// Text accepts a JSON string, number or boolean. Anything else decodes to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		*t = Text(x)
	case float64, bool:
		*t = Text(fmt.Sprint(x))
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp keeps the raw text of a feed date. It is parsed on demand so
// naive values can be read in the engine timezone.
type Timestamp struct {
	Raw string
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Raw = ""
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Raw = strings.TrimSpace(s)
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(t.Raw)
}

// IsZero reports whether the feed sent nothing usable.
func (t Timestamp) IsZero() bool { return t.Raw == "" }

// Parse reads the timestamp. Values without an offset are taken in loc.
func (t Timestamp) Parse(loc *time.Location) (time.Time, bool) {
	if t.Raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, t.Raw, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Contract is one contract of a subscription. Fields the engine does not
// model are kept in Extra.
type Contract struct {
	ID             ID        `json:"id"`
	Status         Text      `json:"status"`
	DateValidation Timestamp `json:"dateValidation"`
	DateSignature  Timestamp `json:"dateSignature"`

	Extra map[string]interface{} `json:"-"`
}

var contractFields = map[string]bool{"id": true, "status": true, "dateValidation": true, "dateSignature": true}

func (c *Contract) UnmarshalJSON(data []byte) error {
	type plain Contract
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if contractFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]interface{})
		}
		p.Extra[k] = v
	}

	*c = Contract(p)
	return nil
}

// Subscription carries the seller and the product of its contracts.
type Subscription struct {
	ID            ID         `json:"id"`
	ParticipantID ID         `json:"participantId"`
	ProductID     ID         `json:"productId"`
	Contracts     []Contract `json:"contracts"`
}

// Prospect is one customer of the sales-tracking platform.
type Prospect struct {
	ID            ID             `json:"id"`
	Subscriptions []Subscription `json:"subscriptions"`
}

// Feed is a full read of the platform. It accepts a bare array of prospects
// or an envelope with a "data" or "prospects" array.
type Feed struct {
	Prospects []Prospect `json:"prospects"`
}

func (f *Feed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &f.Prospects)
	}

	var envelope struct {
		Data      []Prospect `json:"data"`
		Prospects []Prospect `json:"prospects"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	f.Prospects = envelope.Data
	if len(f.Prospects) == 0 {
		f.Prospects = envelope.Prospects
	}
	return nil
}

// ContractCount counts every nested contract.
func (f *Feed) ContractCount() int {
	n := 0
	for _, p := range f.Prospects {
		for _, s := range p.Subscriptions {
			n += len(s.Contracts)
		}
	}
	return n
}
