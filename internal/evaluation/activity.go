package evaluation

import (
	"sort"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/textnorm"
)

// Statuses names the door outcomes the activity metrics look for.
// Values are compared after textnorm.Key folding.
type Statuses struct {
	Absent      string `yaml:"absent" json:"absent"`
	Appointment string `yaml:"appointment" json:"appointment"`
	Argued      string `yaml:"argued" json:"argued"`
	Signed      string `yaml:"signed" json:"signed"`
}

// DefaultStatuses is the vocabulary of the sales-tracking platform.
func DefaultStatuses() Statuses {
	return Statuses{
		Absent:      contracts.DoorAbsent,
		Appointment: contracts.DoorAppointment,
		Argued:      contracts.DoorArgued,
		Signed:      contracts.DoorSigned,
	}
}

func (s Statuses) folded() Statuses {
	return Statuses{
		Absent:      textnorm.Key(s.Absent),
		Appointment: textnorm.Key(s.Appointment),
		Argued:      textnorm.Key(s.Argued),
		Signed:      textnorm.Key(s.Signed),
	}
}

// ActivityStats are the door-prospecting aggregates of one field-sales agent.
type ActivityStats struct {
	Events                  int `json:"events"`
	MaxVisitsPerDay         int `json:"max_visits_per_day"`
	MaxArgumentsPerDay      int `json:"max_arguments_per_day"`
	MaxDistinctDoorsPerDay  int `json:"max_distinct_doors_per_day"`
	MonthSigned             int `json:"month_signed"`
	MonthArgued             int `json:"month_argued"`
	MonthRevisitConversions int `json:"month_revisit_conversions"`
	RevisitSignatures       int `json:"revisit_signatures"`
}

type foldedEvent struct {
	door   string
	status string
	at     time.Time
	day    string
	month  string
}

func buildActivity(events []contracts.ProspectingEvent, now time.Time, statuses Statuses) *ActivityStats {
	st := statuses.folded()
	currentMonth := period.MonthKey(now)
	loc := now.Location()

	folded := make([]foldedEvent, 0, len(events))
	for _, e := range events {
		at := e.OccurredAt.In(loc)
		folded = append(folded, foldedEvent{
			door:   e.DoorID,
			status: textnorm.Key(e.Status),
			at:     at,
			day:    period.DayKey(at),
			month:  period.MonthKey(at),
		})
	}
	sort.SliceStable(folded, func(i, j int) bool { return folded[i].at.Before(folded[j].at) })

	stats := &ActivityStats{Events: len(folded)}

	visitsPerDay := make(map[string]int)
	argumentsPerDay := make(map[string]int)
	doorsPerDay := make(map[string]map[string]struct{})
	byDoor := make(map[string][]foldedEvent)

	for _, e := range folded {
		visitsPerDay[e.day]++
		if e.status == st.Argued {
			argumentsPerDay[e.day]++
		}
		if e.door != "" {
			set := doorsPerDay[e.day]
			if set == nil {
				set = make(map[string]struct{})
				doorsPerDay[e.day] = set
			}
			set[e.door] = struct{}{}
			byDoor[e.door] = append(byDoor[e.door], e)
		}

		if e.month == currentMonth {
			switch e.status {
			case st.Signed:
				stats.MonthSigned++
			case st.Argued:
				stats.MonthArgued++
			}
		}
	}

	stats.MaxVisitsPerDay = maxBucket(visitsPerDay)
	stats.MaxArgumentsPerDay = maxBucket(argumentsPerDay)
	for _, set := range doorsPerDay {
		if len(set) > stats.MaxDistinctDoorsPerDay {
			stats.MaxDistinctDoorsPerDay = len(set)
		}
	}

	for _, seq := range byDoor {
		if revisitConvertedIn(seq, st, currentMonth) {
			stats.MonthRevisitConversions++
		}
		if revisitSigned(seq, st) {
			stats.RevisitSignatures++
		}
	}

	return stats
}

// revisitConvertedIn reports whether an absent visit is later followed by a
// signature that falls in month. seq is chronological.
func revisitConvertedIn(seq []foldedEvent, st Statuses, month string) bool {
	sawAbsent := false
	for _, e := range seq {
		switch {
		case e.status == st.Absent:
			sawAbsent = true
		case e.status == st.Signed && sawAbsent && e.month == month:
			return true
		}
	}
	return false
}

// revisitSigned reports whether an absent or appointment visit is later
// followed by a signature. A door counts once.
func revisitSigned(seq []foldedEvent, st Statuses) bool {
	pending := false
	for _, e := range seq {
		switch e.status {
		case st.Absent, st.Appointment:
			pending = true
		case st.Signed:
			if pending {
				return true
			}
		}
	}
	return false
}
