package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// Event is one scheduled corporate/macro event from the calendar file
type Event struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Label  string    `json:"label"` // e.g. "earnings", "ex-dividend"
}

// EventCalendar holds upcoming events; an absent calendar means the
// event-risk phase is skipped, not failed
type EventCalendar struct {
	Events []Event `json:"events"`
}

// LoadEventCalendar reads the calendar JSON. A missing path is not an
// error here; the caller decides whether the phase is configured.
func LoadEventCalendar(path string) (*EventCalendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event calendar: %w", err)
	}

	var cal EventCalendar
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse event calendar: %w", err)
	}
	return &cal, nil
}

// AtRisk returns the symbols with an event inside the horizon,
// mapped to the nearest event's label
func (c *EventCalendar) AtRisk(now time.Time, horizon time.Duration) map[string]string {
	out := make(map[string]string)
	nearest := make(map[string]time.Time)

	for _, e := range c.Events {
		if e.Date.Before(now) || e.Date.After(now.Add(horizon)) {
			continue
		}
		if prev, ok := nearest[e.Symbol]; ok && !e.Date.Before(prev) {
			continue
		}
		nearest[e.Symbol] = e.Date
		out[e.Symbol] = e.Label
	}
	return out
}

// Rank orders scores best-first, tie-broken by symbol so the report
// is stable across identical runs
func Rank(scores []contracts.OpportunityScore) []contracts.OpportunityScore {
	ranked := append([]contracts.OpportunityScore(nil), scores...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	return ranked
}
