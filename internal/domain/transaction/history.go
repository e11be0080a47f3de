package transaction

import "sort"

// History is the ordered sequence of one entity's events, ascending by
// (Timestamp, Row). It is a read-only view built once per run; all causal
// window computations for position i reference only positions <= i.
type History struct {
	EntityID string
	Events   []*Event
}

// Len returns the number of events in the history.
func (h *History) Len() int {
	return len(h.Events)
}

// SortEvents orders events by (EntityID, Timestamp, Row) ascending. Row is
// unique per batch, so the order is total and deterministic; records with
// identical timestamps keep their input order.
func SortEvents(events []*Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Row < b.Row
	})
}

// BuildHistories splits a canonically sorted event slice into per-entity
// histories. Each history aliases the input slice; it does not copy events.
func BuildHistories(events []*Event) []*History {
	histories := make([]*History, 0)
	start := 0
	for i := 1; i <= len(events); i++ {
		if i == len(events) || events[i].EntityID != events[start].EntityID {
			histories = append(histories, &History{
				EntityID: events[start].EntityID,
				Events:   events[start:i],
			})
			start = i
		}
	}
	return histories
}
