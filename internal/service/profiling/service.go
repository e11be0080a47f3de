package profiling

import (
	"math"
	"sort"
	"strings"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
)

// Service builds per-entity categorical summaries replicated onto each of the
// entity's rows, plus the cross-entity IP fan-out. Modes, top-categories,
// distinct totals, and ratios are whole-history facts; the category entropy
// is a trailing window.
type Service struct {
	cfg Config
}

// NewService creates a new profile building service
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// ComputeIPFanOut indexes the whole batch once: distinct entities per IP.
func ComputeIPFanOut(events []*transaction.Event) IPFanOut {
	entities := make(map[string]map[string]struct{})
	for _, e := range events {
		set, ok := entities[e.IPAddress]
		if !ok {
			set = make(map[string]struct{})
			entities[e.IPAddress] = set
		}
		set[e.EntityID] = struct{}{}
	}
	fanOut := make(IPFanOut, len(entities))
	for ip, set := range entities {
		fanOut[ip] = len(set)
	}
	return fanOut
}

// Build returns one partial row per event of the history, in history order.
// The fan-out index must cover the batch the history came from.
func (s *Service) Build(history *transaction.History, fanOut IPFanOut) []Row {
	events := history.Events
	rows := make([]Row, len(events))

	cityMode := modeOf(events, func(e *transaction.Event) string { return e.Merchant.City })
	paymentMode := modeOf(events, func(e *transaction.Event) string { return e.PaymentMethod })
	channelMode := modeOf(events, func(e *transaction.Event) string { return e.Channel })
	topCategories := topKCategories(events, TopCategories)

	citiesPerDay := distinctCitiesPerDay(events)
	distinctCards := distinctOf(events, func(e *transaction.Event) string { return e.CardID })
	distinctDevices := distinctOf(events, func(e *transaction.Event) string { return e.DeviceID })

	online := 0
	cnp := 0
	round := 0
	for _, e := range events {
		if strings.EqualFold(e.Channel, "online") {
			online++
		}
		if e.CardNotPresent {
			cnp++
		}
		if e.Amount.IsRoundValue() {
			round++
		}
	}
	n := float64(len(events))

	for i, e := range events {
		row := Row{
			EntityID:             e.EntityID,
			Row:                  e.Row,
			CategoryEntropy5:     s.trailingEntropy(events, i),
			CitiesToday:          float64(citiesPerDay[dayKey(e)]),
			DistinctCardsTotal:   float64(distinctCards),
			DistinctDevicesTotal: float64(distinctDevices),
			IPSharedEntities:     float64(fanOut[e.IPAddress]),
			OnlineRatio:          float64(online) / n,
			CNPFreq:              float64(cnp) / n,
			RoundAmountFreq:      float64(round) / n,
		}
		if e.Merchant.City != cityMode {
			row.CityModeMismatchFlag = 1
		}
		if e.PaymentMethod != paymentMode {
			row.PaymentModeMismatchFlag = 1
		}
		if e.Channel != channelMode {
			row.ChannelModeMismatchFlag = 1
		}
		if _, ok := topCategories[e.Category]; !ok {
			row.CategoryOutsideTop3Flag = 1
		}
		if e.Amount.IsRoundValue() {
			row.RoundAmountFlag = 1
		}
		if e.Amount.EndsNinetyNine() {
			row.Ends99Flag = 1
		}
		rows[i] = row
	}
	return rows
}

// valueStat tracks frequency and the position a value first appeared at.
// Ties on frequency break toward earlier first appearance in the
// timestamp-sorted history, which pins "most frequent" deterministically.
type valueStat struct {
	value     string
	count     int
	firstSeen int
}

func collectStats(events []*transaction.Event, key func(*transaction.Event) string) []valueStat {
	index := make(map[string]int)
	stats := make([]valueStat, 0)
	for i, e := range events {
		v := key(e)
		if pos, ok := index[v]; ok {
			stats[pos].count++
			continue
		}
		index[v] = len(stats)
		stats = append(stats, valueStat{value: v, count: 1, firstSeen: i})
	}
	sort.Slice(stats, func(a, b int) bool {
		if stats[a].count != stats[b].count {
			return stats[a].count > stats[b].count
		}
		return stats[a].firstSeen < stats[b].firstSeen
	})
	return stats
}

func modeOf(events []*transaction.Event, key func(*transaction.Event) string) string {
	stats := collectStats(events, key)
	if len(stats) == 0 {
		return ""
	}
	return stats[0].value
}

func topKCategories(events []*transaction.Event, k int) map[string]struct{} {
	stats := collectStats(events, func(e *transaction.Event) string { return e.Category })
	if len(stats) > k {
		stats = stats[:k]
	}
	top := make(map[string]struct{}, len(stats))
	for _, st := range stats {
		top[st.value] = struct{}{}
	}
	return top
}

// trailingEntropy computes Shannon entropy over the empirical category
// distribution of the trailing window: H = -sum(p * ln(p + eps)).
func (s *Service) trailingEntropy(events []*transaction.Event, i int) float64 {
	lo := i - EntropyWindow + 1
	if lo < 0 {
		lo = 0
	}
	n := i - lo + 1
	counts := make(map[string]int, n)
	for j := lo; j <= i; j++ {
		counts[events[j].Category]++
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(n)
		h -= p * math.Log(p+s.cfg.EntropyEpsilon)
	}
	return h
}

func distinctOf(events []*transaction.Event, key func(*transaction.Event) string) int {
	seen := make(map[string]struct{})
	for _, e := range events {
		seen[key(e)] = struct{}{}
	}
	return len(seen)
}

func dayKey(e *transaction.Event) string {
	return e.Timestamp.UTC().Format("2006-01-02")
}

// distinctCitiesPerDay counts distinct merchant cities per calendar day
// (UTC) across the entity's whole history.
func distinctCitiesPerDay(events []*transaction.Event) map[string]int {
	perDay := make(map[string]map[string]struct{})
	for _, e := range events {
		day := dayKey(e)
		set, ok := perDay[day]
		if !ok {
			set = make(map[string]struct{})
			perDay[day] = set
		}
		set[e.Merchant.City] = struct{}{}
	}
	counts := make(map[string]int, len(perDay))
	for day, set := range perDay {
		counts[day] = len(set)
	}
	return counts
}
