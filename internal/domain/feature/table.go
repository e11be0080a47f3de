package feature

import (
	"time"

	"github.com/google/uuid"
)

// Warning is a recoverable input condition surfaced to the caller without
// aborting the batch.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning codes
const (
	WarnLabelDefaulted     = "label_defaulted"
	WarnFallbackTimestamps = "fallback_timestamps"
)

// Summary is the run accounting attached to every produced table.
type Summary struct {
	RowsIn      int            `json:"rows_in"`
	RowsDropped int            `json:"rows_dropped"`
	RowsOut     int            `json:"rows_out"`
	Entities    int            `json:"entities"`
	DropReasons map[string]int `json:"drop_reasons,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
}

// Table is the engine's output: one Record per surviving input event in
// canonical (entity, timestamp, ordinal) order.
type Table struct {
	RunID    uuid.UUID `json:"run_id"`
	Records  []*Record `json:"records"`
	Warnings []Warning `json:"warnings,omitempty"`
	Summary  Summary   `json:"summary"`
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Matrix returns the X matrix and y vector consumers train on.
func (t *Table) Matrix() ([][]float64, []float64) {
	x := make([][]float64, len(t.Records))
	y := make([]float64, len(t.Records))
	for i, r := range t.Records {
		x[i] = r.Vector()
		y[i] = r.LabelValue()
	}
	return x, y
}
