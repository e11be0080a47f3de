package dataset

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/errors"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
)

// Format represents the supported output formats
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", errors.ErrUnknownFormat.WithDetails(map[string]interface{}{"format": s})
	}
}

// WriteCSV writes the feature table with the contract header order. Float
// formatting uses the shortest round-trip form, so identical tables produce
// identical bytes.
func WriteCSV(w io.Writer, table *feature.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(feature.Header()); err != nil {
		return errors.NewInfrastructureError("dataset", "writing CSV header").WithCause(err)
	}

	row := make([]string, 0, len(feature.Header()))
	for _, r := range table.Records {
		row = row[:0]
		row = append(row,
			r.EntityID,
			strconv.FormatInt(r.Row, 10),
			r.Timestamp.UTC().Format(time.RFC3339),
		)
		for _, v := range r.Vector() {
			row = append(row, formatFloat(v))
		}
		row = append(row, strconv.Itoa(r.Label))

		if err := writer.Write(row); err != nil {
			return errors.NewInfrastructureError("dataset", "writing CSV row").WithCause(err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewInfrastructureError("dataset", "flushing CSV output").WithCause(err)
	}
	return nil
}

// jsonEnvelope keeps the column order explicit; JSON objects would not.
type jsonEnvelope struct {
	RunID    string            `json:"run_id"`
	Summary  feature.Summary   `json:"summary"`
	Warnings []feature.Warning `json:"warnings,omitempty"`
	Header   []string          `json:"header"`
	Rows     [][]interface{}   `json:"rows"`
}

// WriteJSON writes the feature table as a single JSON document with an
// explicit header and positional rows.
func WriteJSON(w io.Writer, table *feature.Table) error {
	env := jsonEnvelope{
		RunID:    table.RunID.String(),
		Summary:  table.Summary,
		Warnings: table.Warnings,
		Header:   feature.Header(),
		Rows:     make([][]interface{}, 0, len(table.Records)),
	}

	for _, r := range table.Records {
		row := make([]interface{}, 0, len(env.Header))
		row = append(row, r.EntityID, r.Row, r.Timestamp.UTC().Format(time.RFC3339))
		for _, v := range r.Vector() {
			row = append(row, v)
		}
		row = append(row, r.Label)
		env.Rows = append(env.Rows, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return errors.NewInfrastructureError("dataset", "encoding JSON output").WithCause(err)
	}
	return nil
}

// WriteFile writes the feature table to a file in the given format.
func WriteFile(path string, format Format, table *feature.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewInfrastructureError("dataset", "creating output file").WithCause(err)
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		err = WriteCSV(f, table)
	case FormatJSON:
		err = WriteJSON(f, table)
	default:
		err = errors.ErrUnknownFormat
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
