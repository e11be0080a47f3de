package dataset_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/davidleathers/fraud-feature-engine/internal/domain/errors"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"entity_id,datetime,Amount,merchant_category",
		"C1,2025-03-10 12:00:00,100.00,grocery",
		"C2,2025-03-10 12:05:00,19.99,electronics",
		"C3,2025-03-10 12:06:00", // short row padded
	}, "\n")

	table, err := dataset.ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"entity_id", "datetime", "Amount", "merchant_category"}, table.Columns())

	// Case-insensitive lookup against the raw header.
	v, ok := table.Cell(0, "amount")
	require.True(t, ok)
	assert.Equal(t, "100.00", v)

	v, ok = table.Cell(2, "merchant_category")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = table.Cell(0, "no_such_column")
	assert.False(t, ok)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := dataset.ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, domainerrors.ErrEmptyInput)
}

func TestTable_FirstColumn(t *testing.T) {
	table := dataset.NewTable([]string{"customer_id", "amt"})

	name, ok := table.FirstColumn("entity_id", "customer_id")
	require.True(t, ok)
	assert.Equal(t, "customer_id", name)

	_, ok = table.FirstColumn("datetime", "date")
	assert.False(t, ok)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    dataset.Format
		wantErr bool
	}{
		{input: "csv", want: dataset.FormatCSV},
		{input: "json", want: dataset.FormatJSON},
		{input: "parquet", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("format "+tt.input, func(t *testing.T) {
			got, err := dataset.ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sampleTable() *feature.Table {
	return &feature.Table{
		RunID: uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427"),
		Records: []*feature.Record{
			{
				EntityID:  "C1",
				Row:       0,
				Timestamp: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
				Amount:    100,
				Label:     0,
			},
			{
				EntityID:         "C1",
				Row:              1,
				Timestamp:        time.Date(2025, 3, 10, 12, 2, 0, 0, time.UTC),
				Amount:           19.99,
				MinutesSincePrev: 2,
				Ends99Flag:       1,
				Label:            1,
			},
		},
		Summary: feature.Summary{RowsIn: 2, RowsOut: 2, Entities: 1},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dataset.WriteCSV(&buf, sampleTable()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	header := strings.Split(lines[0], ",")
	assert.Equal(t, len(feature.Header()), len(header))
	assert.Equal(t, "entity_id", header[0])
	assert.Equal(t, "label", header[len(header)-1])

	first := strings.Split(lines[1], ",")
	assert.Equal(t, "C1", first[0])
	assert.Equal(t, "0", first[1])
	assert.Equal(t, "2025-03-10T12:00:00Z", first[2])
	assert.Equal(t, "100", first[3])

	second := strings.Split(lines[2], ",")
	assert.Equal(t, "19.99", second[3])
	assert.Equal(t, "1", second[len(second)-1])
}

func TestWriteCSV_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, dataset.WriteCSV(&a, sampleTable()))
	require.NoError(t, dataset.WriteCSV(&b, sampleTable()))

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dataset.WriteJSON(&buf, sampleTable()))

	var envelope struct {
		RunID  string          `json:"run_id"`
		Header []string        `json:"header"`
		Rows   [][]interface{} `json:"rows"`
		Summary struct {
			RowsOut int `json:"rows_out"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))

	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", envelope.RunID)
	assert.Equal(t, feature.Header(), envelope.Header)
	require.Len(t, envelope.Rows, 2)
	assert.Equal(t, "C1", envelope.Rows[0][0])
	assert.Equal(t, 2, envelope.Summary.RowsOut)
	assert.Len(t, envelope.Rows[0], len(envelope.Header))
}
