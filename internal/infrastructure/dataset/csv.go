package dataset

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/errors"
)

// ReadCSV loads a raw record table from CSV. The first row is the header;
// every subsequent row becomes one record. Rows with a deviating field count
// are accepted and padded/truncated to the header width.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ErrEmptyInput
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, "CSV_HEADER", "reading CSV header")
	}

	table := NewTable(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapWithCode(err, "CSV_ROW", "reading CSV row")
		}
		table.AppendRow(record)
	}
	return table, nil
}

// ReadCSVFile loads a raw record table from a CSV file on disk.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrDatasetNotFound.WithDetails(map[string]interface{}{"path": path})
		}
		return nil, errors.NewInfrastructureError("dataset", "opening input file").WithCause(err)
	}
	defer f.Close()

	return ReadCSV(f)
}
