package normalization

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/errors"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
)

// timestampMode selects how row timestamps are derived from the input table.
type timestampMode int

const (
	modeDatetime timestampMode = iota
	modeDateAndTime
	modeDateOnly
	modeFallback
)

// Service normalizes raw record tables into sorted, default-complete event
// batches. It never mutates the input table.
type Service struct{}

// NewService creates a new normalization service
func NewService() *Service {
	return &Service{}
}

// Normalize validates the table structure, parses and defaults every row,
// drops unusable rows, and returns events sorted by (entity, timestamp, row).
func (s *Service) Normalize(ctx context.Context, table *dataset.Table) (*Result, error) {
	if table == nil || table.Len() == 0 {
		return nil, errors.ErrEmptyInput
	}

	entityCol, ok := table.FirstColumn(entityAliases...)
	if !ok {
		return nil, errors.ErrNoEntityColumn
	}
	amountCol, ok := table.FirstColumn(amountAliases...)
	if !ok {
		return nil, errors.ErrNoAmountColumn
	}

	mode, datetimeCol := timestampSource(table)
	labelCol, hasLabel := table.FirstColumn(labelAliases...)

	result := &Result{
		RowsIn:  table.Len(),
		Dropped: make(map[string]int),
	}
	if mode == modeFallback {
		result.Warnings = append(result.Warnings, feature.Warning{
			Code:    feature.WarnFallbackTimestamps,
			Message: "input has no date or time columns; every record was assigned the fixed fallback timestamp",
		})
	}
	if !hasLabel {
		result.Warnings = append(result.Warnings, feature.Warning{
			Code:    feature.WarnLabelDefaulted,
			Message: "input has no label column; label defaulted to 0 for every record",
		})
	}

	events := make([]*transaction.Event, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		entityID, _ := table.Cell(i, entityCol)
		if entityID == "" {
			result.Dropped[DropMissingEntity]++
			continue
		}

		rawAmount, _ := table.Cell(i, amountCol)
		amount, err := parseAmount(rawAmount)
		if err != nil {
			result.Dropped[DropBadAmount]++
			continue
		}

		ts, ok := rowTimestamp(table, i, mode, datetimeCol)
		if !ok {
			result.Dropped[DropBadTimestamp]++
			continue
		}

		event := transaction.NewEvent(entityID, ts, amount)
		event.Row = int64(i)
		applyOptional(table, i, event)
		if hasLabel {
			raw, _ := table.Cell(i, labelCol)
			event.Label = parseLabel(raw)
		}
		events = append(events, event)
	}

	transaction.SortEvents(events)
	result.Events = events
	result.Histories = transaction.BuildHistories(events)
	return result, nil
}

// timestampSource picks the timestamp derivation for the whole table:
// a combined datetime column, split date+time columns, a bare date column,
// or the fixed fallback when nothing is present.
func timestampSource(table *dataset.Table) (timestampMode, string) {
	if col, ok := table.FirstColumn(datetimeAliases...); ok {
		return modeDatetime, col
	}
	if table.HasColumn(transaction.ColDate) {
		if table.HasColumn(transaction.ColTime) {
			return modeDateAndTime, ""
		}
		return modeDateOnly, ""
	}
	return modeFallback, ""
}

func rowTimestamp(table *dataset.Table, row int, mode timestampMode, datetimeCol string) (time.Time, bool) {
	switch mode {
	case modeDatetime:
		raw, _ := table.Cell(row, datetimeCol)
		return parseTimestamp(raw)
	case modeDateAndTime:
		date, _ := table.Cell(row, transaction.ColDate)
		clock, _ := table.Cell(row, transaction.ColTime)
		if clock == "" {
			return parseDate(date)
		}
		return parseTimestamp(date + " " + clock)
	case modeDateOnly:
		raw, _ := table.Cell(row, transaction.ColDate)
		return parseDate(raw)
	default:
		return transaction.FallbackTimestamp, true
	}
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// applyOptional materializes every optional attribute, falling back to the
// central defaults table for absent columns, blank cells, and cells that do
// not parse as the attribute's type.
func applyOptional(table *dataset.Table, row int, event *transaction.Event) {
	event.Category = optionalCell(table, row, transaction.ColCategory)
	event.Merchant = transaction.Location{
		City:    optionalCell(table, row, transaction.ColCity),
		State:   optionalCell(table, row, transaction.ColState),
		Country: optionalCell(table, row, transaction.ColCountry),
	}
	event.PaymentMethod = optionalCell(table, row, transaction.ColPaymentMethod)
	event.Channel = optionalCell(table, row, transaction.ColChannel)
	event.CardID = optionalCell(table, row, transaction.ColCardID)
	event.DeviceID = optionalCell(table, row, transaction.ColDeviceID)
	event.IPAddress = optionalCell(table, row, transaction.ColIPAddress)
	event.ShippingAddress = optionalCell(table, row, transaction.ColShippingAddress)

	if n, err := strconv.Atoi(optionalCell(table, row, transaction.ColInstallments)); err == nil && n >= 1 {
		event.Installments = n
	} else {
		event.Installments = transaction.DefaultInstallments
	}

	event.Declined = parseFlag(optionalCell(table, row, transaction.ColDeclined), false)
	event.Chargeback = parseFlag(optionalCell(table, row, transaction.ColChargeback), false)
	event.CVVPresent = parseFlag(optionalCell(table, row, transaction.ColCVVPresent), true)
	event.CardNotPresent = parseFlag(optionalCell(table, row, transaction.ColCardNotPresent), false)
	event.AVSMismatch = parseFlag(optionalCell(table, row, transaction.ColAVSMismatch), false)
	event.PINFailed = parseFlag(optionalCell(table, row, transaction.ColPINFailed), false)

	if limit, err := parseAmount(optionalCell(table, row, transaction.ColCreditLimit)); err == nil {
		event.CreditLimit = limit
	}
	if attempted, err := parseAmount(optionalCell(table, row, transaction.ColAttemptedAmount)); err == nil {
		event.AttemptedAmount = attempted
	}

	if open, ok := parseDate(optionalCell(table, row, transaction.ColAccountOpenDate)); ok {
		event.AccountOpenDate = open
	}

	event.TZ = resolveZone(optionalCell(table, row, transaction.ColTimezone))
}

// optionalCell returns the raw cell or the column's documented default when
// the column is absent or the cell is blank.
func optionalCell(table *dataset.Table, row int, column string) string {
	v, ok := table.Cell(row, column)
	if !ok || v == "" {
		return transaction.AttributeDefaults[column]
	}
	return v
}

func parseAmount(raw string) (values.Amount, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return values.NewAmountFromString(cleaned)
}

func parseFlag(raw string, fallback bool) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y":
		return true
	case "0", "false", "f", "no", "n":
		return false
	default:
		return fallback
	}
}

func parseLabel(raw string) int {
	if parseFlag(raw, false) {
		return 1
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f != 0 {
		return 1
	}
	return 0
}

func resolveZone(name string) *time.Location {
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
