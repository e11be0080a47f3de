package normalization

import (
	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
)

// Drop reasons reported in the run summary
const (
	DropMissingEntity = "missing_entity"
	DropBadAmount     = "bad_amount"
	DropBadTimestamp  = "bad_timestamp"
)

// Column aliases accepted for the required inputs. The first present column
// wins; names are matched case-insensitively.
var (
	entityAliases   = []string{transaction.ColEntityID, "customer_id", "account_id"}
	amountAliases   = []string{transaction.ColAmount, "amt", "transaction_amount"}
	datetimeAliases = []string{transaction.ColDatetime, "timestamp"}
	labelAliases    = []string{transaction.ColLabel, "is_fraud", "fraud", "class"}
)

// Timestamp layouts accepted, tried in order. The list is fixed; anything
// else is a parse failure and drops the row.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// dateLayouts for account_open_date and the split date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Result is the normalized batch: the canonically sorted events, their
// per-entity histories, and the accounting the summary reports.
type Result struct {
	Events    []*transaction.Event
	Histories []*transaction.History
	Warnings  []feature.Warning
	RowsIn    int
	Dropped   map[string]int
}

// RowsDropped returns the total rows removed during normalization.
func (r *Result) RowsDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// RowsOut returns the surviving row count.
func (r *Result) RowsOut() int {
	return len(r.Events)
}
