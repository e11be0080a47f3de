package feature

import (
	"time"
)

// Record is one output row of the feature table: the key fields of the
// surviving input event, every feature column, and the label. Field order
// inside the struct is grouped by producing stage; the external column order
// is fixed by Columns.
type Record struct {
	EntityID  string
	Row       int64
	Timestamp time.Time

	// Direct and calendar context
	Amount             float64
	Installments       float64
	HourOfDay          float64
	DayOfWeek          float64
	IsWeekend          float64
	IsNight            float64
	CreditUtilization  float64
	AccountAgeDays     float64
	OverAttemptFlag    float64
	DeclinedFlag       float64
	ChargebackFlag     float64
	CVVPresentFlag     float64
	CardNotPresentFlag float64
	AVSMismatchFlag    float64
	PINFailedFlag      float64

	// Duration windows
	TxCount15m         float64
	TxCount24h         float64
	HighAmountCount24h float64
	AmountSum24h       float64
	SpendRate24h       float64
	MinutesSincePrev   float64

	// Count windows
	AmountMean3         float64
	AmountStd3          float64
	SameAmountCount3    float64
	DistinctCategories5 float64

	// Sequential scan
	ChargebackCount               float64
	DeclinedCount                 float64
	PINFailureCount               float64
	AVSMismatchCount              float64
	NewCategoryFlag               float64
	NewCityFlag                   float64
	NewCardFlag                   float64
	NewDeviceFlag                 float64
	NewIPFlag                     float64
	DeclinedThenApprovedFlag      float64
	RepeatCategoryCloseAmountFlag float64
	LocationChangeFlag            float64
	HighValueGapMean              float64

	// Categorical profile
	CityModeMismatchFlag    float64
	PaymentModeMismatchFlag float64
	ChannelModeMismatchFlag float64
	CategoryOutsideTop3Flag float64
	CategoryEntropy5        float64
	CitiesToday             float64
	DistinctCardsTotal      float64
	DistinctDevicesTotal    float64
	IPSharedEntities        float64
	OnlineRatio             float64
	CNPFreq                 float64
	RoundAmountFreq         float64
	RoundAmountFlag         float64
	Ends99Flag              float64

	Label int
}

// columns is the public feature contract: fixed names, fixed order. Consumers
// train and explain against exactly this layout.
var columns = []string{
	"amount",
	"installments",
	"hour_of_day",
	"day_of_week",
	"is_weekend",
	"is_night",
	"credit_utilization",
	"account_age_days",
	"over_attempt_flag",
	"declined_flag",
	"chargeback_flag",
	"cvv_present_flag",
	"card_not_present_flag",
	"avs_mismatch_flag",
	"pin_failed_flag",
	"tx_count_15m",
	"tx_count_24h",
	"high_amount_count_24h",
	"amount_sum_24h",
	"spend_rate_24h",
	"minutes_since_prev",
	"amount_mean_3",
	"amount_std_3",
	"same_amount_count_3",
	"distinct_categories_5",
	"chargeback_count",
	"declined_count",
	"pin_failure_count",
	"avs_mismatch_count",
	"new_category_flag",
	"new_city_flag",
	"new_card_flag",
	"new_device_flag",
	"new_ip_flag",
	"declined_then_approved_flag",
	"repeat_category_close_amount_flag",
	"location_change_flag",
	"high_value_gap_mean",
	"city_mode_mismatch_flag",
	"payment_mode_mismatch_flag",
	"channel_mode_mismatch_flag",
	"category_outside_top3_flag",
	"category_entropy_5",
	"cities_today",
	"distinct_cards_total",
	"distinct_devices_total",
	"ip_shared_entities",
	"online_ratio",
	"cnp_freq",
	"round_amount_freq",
	"round_amount_flag",
	"ends_99_flag",
}

// Columns returns the feature column names in contract order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Header returns the full output header: key fields, feature columns, label.
func Header() []string {
	header := make([]string, 0, len(columns)+4)
	header = append(header, "entity_id", "row", "timestamp")
	header = append(header, columns...)
	header = append(header, "label")
	return header
}

// Vector returns the feature values in contract order (the X row). The label
// is deliberately excluded; LabelValue provides y.
func (r *Record) Vector() []float64 {
	return []float64{
		r.Amount,
		r.Installments,
		r.HourOfDay,
		r.DayOfWeek,
		r.IsWeekend,
		r.IsNight,
		r.CreditUtilization,
		r.AccountAgeDays,
		r.OverAttemptFlag,
		r.DeclinedFlag,
		r.ChargebackFlag,
		r.CVVPresentFlag,
		r.CardNotPresentFlag,
		r.AVSMismatchFlag,
		r.PINFailedFlag,
		r.TxCount15m,
		r.TxCount24h,
		r.HighAmountCount24h,
		r.AmountSum24h,
		r.SpendRate24h,
		r.MinutesSincePrev,
		r.AmountMean3,
		r.AmountStd3,
		r.SameAmountCount3,
		r.DistinctCategories5,
		r.ChargebackCount,
		r.DeclinedCount,
		r.PINFailureCount,
		r.AVSMismatchCount,
		r.NewCategoryFlag,
		r.NewCityFlag,
		r.NewCardFlag,
		r.NewDeviceFlag,
		r.NewIPFlag,
		r.DeclinedThenApprovedFlag,
		r.RepeatCategoryCloseAmountFlag,
		r.LocationChangeFlag,
		r.HighValueGapMean,
		r.CityModeMismatchFlag,
		r.PaymentModeMismatchFlag,
		r.ChannelModeMismatchFlag,
		r.CategoryOutsideTop3Flag,
		r.CategoryEntropy5,
		r.CitiesToday,
		r.DistinctCardsTotal,
		r.DistinctDevicesTotal,
		r.IPSharedEntities,
		r.OnlineRatio,
		r.CNPFreq,
		r.RoundAmountFreq,
		r.RoundAmountFlag,
		r.Ends99Flag,
	}
}

// LabelValue returns the label as a float (the y entry).
func (r *Record) LabelValue() float64 {
	return float64(r.Label)
}

// Map returns feature values keyed by column name, for assertions and
// debugging. The key set equals Columns.
func (r *Record) Map() map[string]float64 {
	vector := r.Vector()
	m := make(map[string]float64, len(columns))
	for i, name := range columns {
		m[name] = vector[i]
	}
	return m
}
