package profiling

// EntropyWindow is the trailing event count the category entropy is computed
// over.
const EntropyWindow = 5

// TopCategories is the membership size for the frequent-category test.
const TopCategories = 3

// Config carries the entropy smoothing constant. The epsilon is added inside
// the log to avoid log of zero; it is fixed configuration, deliberately not a
// tunable smoothing scheme, so values reproduce exactly.
type Config struct {
	EntropyEpsilon float64
}

// Row is the categorical-profile partial result for one event position,
// joined by the assembler on (EntityID, Row). Entity-level facts repeat on
// every row of the entity.
type Row struct {
	EntityID string
	Row      int64

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
}

// IPFanOut maps an IP address to the number of distinct entities seen using
// it anywhere in the batch. It is the one computation that crosses entity
// boundaries.
type IPFanOut map[string]int
