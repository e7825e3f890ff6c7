package models

// FieldValue represents a field with both raw data and formatted display
type FieldValue struct {
	Raw     interface{} `json:"raw"`     // For CSV/sorting: 1234.56
	Display string      `json:"display"` // For UI: "$1,234.56"
	Type    string      `json:"type"`    // For CSS: "currency"
}

// FormattedRow is one table row keyed by field name
type FormattedRow map[string]FieldValue

type FieldMetadata struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Sortable    bool   `json:"sortable"`
	Alignment   string `json:"alignment"`
}

type ResponseMetadata struct {
	Strategy       string  `json:"strategy,omitempty"`
	Ticker         string  `json:"ticker,omitempty"`
	ExpirationDate string  `json:"expiration_date,omitempty"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"`
	Engine         string  `json:"engine"`
	LatticeSteps   int     `json:"lattice_steps,omitempty"`
	ExerciseStyle  string  `json:"exercise_style,omitempty"`
	RateSource     string  `json:"rate_source,omitempty"`
	Provider       string  `json:"provider,omitempty"`
	ResultCount    int     `json:"result_count"`
}

// RangeRequest overrides the payoff sampling range
type RangeRequest struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Samples int     `json:"samples"`
}

// StrategyRequest asks for one named strategy to be built, priced and analyzed.
// Expiry is given either as ExpiryYears or as an ExpirationDate (YYYY-MM-DD).
type StrategyRequest struct {
	Ticker         string        `json:"ticker"`
	Strategy       string        `json:"strategy"`
	Offset         *float64      `json:"offset,omitempty"` // nil: configured default
	ExpiryYears    float64       `json:"expiry_years"`
	ExpirationDate string        `json:"expiration_date"`
	RiskFreeRate   *float64      `json:"risk_free_rate,omitempty"` // nil: look up the treasury curve
	Steps          int           `json:"steps"`
	ExerciseStyle  string        `json:"exercise_style"`
	PremiumSource  string        `json:"premium_source"`
	Range          *RangeRequest `json:"range,omitempty"`
	RangeMultiple  float64       `json:"range_multiple"`
	Samples        int           `json:"samples"`
}

type BatchStrategyRequest struct {
	Requests []StrategyRequest `json:"requests"`
}

// DigitalRequest prices a cash-or-nothing option. Spot and volatility are
// looked up when omitted.
type DigitalRequest struct {
	Ticker         string   `json:"ticker"`
	Strike         float64  `json:"strike"`
	OptionType     string   `json:"option_type"`
	PayoffAmount   float64  `json:"payoff_amount"`
	ExpiryYears    float64  `json:"expiry_years"`
	ExpirationDate string   `json:"expiration_date"`
	Spot           *float64 `json:"spot,omitempty"`
	Volatility     *float64 `json:"volatility,omitempty"`
	RiskFreeRate   *float64 `json:"risk_free_rate,omitempty"`
}

// PriceRequest values a single vanilla option from explicit inputs. When
// MarketPrice is set the implied volatility is reported too.
type PriceRequest struct {
	Spot           float64  `json:"spot"`
	Strike         float64  `json:"strike"`
	Volatility     float64  `json:"volatility"`
	OptionType     string   `json:"option_type"`
	ExpiryYears    float64  `json:"expiry_years"`
	ExpirationDate string   `json:"expiration_date"`
	RiskFreeRate   *float64 `json:"risk_free_rate,omitempty"`
	Steps          int      `json:"steps"`
	ExerciseStyle  string   `json:"exercise_style"`
	MarketPrice    *float64 `json:"market_price,omitempty"`
}

// PayoffReport is the display form of an expiry payoff curve
type PayoffReport struct {
	PremiumSource   string         `json:"premium_source"`
	NetPremium      FieldValue     `json:"net_premium"`
	BreakEvens      []FieldValue   `json:"break_evens"`
	MaxProfit       FieldValue     `json:"max_profit"`
	MaxLoss         FieldValue     `json:"max_loss"`
	UnboundedUpside bool           `json:"unbounded_upside"`
	UnboundedLoss   bool           `json:"unbounded_loss"`
	Samples         []FormattedRow `json:"samples"`
}

// StrategyReport is everything the outer surfaces show for one strategy
type StrategyReport struct {
	Summary       FormattedRow             `json:"summary"`
	Legs          []FormattedRow           `json:"legs"`
	Payoff        *PayoffReport            `json:"payoff,omitempty"`
	FieldMetadata map[string]FieldMetadata `json:"field_metadata"`
}

// FormattedStrategyResponse represents the complete API response
type FormattedStrategyResponse struct {
	Success bool             `json:"success"`
	Data    StrategyReport   `json:"data"`
	Meta    ResponseMetadata `json:"meta"`
}

// BatchItem is one entry of a batch response; exactly one of Data or Error is set
type BatchItem struct {
	Success bool            `json:"success"`
	Data    *StrategyReport `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

type FormattedBatchResponse struct {
	Success bool             `json:"success"`
	Data    []BatchItem      `json:"data"`
	Meta    ResponseMetadata `json:"meta"`
}

// FormattedValueResponse carries a single priced instrument
type FormattedValueResponse struct {
	Success bool             `json:"success"`
	Data    FormattedRow     `json:"data"`
	Meta    ResponseMetadata `json:"meta"`
}

// ErrorBody classifies a failure for API clients
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}
