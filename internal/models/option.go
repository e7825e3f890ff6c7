package models

import (
	"fmt"
	"strings"
)

// OptionType is either a call or a put
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call", "put" and their one-letter forms
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c", "calls":
		return Call, nil
	case "put", "p", "puts":
		return Put, nil
	}
	return "", NewInvalidInputError("option_type", s, "must be call or put")
}

// Direction of a position
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Sign returns +1 for long and -1 for short
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// Moneyness of a strike relative to spot
type Moneyness string

const (
	ATM Moneyness = "atm"
	ITM Moneyness = "itm"
	OTM Moneyness = "otm"
)

// Underlying is a snapshot of the stock the options are written on
type Underlying struct {
	Ticker     string  `json:"ticker"`
	Spot       float64 `json:"spot"`
	Volatility float64 `json:"volatility"`
}

// MarketInputs are the market parameters a single valuation depends on
type MarketInputs struct {
	Spot         float64 `json:"spot"`
	Volatility   float64 `json:"volatility"`
	RiskFreeRate float64 `json:"risk_free_rate"`
}

// VanillaOption is a European call or put. Values are copied, never mutated.
type VanillaOption struct {
	Ticker string     `json:"ticker"`
	Strike float64    `json:"strike"`
	Expiry float64    `json:"expiry_years"`
	Type   OptionType `json:"option_type"`
}

func (o VanillaOption) String() string {
	return fmt.Sprintf("%s %.2f %s %.4fy", o.Ticker, o.Strike, o.Type, o.Expiry)
}

// DigitalOption pays PayoffAmount at expiry when it finishes in the money
type DigitalOption struct {
	Ticker       string     `json:"ticker"`
	RiskFreeRate float64    `json:"risk_free_rate"`
	Expiry       float64    `json:"expiry_years"`
	Strike       float64    `json:"strike"`
	Type         OptionType `json:"option_type"`
	PayoffAmount float64    `json:"payoff_amount"`
}

// Greeks are raw per-unit sensitivities: delta and gamma per $1 of spot,
// vega per 1.00 of volatility, theta per year of calendar time, rho per 1.00 of rate.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// Add returns g + o*scale
func (g Greeks) Add(o Greeks, scale float64) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta*scale,
		Gamma: g.Gamma + o.Gamma*scale,
		Vega:  g.Vega + o.Vega*scale,
		Theta: g.Theta + o.Theta*scale,
		Rho:   g.Rho + o.Rho*scale,
	}
}

// PerVolPoint is vega for a one point (0.01) volatility move
func (g Greeks) PerVolPoint() float64 { return g.Vega / 100 }

// PerDay is theta for one calendar day
func (g Greeks) PerDay() float64 { return g.Theta / 365 }

// PerRatePoint is rho for a one point (0.01) rate move
func (g Greeks) PerRatePoint() float64 { return g.Rho / 100 }

// PricedOption is a vanilla option with its valuation under given market inputs
type PricedOption struct {
	Option       VanillaOption `json:"option"`
	Inputs       MarketInputs  `json:"inputs"`
	Price        float64       `json:"price"`
	LatticePrice float64       `json:"lattice_price"`
	Steps        int           `json:"steps"`
	Greeks       Greeks        `json:"greeks"`
}
