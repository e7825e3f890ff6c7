package strategy

import (
	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/pricing"
)

// Instrument is what a leg holds
type Instrument string

const (
	Call  Instrument = "call"
	Put   Instrument = "put"
	Stock Instrument = "stock"
)

// OptionType maps an option instrument to its type; ok is false for stock
func (i Instrument) OptionType() (models.OptionType, bool) {
	switch i {
	case Call:
		return models.Call, true
	case Put:
		return models.Put, true
	}
	return "", false
}

// Leg is one position of a strategy. Option is nil for stock legs, which are
// entered at Spot.
type Leg struct {
	Instrument Instrument           `json:"instrument"`
	Direction  models.Direction     `json:"direction"`
	Units      int                  `json:"units"`
	Moneyness  models.Moneyness     `json:"moneyness,omitempty"`
	Depth      int                  `json:"depth,omitempty"`
	Spot       float64              `json:"spot"`
	Option     *models.PricedOption `json:"option,omitempty"`

	// Comparison against an observed quote; MarketNote says why one is missing
	MarketPrice *float64 `json:"market_price,omitempty"`
	MarketIV    *float64 `json:"market_iv,omitempty"`
	MarketNote  string   `json:"market_note,omitempty"`
}

// Sign is +units for long legs and -units for short ones
func (l Leg) Sign() float64 {
	return l.Direction.Sign() * float64(l.Units)
}

// Strike of an option leg; zero for stock
func (l Leg) Strike() float64 {
	if l.Option == nil {
		return 0
	}
	return l.Option.Option.Strike
}

// UnitPrice is the unsigned closed-form price of one unit
func (l Leg) UnitPrice() float64 {
	if l.Option == nil {
		return l.Spot
	}
	return l.Option.Price
}

// Price is the signed closed-form value: positive is a cost, negative a credit
func (l Leg) Price() float64 {
	return l.Sign() * l.UnitPrice()
}

// LatticePrice is the signed lattice value
func (l Leg) LatticePrice() float64 {
	if l.Option == nil {
		return l.Sign() * l.Spot
	}
	return l.Sign() * l.Option.LatticePrice
}

// Greeks are signed and scaled by units. A share has delta 1 and nothing else.
func (l Leg) Greeks() models.Greeks {
	if l.Option == nil {
		return models.Greeks{Delta: l.Sign()}
	}
	return models.Greeks{}.Add(l.Option.Greeks, l.Sign())
}

// PayoffAt is the profit at expiry when the underlying ends at terminal and
// one unit was entered at premium
func (l Leg) PayoffAt(terminal, premium float64) float64 {
	typ, ok := l.Instrument.OptionType()
	if !ok {
		return l.Sign() * (terminal - premium)
	}
	return l.Sign() * (pricing.Intrinsic(typ, terminal, l.Strike()) - premium)
}
