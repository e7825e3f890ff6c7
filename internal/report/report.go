package report

import (
	"fmt"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/payoff"
	"github.com/jwaldner/optionlab/internal/strategy"
)

// Leg renders one strategy leg. Prices and Greeks are signed and unit-scaled.
func Leg(index int, l strategy.Leg) models.FormattedRow {
	row := models.FormattedRow{
		"leg":           formatInteger(index + 1),
		"instrument":    formatText(string(l.Instrument)),
		"direction":     formatText(string(l.Direction)),
		"units":         formatInteger(l.Units),
		"unit_price":    formatCurrency(l.UnitPrice()),
		"price":         formatCurrency(l.Price()),
		"lattice_price": formatCurrency(l.LatticePrice()),
	}
	greekFields(row, l.Greeks())

	if l.Option == nil {
		row["strike"] = missing("currency")
		row["volatility"] = missing("percentage")
		row["market_price"] = formatCurrency(l.Price())
		row["market_iv"] = missing("percentage")
		return row
	}

	row["moneyness"] = formatText(string(l.Moneyness))
	row["strike"] = formatCurrency(l.Strike())
	row["volatility"] = formatPercentage(l.Option.Inputs.Volatility)
	if l.MarketPrice != nil {
		row["market_price"] = formatCurrency(l.Sign() * *l.MarketPrice)
	} else {
		row["market_price"] = missing("currency")
	}
	row["market_iv"] = formatOptionalPercentage(l.MarketIV)
	if l.MarketNote != "" {
		row["market_note"] = formatText(l.MarketNote)
	}
	return row
}

// Summary renders the strategy totals
func Summary(s *strategy.Strategy) models.FormattedRow {
	p := s.Params()
	mc := s.MarketPrice()
	legs := s.Legs()

	row := models.FormattedRow{
		"ticker":         formatText(p.Ticker),
		"strategy":       formatText(s.Name()),
		"spot":           formatCurrency(s.Spot()),
		"expiry_years":   formatNumber(p.Expiry, 4),
		"risk_free_rate": formatPercentage(p.Rate),
		"steps":          formatInteger(p.Steps),
		"exercise_style": formatText(string(p.Style)),
		"price":          formatCurrency(s.Price()),
		"lattice_price":  formatCurrency(s.LatticePrice()),
		"volatility":     formatPercentage(s.Volatility()),
		"market_legs":    formatText(fmt.Sprintf("%d/%d", mc.Available, len(legs))),
	}
	// a partial market total would compare unlike things
	if mc.Complete() && len(legs) > 0 {
		row["market_price"] = formatCurrency(mc.Price)
	} else {
		row["market_price"] = missing("currency")
	}
	greekFields(row, s.Greeks())
	return row
}

// Payoff renders a payoff curve
func Payoff(c *payoff.Curve) *models.PayoffReport {
	out := &models.PayoffReport{
		PremiumSource:   string(c.Premium),
		NetPremium:      formatCurrency(c.NetPremium),
		BreakEvens:      make([]models.FieldValue, 0, len(c.BreakEvens)),
		MaxProfit:       formatCurrency(c.MaxProfit),
		MaxLoss:         formatCurrency(c.MaxLoss),
		UnboundedUpside: c.UnboundedUpside,
		UnboundedLoss:   c.UnboundedLoss,
		Samples:         make([]models.FormattedRow, 0, len(c.Samples)),
	}
	for _, be := range c.BreakEvens {
		out.BreakEvens = append(out.BreakEvens, formatCurrency(be))
	}
	for _, s := range c.Samples {
		out.Samples = append(out.Samples, models.FormattedRow{
			"terminal_price": formatCurrency(s.Price),
			"payoff":         formatCurrency(s.Payoff),
		})
	}
	return out
}

// Strategy assembles the full report. curve may be nil.
func Strategy(s *strategy.Strategy, curve *payoff.Curve) models.StrategyReport {
	legs := s.Legs()
	rep := models.StrategyReport{
		Summary:       Summary(s),
		Legs:          make([]models.FormattedRow, 0, len(legs)),
		FieldMetadata: FieldMetadata(),
	}
	for i, l := range legs {
		rep.Legs = append(rep.Legs, Leg(i, l))
	}
	if curve != nil {
		rep.Payoff = Payoff(curve)
		rep.Summary["unbounded_upside"] = formatBool(curve.UnboundedUpside)
		rep.Summary["unbounded_loss"] = formatBool(curve.UnboundedLoss)
	}
	return rep
}

// Option renders a single priced vanilla option. impliedVol is shown when the
// caller solved it from an observed price.
func Option(p models.PricedOption, marketPrice, impliedVol *float64) models.FormattedRow {
	row := models.FormattedRow{
		"ticker":         formatText(p.Option.Ticker),
		"option_type":    formatText(string(p.Option.Type)),
		"spot":           formatCurrency(p.Inputs.Spot),
		"strike":         formatCurrency(p.Option.Strike),
		"expiry_years":   formatNumber(p.Option.Expiry, 4),
		"risk_free_rate": formatPercentage(p.Inputs.RiskFreeRate),
		"volatility":     formatPercentage(p.Inputs.Volatility),
		"price":          formatCurrency(p.Price),
		"lattice_price":  formatCurrency(p.LatticePrice),
		"steps":          formatInteger(p.Steps),
	}
	greekFields(row, p.Greeks)
	if marketPrice != nil {
		row["market_price"] = formatCurrency(*marketPrice)
		row["implied_vol"] = formatOptionalPercentage(impliedVol)
	}
	return row
}

// Digital renders a cash-or-nothing valuation
func Digital(d models.DigitalOption, spot, vol, price float64) models.FormattedRow {
	return models.FormattedRow{
		"ticker":         formatText(d.Ticker),
		"option_type":    formatText(string(d.Type)),
		"spot":           formatCurrency(spot),
		"strike":         formatCurrency(d.Strike),
		"expiry_years":   formatNumber(d.Expiry, 4),
		"risk_free_rate": formatPercentage(d.RiskFreeRate),
		"volatility":     formatPercentage(vol),
		"payoff_amount":  formatCurrency(d.PayoffAmount),
		"price":          formatCurrency(price),
	}
}

// Yield renders the risk-free rate looked up for a tenor
func Yield(years, rate float64) models.FormattedRow {
	return models.FormattedRow{
		"expiry_years":   formatNumber(years, 4),
		"risk_free_rate": formatPercentage(rate),
	}
}
