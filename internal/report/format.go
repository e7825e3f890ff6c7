// Package report turns priced strategies, payoff curves and single option
// valuations into display-ready field values. It does no rendering.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/optionlab/internal/models"
)

const notAvailable = "n/a"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// missing is shown for a value that could not be computed. Raw stays nil so
// CSV exports and sorting never see a substituted zero.
func missing(typ string) models.FieldValue {
	return models.FieldValue{Raw: nil, Display: notAvailable, Type: typ}
}

// groupThousands inserts commas into the integer part of a fixed-point string
func groupThousands(fixed string) string {
	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + frac
}

// Formatter methods for dual format response
func formatCurrency(value float64) models.FieldValue {
	if !finite(value) {
		return missing("currency")
	}
	d := decimal.NewFromFloat(value).Round(2)
	display := "$" + groupThousands(d.Abs().StringFixed(2))
	if d.IsNegative() {
		display = "-" + display
	}
	return models.FieldValue{
		Raw:     d.InexactFloat64(),
		Display: display,
		Type:    "currency",
	}
}

func formatPercentage(value float64) models.FieldValue {
	if !finite(value) {
		return missing("percentage")
	}
	return models.FieldValue{
		Raw:     value,
		Display: decimal.NewFromFloat(value).Shift(2).StringFixed(2) + "%",
		Type:    "percentage",
	}
}

// formatNumber is used for Greeks and other unitless figures
func formatNumber(value float64, places int32) models.FieldValue {
	if !finite(value) {
		return missing("number")
	}
	return models.FieldValue{
		Raw:     value,
		Display: decimal.NewFromFloat(value).StringFixed(places),
		Type:    "number",
	}
}

func formatInteger(value int) models.FieldValue {
	return models.FieldValue{
		Raw:     value,
		Display: fmt.Sprintf("%d", value),
		Type:    "integer",
	}
}

func formatText(value string) models.FieldValue {
	return models.FieldValue{
		Raw:     value,
		Display: value,
		Type:    "text",
	}
}

func formatBool(value bool) models.FieldValue {
	display := "no"
	if value {
		display = "yes"
	}
	return models.FieldValue{Raw: value, Display: display, Type: "boolean"}
}

func formatOptionalCurrency(value *float64) models.FieldValue {
	if value == nil {
		return missing("currency")
	}
	return formatCurrency(*value)
}

func formatOptionalPercentage(value *float64) models.FieldValue {
	if value == nil {
		return missing("percentage")
	}
	return formatPercentage(*value)
}

// greekFields renders raw per-unit Greeks at trader scale: vega per vol point,
// theta per calendar day, rho per rate point
func greekFields(row models.FormattedRow, g models.Greeks) {
	row["delta"] = formatNumber(g.Delta, 4)
	row["gamma"] = formatNumber(g.Gamma, 4)
	row["vega"] = formatNumber(g.PerVolPoint(), 4)
	row["theta"] = formatNumber(g.PerDay(), 4)
	row["rho"] = formatNumber(g.PerRatePoint(), 4)
}

// FieldMetadata returns metadata for all fields
func FieldMetadata() map[string]models.FieldMetadata {
	return map[string]models.FieldMetadata{
		"leg":              {DisplayName: "#", Type: "integer", Sortable: true, Alignment: "center"},
		"ticker":           {DisplayName: "Ticker", Type: "text", Sortable: true, Alignment: "left"},
		"strategy":         {DisplayName: "Strategy", Type: "text", Sortable: true, Alignment: "left"},
		"instrument":       {DisplayName: "Instrument", Type: "text", Sortable: true, Alignment: "left"},
		"direction":        {DisplayName: "Side", Type: "text", Sortable: true, Alignment: "left"},
		"units":            {DisplayName: "Units", Type: "integer", Sortable: true, Alignment: "right"},
		"moneyness":        {DisplayName: "Moneyness", Type: "text", Sortable: true, Alignment: "center"},
		"option_type":      {DisplayName: "Type", Type: "text", Sortable: true, Alignment: "center"},
		"spot":             {DisplayName: "Spot", Type: "currency", Sortable: true, Alignment: "right"},
		"strike":           {DisplayName: "Strike", Type: "currency", Sortable: true, Alignment: "right"},
		"expiry_years":     {DisplayName: "Expiry (yrs)", Type: "number", Sortable: true, Alignment: "right"},
		"risk_free_rate":   {DisplayName: "Rate", Type: "percentage", Sortable: true, Alignment: "right"},
		"volatility":       {DisplayName: "IV", Type: "percentage", Sortable: true, Alignment: "right"},
		"unit_price":       {DisplayName: "Unit Price", Type: "currency", Sortable: true, Alignment: "right"},
		"price":            {DisplayName: "Price", Type: "currency", Sortable: true, Alignment: "right"},
		"lattice_price":    {DisplayName: "Lattice", Type: "currency", Sortable: true, Alignment: "right"},
		"steps":            {DisplayName: "Steps", Type: "integer", Sortable: false, Alignment: "right"},
		"exercise_style":   {DisplayName: "Style", Type: "text", Sortable: false, Alignment: "center"},
		"market_price":     {DisplayName: "Market", Type: "currency", Sortable: true, Alignment: "right"},
		"market_iv":        {DisplayName: "Market IV", Type: "percentage", Sortable: true, Alignment: "right"},
		"market_legs":      {DisplayName: "Quoted Legs", Type: "text", Sortable: false, Alignment: "center"},
		"market_note":      {DisplayName: "Note", Type: "text", Sortable: false, Alignment: "left"},
		"implied_vol":      {DisplayName: "Implied Vol", Type: "percentage", Sortable: true, Alignment: "right"},
		"payoff_amount":    {DisplayName: "Payoff", Type: "currency", Sortable: true, Alignment: "right"},
		"delta":            {DisplayName: "Delta", Type: "number", Sortable: true, Alignment: "right"},
		"gamma":            {DisplayName: "Gamma", Type: "number", Sortable: true, Alignment: "right"},
		"vega":             {DisplayName: "Vega (1 pt)", Type: "number", Sortable: true, Alignment: "right"},
		"theta":            {DisplayName: "Theta (1 day)", Type: "number", Sortable: true, Alignment: "right"},
		"rho":              {DisplayName: "Rho (1 pt)", Type: "number", Sortable: true, Alignment: "right"},
		"terminal_price":   {DisplayName: "Price at Expiry", Type: "currency", Sortable: true, Alignment: "right"},
		"payoff":           {DisplayName: "P/L", Type: "currency", Sortable: true, Alignment: "right"},
		"unbounded_upside": {DisplayName: "Unlimited Upside", Type: "boolean", Sortable: false, Alignment: "center"},
		"unbounded_loss":   {DisplayName: "Unlimited Loss", Type: "boolean", Sortable: false, Alignment: "center"},
	}
}
