package treasury

import (
	"math"
	"time"

	"github.com/jwaldner/optionlab/internal/models"
)

// Tenor is one point of the par yield curve. Yield is a decimal (0.045 = 4.5%).
type Tenor struct {
	Label string  `json:"label" yaml:"label"`
	Years float64 `json:"years" yaml:"years"`
	Yield float64 `json:"yield" yaml:"yield"`
}

// StandardTenors lists the maturities published on the daily par yield curve,
// in the order the Treasury publishes them. Yield is unset.
var StandardTenors = []Tenor{
	{Label: "1M", Years: 1.0 / 12},
	{Label: "2M", Years: 2.0 / 12},
	{Label: "3M", Years: 3.0 / 12},
	{Label: "4M", Years: 4.0 / 12},
	{Label: "6M", Years: 6.0 / 12},
	{Label: "1Y", Years: 1},
	{Label: "2Y", Years: 2},
	{Label: "3Y", Years: 3},
	{Label: "5Y", Years: 5},
	{Label: "7Y", Years: 7},
	{Label: "10Y", Years: 10},
	{Label: "20Y", Years: 20},
	{Label: "30Y", Years: 30},
}

// standardYears maps a tenor label to its maturity in years
func standardYears(label string) (float64, bool) {
	for _, t := range StandardTenors {
		if t.Label == label {
			return t.Years, true
		}
	}
	return 0, false
}

// Curve is the set of tenors quoted on one record date. Tenors missing from
// the source are simply absent.
type Curve struct {
	Date   time.Time `json:"date"`
	Tenors []Tenor   `json:"tenors"`
}

// Nearest returns the tenor whose maturity is closest to years. When two
// tenors are equally close the one listed first wins.
func (c *Curve) Nearest(years float64) (Tenor, error) {
	if c == nil || len(c.Tenors) == 0 {
		return Tenor{}, models.NewDataUnavailableError("treasury", errEmptyCurve)
	}
	return NearestTenor(c.Tenors, years)
}

// NearestTenor picks from tenors the one minimising |Years - years|
func NearestTenor(tenors []Tenor, years float64) (Tenor, error) {
	if math.IsNaN(years) || math.IsInf(years, 0) || years <= 0 {
		return Tenor{}, models.NewInvalidInputError("tenor_years", years, "must be a positive finite number")
	}
	if len(tenors) == 0 {
		return Tenor{}, models.NewDataUnavailableError("treasury", errEmptyCurve)
	}

	best := 0
	bestDist := math.Abs(tenors[0].Years - years)
	for i := 1; i < len(tenors); i++ {
		if d := math.Abs(tenors[i].Years - years); d < bestDist {
			best, bestDist = i, d
		}
	}
	return tenors[best], nil
}
