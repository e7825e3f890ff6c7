package providers

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/jwaldner/optionlab/internal/models"
)

// StrikeIncrement is the listed strike spacing quotes are matched against
const StrikeIncrement = 5.0

// DaysPerYear converts between expiry in years and calendar dates
const DaysPerYear = 365.0

// RoundStrike rounds strike to the nearest multiple of increment, halves up
func RoundStrike(strike, increment float64) float64 {
	if increment <= 0 {
		return strike
	}
	return math.Floor(strike/increment+0.5) * increment
}

// ExpiryDate is the calendar date expiryYears after now
func ExpiryDate(now time.Time, expiryYears float64) time.Time {
	return now.Add(time.Duration(expiryYears * DaysPerYear * 24 * float64(time.Hour)))
}

// NearestExpiry returns the listed expiration closest to target. Ties go to
// the earlier date in the slice.
func NearestExpiry(listed []time.Time, target time.Time) (time.Time, bool) {
	if len(listed) == 0 {
		return time.Time{}, false
	}
	best := listed[0]
	bestDist := absDuration(best.Sub(target))
	for _, d := range listed[1:] {
		if dist := absDuration(d.Sub(target)); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// VolSkew measures the implied volatility slope around strike as
// (iv(K+5) - iv(K-5)) / 10, per unit of strike. The strike itself must be
// quoted too.
func VolSkew(ctx context.Context, p UnderlyingProvider, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, error) {
	if strike-StrikeIncrement <= 0 {
		return 0, models.NewInvalidInputError("strike", strike, "must exceed the strike increment to measure skew")
	}
	if _, _, err := p.GetSpotAndIV(ctx, ticker, strike, expiryYears, optionType); err != nil {
		return 0, errors.Wrap(err, "centre strike")
	}
	_, upper, err := p.GetSpotAndIV(ctx, ticker, strike+StrikeIncrement, expiryYears, optionType)
	if err != nil {
		return 0, errors.Wrap(err, "upper strike")
	}
	_, lower, err := p.GetSpotAndIV(ctx, ticker, strike-StrikeIncrement, expiryYears, optionType)
	if err != nil {
		return 0, errors.Wrap(err, "lower strike")
	}
	return (upper - lower) / (2 * StrikeIncrement), nil
}

// SkewPoint is one implied volatility observation on a skew curve
type SkewPoint struct {
	Strike float64 `json:"strike"`
	IV     float64 `json:"iv"`
}

// SkewCurve samples implied volatility at each strike. Strikes without a
// quote are left out of the curve; any other failure aborts.
func SkewCurve(ctx context.Context, p UnderlyingProvider, ticker string, strikes []float64, expiryYears float64, optionType models.OptionType) ([]SkewPoint, error) {
	points := make([]SkewPoint, 0, len(strikes))
	for _, k := range strikes {
		_, iv, err := p.GetSpotAndIV(ctx, ticker, k, expiryYears, optionType)
		if models.IsMissingMarketData(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "strike %.2f", k)
		}
		points = append(points, SkewPoint{Strike: k, IV: iv})
	}
	return points, nil
}
