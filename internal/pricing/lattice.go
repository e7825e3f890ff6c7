package pricing

import (
	"math"
	"strings"

	"github.com/jwaldner/optionlab/internal/models"
)

// ExerciseStyle selects whether interior lattice nodes may exercise early
type ExerciseStyle string

const (
	European ExerciseStyle = "european"
	American ExerciseStyle = "american"
)

// ParseExerciseStyle accepts "european" and "american"; empty means European
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(European):
		return European, nil
	case string(American):
		return American, nil
	}
	return "", models.NewInvalidInputError("exercise_style", s, "must be european or american")
}

// LatticeConfig configures a Cox-Ross-Rubinstein tree
type LatticeConfig struct {
	Steps int
	Style ExerciseStyle
}

// Intrinsic is the exercise value of an option at the given spot
func Intrinsic(typ models.OptionType, spot, strike float64) float64 {
	if typ == models.Call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// Lattice prices an option on a recombining binomial tree by backward induction
func Lattice(opt models.VanillaOption, in models.MarketInputs, cfg LatticeConfig) (float64, error) {
	if err := validate(opt.Strike, opt.Expiry, opt.Type, in); err != nil {
		return 0, err
	}
	n := cfg.Steps
	if n < 1 {
		return 0, models.NewInvalidInputError("steps", n, "must be at least 1")
	}

	dt := opt.Expiry / float64(n)
	u := math.Exp(in.Volatility * math.Sqrt(dt))
	d := 1 / u
	if u == d {
		return 0, &models.LatticeDegenerateError{Steps: n, Reason: "zero volatility gives identical up and down factors"}
	}
	growth := math.Exp(in.RiskFreeRate * dt)
	p := (growth - d) / (u - d)
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, &models.LatticeDegenerateError{Probability: p, Steps: n}
	}
	disc := 1 / growth
	american := cfg.Style == American

	// values[j] holds the node with j up moves at the current step
	values := make([]float64, n+1)
	for j := 0; j <= n; j++ {
		s := in.Spot * math.Pow(u, float64(j)) * math.Pow(d, float64(n-j))
		values[j] = Intrinsic(opt.Type, s, opt.Strike)
	}
	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			v := disc * (p*values[j+1] + (1-p)*values[j])
			if american {
				s := in.Spot * math.Pow(u, float64(j)) * math.Pow(d, float64(i-j))
				v = math.Max(v, Intrinsic(opt.Type, s, opt.Strike))
			}
			values[j] = v
		}
	}
	return values[0], nil
}
