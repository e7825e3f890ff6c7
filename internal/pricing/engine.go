package pricing

import (
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jwaldner/optionlab/internal/models"
)

// DefaultSteps is the lattice period count used when none is configured
const DefaultSteps = 100

// Engine prices vanilla options with both the closed form and the lattice
type Engine struct {
	Lattice LatticeConfig
	Workers int
}

// NewEngine returns a European-style engine with the given lattice period count
func NewEngine(steps int) *Engine {
	return &Engine{
		Lattice: LatticeConfig{Steps: steps, Style: European},
		Workers: runtime.NumCPU(),
	}
}

// Price computes the closed-form price, the lattice price and the Greeks
func (e *Engine) Price(opt models.VanillaOption, in models.MarketInputs) (models.PricedOption, error) {
	res, err := BlackScholes(opt, in)
	if err != nil {
		return models.PricedOption{}, err
	}
	lat, err := Lattice(opt, in, e.Lattice)
	if err != nil {
		return models.PricedOption{}, err
	}
	zap.L().Debug("priced option",
		zap.Stringer("option", opt),
		zap.Float64("spot", in.Spot),
		zap.Float64("volatility", in.Volatility),
		zap.Float64("rate", in.RiskFreeRate),
		zap.Float64("closedForm", res.Price),
		zap.Float64("lattice", lat),
		zap.Int("steps", e.Lattice.Steps),
	)
	return models.PricedOption{
		Option:       opt,
		Inputs:       in,
		Price:        res.Price,
		LatticePrice: lat,
		Steps:        e.Lattice.Steps,
		Greeks:       res.Greeks,
	}, nil
}

// Contract pairs an option with the market inputs it is valued under
type Contract struct {
	Option models.VanillaOption
	Inputs models.MarketInputs
}

// PriceContracts prices independent contracts concurrently; output order matches input
func (e *Engine) PriceContracts(contracts []Contract) ([]models.PricedOption, error) {
	results := make([]models.PricedOption, len(contracts))
	var g errgroup.Group
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for i, c := range contracts {
		i, c := i, c
		g.Go(func() error {
			priced, err := e.Price(c.Option, c.Inputs)
			if err != nil {
				return err
			}
			results[i] = priced
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Price values opt with a European engine of the given step count
func Price(opt models.VanillaOption, in models.MarketInputs, steps int) (models.PricedOption, error) {
	return NewEngine(steps).Price(opt, in)
}
