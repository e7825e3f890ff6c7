// Package snapshot serves market data from a YAML file, for offline runs and
// reproducible analyses.
package snapshot

import (
	"context"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/providers"
)

// File is the on-disk layout
//
//	underlyings:
//	  AAPL:
//	    spot: 247.5
//	    flat_volatility: 0.3   # optional, applies to any strike not quoted below
//	    options:
//	      - {type: call, strike: 250, expiry_years: 0.5, iv: 0.28, price: 18.4}
type File struct {
	StrikeIncrement float64                `yaml:"strike_increment"`
	Underlyings     map[string]*Underlying `yaml:"underlyings"`
}

type Underlying struct {
	Spot           float64 `yaml:"spot"`
	FlatVolatility float64 `yaml:"flat_volatility"`
	Options        []Quote `yaml:"options"`
}

// Quote is one listed option. IV or Price may be zero when not observed.
type Quote struct {
	Type        models.OptionType `yaml:"type"`
	Strike      float64           `yaml:"strike"`
	ExpiryYears float64           `yaml:"expiry_years"`
	IV          float64           `yaml:"iv"`
	Price       float64           `yaml:"price"`
}

// Provider implements providers.MarketProvider over a File
type Provider struct {
	data File

	statsMu  sync.Mutex
	requests int
	elapsed  time.Duration
}

// Load reads and validates a snapshot file
func Load(path string) (*Provider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading snapshot %s", path)
	}
	return Parse(raw)
}

// Parse decodes a YAML snapshot
func Parse(raw []byte) (*Provider, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, "parsing snapshot yaml")
	}
	return New(f)
}

func New(f File) (*Provider, error) {
	if f.StrikeIncrement == 0 {
		f.StrikeIncrement = providers.StrikeIncrement
	}
	if f.StrikeIncrement < 0 {
		return nil, models.NewInvalidInputError("strike_increment", f.StrikeIncrement, "must be positive")
	}
	normalized := make(map[string]*Underlying, len(f.Underlyings))
	for ticker, u := range f.Underlyings {
		if u == nil || u.Spot <= 0 {
			return nil, models.NewInvalidInputError("spot", ticker, "every underlying needs a positive spot")
		}
		for i, q := range u.Options {
			typ, err := models.ParseOptionType(string(q.Type))
			if err != nil {
				return nil, errors.Wrapf(err, "%s option %d", ticker, i)
			}
			u.Options[i].Type = typ
		}
		normalized[strings.ToUpper(ticker)] = u
	}
	f.Underlyings = normalized
	return &Provider{data: f}, nil
}

func (p *Provider) GetProviderName() string { return "snapshot" }

func (p *Provider) underlying(ticker string) (*Underlying, error) {
	u, ok := p.data.Underlyings[strings.ToUpper(ticker)]
	if !ok {
		return nil, &models.MissingMarketDataError{Ticker: ticker, What: "ticker not in snapshot"}
	}
	return u, nil
}

// find returns the quote at the rounded strike with the nearest expiry
func (p *Provider) find(u *Underlying, strike, expiryYears float64, optionType models.OptionType, usable func(Quote) bool) (Quote, bool) {
	k := providers.RoundStrike(strike, p.data.StrikeIncrement)
	var (
		best  Quote
		found bool
	)
	for _, q := range u.Options {
		if q.Type != optionType || q.Strike != k || !usable(q) {
			continue
		}
		if !found || math.Abs(q.ExpiryYears-expiryYears) < math.Abs(best.ExpiryYears-expiryYears) {
			best, found = q, true
		}
	}
	return best, found
}

func (p *Provider) GetSpot(_ context.Context, ticker string) (float64, error) {
	defer p.track(time.Now())
	u, err := p.underlying(ticker)
	if err != nil {
		return 0, err
	}
	return u.Spot, nil
}

func (p *Provider) GetSpotAndIV(_ context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, float64, error) {
	defer p.track(time.Now())
	u, err := p.underlying(ticker)
	if err != nil {
		return 0, 0, err
	}
	if q, ok := p.find(u, strike, expiryYears, optionType, func(q Quote) bool { return q.IV > 0 }); ok {
		return u.Spot, q.IV, nil
	}
	if u.FlatVolatility > 0 {
		return u.Spot, u.FlatVolatility, nil
	}
	return 0, 0, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiryYears, Type: optionType, What: "implied volatility not found"}
}

func (p *Provider) GetMarketPrice(_ context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, error) {
	defer p.track(time.Now())
	u, err := p.underlying(ticker)
	if err != nil {
		return 0, err
	}
	if q, ok := p.find(u, strike, expiryYears, optionType, func(q Quote) bool { return q.Price > 0 }); ok {
		return q.Price, nil
	}
	return 0, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiryYears, Type: optionType, What: "no quoted price"}
}

func (p *Provider) track(start time.Time) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.requests++
	p.elapsed += time.Since(start)
}

func (p *Provider) GetPerformanceStats() providers.PerformanceMetrics {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	if p.requests == 0 {
		return providers.PerformanceMetrics{}
	}
	return providers.PerformanceMetrics{
		RequestDuration: p.elapsed / time.Duration(p.requests),
		RequestCount:    p.requests,
	}
}

func (p *Provider) Close() error { return nil }
