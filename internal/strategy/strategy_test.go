package strategy

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/pricing"
	"github.com/jwaldner/optionlab/internal/providers"
)

// flatMarket quotes one volatility everywhere, optionally refusing some
// strikes, and prices calls (not puts) at a richer volatility
type flatMarket struct {
	spot      float64
	vol       float64
	noIVAbove float64
	quoteVol  float64
	spotErr   error
	calls     int
}

func (f *flatMarket) GetSpot(_ context.Context, _ string) (float64, error) {
	if f.spotErr != nil {
		return 0, f.spotErr
	}
	return f.spot, nil
}

func (f *flatMarket) GetSpotAndIV(_ context.Context, ticker string, strike, expiry float64, typ models.OptionType) (float64, float64, error) {
	f.calls++
	if f.noIVAbove > 0 && strike > f.noIVAbove {
		return 0, 0, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiry, Type: typ, What: "implied volatility not found"}
	}
	return f.spot, f.vol, nil
}

func (f *flatMarket) GetMarketPrice(_ context.Context, ticker string, strike, expiry float64, typ models.OptionType) (float64, error) {
	if typ == models.Put || f.quoteVol == 0 {
		return 0, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiry, Type: typ, What: "no quote"}
	}
	res, err := pricing.BlackScholes(models.VanillaOption{Strike: strike, Expiry: expiry, Type: typ},
		models.MarketInputs{Spot: f.spot, Volatility: f.quoteVol, RiskFreeRate: 0.05})
	return res.Price, err
}

func newMarket() *flatMarket {
	return &flatMarket{spot: 100, vol: 0.2, quoteVol: 0.25}
}

func marketData(f *flatMarket) providers.MarketData {
	return providers.MarketData{Underlying: f, Quotes: f}
}

func defaultParams() Params {
	return Params{Ticker: "TEST", Offset: 0.1, Expiry: 1, Rate: 0.05, Steps: 50}
}

func build(t *testing.T, name string) *Strategy {
	t.Helper()
	s, err := New(defaultParams(), marketData(newMarket()))
	require.NoError(t, err)
	require.NoError(t, s.Build(context.Background(), name))
	return s
}

func TestStrikeFor(t *testing.T) {
	for desc, tc := range map[string]struct {
		typ   models.OptionType
		m     models.Moneyness
		depth int
		want  float64
	}{
		"atmCall":      {models.Call, models.ATM, 0, 100},
		"atmPut":       {models.Put, models.ATM, 3, 100},
		"itmCall":      {models.Call, models.ITM, 1, 90},
		"otmPut":       {models.Put, models.OTM, 1, 90},
		"otmCall":      {models.Call, models.OTM, 1, 110},
		"itmPut":       {models.Put, models.ITM, 1, 110},
		"deepOtmPut":   {models.Put, models.OTM, 2, 80},
		"deepOtmCall":  {models.Call, models.OTM, 2, 120},
		"deepItmCall":  {models.Call, models.ITM, 3, 70},
		"deepItmPut":   {models.Put, models.ITM, 3, 130},
		"singleStepUp": {models.Call, models.OTM, 1, 110},
	} {
		t.Run(desc, func(t *testing.T) {
			got, err := StrikeFor(100, 0.1, tc.typ, tc.m, tc.depth)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestStrikeForInvalid(t *testing.T) {
	_, err := StrikeFor(100, 0.6, models.Put, models.OTM, 2)
	assert.True(t, models.IsInvalidInput(err))

	_, err = StrikeFor(0, 0.1, models.Call, models.ATM, 0)
	assert.True(t, models.IsInvalidInput(err))

	_, err = StrikeFor(100, 0.1, models.Call, models.OTM, 0)
	assert.True(t, models.IsInvalidInput(err))

	_, err = StrikeFor(100, 0.1, models.Call, "deep", 1)
	assert.True(t, models.IsInvalidInput(err))
}

func TestEveryRecipeBuilds(t *testing.T) {
	for _, r := range Recipes() {
		t.Run(r.Name, func(t *testing.T) {
			s := build(t, r.Name)
			assert.Equal(t, r.Name, s.Name())
			assert.Len(t, s.Legs(), len(r.Legs))
			assert.InDelta(t, s.Price(), s.LatticePrice(), 0.5)
		})
	}
	assert.Len(t, Recipes(), 26)
}

func TestRebuildReplacesLegs(t *testing.T) {
	s := build(t, "iron_condor")
	require.Len(t, s.Legs(), 4)

	require.NoError(t, s.Build(context.Background(), "long straddle"))
	legs := s.Legs()
	require.Len(t, legs, 2)
	assert.Equal(t, "long_straddle", s.Name())
	for _, l := range legs {
		assert.Equal(t, models.ATM, l.Moneyness)
		assert.Equal(t, 100.0, l.Strike())
	}
}

func TestIronCondorStrikes(t *testing.T) {
	s := build(t, "Iron-Condor")
	var strikes []float64
	var dirs []models.Direction
	for _, l := range s.Legs() {
		strikes = append(strikes, l.Strike())
		dirs = append(dirs, l.Direction)
	}
	assert.InDeltaSlice(t, []float64{80, 90, 110, 120}, strikes, 1e-9)
	assert.Equal(t, []models.Direction{models.Long, models.Short, models.Short, models.Long}, dirs)
	assert.Less(t, s.Price(), 0.0, "iron condor is a net credit")
}

func TestLongCallSignsAndGreeks(t *testing.T) {
	long := build(t, "long_atm_call")
	short := build(t, "short_atm_call")

	assert.InDelta(t, 10.45, long.Price(), 0.01)
	assert.InDelta(t, -long.Price(), short.Price(), 1e-12)
	assert.InDelta(t, -long.Greeks().Delta, short.Greeks().Delta, 1e-12)
	assert.InDelta(t, -long.Greeks().Vega, short.Greeks().Vega, 1e-12)
}

func TestStraddleGreeksAreSumOfLegs(t *testing.T) {
	s := build(t, "long_straddle")
	call := build(t, "long_atm_call")
	put := build(t, "long_atm_put")

	g := s.Greeks()
	assert.InDelta(t, call.Greeks().Delta+put.Greeks().Delta, g.Delta, 1e-12)
	assert.InDelta(t, call.Greeks().Gamma+put.Greeks().Gamma, g.Gamma, 1e-12)
	assert.InDelta(t, call.Price()+put.Price(), s.Price(), 1e-12)
}

func TestButterflyUnits(t *testing.T) {
	s := build(t, "long_call_butterfly")
	legs := s.Legs()
	require.Len(t, legs, 3)
	assert.Equal(t, 2, legs[1].Units)
	assert.Equal(t, -2.0, legs[1].Sign())
	assert.Greater(t, s.Price(), 0.0)
}

func TestCoveredCallStockLeg(t *testing.T) {
	s := build(t, "covered_call")
	legs := s.Legs()
	require.Len(t, legs, 2)
	assert.Equal(t, Stock, legs[0].Instrument)
	assert.Nil(t, legs[0].Option)
	assert.Equal(t, 100.0, legs[0].Price())
	assert.Equal(t, 1.0, legs[0].Greeks().Delta)
	assert.Less(t, s.Greeks().Delta, 1.0)
	assert.Greater(t, s.Greeks().Delta, 0.0)
}

func TestMarketComparison(t *testing.T) {
	s := build(t, "long_strangle")
	mc := s.MarketPrice()
	assert.Equal(t, 1, mc.Available)
	assert.Equal(t, []int{1}, mc.Missing)
	assert.False(t, mc.Complete())

	call := s.Legs()[0]
	require.NotNil(t, call.MarketPrice)
	require.NotNil(t, call.MarketIV)
	assert.InDelta(t, 0.25, *call.MarketIV, 1e-5)
	assert.Greater(t, *call.MarketPrice, call.UnitPrice())

	put := s.Legs()[1]
	assert.Nil(t, put.MarketPrice)
	assert.NotEmpty(t, put.MarketNote)

	s2, err := New(defaultParams(), providers.MarketData{Underlying: newMarket()})
	require.NoError(t, err)
	require.NoError(t, s2.Build(context.Background(), "covered_call"))
	assert.Equal(t, "no quote provider", s2.Legs()[1].MarketNote)
	assert.Equal(t, 1, s2.MarketPrice().Available)
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()

	s, err := New(defaultParams(), marketData(newMarket()))
	require.NoError(t, err)
	err = s.Build(ctx, "calendar_spread")
	assert.True(t, models.IsInvalidInput(err))

	m := newMarket()
	m.noIVAbove = 105
	s, err = New(defaultParams(), marketData(m))
	require.NoError(t, err)
	require.NoError(t, s.Build(ctx, "long_atm_put"))
	err = s.Build(ctx, "long_strangle")
	require.Error(t, err)
	assert.True(t, models.IsMissingMarketData(err))
	assert.Equal(t, "long_atm_put", s.Name(), "failed build keeps previous legs")
	assert.Len(t, s.Legs(), 1)

	m = newMarket()
	m.spotErr = models.NewDataUnavailableError("test", errors.New("offline"))
	s, err = New(defaultParams(), marketData(m))
	require.NoError(t, err)
	err = s.Build(ctx, "long_atm_call")
	assert.True(t, models.IsDataUnavailable(err))

	m = newMarket()
	m.vol = 0
	s, err = New(defaultParams(), marketData(m))
	require.NoError(t, err)
	err = s.Build(ctx, "long_atm_call")
	assert.True(t, models.IsLatticeDegenerate(err))
}

func TestNewValidation(t *testing.T) {
	for desc, tc := range map[string]struct {
		mutate  func(*Params)
		invalid bool
	}{
		"zeroOffset":     {func(p *Params) { p.Offset = 0 }, true},
		"unitOffset":     {func(p *Params) { p.Offset = 1 }, true},
		"negativeOffset": {func(p *Params) { p.Offset = -0.1 }, true},
		"zeroExpiry":     {func(p *Params) { p.Expiry = 0 }, true},
		"nanRate":        {func(p *Params) { p.Rate = math.NaN() }, true},
		"negativeSteps":  {func(p *Params) { p.Steps = -3 }, true},
		"emptyTicker":    {func(p *Params) { p.Ticker = "" }, true},
		"defaultSteps":   {func(p *Params) { p.Steps = 0 }, false},
		"negativeRate":   {func(p *Params) { p.Rate = -0.01 }, false},
	} {
		t.Run(desc, func(t *testing.T) {
			p := defaultParams()
			tc.mutate(&p)
			s, err := New(p, marketData(newMarket()))
			if tc.invalid {
				require.Error(t, err)
				assert.True(t, models.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Greater(t, s.Params().Steps, 0)
		})
	}

	_, err := New(defaultParams(), providers.MarketData{})
	assert.True(t, models.IsMissingMarketData(err))
}

func TestAmericanStyleLattice(t *testing.T) {
	p := defaultParams()
	p.Style = pricing.American
	s, err := New(p, marketData(newMarket()))
	require.NoError(t, err)
	require.NoError(t, s.Build(context.Background(), "long_itm_put"))
	assert.Greater(t, s.LatticePrice(), s.Price())
}
