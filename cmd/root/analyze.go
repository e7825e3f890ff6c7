package root

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/report"
	"github.com/jwaldner/optionlab/internal/services"
)

// addExpiryFlags registers the two ways of giving an expiry
func addExpiryFlags(fs *pflag.FlagSet, years *float64, date *string) {
	fs.Float64Var(years, "years", 0, "time to expiry in years")
	fs.StringVar(date, "expiration", "", "expiration date YYYY-MM-DD, defaults to the next monthly expiration")
}

// optionalFloat returns &v only when the flag was given
func optionalFloat(cmd *cobra.Command, name string, v *float64) *float64 {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

func newStrategyCommand(ctx context.Context, o *options) *cobra.Command {
	var req models.StrategyRequest
	var offset, rate, low, high float64

	cmd := &cobra.Command{
		Use:     "strategy TICKER NAME",
		Short:   "Build, price and chart a named strategy",
		Example: "optionlab strategy AAPL iron_condor --years 0.25 --offset 0.05",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Ticker, req.Strategy = args[0], args[1]
			req.Offset = optionalFloat(cmd, "offset", &offset)
			req.RiskFreeRate = optionalFloat(cmd, "rate", &rate)

			return o.withServices(ctx, false, func(analysis *services.AnalysisService, requests *services.RequestService) error {
				if err := requests.NormalizeStrategy(&req); err != nil {
					return err
				}
				if cmd.Flags().Changed("low") || cmd.Flags().Changed("high") {
					req.Range = &models.RangeRequest{Low: low, High: high, Samples: req.Samples}
				}
				res, err := analysis.Analyze(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res.Report)
			})
		},
	}

	fs := &pflag.FlagSet{}
	fs.Float64Var(&offset, "offset", 0, "strike offset as a fraction of spot, in (0, 1)")
	addExpiryFlags(fs, &req.ExpiryYears, &req.ExpirationDate)
	fs.Float64Var(&rate, "rate", 0, "risk-free rate as a decimal, looked up on the treasury curve when omitted")
	fs.IntVar(&req.Steps, "steps", 0, "binomial lattice steps")
	fs.StringVar(&req.ExerciseStyle, "style", "", "lattice exercise style: european or american")
	fs.StringVar(&req.PremiumSource, "premium", "", "premium used for the payoff: closed_form, lattice or market")
	fs.IntVar(&req.Samples, "samples", 0, "number of payoff samples")
	fs.Float64Var(&req.RangeMultiple, "range-multiple", 0, "payoff range half-width in standard deviations")
	fs.Float64Var(&low, "low", 0, "lowest terminal price of the payoff range")
	fs.Float64Var(&high, "high", 0, "highest terminal price of the payoff range")
	cmd.Flags().AddFlagSet(fs)
	return cmd
}

func newStrategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the strategy recipes",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), strategiesList())
		},
	}
}

func newDigitalCommand(ctx context.Context, o *options) *cobra.Command {
	var req models.DigitalRequest
	var spot, vol, rate float64

	cmd := &cobra.Command{
		Use:     "digital TICKER",
		Short:   "Price a cash-or-nothing option",
		Example: "optionlab digital AAPL --strike 250 --type call --payoff 10 --years 0.5",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Ticker = args[0]
			}
			req.Spot = optionalFloat(cmd, "spot", &spot)
			req.Volatility = optionalFloat(cmd, "volatility", &vol)
			req.RiskFreeRate = optionalFloat(cmd, "rate", &rate)
			offline := req.Spot != nil && req.Volatility != nil && req.RiskFreeRate != nil

			return o.withServices(ctx, offline, func(analysis *services.AnalysisService, requests *services.RequestService) error {
				if err := requests.NormalizeDigital(&req); err != nil {
					return err
				}
				res, err := analysis.Digital(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report.Digital(res.Option, res.Spot, res.Volatility, res.Price))
			})
		},
	}

	fs := &pflag.FlagSet{}
	fs.Float64Var(&req.Strike, "strike", 0, "strike price")
	fs.StringVar(&req.OptionType, "type", "call", "call or put")
	fs.Float64Var(&req.PayoffAmount, "payoff", 0, "cash paid when the option finishes in the money")
	addExpiryFlags(fs, &req.ExpiryYears, &req.ExpirationDate)
	fs.Float64Var(&spot, "spot", 0, "spot price, looked up when omitted")
	fs.Float64Var(&vol, "volatility", 0, "volatility as a decimal, looked up when omitted")
	fs.Float64Var(&rate, "rate", 0, "risk-free rate as a decimal, looked up on the treasury curve when omitted")
	cmd.Flags().AddFlagSet(fs)
	return cmd
}

func newPriceCommand(ctx context.Context, o *options) *cobra.Command {
	var req models.PriceRequest
	var rate, market float64

	cmd := &cobra.Command{
		Use:     "price",
		Short:   "Value one vanilla option from explicit inputs",
		Example: "optionlab price --spot 100 --strike 100 --volatility 0.2 --years 1 --rate 0.05 --market 11",
		Args:    cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.RiskFreeRate = optionalFloat(cmd, "rate", &rate)
			req.MarketPrice = optionalFloat(cmd, "market", &market)

			return o.withServices(ctx, req.RiskFreeRate != nil, func(analysis *services.AnalysisService, requests *services.RequestService) error {
				if err := requests.NormalizePrice(&req); err != nil {
					return err
				}
				res, err := analysis.Price(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report.Option(res.Priced, res.MarketPrice, res.ImpliedVol))
			})
		},
	}

	fs := &pflag.FlagSet{}
	fs.Float64Var(&req.Spot, "spot", 0, "spot price")
	fs.Float64Var(&req.Strike, "strike", 0, "strike price")
	fs.Float64Var(&req.Volatility, "volatility", 0, "volatility as a decimal")
	fs.StringVar(&req.OptionType, "type", "call", "call or put")
	addExpiryFlags(fs, &req.ExpiryYears, &req.ExpirationDate)
	fs.Float64Var(&rate, "rate", 0, "risk-free rate as a decimal, looked up on the treasury curve when omitted")
	fs.IntVar(&req.Steps, "steps", 0, "binomial lattice steps")
	fs.StringVar(&req.ExerciseStyle, "style", "", "lattice exercise style: european or american")
	fs.Float64Var(&market, "market", 0, "observed price, solves the implied volatility")
	cmd.Flags().AddFlagSet(fs)
	return cmd
}
