package root

import (
	"context"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/cmd/signals"
	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/providers"
	"github.com/jwaldner/optionlab/internal/report"
	"github.com/jwaldner/optionlab/internal/server"
	"github.com/jwaldner/optionlab/internal/services"
	"github.com/jwaldner/optionlab/internal/strategy"
	"github.com/jwaldner/optionlab/internal/treasury"
)

type recipeList struct {
	Count int               `json:"count"`
	Data  []strategy.Recipe `json:"data"`
}

func strategiesList() recipeList {
	recipes := strategy.Recipes()
	return recipeList{Count: len(recipes), Data: recipes}
}

func newYieldCommand(ctx context.Context, o *options) *cobra.Command {
	var years float64

	cmd := &cobra.Command{
		Use:   "yield",
		Short: "Show the risk-free rate for a tenor, or the whole curve",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withServices(ctx, false, func(analysis *services.AnalysisService, _ *services.RequestService) error {
				if cmd.Flags().Changed("years") {
					if years <= 0 {
						return models.NewInvalidInputError("years", years, "a positive tenor in years is required")
					}
					rate, _, err := analysis.Rate(ctx, nil, years)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), report.Yield(years, rate))
				}

				rows := make([]models.FormattedRow, 0, len(treasury.StandardTenors))
				for _, t := range treasury.StandardTenors {
					rate, _, err := analysis.Rate(ctx, nil, t.Years)
					if err != nil {
						return err
					}
					row := report.Yield(t.Years, rate)
					row["tenor"] = models.FieldValue{Raw: t.Label, Display: t.Label, Type: "text"}
					rows = append(rows, row)
				}
				return printJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().Float64Var(&years, "years", 0, "tenor in years, the nearest published maturity is used")
	return cmd
}

type skewResult struct {
	Ticker string                `json:"ticker"`
	Strike float64               `json:"strike"`
	Years  float64               `json:"expiry_years"`
	Type   models.OptionType     `json:"option_type"`
	Skew   float64               `json:"skew"`
	Curve  []providers.SkewPoint `json:"curve,omitempty"`
}

func newSkewCommand(ctx context.Context, o *options) *cobra.Command {
	var strike, years float64
	var optionType string
	var strikes []float64

	cmd := &cobra.Command{
		Use:     "skew TICKER",
		Short:   "Measure the implied volatility skew around a strike",
		Example: "optionlab skew AAPL --strike 250 --years 0.25 --strikes 230,240,250,260,270",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := models.ParseOptionType(optionType)
			if err != nil {
				return err
			}
			if strike <= 0 || years <= 0 {
				return models.NewInvalidInputError("strike", strike, "strike and years must be positive")
			}
			return o.withServices(ctx, false, func(analysis *services.AnalysisService, _ *services.RequestService) error {
				skew, curve, err := analysis.Skew(ctx, args[0], strike, years, typ, strikes)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), skewResult{
					Ticker: args[0],
					Strike: strike,
					Years:  years,
					Type:   typ,
					Skew:   skew,
					Curve:  curve,
				})
			})
		},
	}

	fs := &pflag.FlagSet{}
	fs.Float64Var(&strike, "strike", 0, "strike the skew is centred on")
	fs.Float64Var(&years, "years", 0, "time to expiry in years")
	fs.StringVar(&optionType, "type", "call", "call or put")
	fs.Float64SliceVar(&strikes, "strikes", nil, "strikes to sample the smile at")
	cmd.Flags().AddFlagSet(fs)
	return cmd
}

func newServeCommand(ctx context.Context, o *options) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			market, err := services.NewMarket(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				zap.L().Info("provider stats", zap.String("report", market.Manager.GetPerformanceReport()))
				if err := market.Close(); err != nil {
					zap.L().Warn("closing market data", zap.Error(err))
				}
			}()

			wg := sync.WaitGroup{}
			defer wg.Wait()
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			wg.Add(1)
			go func() {
				signals.NotifySignals(runCtx, cancel)
				wg.Done()
			}()
			return server.New(cfg, market).Run(runCtx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, overrides the configuration")
	return cmd
}
