package root

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/cmd/version"
	"github.com/jwaldner/optionlab/internal/config"
	"github.com/jwaldner/optionlab/internal/logger"
	"github.com/jwaldner/optionlab/internal/providers"
	"github.com/jwaldner/optionlab/internal/services"
)

// options are the persistent flags shared by every subcommand
type options struct {
	configFile   string
	provider     string
	snapshotFile string
	logLevel     string
	logFile      string

	cfg *config.Config
}

func NewRootCommand(ctx context.Context) *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "optionlab",
		Short: "equity option pricing and strategy analysis",
		Long: "optionlab prices vanilla and digital equity options and builds multi-leg " +
			"strategies from live or snapshot market data",
		SilenceUsage: true,
	}

	fs := &pflag.FlagSet{}
	fs.StringVarP(&o.configFile, "config", "c", "", "configuration file, defaults to $OPTIONLAB_CONFIG or "+config.DefaultConfigFile)
	fs.StringVar(&o.provider, "provider", "", "market data provider: alpaca or snapshot")
	fs.StringVar(&o.snapshotFile, "snapshot", "", "YAML market snapshot, implies --provider=snapshot")
	fs.StringVar(&o.logLevel, "log-level", "", fmt.Sprintf("log level - %s %s %s %s", zap.DebugLevel, zap.InfoLevel, zap.WarnLevel, zap.ErrorLevel))
	fs.StringVar(&o.logFile, "log-file", "", "also write logs to this file")
	root.PersistentFlags().AddFlagSet(fs)

	root.AddCommand(
		version.NewCommand(),
		newStrategyCommand(ctx, o),
		newStrategiesCommand(),
		newDigitalCommand(ctx, o),
		newPriceCommand(ctx, o),
		newYieldCommand(ctx, o),
		newSkewCommand(ctx, o),
		newServeCommand(ctx, o),
	)
	return root
}

// load reads the configuration once and applies the persistent flags on top
func (o *options) load() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	var cfg *config.Config
	var err error
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.snapshotFile != "" {
		cfg.SnapshotFile = o.snapshotFile
		cfg.Provider = "snapshot"
	}
	if o.provider != "" {
		cfg.Provider = o.provider
	}
	if o.logLevel != "" {
		cfg.Logging.LogLevel = o.logLevel
	}
	if o.logFile != "" {
		cfg.Logging.LogFile = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := logger.InitWithConfig(cfg.Logging.LogLevel, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// withServices hands the services to fn. When offline is set no provider is
// connected and every input must come from the command line.
func (o *options) withServices(ctx context.Context, offline bool, fn func(*services.AnalysisService, *services.RequestService) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	requests := services.NewRequestService(cfg.Defaults)
	if offline {
		return fn(services.NewAnalysisService(providers.MarketData{}), requests)
	}

	market, err := services.NewMarket(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := market.Close(); err != nil {
			zap.L().Warn("closing market data", zap.Error(err))
		}
	}()
	return fn(services.NewAnalysisService(market.Data), requests)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
