package cmd

import (
	"os"

	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig   string
	flagVerbose  bool
	flagRate     float64
	flagCurrency string
)

var rootCmd = &cobra.Command{
	Use:   "wattwatch",
	Short: "LLM token energy and cost estimator",
	Long:  "Estimate the electrical energy and cost of the tokens your coding-assistant sessions consume.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", config.Path(), "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug diagnostics to stderr")
	rootCmd.PersistentFlags().Float64Var(&flagRate, "rate", config.DefaultElectricityRate, "Electricity rate per kWh (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCurrency, "currency", config.DefaultCurrency, "Currency label (overrides config)")
}

// runtime is the resolved state shared by every command: config file,
// environment and flags layered in that order.
type runtime struct {
	log      *zap.Logger
	cfg      config.Config
	settings config.Settings
	registry *config.Registry
}

func loadRuntime() (*runtime, error) {
	log := logger.New(flagVerbose)

	cfg, err := config.LoadFrom(flagConfig)
	if err != nil {
		return nil, err
	}
	cfg = config.ApplyEnv(cfg, log)

	flags := rootCmd.PersistentFlags()
	if flags.Changed("rate") {
		rate := flagRate
		cfg.ElectricityRate = &rate
	}
	if flags.Changed("currency") {
		cur := flagCurrency
		cfg.Currency = &cur
	}

	rt := &runtime{
		log:      log,
		cfg:      cfg,
		settings: config.Resolve(cfg, log),
		registry: cfg.Registry(log),
	}
	log.Debug("configuration resolved",
		zap.String("path", flagConfig),
		zap.Float64("electricity_rate", rt.settings.ElectricityRate),
		zap.String("currency", rt.settings.Currency),
		zap.Int("profiles", len(rt.registry.Models())),
	)
	return rt, nil
}

func (rt *runtime) close() {
	_ = rt.log.Sync()
}
