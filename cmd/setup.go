package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues holds the form fields as entered.
type setupValues struct {
	rate     string
	currency string
	theme    string
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults; env and flags are not persisted.
	cfg, err := config.LoadFrom(flagConfig)
	if err != nil {
		return err
	}

	vals := setupValues{
		rate:     formatRate(config.DefaultElectricityRate),
		currency: config.DefaultCurrency,
		theme:    theme.FlexokiDark.Name,
	}
	if cfg.ElectricityRate != nil {
		vals.rate = formatRate(*cfg.ElectricityRate)
	}
	if cfg.Currency != nil {
		vals.currency = *cfg.Currency
	}
	if cfg.Theme != "" {
		vals.theme = cfg.Theme
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to wattwatch!").
				Description("Energy estimates are converted to cost with your electricity rate."),
			huh.NewInput().
				Title("Electricity rate (per kWh)").
				Value(&vals.rate).
				Validate(validateRate),
			huh.NewInput().
				Title("Currency label").
				Description("Shown after cost figures, e.g. EUR or USD.").
				Value(&vals.currency).
				Validate(validateCurrency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&vals.theme),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, config unchanged.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg = vals.apply(cfg)
	if err := config.Save(flagConfig, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", flagConfig)
	fmt.Println("  Run `wattwatch setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

// apply copies validated form values onto cfg, keeping profile overrides.
func (v setupValues) apply(cfg config.Config) config.Config {
	if rate, err := parseRate(v.rate); err == nil {
		cfg.ElectricityRate = &rate
	}
	cur := strings.TrimSpace(v.currency)
	if cur != "" {
		cfg.Currency = &cur
	}
	cfg.Theme = v.theme
	return cfg
}

func parseRate(s string) (float64, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if rate <= 0 || math.IsInf(rate, 1) {
		return 0, errors.New("must be positive")
	}
	return rate, nil
}

func validateRate(s string) error {
	_, err := parseRate(s)
	return err
}

func validateCurrency(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func formatRate(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
