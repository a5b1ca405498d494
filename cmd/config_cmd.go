// Package cmd implements the wattwatch CLI commands.
package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/theirongolddev/wattwatch/internal/cli"
	"github.com/theirongolddev/wattwatch/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	fmt.Printf("  Config file: %s\n", flagConfig)
	if config.Exists(flagConfig) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Estimation]")
	fmt.Printf("    Electricity rate: %s %s/kWh%s\n",
		cli.FormatFixed2(rt.settings.ElectricityRate), rt.settings.Currency,
		envNote(config.EnvElectricityRate))
	fmt.Printf("    Currency:         %s%s\n", rt.settings.Currency, envNote(config.EnvCurrency))
	fmt.Println()

	fmt.Println("  [Appearance]")
	th := rt.cfg.Theme
	if th == "" {
		th = "flexoki-dark (default)"
	}
	fmt.Printf("    Theme: %s\n", th)
	fmt.Println()

	fmt.Println("  [Profiles]")
	if len(rt.cfg.Profiles) == 0 {
		fmt.Println("    No overrides (built-in profiles)")
	} else {
		names := make([]string, 0, len(rt.cfg.Profiles))
		for name := range rt.cfg.Profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := rt.cfg.Profiles[name].Validate(); err != nil {
				fmt.Printf("    %-16s ignored: %v\n", name, err)
				continue
			}
			p, _ := rt.registry.Lookup(name)
			fmt.Printf("    %-16s in %s  out %s  reasoning %s\n", name,
				cli.FormatFixed2(p.Input), cli.FormatFixed2(p.Output), cli.FormatFixed2(p.Reasoning))
		}
	}
	fmt.Println()

	fmt.Println("  Run `wattwatch setup` to reconfigure.")
	return nil
}

func envNote(name string) string {
	if _, ok := os.LookupEnv(name); ok {
		return "  (from $" + name + ")"
	}
	return ""
}
