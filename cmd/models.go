package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/wattwatch/internal/cli"
	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/energy"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models [model-id...]",
	Short: "List energy profiles, or show what model ids resolve to",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if len(args) > 0 {
		return resolveModels(rt, args)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ENERGY PROFILES  Wh per 1M tokens"))
	fmt.Println()

	overridden := make(map[string]bool, len(rt.cfg.Profiles))
	for name := range rt.cfg.Profiles {
		overridden[strings.ToLower(name)] = true
	}

	names := rt.registry.Models()
	rows := make([][]string, 0, len(names)+1)
	for _, name := range names {
		p, _ := rt.registry.Lookup(name)
		source := "default"
		if overridden[name] {
			source = "config"
		}
		rows = append(rows, profileRow(name, p, source))
	}
	rows = append(rows, profileRow("(fallback)", config.FallbackProfile, "default"))

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Input", "Output", "Reasoning", "Cache", "Source"},
		Rows:    rows,
	}))
	return nil
}

func resolveModels(rt *runtime, ids []string) error {
	fmt.Println()
	fmt.Println(cli.RenderTitle("MODEL RESOLUTION"))
	fmt.Println()

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		p, ok := rt.registry.Lookup(id)
		match, _ := rt.registry.Match(id)
		if !ok {
			p = config.FallbackProfile
			match = "(fallback)"
		}
		rows = append(rows, []string{
			id,
			match,
			cli.FormatFixed2(p.Input),
			cli.FormatFixed2(p.Output),
			cli.FormatFixed2(p.Reasoning),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model id", "Profile", "Input", "Output", "Reasoning"},
		Rows:    rows,
	}))
	return nil
}

func profileRow(name string, p config.EnergyProfile, source string) []string {
	return []string{
		name,
		cli.FormatFixed2(p.Input),
		cli.FormatFixed2(p.Output),
		cli.FormatFixed2(p.Reasoning),
		cli.FormatFixed2(p.Input * energy.CacheFactor),
		source,
	}
}
