package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/wattwatch/internal/cli"
	"github.com/theirongolddev/wattwatch/internal/energy"
	"github.com/theirongolddev/wattwatch/internal/model"

	"github.com/spf13/cobra"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate energy and cost for a token count",
	Args:  cobra.NoArgs,
	RunE:  runEstimate,
}

var (
	estModel  string
	estTokens model.TokenCount
)

func init() {
	estimateCmd.Flags().StringVarP(&estModel, "model", "m", "claude-sonnet", "Model id (fuzzy matched)")
	estimateCmd.Flags().Int64VarP(&estTokens.Input, "input", "i", 0, "Input tokens")
	estimateCmd.Flags().Int64VarP(&estTokens.Output, "output", "o", 0, "Output tokens")
	estimateCmd.Flags().Int64VarP(&estTokens.Reasoning, "reasoning", "r", 0, "Reasoning tokens")
	estimateCmd.Flags().Int64Var(&estTokens.CacheRead, "cache-read", 0, "Cache-read tokens")
	estimateCmd.Flags().Int64Var(&estTokens.CacheWrite, "cache-write", 0, "Cache-write tokens")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(_ *cobra.Command, _ []string) error {
	for _, n := range []int64{estTokens.Input, estTokens.Output, estTokens.Reasoning, estTokens.CacheRead, estTokens.CacheWrite} {
		if n < 0 {
			return fmt.Errorf("token counts must be non-negative, got %d", n)
		}
	}

	if estTokens.IsZero() {
		return errors.New("no tokens given: set at least one of --input, --output, --reasoning, --cache-read, --cache-write")
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	matched, ok := rt.registry.Match(estModel)
	if !ok {
		matched = "fallback"
	}
	res := energy.Estimate(rt.registry, estTokens, estModel, rt.settings.ElectricityRate)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ESTIMATE  %s -> %s", estModel, matched)))
	fmt.Println()

	b := res.Breakdown
	total := b.Total()
	classes := []struct {
		name   string
		tokens int64
		wh     float64
	}{
		{"Input", estTokens.Input, b.Input},
		{"Output", estTokens.Output, b.Output},
		{"Reasoning", estTokens.Reasoning, b.Reasoning},
		{"Cache read", estTokens.CacheRead, b.CacheRead},
		{"Cache write", estTokens.CacheWrite, b.CacheWrite},
	}

	rows := make([][]string, 0, len(classes))
	for _, c := range classes {
		share := 0.0
		if total > 0 {
			share = c.wh / total
		}
		rows = append(rows, []string{
			c.name,
			cli.FormatNumber(c.tokens),
			cli.FormatWh(c.wh),
			cli.FormatPercent(share),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Class", "Tokens", "Energy", "Share"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Printf("  %s\n", cli.FormatEnergy(res.EnergyWh, res.Cost, rt.settings.Currency, estTokens.Total()))
	fmt.Printf("  Rate: %s %s/kWh\n", cli.FormatFixed2(rt.settings.ElectricityRate), rt.settings.Currency)
	fmt.Println()

	return nil
}
