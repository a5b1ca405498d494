package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/wattwatch/internal/cli"
	"github.com/theirongolddev/wattwatch/internal/daemon"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions tracked by the running daemon",
	RunE:  runSessions,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	sessionsCmd.Flags().StringVar(&flagDaemonAddr, "addr", daemon.DefaultAddr, "Daemon address")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	addr := daemonAddr(cmd)
	client := daemon.NewClient(addr)
	st, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("daemon at %s: %w", addr, err)
	}
	sessions, err := client.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("daemon at %s: %w", addr, err)
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No active sessions.")
		return nil
	}

	// Most recent first
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	total := len(sessions)
	if sessionsLimit > 0 && len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  %d active (showing %d)", total, len(sessions))))
	fmt.Println()

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		startStr := ""
		if !s.StartedAt.IsZero() {
			startStr = s.StartedAt.Local().Format("Jan 02 15:04")
		}
		modelID := s.ModelID
		if modelID == "" {
			modelID = "-"
		}

		rows = append(rows, []string{
			startStr,
			cli.Truncate(s.SessionID, 14),
			cli.Truncate(modelID, 24),
			cli.FormatTokens(s.Tokens.Total()),
			cli.FormatWh(s.EnergyWh),
			cli.FormatCost(s.Cost, st.Currency),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Start", "Session", "Model", "Tokens", "Energy", "Cost"},
		Rows:    rows,
	}))

	return nil
}
