package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/wattwatch/internal/daemon"
	"github.com/theirongolddev/wattwatch/internal/tui"
	"github.com/theirongolddev/wattwatch/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagWatchTheme string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of idle-session summaries from the daemon",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagDaemonAddr, "addr", daemon.DefaultAddr, "Daemon address")
	watchCmd.Flags().StringVar(&flagWatchTheme, "theme", "", "Color theme (overrides config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	name := rt.cfg.Theme
	if flagWatchTheme != "" {
		name = flagWatchTheme
	}

	// Force TrueColor profile so all styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	addr := daemonAddr(cmd)
	w := tui.NewWatch(ctx, daemon.NewClient(addr), addr, theme.ByName(name))
	p := tea.NewProgram(w, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
