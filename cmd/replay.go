package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/wattwatch/internal/cli"
	"github.com/theirongolddev/wattwatch/internal/daemon"
	"github.com/theirongolddev/wattwatch/internal/model"
	"github.com/theirongolddev/wattwatch/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replayCmd = &cobra.Command{
	Use:   "replay [events.jsonl]",
	Short: "Replay a host event log and print idle-session summaries",
	Long: "Replay newline-delimited host events (from a file, or stdin when no file or \"-\" is given) " +
		"through a local session controller, or forward them to a running daemon with --send.",
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

var (
	flagReplaySend  bool
	flagReplayFlush bool
)

func init() {
	replayCmd.Flags().BoolVar(&flagReplaySend, "send", false, "Forward events to the running daemon instead of replaying locally")
	replayCmd.Flags().BoolVar(&flagReplayFlush, "flush", false, "Treat every session still open at end of input as idle")
	replayCmd.Flags().StringVar(&flagDaemonAddr, "addr", daemon.DefaultAddr, "Daemon address for --send")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	in, closeIn, err := openReplayInput(args)
	if err != nil {
		return err
	}
	defer closeIn()

	if flagReplaySend {
		return sendReplay(cmd.Context(), daemonAddr(cmd), in)
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	notices := 0
	notifier := session.NotifierFunc(func(_ context.Context, sessionID, message string) error {
		notices++
		fmt.Println(cli.RenderNotice(sessionID, message))
		return nil
	})
	ctrl := session.NewController(session.NewStore(), rt.registry, rt.settings, notifier, rt.log)

	ctx := cmd.Context()
	events := 0
	err = model.ReadEvents(in, func(ev model.Event) error {
		events++
		if err := ctrl.Handle(ctx, ev); err != nil {
			// Unknown event types are skipped the way a host would ignore them.
			rt.log.Warn("skipping event", zap.Int("event", events), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	if flagReplayFlush {
		for _, st := range ctrl.Store().Snapshot() {
			if err := ctrl.SessionIdle(ctx, st.SessionID); err != nil {
				return err
			}
		}
	}

	fmt.Println()
	fmt.Printf("  Replayed %s events, %d notifications, %d sessions open\n",
		cli.FormatNumber(int64(events)), notices, ctrl.Store().Len())
	return nil
}

func sendReplay(ctx context.Context, addr string, in io.Reader) error {
	var events []model.Event
	if err := model.ReadEvents(in, func(ev model.Event) error {
		events = append(events, ev)
		return nil
	}); err != nil {
		return err
	}

	n, err := daemon.NewClient(addr).Send(ctx, events...)
	if err != nil {
		return fmt.Errorf("daemon at %s accepted %d of %d events: %w", addr, n, len(events), err)
	}
	fmt.Printf("  Sent %s events to http://%s\n", cli.FormatNumber(int64(n)), addr)
	return nil
}

func openReplayInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0]) //nolint:gosec // path is chosen by the local user
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
