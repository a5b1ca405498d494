// Package tui provides the live Bubble Tea view of daemon notifications.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/wattwatch/internal/cli"
	"github.com/theirongolddev/wattwatch/internal/daemon"
	"github.com/theirongolddev/wattwatch/internal/tui/components"
	"github.com/theirongolddev/wattwatch/internal/tui/theme"
)

const (
	maxNotices     = 50
	reconnectDelay = 2 * time.Second
	statusInterval = 5 * time.Second

	defaultWidth = 80
	maxWidth     = 120
)

// NoticeMsg carries one streamed notification.
type NoticeMsg struct {
	Notice daemon.Notification
}

// ConnectedMsg is sent once the stream subscription is open.
type ConnectedMsg struct{}

// StreamClosedMsg is sent when the stream ends.
type StreamClosedMsg struct {
	Err error
}

// StatusMsg carries a daemon status poll result.
type StatusMsg struct {
	Status daemon.Status
	At     time.Time
	Err    error
}

type reconnectMsg struct{}

type statusTickMsg struct{}

// Source is the daemon API the view reads; *daemon.Client implements it.
type Source interface {
	Stream(ctx context.Context, onOpen func(), fn func(daemon.Notification)) error
	Status(ctx context.Context) (daemon.Status, error)
}

// Watch is the root Bubble Tea model for `wattwatch watch`.
type Watch struct {
	ctx    context.Context
	client Source
	addr   string
	theme  theme.Theme

	sub       chan tea.Msg
	spinner   spinner.Model
	connected bool
	lastErr   error
	notices   []daemon.Notification

	status   *daemon.Status
	statusAt time.Time

	width int
}

// NewWatch creates the live view for the daemon at addr.
func NewWatch(ctx context.Context, client Source, addr string, t theme.Theme) Watch {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(t.Accent)

	return Watch{
		ctx:     ctx,
		client:  client,
		addr:    addr,
		theme:   t,
		sub:     make(chan tea.Msg, 16),
		spinner: sp,
	}
}

// Init implements tea.Model.
func (w Watch) Init() tea.Cmd {
	return tea.Batch(
		w.spinner.Tick,
		streamCmd(w.ctx, w.client, w.sub),
		waitForMsg(w.sub),
		statusCmd(w.ctx, w.client),
	)
}

// Update implements tea.Model.
func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return w, tea.Quit
		case "c":
			w.notices = nil
		}
		return w, nil

	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd

	case ConnectedMsg:
		w.connected = true
		w.lastErr = nil
		return w, waitForMsg(w.sub)

	case NoticeMsg:
		w.notices = append(w.notices, msg.Notice)
		if len(w.notices) > maxNotices {
			w.notices = w.notices[len(w.notices)-maxNotices:]
		}
		return w, waitForMsg(w.sub)

	case StreamClosedMsg:
		w.connected = false
		w.lastErr = msg.Err
		return w, tea.Tick(reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return w, tea.Batch(streamCmd(w.ctx, w.client, w.sub), waitForMsg(w.sub))

	case StatusMsg:
		if msg.Err == nil {
			st := msg.Status
			w.status = &st
			w.statusAt = msg.At
		}
		return w, tea.Tick(statusInterval, func(time.Time) tea.Msg { return statusTickMsg{} })

	case statusTickMsg:
		return w, statusCmd(w.ctx, w.client)
	}

	return w, nil
}

// View implements tea.Model.
func (w Watch) View() string {
	t := w.theme
	title := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	energy := lipgloss.NewStyle().Foreground(t.Green)

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(title.Render("wattwatch"))
	b.WriteString(muted.Render("  " + w.addr))
	b.WriteString("\n  ")
	b.WriteString(w.connectionLine())
	b.WriteString("\n\n")

	if w.status != nil {
		b.WriteString(indent(components.MetricCardRow(t, w.metrics(), w.contentWidth()), "  "))
		b.WriteString("\n\n")
	}

	cardWidth := w.contentWidth()
	inner := components.CardInnerWidth(cardWidth)
	// time (8) + id (12) + two separators
	msgWidth := inner - 22

	var body strings.Builder
	if len(w.notices) == 0 {
		body.WriteString(dim.Render("Waiting for idle sessions..."))
	}
	for i := len(w.notices) - 1; i >= 0; i-- {
		n := w.notices[i]
		if i != len(w.notices)-1 {
			body.WriteString("\n")
		}
		body.WriteString(dim.Render(n.Timestamp.Local().Format("15:04:05")))
		body.WriteString(" ")
		body.WriteString(muted.Width(12).Render(cli.Truncate(n.SessionID, 12)))
		body.WriteString(" ")
		body.WriteString(energy.Render(cli.Truncate(n.Message, msgWidth)))
	}
	cardTitle := fmt.Sprintf("Idle sessions (%d)", len(w.notices))
	b.WriteString(indent(components.ContentCard(t, cardTitle, body.String(), cardWidth), "  "))
	b.WriteString("\n")

	info := ""
	if !w.statusAt.IsZero() {
		info = "updated " + w.statusAt.Local().Format("15:04:05")
	}
	b.WriteString("\n")
	b.WriteString(components.RenderStatusBar(t, w.contentWidth()+2, info))
	b.WriteString("\n")
	return b.String()
}

func (w Watch) contentWidth() int {
	cw := w.width - 4
	if w.width == 0 {
		cw = defaultWidth
	}
	if cw > maxWidth {
		cw = maxWidth
	}
	if cw < 40 {
		cw = 40
	}
	return cw
}

func (w Watch) metrics() []components.Metric {
	st := w.status
	return []components.Metric{
		{Label: "Sessions", Value: cli.FormatNumber(int64(st.Sessions))},
		{Label: "Events", Value: cli.FormatNumber(st.EventsHandled)},
		{Label: "Notifications", Value: cli.FormatNumber(st.NotificationCount),
			Delta: fmt.Sprintf("%d buffered", st.Buffered)},
		{Label: "Rate", Value: cli.FormatFixed2(st.ElectricityRate) + " " + st.Currency,
			Delta: "per kWh"},
	}
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func (w Watch) connectionLine() string {
	t := w.theme
	switch {
	case w.connected:
		return lipgloss.NewStyle().Foreground(t.Green).Render("● connected")
	case w.lastErr != nil:
		return lipgloss.NewStyle().Foreground(t.Orange).Render(
			fmt.Sprintf("%s reconnecting (%v)", w.spinner.View(), w.lastErr))
	default:
		return lipgloss.NewStyle().Foreground(t.TextMuted).Render(w.spinner.View() + " connecting")
	}
}

// streamCmd runs the subscription in a goroutine, forwarding notifications
// through sub. Sends are non-blocking past the buffer so a stalled UI
// can't wedge the reader.
func streamCmd(ctx context.Context, c Source, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			err := c.Stream(ctx,
				func() { sub <- ConnectedMsg{} },
				func(n daemon.Notification) {
					select {
					case sub <- NoticeMsg{Notice: n}:
					default:
					}
				},
			)
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				err = errors.New("stream closed")
			}
			sub <- StreamClosedMsg{Err: err}
		}()
		return nil
	}
}

// waitForMsg blocks until the next message arrives from the stream goroutine.
func waitForMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// statusCmd fetches one status snapshot.
func statusCmd(ctx context.Context, c Source) tea.Cmd {
	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		st, err := c.Status(reqCtx)
		return StatusMsg{Status: st, At: time.Now(), Err: err}
	}
}
