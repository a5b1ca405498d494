package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/wattwatch/internal/cli"
	"github.com/theirongolddev/wattwatch/internal/config"
	"github.com/theirongolddev/wattwatch/internal/energy"
	"github.com/theirongolddev/wattwatch/internal/logger"
	"github.com/theirongolddev/wattwatch/internal/model"
)

// ErrUnknownEvent is returned by Handle for event types it doesn't know.
var ErrUnknownEvent = errors.New("unknown event type")

// Notifier delivers a formatted summary to the host's notification surface.
type Notifier interface {
	Notify(ctx context.Context, sessionID, message string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, sessionID, message string) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, sessionID, message string) error {
	return f(ctx, sessionID, message)
}

// Controller maps host lifecycle events onto the session store.
// It is not safe for concurrent use; callers deliver events one at a time.
type Controller struct {
	store    *Store
	resolver energy.Resolver
	settings config.Settings
	notifier Notifier
	log      *zap.Logger
}

// NewController wires a controller. store and notifier must be non-nil.
func NewController(store *Store, r energy.Resolver, settings config.Settings, n Notifier, log *zap.Logger) *Controller {
	return &Controller{
		store:    store,
		resolver: r,
		settings: settings,
		notifier: n,
		log:      logger.OrNop(log),
	}
}

// Settings returns the resolved settings the controller estimates with.
func (c *Controller) Settings() config.Settings {
	return c.settings
}

// Store returns the controller's session table.
func (c *Controller) Store() *Store {
	return c.store
}

// SessionCreated starts tracking id with zeroed stats.
func (c *Controller) SessionCreated(id string) {
	c.store.Create(id)
	c.log.Debug("session created", zap.String("session", id))
}

// MessageUpdated folds an assistant message's tokens into its session and
// reports whether anything changed. Non-assistant messages, unknown
// sessions and messages without a token payload are ignored.
func (c *Controller) MessageUpdated(sessionID string, msg model.Message) bool {
	if msg.Role != model.RoleAssistant {
		return false
	}
	st, ok := c.store.Get(sessionID)
	if !ok {
		return false
	}
	if msg.Tokens == nil {
		return false
	}

	Accumulate(st, msg.Tokens.Count(), msg.ModelID, c.resolver, c.settings.ElectricityRate, c.store.now())

	c.log.Debug("session updated",
		zap.String("session", sessionID),
		zap.String("model", st.ModelID),
		zap.Int64("tokens", st.Tokens.Total()),
		zap.Float64("energy_wh", st.EnergyWh),
	)
	return true
}

// Summary returns the notification text for id, or false when there is
// nothing to report: no entry, or zero estimated energy.
func (c *Controller) Summary(id string) (string, bool) {
	st, ok := c.store.Get(id)
	if !ok || st.EnergyWh == 0 {
		return "", false
	}
	return cli.FormatEnergy(st.EnergyWh, st.Cost, c.settings.Currency, st.Tokens.Total()), true
}

// SessionIdle sends the session summary to the notifier, at most once
// per call. Zero-energy and unknown sessions produce no notification.
func (c *Controller) SessionIdle(ctx context.Context, id string) error {
	msg, ok := c.Summary(id)
	if !ok {
		return nil
	}
	if err := c.notifier.Notify(ctx, id, msg); err != nil {
		return fmt.Errorf("notify session %s: %w", id, err)
	}
	return nil
}

// Evict drops id's entry. Hosts call it when a session is deleted.
func (c *Controller) Evict(id string) bool {
	return c.store.Remove(id)
}

// PruneIdle evicts sessions with no activity within maxAge.
func (c *Controller) PruneIdle(maxAge time.Duration) int {
	n := c.store.PruneIdle(c.store.now().Add(-maxAge))
	if n > 0 {
		c.log.Debug("pruned idle sessions", zap.Int("count", n))
	}
	return n
}

// Handle dispatches a decoded host event.
func (c *Controller) Handle(ctx context.Context, ev model.Event) error {
	switch ev.Type {
	case model.EventSessionCreated:
		c.SessionCreated(ev.Session.ID)
	case model.EventMessageUpdated:
		if ev.Message != nil {
			c.MessageUpdated(ev.Session.ID, *ev.Message)
		}
	case model.EventSessionIdle:
		return c.SessionIdle(ctx, ev.Session.ID)
	case model.EventSessionDeleted:
		c.Evict(ev.Session.ID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}
