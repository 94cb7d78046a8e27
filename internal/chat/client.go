// Package chat is the facade presentation layers drive: it owns one
// session's state and wires the sync engine and submitter around it.
package chat

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/notify"
	"github.com/matheus3301/huddle/internal/outbox"
	"github.com/matheus3301/huddle/internal/remote"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/status"
	intsync "github.com/matheus3301/huddle/internal/sync"
	"go.uber.org/zap"
)

// Config wires a Client.
type Config struct {
	Store      remote.Store
	Dispatcher notify.Dispatcher
	Bus        *bus.Bus
	Logger     *zap.Logger
	Metrics    *metrics.Metrics

	Strategy      intsync.Strategy
	NotifyInitial bool
	// SubmitMode is config.SubmitFireAndForget or config.SubmitAwait.
	SubmitMode string

	Clock    quartz.Clock
	Location *time.Location
}

// Client exposes the rendered state and the actions a participant can take.
type Client struct {
	state      *session.State
	engine     *intsync.Engine
	submitter  *outbox.Submitter
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

// New creates a client. Nothing runs until Start.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = notify.NewLog(cfg.Logger, false)
	}
	state := session.NewState()

	var appender outbox.Appender
	if cfg.SubmitMode == config.SubmitAwait {
		appender = outbox.NewAwait(cfg.Store, cfg.Bus, cfg.Logger, cfg.Metrics)
	} else {
		appender = outbox.NewFireAndForget(cfg.Store, cfg.Bus, cfg.Logger, cfg.Metrics)
	}

	return &Client{
		state: state,
		engine: intsync.NewEngine(cfg.Store, state, cfg.Dispatcher, cfg.Bus, cfg.Logger, intsync.Options{
			Strategy:      cfg.Strategy,
			NotifyInitial: cfg.NotifyInitial,
			Metrics:       cfg.Metrics,
		}),
		submitter:  outbox.NewSubmitter(state, appender, cfg.Clock, cfg.Location),
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
	}
}

// Start asks for notification permission once and subscribes to messages.
// A subscription error is returned but leaves the client usable: messages
// can still be submitted, the list just stays empty.
func (c *Client) Start(ctx context.Context) error {
	perm := notify.EnsurePermission(ctx, c.dispatcher, c.logger)
	c.logger.Info("notification permission", zap.String("permission", string(perm)))
	return c.engine.Start(ctx)
}

// Close stops syncing and waits for pending submissions. It is idempotent.
func (c *Client) Close() {
	c.engine.Stop()
	c.submitter.Close()
}

// Messages returns the current ordered message list.
func (c *Client) Messages() []remote.Message { return c.state.Messages() }

// Draft returns the text being composed.
func (c *Client) Draft() string { return c.state.Draft() }

// Username returns the participant's name, empty until set.
func (c *Client) Username() string { return c.state.Username() }

// UsernameSet reports whether the username gate has been passed.
func (c *Client) UsernameSet() bool { return c.state.UsernameSet() }

// SetUsername sets the participant's name once. Blank names are rejected.
func (c *Client) SetUsername(name string) bool { return c.state.SetUsername(name) }

// SetDraftText replaces the text being composed.
func (c *Client) SetDraftText(text string) { c.state.SetDraft(text) }

// Submit sends the draft.
func (c *Client) Submit(ctx context.Context) error { return c.submitter.Submit(ctx) }

// OnChange registers fn for state changes and returns its remover.
func (c *Client) OnChange(fn func(session.Change)) func() { return c.state.OnChange(fn) }

// SyncState returns the live subscription state.
func (c *Client) SyncState() status.State { return c.engine.State() }
