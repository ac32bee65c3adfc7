package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Subscription is one holder's live view of change events for a
// (table, filter) scope. Channel and Events are process-unique per holder
// so concurrent views of the same scope never collide.
type Subscription struct {
	Channel    string
	Table      string
	UserFilter string
	Events     chan ChangeEvent
}

// feed is the single broker subscription behind a scope, fanned out to
// every holder. The broker side is stopped when the last holder leaves.
type feed struct {
	table      string
	userFilter string
	stop       func()
	holders    map[*Subscription]struct{}
}

// Manager owns all subscriptions in the process. One logical scope gets at
// most one broker feed; each Subscribe call gets its own delivery channel
// on top of it.
type Manager struct {
	broker Broker
	logger *slog.Logger

	mu    sync.Mutex
	feeds map[string]*feed
}

func NewManager(broker Broker, logger *slog.Logger) *Manager {
	return &Manager{
		broker: broker,
		logger: logger,
		feeds:  make(map[string]*feed),
	}
}

func scopeKey(table, userFilter string) string {
	return table + "|" + userFilter
}

// Subscribe establishes a live feed for a table, optionally filtered to one
// user's rows (events without a user id always pass the filter). A second
// Subscribe for the same scope joins the established broker feed but gets
// its own events channel. If establishment fails there is no automatic
// retry; callers still have the initial fetch as their data source.
func (m *Manager) Subscribe(ctx context.Context, table, userFilter string) (*Subscription, error) {
	key := scopeKey(table, userFilter)
	sub := &Subscription{
		Channel:    fmt.Sprintf("%s-%s", table, uuid.NewString()),
		Table:      table,
		UserFilter: userFilter,
		Events:     make(chan ChangeEvent, 16),
	}

	m.mu.Lock()
	if f, ok := m.feeds[key]; ok {
		f.holders[sub] = struct{}{}
		m.mu.Unlock()
		m.logger.Debug("joining established feed", "table", table, "filter", userFilter)
		return sub, nil
	}
	m.mu.Unlock()

	events, stop, err := m.broker.SubscribeTable(ctx, table)
	if err != nil {
		m.logger.Error("failed to establish subscription", "error", err, "table", table, "filter", userFilter)
		return nil, err
	}

	f := &feed{
		table:      table,
		userFilter: userFilter,
		stop:       stop,
		holders:    map[*Subscription]struct{}{sub: {}},
	}

	m.mu.Lock()
	if existing, ok := m.feeds[key]; ok {
		// Lost the race with a concurrent Subscribe for the same scope.
		existing.holders[sub] = struct{}{}
		m.mu.Unlock()
		stop()
		return sub, nil
	}
	m.feeds[key] = f
	m.mu.Unlock()

	go m.pump(key, f, events)

	m.logger.Info("subscription established", "channel", sub.Channel, "table", table, "filter", userFilter)
	return sub, nil
}

func (m *Manager) pump(key string, f *feed, events <-chan ChangeEvent) {
	for ev := range events {
		if f.userFilter != "" && ev.UserID != "" && ev.UserID != f.userFilter {
			continue
		}
		m.mu.Lock()
		for sub := range f.holders {
			select {
			case sub.Events <- ev:
			default:
				// Slow consumer; the next event re-signals the same re-fetch.
			}
		}
		m.mu.Unlock()
	}

	// Broker side closed the stream. Holders still attached get their
	// channels closed so they notice the feed is gone.
	m.mu.Lock()
	for sub := range f.holders {
		close(sub.Events)
		delete(f.holders, sub)
	}
	if current, ok := m.feeds[key]; ok && current == f {
		delete(m.feeds, key)
	}
	m.mu.Unlock()
}

// Unsubscribe detaches one holder and closes its events channel. The broker
// feed is stopped only when the last holder of the scope leaves. Safe to
// call for an already-removed subscription.
func (m *Manager) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	key := scopeKey(sub.Table, sub.UserFilter)

	m.mu.Lock()
	f, ok := m.feeds[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	if _, held := f.holders[sub]; !held {
		m.mu.Unlock()
		return
	}
	delete(f.holders, sub)
	close(sub.Events)
	last := len(f.holders) == 0
	if last {
		delete(m.feeds, key)
	}
	m.mu.Unlock()

	if last {
		f.stop()
		m.logger.Info("subscription torn down", "channel", sub.Channel, "table", sub.Table)
	}
}

// ActiveCount reports how many broker feeds the manager holds.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds)
}

// Shutdown tears down every feed and holder, used on server stop.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	feeds := make([]*feed, 0, len(m.feeds))
	for _, f := range m.feeds {
		feeds = append(feeds, f)
		for sub := range f.holders {
			close(sub.Events)
			delete(f.holders, sub)
		}
	}
	m.feeds = make(map[string]*feed)
	m.mu.Unlock()

	for _, f := range feeds {
		f.stop()
	}
}
