package realtime

import (
	"context"
	"time"
)

// Action is the kind of row mutation a ChangeEvent describes.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent is the push signal emitted after a store mutation. Consumers
// treat it as "something in this table changed, re-fetch" rather than as an
// incremental patch, so delivery order does not matter.
type ChangeEvent struct {
	Table  string    `json:"table"`
	Action Action    `json:"action"`
	RowID  string    `json:"row_id,omitempty"`
	UserID string    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher is the write half of the live sync layer. Store mutations call
// it best-effort after commit; a publish failure is logged and never fails
// the primary write.
type Publisher interface {
	PublishChange(ctx context.Context, ev ChangeEvent) error
}

// Broker adds the consume half: a channel of events for one table.
type Broker interface {
	Publisher
	// SubscribeTable returns a channel of events for the table and a stop
	// function tearing the underlying subscription down.
	SubscribeTable(ctx context.Context, table string) (<-chan ChangeEvent, func(), error)
}

// NopPublisher drops every event, used where live sync is not wired.
type NopPublisher struct{}

func (NopPublisher) PublishChange(ctx context.Context, ev ChangeEvent) error {
	return nil
}
