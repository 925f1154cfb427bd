// Package eventstore persists webhook deliveries and the last known state of
// tasks. Event inserts are idempotent on the event ID, which gives webhookd
// its duplicate-delivery defence; the tasks table drives the reconciler.
package eventstore

import (
	"context"
	"fmt"

	humanrail "github.com/prime001/humanrail-sdk"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store records webhook events and task snapshots.
type Store interface {
	// InsertEvent records a delivery. It returns false when an event with
	// the same ID was already recorded, without error.
	InsertEvent(ctx context.Context, ev *humanrail.WebhookEvent, payload []byte) (bool, error)

	// UpsertTask stores the latest known snapshot of a task.
	UpsertTask(ctx context.Context, t *humanrail.Task) error

	// ListNonTerminal returns IDs of tasks whose last known status is not
	// terminal, oldest update first, capped at limit.
	ListNonTerminal(ctx context.Context, limit int) ([]string, error)

	// DeleteTask removes a task no longer known to the API.
	DeleteTask(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error
}

// Open creates a Store for the given driver, applying migrations.
func Open(ctx context.Context, driver, path, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, path)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
