package persistence

import "context"

// EventStore durably keeps the whole list of event definitions. Save
// replaces the stored list; Load returns it in saved order.
type EventStore interface {
	Load(ctx context.Context) ([]EventRecord, error)
	Save(ctx context.Context, records []EventRecord) error
}
