package realtime

import "context"

// Collection and event names for the live activity feed.
const (
	ActivityCollection = "activity_logs"
	ActivityEvent      = "activity_log"
)

// RawEvent is a change notification as delivered by the store, before
// normalization. Record may be partial: subscription payloads are not
// guaranteed to carry related-entity expansions.
type RawEvent struct {
	Collection string
	Action     string // "create", "update" or "delete"
	RecordID   string
	Record     map[string]interface{}
}

// ChangeHandler receives raw change notifications.
type ChangeHandler func(RawEvent)

// Store is the slice of the document store's API the feed depends on.
// The subscription runs with service-level credentials held by the feed
// alone; end-user sessions never observe the raw change stream.
type Store interface {
	// SubscribeToCollectionChanges registers the handler for every change
	// committed to the collection, returning a cancel function.
	SubscribeToCollectionChanges(ctx context.Context, collection string, handler ChangeHandler) (func(), error)

	// GetRecordWithExpansion re-fetches a full record including its
	// related-entity expansion (the acting user's name and avatar).
	GetRecordWithExpansion(ctx context.Context, collection, id string) (map[string]interface{}, error)
}

// Publisher is where normalized events are pushed. Satisfied by
// *Broadcaster; kept as an interface so the feed is testable without one.
type Publisher interface {
	Broadcast(event string, payload interface{})
}
