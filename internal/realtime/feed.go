package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"adminhub/internal/redact"
)

// Feed maintains the single admin-scoped subscription to the store's
// change feed and normalizes raw notifications into broadcast events.
type Feed struct {
	store      Store
	out        Publisher
	collection string
	event      string
	retryDelay time.Duration

	mu           sync.Mutex
	initializing bool
	subscribed   bool
	cancel       func()
}

// NewFeed wires the activity-log change feed to the publisher. Nothing is
// subscribed until Start.
func NewFeed(store Store, out Publisher, retryDelay time.Duration) *Feed {
	return &Feed{
		store:      store,
		out:        out,
		collection: ActivityCollection,
		event:      ActivityEvent,
		retryDelay: retryDelay,
	}
}

// Start establishes the subscription if it is not already active. The
// initializing flag guarantees at most one attempt in flight, so
// concurrent first connections cannot create duplicate subscriptions.
// Idempotent; called by the broadcaster on every client connect.
func (f *Feed) Start() {
	f.mu.Lock()
	if f.subscribed || f.initializing {
		f.mu.Unlock()
		return
	}
	f.initializing = true
	f.mu.Unlock()

	go f.run()
}

// run retries the subscription with a fixed delay indefinitely. A store
// that is down at startup must not crash the process; the feed simply
// keeps trying until it comes back.
func (f *Feed) run() {
	for {
		cancel, err := f.store.SubscribeToCollectionChanges(context.Background(), f.collection, f.handle)
		if err == nil {
			f.mu.Lock()
			f.subscribed = true
			f.initializing = false
			f.cancel = cancel
			f.mu.Unlock()
			log.Printf("realtime: subscribed to %s changes", f.collection)
			return
		}
		log.Printf("realtime: subscribe to %s failed, retrying in %s: %v", f.collection, f.retryDelay, err)
		time.Sleep(f.retryDelay)
	}
}

// Stop cancels an established subscription.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.subscribed = false
}

// handle normalizes one raw change notification. Only create events are
// relayed; the live feed is an append-only activity notifier. The record
// is re-fetched with its user expansion because the raw payload may lack
// it; when the re-fetch fails the raw record is broadcast instead —
// partial information beats none for a live activity feed.
func (f *Feed) handle(evt RawEvent) {
	if evt.Action != "create" {
		return
	}

	record := evt.Record
	ctx, cancelFetch := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFetch()

	expanded, err := f.store.GetRecordWithExpansion(ctx, f.collection, evt.RecordID)
	if err != nil {
		log.Printf("realtime: expanding %s record %s failed, broadcasting raw: %v", f.collection, evt.RecordID, err)
	} else {
		record = expanded
	}

	f.out.Broadcast(f.event, redact.Map(record))
}
