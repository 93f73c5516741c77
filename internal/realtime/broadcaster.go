package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gin-contrib/sse"

	"adminhub/internal/obs"
)

// Format selects the wire framing for a connected client.
type Format int

const (
	// FormatSSE frames messages as text/event-stream records.
	FormatSSE Format = iota
	// FormatWS frames messages as JSON {"event":..., "data":...} objects.
	FormatWS
)

// heartbeat comment line written to SSE streams to defeat idle-connection
// timeouts in intermediary proxies.
var heartbeatFrame = []byte(":heartbeat\n\n")

// Client represents a single connected stream. Lives only in server
// memory; created on connect, removed on disconnect or write error.
type Client struct {
	ID     string
	Format Format
	send   chan []byte
}

// Messages returns the channel the connection handler drains. It is
// closed when the client is deregistered.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Source is the upstream change subscription the broadcaster activates
// lazily: the first connecting client pays the setup cost, none pay it
// twice. Satisfied by *Feed.
type Source interface {
	Start()
}

// Broadcaster maintains the set of connected client streams and
// multiplexes events to every one of them. Constructed once at process
// start and passed by reference to the handlers that accept connections.
//
// All registry mutation happens inside Run's loop, so no client
// bookkeeping needs locking. Delivery is best-effort, at-most-once,
// live-only: a client that connects after an event was broadcast never
// receives it.
type Broadcaster struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan frames
	clients    map[*Client]struct{}
	heartbeat  time.Duration
	source     Source
}

// frames carries the same event pre-encoded per client format, so
// Broadcast serializes once regardless of how many clients are connected.
type frames struct {
	sse []byte
	ws  []byte
}

// NewBroadcaster initializes an empty broadcaster. Call Run to start the
// dispatch loop.
func NewBroadcaster(heartbeat time.Duration) *Broadcaster {
	return &Broadcaster{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan frames, 64),
		clients:    make(map[*Client]struct{}),
		heartbeat:  heartbeat,
	}
}

// AttachSource wires the upstream subscription started on first connect.
func (b *Broadcaster) AttachSource(s Source) {
	b.source = s
}

// AddClient registers a new stream and returns the client whose Messages
// channel the caller must drain. The first message is always the
// synthetic connected envelope, so the consumer can distinguish "stream
// open" from "stream open and healthy".
func (b *Broadcaster) AddClient(id string, format Format) *Client {
	if b.source != nil {
		b.source.Start()
	}
	client := &Client{ID: id, Format: format, send: make(chan []byte, 256)}
	b.register <- client
	return client
}

// RemoveClient deregisters the stream; no further writes are attempted.
// Safe to call for a client the dispatch loop already dropped.
func (b *Broadcaster) RemoveClient(c *Client) {
	b.unregister <- c
}

// Broadcast serializes the event once per format and queues it for
// delivery to every connected client.
func (b *Broadcaster) Broadcast(event string, payload interface{}) {
	f, err := encodeFrames(event, payload)
	if err != nil {
		log.Printf("realtime: dropping unencodable %q event: %v", event, err)
		return
	}
	b.broadcast <- f
}

// Run starts the dispatch loop. It owns the client registry; every
// mutation happens here, one at a time.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for client := range b.clients {
				close(client.send)
				delete(b.clients, client)
			}
			obs.StreamClients.Set(0)
			return

		case client := <-b.register:
			b.clients[client] = struct{}{}
			obs.StreamClients.Inc()
			b.deliver(client, connectedFrame(client.Format))
			log.Printf("realtime: client %s connected (%d total)", client.ID, len(b.clients))

		case client := <-b.unregister:
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.send)
				obs.StreamClients.Dec()
				log.Printf("realtime: client %s disconnected (%d total)", client.ID, len(b.clients))
			}

		case f := <-b.broadcast:
			obs.StreamEventsTotal.Inc()
			for client := range b.clients {
				b.deliver(client, f.forFormat(client.Format))
			}

		case <-ticker.C:
			for client := range b.clients {
				if client.Format == FormatSSE {
					b.deliver(client, heartbeatFrame)
				}
			}
		}
	}
}

// deliver writes to one client without blocking the loop: a client whose
// buffer is full is considered gone and dropped, so one slow stream never
// stalls delivery to the others.
func (b *Broadcaster) deliver(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		delete(b.clients, client)
		close(client.send)
		obs.StreamClients.Dec()
		log.Printf("realtime: dropping slow client %s", client.ID)
	}
}

func (f frames) forFormat(format Format) []byte {
	if format == FormatWS {
		return f.ws
	}
	return f.sse
}

func encodeFrames(event string, payload interface{}) (frames, error) {
	var buf bytes.Buffer
	if err := sse.Encode(&buf, sse.Event{Event: event, Data: payload}); err != nil {
		return frames{}, err
	}

	ws, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		return frames{}, err
	}

	return frames{sse: buf.Bytes(), ws: ws}, nil
}

// connectedFrame builds the reserved envelope sent once per connection.
// For SSE it carries no explicit event field, so clients receive it as a
// generic message and treat it as a no-op signal, not a domain event.
func connectedFrame(format Format) []byte {
	envelope := map[string]interface{}{
		"type":      "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if format == FormatWS {
		raw, _ := json.Marshal(envelope)
		return raw
	}
	var buf bytes.Buffer
	_ = sse.Encode(&buf, sse.Event{Data: envelope})
	return buf.Bytes()
}
