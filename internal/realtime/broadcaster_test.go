package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func startBroadcaster(t *testing.T, heartbeat time.Duration) *Broadcaster {
	t.Helper()
	b := NewBroadcaster(heartbeat)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)
	return b
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Messages():
		if !ok {
			t.Fatal("message channel closed unexpectedly")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return nil
}

func TestBroadcasterConnectedEnvelope(t *testing.T) {
	b := startBroadcaster(t, time.Hour)

	client := b.AddClient("c1", FormatSSE)
	defer b.RemoveClient(client)

	frame := string(receive(t, client))
	if !strings.Contains(frame, `"type":"connected"`) {
		t.Fatalf("first frame is not the connected envelope: %q", frame)
	}
	if !strings.Contains(frame, `"timestamp"`) {
		t.Fatalf("connected envelope has no timestamp: %q", frame)
	}
	// No event name: clients that only listen for named events must be
	// able to ignore it.
	if strings.Contains(frame, "event:") {
		t.Fatalf("connected envelope must not carry an event field: %q", frame)
	}
}

func TestBroadcasterFanOutBothFormats(t *testing.T) {
	b := startBroadcaster(t, time.Hour)

	sseClient := b.AddClient("sse", FormatSSE)
	wsClient := b.AddClient("ws", FormatWS)
	defer b.RemoveClient(sseClient)
	defer b.RemoveClient(wsClient)
	receive(t, sseClient) // connected
	receive(t, wsClient)

	b.Broadcast(ActivityEvent, map[string]interface{}{"action": "create_user"})

	sseFrame := string(receive(t, sseClient))
	if !strings.Contains(sseFrame, "event:activity_log") {
		t.Fatalf("SSE frame missing event name: %q", sseFrame)
	}
	if !strings.Contains(sseFrame, "create_user") {
		t.Fatalf("SSE frame missing payload: %q", sseFrame)
	}

	var envelope struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(receive(t, wsClient), &envelope); err != nil {
		t.Fatalf("WS frame is not JSON: %v", err)
	}
	if envelope.Event != ActivityEvent || envelope.Data["action"] != "create_user" {
		t.Fatalf("unexpected WS envelope: %+v", envelope)
	}
}

// A client that never drains its buffer is dropped; the healthy client
// keeps receiving every event.
func TestBroadcasterSlowClientIsolated(t *testing.T) {
	b := startBroadcaster(t, time.Hour)

	slow := b.AddClient("slow", FormatSSE)
	healthy := b.AddClient("healthy", FormatSSE)
	defer b.RemoveClient(healthy)

	var wg sync.WaitGroup
	wg.Add(1)
	received := 0
	go func() {
		defer wg.Done()
		for range healthy.Messages() {
			received++
			if received == 301 { // connected + 300 events
				return
			}
		}
	}()

	for i := 0; i < 300; i++ {
		b.Broadcast(ActivityEvent, map[string]interface{}{"seq": i})
	}
	wg.Wait()

	// The slow client's channel must be closed by the dispatch loop once
	// its buffer overflowed.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-slow.Messages():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("slow client was never dropped")
		}
	}
}

func TestBroadcasterHeartbeatSSEOnly(t *testing.T) {
	b := startBroadcaster(t, 10*time.Millisecond)

	sseClient := b.AddClient("sse", FormatSSE)
	wsClient := b.AddClient("ws", FormatWS)
	defer b.RemoveClient(sseClient)
	defer b.RemoveClient(wsClient)
	receive(t, sseClient)
	receive(t, wsClient)

	if frame := string(receive(t, sseClient)); !strings.HasPrefix(frame, ":heartbeat") {
		t.Fatalf("expected heartbeat comment, got %q", frame)
	}

	select {
	case msg := <-wsClient.Messages():
		t.Fatalf("WS client must not receive heartbeats, got %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSource) Start() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func TestBroadcasterStartsSourceOnConnect(t *testing.T) {
	b := startBroadcaster(t, time.Hour)
	src := &countingSource{}
	b.AttachSource(src)

	c1 := b.AddClient("c1", FormatSSE)
	c2 := b.AddClient("c2", FormatSSE)
	defer b.RemoveClient(c1)
	defer b.RemoveClient(c2)

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls != 2 {
		t.Fatalf("Start must run on every connect (idempotence lives in the source), got %d calls", src.calls)
	}
}

func TestBroadcasterRemoveClientTwice(t *testing.T) {
	b := startBroadcaster(t, time.Hour)

	client := b.AddClient("c1", FormatSSE)
	receive(t, client)

	b.RemoveClient(client)
	b.RemoveClient(client) // already gone, must not panic or block

	if _, ok := <-client.Messages(); ok {
		t.Fatal("channel must be closed after removal")
	}
}
