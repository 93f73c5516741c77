// Package sseclient consumes a Server-Sent-Events endpoint and fans
// incoming events out to registered listeners by event name. It keeps
// exactly one live connection per client, reconnecting on transient
// failure with a fixed delay.
package sseclient

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultRetryDelay is the fixed pause between reconnect attempts.
const DefaultRetryDelay = 3 * time.Second

// ErrAuthLost is returned by the transport when the server rejects the
// stream credential. The client stops reconnecting until Resume.
var ErrAuthLost = errors.New("sseclient: stream unauthorized")

// Handler receives the raw data payload of one event.
type Handler func(data []byte)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithHeader adds a header to every stream request (e.g. Authorization).
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithRetryDelay overrides the fixed reconnect delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// Client maintains one event-stream connection and a reference-counted
// listener table: the transport is attached when the first subscriber
// for any event registers and detached per event name when its last
// subscriber leaves.
type Client struct {
	url        string
	httpc      *http.Client
	header     http.Header
	retryDelay time.Duration

	mu       sync.Mutex
	subs     map[string]map[int]Handler
	nextID   int
	running  bool
	authLost bool
	closed   bool
	cancel   context.CancelFunc
}

// New creates a client for the given stream URL. No connection is opened
// until the first Subscribe.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpc:      http.DefaultClient,
		header:     make(http.Header),
		retryDelay: DefaultRetryDelay,
		subs:       make(map[string]map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a callback for the named event and returns its
// unsubscribe function. Multiple subscribers for the same name each
// receive every matching event exactly once; the underlying transport is
// shared, never duplicated.
func (c *Client) Subscribe(event string, fn Handler) func() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}

	id := c.nextID
	c.nextID++
	if c.subs[event] == nil {
		c.subs[event] = make(map[int]Handler)
	}
	c.subs[event][id] = fn

	var runCtx context.Context
	if !c.running && !c.authLost {
		runCtx = c.startLocked()
	}
	c.mu.Unlock()

	if runCtx != nil {
		go c.run(runCtx)
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if handlers, ok := c.subs[event]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(c.subs, event)
			}
		}
	}
}

// Resume clears an auth-lost state and reconnects if subscribers remain.
// Call after re-authenticating.
func (c *Client) Resume() {
	c.mu.Lock()
	c.authLost = false
	var runCtx context.Context
	if !c.running && !c.closed && len(c.subs) > 0 {
		runCtx = c.startLocked()
	}
	c.mu.Unlock()

	if runCtx != nil {
		go c.run(runCtx)
	}
}

// Close tears the connection down permanently.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// startLocked marks the client running and installs the cancel func for
// the transport goroutine the caller must launch with the returned
// context. Installing the cancel func under the same lock acquisition
// that flips running means a concurrent Close always finds it.
func (c *Client) startLocked() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	return ctx
}

// run owns the connection lifecycle: consume until the stream fails,
// then schedule exactly one reconnect after the fixed delay. There is no
// exponential growth; the feed is low-volume and the server is expected
// back quickly. Every event name with a live subscriber is automatically
// re-armed after reconnect because dispatch reads the listener table.
func (c *Client) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	for {
		err := c.consume(ctx)

		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrAuthLost) {
			c.mu.Lock()
			c.authLost = true
			c.mu.Unlock()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Client) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrAuthLost
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sseclient: unexpected status %d", resp.StatusCode)
	}

	var eventName string
	var data bytes.Buffer

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if data.Len() > 0 {
				c.dispatch(eventName, data.Bytes())
			}
			eventName = ""
			data.Reset()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // heartbeat / comment
		}
		if value, ok := strings.CutPrefix(line, "event:"); ok {
			eventName = strings.TrimSpace(value)
			continue
		}
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(value, " "))
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("sseclient: stream closed")
}

// dispatch invokes every listener registered for the event name. An
// envelope without an event field arrives as "message"; the reserved
// connected envelope is therefore a no-op unless something subscribed to
// "message" explicitly.
func (c *Client) dispatch(eventName string, data []byte) {
	if eventName == "" {
		eventName = "message"
	}

	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs[eventName]))
	for _, h := range c.subs[eventName] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		payload := make([]byte, len(data))
		copy(payload, data)
		h(payload)
	}
}
