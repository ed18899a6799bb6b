// Package bridge connects the service to an agent running inside the watch
// page. The agent long-polls for requests, answers them by correlation id and
// pushes the caption responses it observes on the page's network.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// DefaultTimeout bounds one request/response round trip.
const DefaultTimeout = 10 * time.Second

var (
	ErrClosed         = errors.New("bridge closed")
	ErrTimeout        = errors.New("bridge: page agent did not answer")
	ErrUnknownRequest = errors.New("bridge: unknown request id")
)

// Message is a request handed to the page agent.
type Message struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the agent's answer to a Message.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// AgentError is an error reported by the page agent.
type AgentError struct {
	Kind string
	Msg  string
}

func (e *AgentError) Error() string { return fmt.Sprintf("page agent %s: %s", e.Kind, e.Msg) }

// Channel is a request/response channel keyed by correlation id.
type Channel struct {
	timeout time.Duration
	queue   chan *Message
	done    chan struct{}

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
}

// NewChannel creates a Channel; timeout <= 0 uses DefaultTimeout.
func NewChannel(timeout time.Duration) *Channel {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Channel{
		timeout: timeout,
		queue:   make(chan *Message, 64),
		done:    make(chan struct{}),
		pending: make(map[string]chan Response),
	}
}

// Request sends kind with payload to the agent and waits for its result.
func (c *Channel) Request(ctx context.Context, kind string, payload any) (json.RawMessage, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("bridge: encode %s: %w", kind, err)
		}
		raw = b
	}
	msg := &Message{ID: uuid.NewString(), Kind: kind, Payload: raw}
	reply := make(chan Response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[msg.ID] = reply
	c.mu.Unlock()
	defer c.forget(msg.ID)
	engine.IncrBridgeRequests()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case c.queue <- msg:
	case <-timer.C:
		engine.IncrBridgeTimeouts()
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}

	select {
	case resp := <-reply:
		if resp.Error != "" {
			return nil, &AgentError{Kind: kind, Msg: resp.Error}
		}
		return resp.Result, nil
	case <-timer.C:
		engine.IncrBridgeTimeouts()
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

func (c *Channel) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Channel) isPending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

// Poll returns the next request still awaiting an answer. Requests whose
// caller already gave up are skipped.
func (c *Channel) Poll(ctx context.Context) (*Message, error) {
	for {
		select {
		case msg := <-c.queue:
			if c.isPending(msg.ID) {
				return msg, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			return nil, ErrClosed
		}
	}
}

// Respond completes the request with resp.ID.
func (c *Channel) Respond(resp Response) error {
	c.mu.Lock()
	reply, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.mu.Unlock()
	if !ok {
		return ErrUnknownRequest
	}
	reply <- resp
	return nil
}

// Pending returns the number of requests awaiting an answer.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close fails every pending and future request with ErrClosed.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}
