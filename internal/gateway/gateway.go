package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/parley/internal/types"
)

// Gateway orchestrates inbound messages into turns. It resolves (or creates)
// sessions, wraps each message in a Turn, and enqueues the turn for
// processing.
type Gateway struct {
	sessions     types.SessionStore
	defaultModel string
	Queue        *Queue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Gateway wired to the session store with the given default
// model and concurrency limit for simultaneous turn processing.
func New(sessions types.SessionStore, defaultModel string, maxConcurrent ...int64) *Gateway {
	var concurrency int64 = 2
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	return &Gateway{
		sessions:     sessions,
		defaultModel: defaultModel,
		Queue:        NewQueue(concurrency),
	}
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.Queue.Start(g.ctx)
}

// Stop cancels the gateway context, stops the queue, and waits for any
// outstanding work to finish.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.Queue.Stop()
	g.wg.Wait()
}

// TurnOption configures optional behavior on a Turn.
type TurnOption func(*Turn)

// WithOnComplete sets a callback invoked when the turn produces a final
// response.
func WithOnComplete(fn func(string)) TurnOption {
	return func(t *Turn) { t.OnComplete = fn }
}

// HandleInbound resolves or creates a session for the message, wraps it in a
// Turn, and enqueues it for processing.
func (g *Gateway) HandleInbound(ctx context.Context, inbound *types.InboundTurn, opts ...TurnOption) error {
	sessionID, err := g.sessions.ResolveOrCreate(ctx, inbound.SessionKey, g.defaultModel)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	turn := NewTurn(sessionID, inbound)
	for _, opt := range opts {
		opt(turn)
	}
	return g.Queue.Enqueue(turn)
}
