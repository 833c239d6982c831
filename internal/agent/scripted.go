package agent

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by ScriptedTransport when no reply is left.
var ErrScriptExhausted = errors.New("scripted transport: no replies left")

// Reply is one scripted transport result.
type Reply struct {
	Content string
	Err     error
}

// ScriptedTransport replays queued replies in order, then falls back to
// Func. It records every request it receives.
type ScriptedTransport struct {
	mu       sync.Mutex
	replies  []Reply
	requests []Request

	// Func produces replies once the queue is empty. n is the zero-based
	// call index.
	Func func(ctx context.Context, req Request, n int) (string, error)
}

// NewScriptedTransport queues the given contents as successful replies.
func NewScriptedTransport(contents ...string) *ScriptedTransport {
	s := &ScriptedTransport{}
	for _, c := range contents {
		s.replies = append(s.replies, Reply{Content: c})
	}
	return s
}

// Enqueue appends replies to the queue.
func (s *ScriptedTransport) Enqueue(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

func (s *ScriptedTransport) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	n := len(s.requests)
	s.requests = append(s.requests, req)
	if len(s.replies) > 0 {
		r := s.replies[0]
		s.replies = s.replies[1:]
		s.mu.Unlock()
		return r.Content, r.Err
	}
	fn := s.Func
	s.mu.Unlock()

	if fn == nil {
		return "", ErrScriptExhausted
	}
	return fn(ctx, req, n)
}

// Calls returns how many requests were made.
func (s *ScriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every request made so far.
func (s *ScriptedTransport) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}
