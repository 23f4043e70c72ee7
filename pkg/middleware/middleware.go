package middleware

import (
	"context"

	"github.com/vango-dev/navshell/pkg/history"
)

// Handler serves one client frame of a navigation session.
type Handler func(ctx context.Context, msg history.Message) error

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Chain wraps h with mws. The first middleware is the outermost, so it sees
// the frame first and the result last.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// frameType returns the label used for msg in metrics and spans.
func frameType(msg history.Message) string {
	if msg.Type == "" {
		return "unknown"
	}
	switch msg.Type {
	case history.TypeNavigate, history.TypeBack, history.TypeForward,
		history.TypePop, history.TypeInit:
		return msg.Type
	default:
		return "other"
	}
}
