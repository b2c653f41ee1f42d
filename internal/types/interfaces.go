// internal/types/interfaces.go
package types

import (
	"context"

	"github.com/user/parley/pkg/llm"
)

type SessionStore interface {
	ResolveOrCreate(ctx context.Context, key SessionKey, model string) (SessionID, error)
	Get(ctx context.Context, id SessionID) (*SessionIndex, error)
	List(ctx context.Context) ([]*SessionIndex, error)
	Update(ctx context.Context, session *SessionIndex) error
}

type TranscriptStore interface {
	Messages(ctx context.Context, id SessionID) (*llm.MessageCollection, error)
	SaveMessages(ctx context.Context, id SessionID, messages *llm.MessageCollection) error
	Reset(ctx context.Context, id SessionID) error
}
