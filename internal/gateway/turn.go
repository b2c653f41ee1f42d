package gateway

import (
	"context"
	"time"

	"github.com/user/parley/internal/types"
)

// TurnStatus represents the lifecycle state of a Turn.
type TurnStatus string

const (
	TurnStatusQueued   TurnStatus = "queued"
	TurnStatusRunning  TurnStatus = "running"
	TurnStatusComplete TurnStatus = "complete"
	TurnStatusFailed   TurnStatus = "failed"
)

// Turn tracks a single execution of an inbound message against a session.
type Turn struct {
	ID         types.TurnID
	SessionID  types.SessionID
	Inbound    *types.InboundTurn
	Status     TurnStatus
	CreatedAt  time.Time
	Ctx        context.Context
	OnComplete func(response string)
}

// NewTurn creates a Turn in the Queued state for the given session and
// inbound message.
func NewTurn(sessionID types.SessionID, inbound *types.InboundTurn) *Turn {
	return &Turn{
		ID:        types.NewTurnID(),
		SessionID: sessionID,
		Inbound:   inbound,
		Status:    TurnStatusQueued,
		CreatedAt: time.Now(),
	}
}
