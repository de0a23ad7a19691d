// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	// Trade events
	TradeExecuted EventType = "trade.executed"

	// Curve lifecycle events
	CurveCreated   EventType = "curve.created"
	CurveCompleted EventType = "curve.completed"
	CurveWithdrawn EventType = "curve.withdrawn"

	// Admin events
	ConfigUpdated EventType = "config.updated"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// TradeExecutedEvent is the append-only trade receipt emitted once per
// successful buy or sell. Reserve fields are the post-trade snapshot.
type TradeExecutedEvent struct {
	BaseEvent
	ReceiptID            string
	Mint                 solana.PublicKey
	User                 solana.PublicKey
	IsBuy                bool
	SolAmount            uint64
	TokenAmount          uint64
	Fee                  uint64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	Complete             bool
}

// CurveCreatedEvent is emitted when a new bonding curve is registered.
type CurveCreatedEvent struct {
	BaseEvent
	Mint    solana.PublicKey
	Creator solana.PublicKey
	Name    string
	Symbol  string
	URI     string
}

// CurveCompletedEvent is emitted when a trade exhausts a curve's tradable
// reserves. Emitted at most once per curve.
type CurveCompletedEvent struct {
	BaseEvent
	Mint            solana.PublicKey
	RealSolReserves uint64
}

// CurveWithdrawnEvent is emitted when the withdraw authority sweeps a
// completed curve.
type CurveWithdrawnEvent struct {
	BaseEvent
	Mint        solana.PublicKey
	Authority   solana.PublicKey
	SolAmount   uint64
	TokenAmount uint64
}

// ConfigUpdatedEvent is emitted after every successful admin operation.
type ConfigUpdatedEvent struct {
	BaseEvent
	Operation string
}

// NewConfigUpdated builds a ConfigUpdatedEvent for the given admin op.
func NewConfigUpdated(operation string, at time.Time) ConfigUpdatedEvent {
	return ConfigUpdatedEvent{
		BaseEvent: BaseEvent{EventType: ConfigUpdated, EventTime: at},
		Operation: operation,
	}
}
