// Package store defines the persistence contract consumed by the admission
// pipeline. The concrete implementation lives in sqlite.go; callers program
// against the Store interface so that the pipeline's concurrency logic
// never depends on a specific database driver.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"signalgate/internal/signal"
)

// Sentinel errors distinguishing the four failure classes spec.md §4.1
// requires every Store operation to surface. Wrap with fmt.Errorf("...: %w")
// and unwrap with errors.Is.
var (
	// ErrConflict is an optimistic-lock or uniqueness violation.
	ErrConflict = errors.New("store: conflict")
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrTransient is a network/DB hiccup; the caller may retry.
	ErrTransient = errors.New("store: transient")
	// ErrFatal is a bug or unrecoverable invariant violation.
	ErrFatal = errors.New("store: fatal")
)

// PositionStatus is the lifecycle state of a Position row.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "OPEN"
	PositionClosing PositionStatus = "CLOSING"
	PositionClosed  PositionStatus = "CLOSED"
)

// SignalRow is the persisted representation of a Signal.
type SignalRow struct {
	SignalID        string
	Ticker          string
	Side            signal.Side
	Action          signal.Action
	Price           *string
	ReceivedAt      time.Time
	OriginalPayload json.RawMessage
	SignalType      signal.Type
	Status          signal.Status
	RetryCount      int
	CreatedAt       time.Time
}

// PositionRow is the persisted representation of a Position.
type PositionRow struct {
	PositionID    int64
	Ticker        string
	Status        PositionStatus
	EntrySignalID string
	ExitSignalID  *string
	OpenedAt      time.Time
	ClosedAt      *time.Time
}

// Strategy is the persisted representation of the Strategy entity.
type Strategy struct {
	ID                           string
	Name                         string
	URL                          string
	TopN                         int
	RefreshIntervalSec           int
	ReprocessEnabled             bool
	ReprocessWindowSeconds       int
	MaxSignalsPerTicker          int
	RespectSellChronologyEnabled bool
	SellChronologyWindowSeconds  int
	IsActive                     bool
}

// Txn is a scoped transactional session. Callers must call either Commit or
// Rollback on every code path; Release is safe to call unconditionally in a
// defer after a Commit (it is then a no-op).
type Txn interface {
	Commit() error
	Rollback() error
}

// Store is the persistence contract the admission pipeline depends on. All
// multi-step mutations of signals/positions are expected to go through
// GetTransaction so that status changes and events commit atomically.
type Store interface {
	InsertSignal(ctx context.Context, sig *signal.Signal, initialStatus signal.Status, signalType signal.Type) (signalID string, err error)
	AppendEvent(ctx context.Context, signalID string, status signal.Status, workerID string, details string) error
	SetSignalStatus(ctx context.Context, signalID string, newStatus signal.Status, workerID string, details string) error

	GetTransaction(ctx context.Context) (Txn, error)

	OpenPositionTx(ctx context.Context, txn Txn, ticker, entrySignalID string) error
	MarkPositionClosing(ctx context.Context, ticker, exitSignalID string) (bool, error)
	ClosePosition(ctx context.Context, ticker string) error
	IsPositionOpenOrClosing(ctx context.Context, ticker string) (bool, error)
	OpenPositionTickers(ctx context.Context) ([]string, error)

	GetRejectedBuyCandidates(ctx context.Context, ticker string, windowSeconds int, limit int) ([]SignalRow, error)
	HasSubsequentSell(ctx context.Context, ticker string, buyCreatedAt time.Time, windowSeconds int) (bool, error)
	ReapproveSignalWithValidation(ctx context.Context, txn Txn, signalID string, expectedStatus signal.Status) (ok bool, reason string, err error)

	ActiveStrategy(ctx context.Context) (*Strategy, error)
	SwitchActiveStrategy(ctx context.Context, id string) error
	ListStrategies(ctx context.Context) ([]Strategy, error)
	UpsertStrategy(ctx context.Context, s *Strategy) error
	DeleteStrategy(ctx context.Context, id string) error

	GetSignal(ctx context.Context, signalID string) (*SignalRow, error)
	ListSignals(ctx context.Context, f SignalFilter) ([]SignalRow, error)

	ClearAll(ctx context.Context) error

	Close() error
}

// SignalFilter narrows ListSignals for the admin enumeration endpoint.
type SignalFilter struct {
	Ticker     string
	Status     signal.Status
	SignalType signal.Type
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}
