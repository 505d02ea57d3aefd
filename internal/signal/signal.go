// Package signal defines the Signal entity and the BUY/SELL classification
// rule shared by the ingress, decision, forwarding, and reprocessing
// subsystems.
package signal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies the business shape of a signal.
type Type string

const (
	TypeBuy          Type = "BUY"
	TypeSell         Type = "SELL"
	TypeManualSell   Type = "MANUAL_SELL"
	TypeSellAll      Type = "SELL_ALL"
	TypePositionClose Type = "POSITION_CLOSE"
)

// Status is the lifecycle state of a signal.
type Status string

const (
	StatusReceived     Status = "RECEIVED"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusForwardedOK  Status = "FORWARDED_OK"
	StatusForwardedErr Status = "FORWARDED_ERR"
)

// Side is the signal's own direction field, as sent by the caller.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideNone Side = "none"
)

// Action is the caller's own action field.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionExit  Action = "exit"
	ActionClose Action = "close"
	ActionEnter Action = "enter"
	ActionLong  Action = "long"
	ActionNone  Action = "none"
)

// Class is the outcome of classifying (side, action) into an admission
// path. Classification always inspects both fields — action wins when it
// disambiguates, per the documented behavioral fix over the legacy system
// (which inspected only one field and misclassified action=exit signals
// that arrived without a side).
type Class string

const (
	ClassBuy  Class = "buy"
	ClassSell Class = "sell"
)

// Classify derives the admission class from the raw side/action pair.
// action ∈ {sell, exit, close} always wins over side; everything else
// defaults to BUY.
func Classify(side Side, action Action) Class {
	switch action {
	case ActionSell, ActionExit, ActionClose:
		return ClassSell
	}
	if side == SideSell {
		return ClassSell
	}
	return ClassBuy
}

// Signal is an intent to open or close a position on a ticker.
type Signal struct {
	SignalID        string
	Ticker          string
	Side            Side
	Action          Action
	Price           decimal.NullDecimal
	ReceivedAt      time.Time
	OriginalPayload json.RawMessage
	SignalType      Type
	Status          Status
	RetryCount      int
}

// NewID generates a fresh signal identifier.
func NewID() string {
	return uuid.NewString()
}

// Class classifies this signal from its own side/action fields.
func (s *Signal) Class() Class {
	return Classify(s.Side, s.Action)
}

// IsSellFamily reports whether this signal's SignalType belongs to the
// sell/exit family (used by the forwarder to decide whether to finalize a
// position close after a successful forward).
func (s *Signal) IsSellFamily() bool {
	switch s.SignalType {
	case TypeSell, TypeManualSell, TypeSellAll, TypePositionClose:
		return true
	default:
		return false
	}
}

// rawPayload is the shape of an ingress/original_payload JSON body.
type rawPayload struct {
	Ticker string  `json:"ticker"`
	Side   string  `json:"side"`
	Action string  `json:"action"`
	Price  *string `json:"price"`
	Time   *string `json:"time"`
}

// ParsePayload decodes an original_payload blob back into a Signal's
// classification-relevant fields. Used by the reprocessor to re-derive
// BUY-ness from historical, already-persisted payloads.
func ParsePayload(raw json.RawMessage) (ticker string, side Side, action Action, price decimal.NullDecimal, receivedAt time.Time, err error) {
	var p rawPayload
	if err = json.Unmarshal(raw, &p); err != nil {
		return "", "", "", decimal.NullDecimal{}, time.Time{}, err
	}
	ticker = p.Ticker
	side = Side(p.Side)
	action = Action(p.Action)
	if p.Price != nil {
		if d, derr := decimal.NewFromString(*p.Price); derr == nil {
			price = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	if p.Time != nil {
		if t, terr := time.Parse(time.RFC3339, *p.Time); terr == nil {
			receivedAt = t
		}
	}
	return ticker, side, action, price, receivedAt, nil
}

// NullDecimalFromString converts a possibly-nil stored price pointer into a
// decimal.NullDecimal, used when reconstructing a Signal from stored
// fields rather than its original_payload.
func NullDecimalFromString(price *string) decimal.NullDecimal {
	if price == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(*price)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ClassifyFromPayload re-derives BUY/SELL from a stored original_payload,
// falling back to BUY if the payload cannot be parsed at all (the caller
// is expected to treat a parse failure as FAILED_RECONSTRUCTION upstream,
// not silently admit).
func ClassifyFromPayload(raw json.RawMessage) (Class, error) {
	_, side, action, _, _, err := ParsePayload(raw)
	if err != nil {
		return "", err
	}
	return Classify(side, action), nil
}

// DetermineSignalType classifies the full signal_type taxonomy from the
// admission class plus any explicit manual markers already set on the
// signal (e.g. synthesized admin actions set SignalType directly and never
// go through this path).
func DetermineSignalType(class Class) Type {
	if class == ClassSell {
		return TypeSell
	}
	return TypeBuy
}
