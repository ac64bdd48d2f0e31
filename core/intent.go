package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Action is the kind of value transfer a signed intent authorizes.
type Action string

const (
	ActionSend Action = "send"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// ParseAction accepts an action name in any case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionSend, ActionBuy, ActionSell:
		return a, nil
	default:
		return "", ErrInvalidAction
	}
}

// IntentState is a step of the transaction intent flow.
type IntentState int

const (
	IntentIdle IntentState = iota
	IntentAwaitingNonce
	IntentSigning
	IntentSelfVerified
	IntentSubmitted
	IntentConfirmed
	IntentRejected
)

func (s IntentState) String() string {
	switch s {
	case IntentIdle:
		return "idle"
	case IntentAwaitingNonce:
		return "awaiting_nonce"
	case IntentSigning:
		return "signing"
	case IntentSelfVerified:
		return "self_verified"
	case IntentSubmitted:
		return "submitted"
	case IntentConfirmed:
		return "confirmed"
	case IntentRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IntentRequest is a caller's request to sign a send, buy or sell.
type IntentRequest struct {
	Action     Action
	Amount     decimal.Decimal
	To         string // recipient, send only
	Credential Credential

	// AuthenticatedAddress is the address of the logged-in user. The resolved
	// key must belong to it.
	AuthenticatedAddress string
}

// SignedIntent is the payload handed to the submission port
type SignedIntent struct {
	ID        string `json:"id"`
	Action    Action `json:"action"`
	From      string `json:"from_address"`
	To        string `json:"to_address,omitempty"`
	Amount    string `json:"amount"` // fixed 2 decimals, identical to the signed message
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// Submission is the remote side's answer to a SignedIntent
type Submission struct {
	Accepted bool   `json:"accepted"`
	TxID     string `json:"tx_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// IntentReceipt is the outcome of one intent submission
type IntentReceipt struct {
	State      IntentState
	Intent     SignedIntent
	Submission Submission
}
