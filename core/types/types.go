package types

import "math/big"

// Event represents a typed event emitted during state transitions.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Transfer is an outbound token-transfer instruction produced by a state
// transition. The ledger itself never moves tokens; the hosting process is
// expected to execute these against the transfer collaborator.
type Transfer struct {
	Recipient [20]byte `json:"recipient"`
	Amount    *big.Int `json:"amount"`
	Token     [20]byte `json:"token"`
}
