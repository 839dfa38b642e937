package state

import (
	"fmt"
	"math/big"
)

// History record kinds, one per ledger operation that moves value.
const (
	HistoryStake       = "stake"
	HistoryUnbond      = "unbond"
	HistoryFundUnbond  = "fundUnbond"
	HistoryClaimUnbond = "claimUnbond"
	HistoryClaimReward = "claimReward"
	HistoryAddReward   = "addReward"
)

// HistoryEntry is one transaction-log record for an account.
type HistoryEntry struct {
	Kind      string
	Amount    *big.Int
	Memo      string
	Timestamp uint64
}

// AppendHistory adds a record to the account's transaction log.
func (m *Manager) AppendHistory(addr [20]byte, entry HistoryEntry) error {
	if entry.Amount == nil {
		entry.Amount = big.NewInt(0)
	}
	key := accountKey(historyPrefix, addr)
	var log []HistoryEntry
	if _, err := m.KVGet(key, &log); err != nil {
		return err
	}
	log = append(log, entry)
	return m.KVPut(key, log)
}

// History returns one page of the account's transaction log, newest first,
// together with the total record count.
func (m *Manager) History(addr [20]byte, page, perPage int) ([]HistoryEntry, int, error) {
	if perPage <= 0 {
		return nil, 0, fmt.Errorf("state: perPage must be positive")
	}
	if page < 0 {
		page = 0
	}
	var log []HistoryEntry
	if _, err := m.KVGet(accountKey(historyPrefix, addr), &log); err != nil {
		return nil, 0, err
	}
	total := len(log)
	// Reverse so the most recent record comes first.
	reversed := make([]HistoryEntry, total)
	for i, entry := range log {
		reversed[total-1-i] = entry
	}
	start := page * perPage
	if start >= total {
		return []HistoryEntry{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return reversed[start:end], total, nil
}
