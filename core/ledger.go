package core

import (
	"fmt"
	"math/big"
	"time"

	"stakevault/core/events"
	"stakevault/core/state"
	"stakevault/core/types"
	"stakevault/native/stake"
)

// Receipt carries everything a successful ledger call produced: the amount it
// settled (claims), the outbound transfer instructions, and the typed events
// emitted along the way.
type Receipt struct {
	Amount       *big.Int                   `json:"amount,omitempty"`
	Transfers    []types.Transfer           `json:"transfers,omitempty"`
	Events       []*types.Event             `json:"events,omitempty"`
	Notification *stake.BalanceNotification `json:"notification,omitempty"`
}

// eventCollector buffers typed events for the duration of one call.
type eventCollector struct {
	buffered []*types.Event
}

func (c *eventCollector) Emit(ev events.Event) {
	typed, ok := ev.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	c.buffered = append(c.buffered, typed.Event())
}

func (c *eventCollector) drain() []*types.Event {
	out := c.buffered
	c.buffered = nil
	return out
}

// Ledger is the transactional boundary around the staking engine. Every
// external call runs against the state manager's write overlay: an engine
// error reverts the overlay so no partial writes survive, success commits it.
// Calls are strictly sequenced; Ledger is not safe for concurrent use.
type Ledger struct {
	state     *state.Manager
	engine    *stake.Engine
	collector *eventCollector
	now       func() time.Time
}

// NewLedger wires a ledger over the supplied state manager. Admin operations
// are restricted to the admin address.
func NewLedger(mgr *state.Manager, admin [20]byte) *Ledger {
	collector := &eventCollector{}
	engine := stake.NewEngine(admin)
	engine.SetState(mgr)
	engine.SetEmitter(collector)
	return &Ledger{
		state:     mgr,
		engine:    engine,
		collector: collector,
		now:       time.Now,
	}
}

// SetNow overrides the clock, primarily for tests.
func (l *Ledger) SetNow(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Engine exposes the underlying engine for read-only queries.
func (l *Ledger) Engine() *stake.Engine { return l.engine }

// State exposes the state manager for read-only queries.
func (l *Ledger) State() *state.Manager { return l.state }

func (l *Ledger) nowUnix() uint64 {
	return uint64(l.now().UTC().Unix())
}

// run executes one mutating call inside an overlay transaction.
func (l *Ledger) run(mutate func() error) error {
	if err := mutate(); err != nil {
		l.state.Revert()
		l.collector.drain()
		return err
	}
	if err := l.state.Commit(); err != nil {
		l.state.Revert()
		l.collector.drain()
		return fmt.Errorf("commit staking state: %w", err)
	}
	return nil
}

// InitializeConfig seeds the staking configuration when none exists yet. An
// already-configured ledger is left untouched.
func (l *Ledger) InitializeConfig(cfg *stake.Config) error {
	return l.run(func() error {
		existing, err := l.state.StakeConfig()
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		return l.state.SetStakeConfig(cfg)
	})
}

// Receive applies a typed deposit notification and logs it to the sender's
// transaction history.
func (l *Ledger) Receive(tokenSource, sender [20]byte, amount *big.Int, receiveType stake.ReceiveType, memo string) (*Receipt, error) {
	receipt := &Receipt{}
	err := l.run(func() error {
		transfers, err := l.engine.Receive(tokenSource, sender, amount, receiveType)
		if err != nil {
			return err
		}
		receipt.Transfers = transfers

		kind := state.HistoryStake
		logged := amount
		switch receiveType {
		case stake.ReceiveReward:
			kind = state.HistoryAddReward
		case stake.ReceiveUnbond:
			kind = state.HistoryFundUnbond
			logged = applied(amount, sender, transfers)
		}
		return l.state.AppendHistory(sender, state.HistoryEntry{
			Kind:      kind,
			Amount:    logged,
			Memo:      memo,
			Timestamp: l.nowUnix(),
		})
	})
	if err != nil {
		return nil, err
	}
	receipt.Events = l.collector.drain()
	return receipt, nil
}

// applied subtracts any refund returned to the sender from the deposited
// amount, yielding the portion that actually funded buckets.
func applied(amount *big.Int, sender [20]byte, transfers []types.Transfer) *big.Int {
	out := new(big.Int).Set(amount)
	for _, transfer := range transfers {
		if transfer.Recipient == sender {
			out.Sub(out, transfer.Amount)
		}
	}
	return out
}

// Unbond files a withdrawal request for the caller.
func (l *Ledger) Unbond(caller [20]byte, amount *big.Int) (*Receipt, error) {
	receipt := &Receipt{}
	err := l.run(func() error {
		if err := l.engine.Unbond(caller, amount, l.nowUnix()); err != nil {
			return err
		}
		return l.state.AppendHistory(caller, state.HistoryEntry{
			Kind:      state.HistoryUnbond,
			Amount:    amount,
			Timestamp: l.nowUnix(),
		})
	})
	if err != nil {
		return nil, err
	}
	receipt.Events = l.collector.drain()
	return receipt, nil
}

// ClaimUnbond releases every matured and funded cooldown entry to the caller.
func (l *Ledger) ClaimUnbond(caller [20]byte) (*Receipt, error) {
	receipt := &Receipt{}
	err := l.run(func() error {
		total, transfers, err := l.engine.ClaimUnbond(caller, l.nowUnix())
		if err != nil {
			return err
		}
		receipt.Amount = total
		receipt.Transfers = transfers
		if total.Sign() == 0 {
			return nil
		}
		return l.state.AppendHistory(caller, state.HistoryEntry{
			Kind:      state.HistoryClaimUnbond,
			Amount:    total,
			Timestamp: l.nowUnix(),
		})
	})
	if err != nil {
		return nil, err
	}
	receipt.Events = l.collector.drain()
	return receipt, nil
}

// ClaimRewards extracts the caller's accrued rewards.
func (l *Ledger) ClaimRewards(caller [20]byte) (*Receipt, error) {
	receipt := &Receipt{}
	err := l.run(func() error {
		claimed, transfers, err := l.engine.ClaimRewards(caller)
		if err != nil {
			return err
		}
		receipt.Amount = claimed
		receipt.Transfers = transfers
		if claimed.Sign() == 0 {
			return nil
		}
		return l.state.AppendHistory(caller, state.HistoryEntry{
			Kind:      state.HistoryClaimReward,
			Amount:    claimed,
			Timestamp: l.nowUnix(),
		})
	})
	if err != nil {
		return nil, err
	}
	receipt.Events = l.collector.drain()
	return receipt, nil
}

// StakeRewards claims and immediately re-bonds the caller's rewards.
func (l *Ledger) StakeRewards(caller [20]byte) (*Receipt, error) {
	receipt := &Receipt{}
	err := l.run(func() error {
		compounded, transfers, err := l.engine.StakeRewards(caller)
		if err != nil {
			return err
		}
		receipt.Amount = compounded
		receipt.Transfers = transfers
		if compounded.Sign() == 0 {
			return nil
		}
		if err := l.state.AppendHistory(caller, state.HistoryEntry{
			Kind:      state.HistoryClaimReward,
			Amount:    compounded,
			Timestamp: l.nowUnix(),
		}); err != nil {
			return err
		}
		return l.state.AppendHistory(caller, state.HistoryEntry{
			Kind:      state.HistoryStake,
			Amount:    compounded,
			Timestamp: l.nowUnix(),
		})
	})
	if err != nil {
		return nil, err
	}
	receipt.Events = l.collector.drain()
	return receipt, nil
}

// UpdateStakeConfig applies an admin reconfiguration.
func (l *Ledger) UpdateStakeConfig(caller [20]byte, unbondSeconds *uint64, disableTreasury bool, treasury *[20]byte) (*Receipt, error) {
	receipt := &Receipt{}
	err := l.run(func() error {
		transfers, err := l.engine.UpdateStakeConfig(caller, unbondSeconds, disableTreasury, treasury)
		if err != nil {
			return err
		}
		receipt.Transfers = transfers
		return nil
	})
	if err != nil {
		return nil, err
	}
	receipt.Events = l.collector.drain()
	return receipt, nil
}

// SetDistributors replaces the reward distributor allow-list.
func (l *Ledger) SetDistributors(caller [20]byte, distributors [][20]byte) (*Receipt, error) {
	return l.adminMutation(func() error { return l.engine.SetDistributors(caller, distributors) })
}

// AddDistributors extends the reward distributor allow-list.
func (l *Ledger) AddDistributors(caller [20]byte, distributors [][20]byte) (*Receipt, error) {
	return l.adminMutation(func() error { return l.engine.AddDistributors(caller, distributors) })
}

// SetDistributorsStatus toggles allow-list enforcement.
func (l *Ledger) SetDistributorsStatus(caller [20]byte, enabled bool) (*Receipt, error) {
	return l.adminMutation(func() error { return l.engine.SetDistributorsStatus(caller, enabled) })
}

func (l *Ledger) adminMutation(mutate func() error) (*Receipt, error) {
	if err := l.run(mutate); err != nil {
		return nil, err
	}
	return &Receipt{Events: l.collector.drain()}, nil
}

// ExposeBalance produces the expose-balance notification for the caller.
func (l *Ledger) ExposeBalance(caller, recipient [20]byte, memo string) (*Receipt, error) {
	receipt := &Receipt{}
	err := l.run(func() error {
		notification, err := l.engine.ExposeBalance(caller, recipient, memo)
		if err != nil {
			return err
		}
		receipt.Notification = notification
		return nil
	})
	if err != nil {
		return nil, err
	}
	receipt.Events = l.collector.drain()
	return receipt, nil
}
