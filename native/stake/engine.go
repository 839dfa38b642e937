package stake

import (
	"math/big"
	"strings"

	"stakevault/core/events"
	"stakevault/core/types"
	nativecommon "stakevault/native/common"
)

const moduleName = "staking"

// ReceiveType classifies an inbound deposit notification.
type ReceiveType uint8

const (
	// ReceiveBond deposits principal in exchange for shares.
	ReceiveBond ReceiveType = iota + 1
	// ReceiveReward grows the pool without minting shares.
	ReceiveReward
	// ReceiveUnbond supplies liquidity for outstanding withdrawal buckets.
	ReceiveUnbond
)

// ParseReceiveType decodes the classification carried in a deposit envelope.
func ParseReceiveType(raw string) (ReceiveType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bond":
		return ReceiveBond, nil
	case "reward":
		return ReceiveReward, nil
	case "unbond":
		return ReceiveUnbond, nil
	default:
		return 0, ErrNoReceiveType
	}
}

// engineState is the persistence surface the engine operates against. The
// concrete implementation lives in core/state; tests substitute a map-backed
// mock.
type engineState interface {
	StakeConfig() (*Config, error)
	SetStakeConfig(cfg *Config) error

	TotalShares() (*big.Int, error)
	SetTotalShares(v *big.Int) error
	TotalTokens() (*big.Int, error)
	SetTotalTokens(v *big.Int) error
	TotalSupply() (*big.Int, error)
	SetTotalSupply(v *big.Int) error
	UnsentStakedTokens() (*big.Int, error)
	SetUnsentStakedTokens(v *big.Int) error

	UserShares(addr [20]byte) (*big.Int, bool, error)
	SetUserShares(addr [20]byte, shares *big.Int) error
	AccountBalance(addr [20]byte) (*big.Int, error)
	SetAccountBalance(addr [20]byte, balance *big.Int) error

	DailyUnbondingQueue() (*DailyUnbondingQueue, error)
	SetDailyUnbondingQueue(q *DailyUnbondingQueue) error
	UnbondingQueue(addr [20]byte) (*UnbondingQueue, bool, error)
	SetUnbondingQueue(addr [20]byte, q *UnbondingQueue) error

	Distributors() ([][20]byte, error)
	SetDistributors(addrs [][20]byte) error
	DistributorsEnabled() (bool, error)
	SetDistributorsEnabled(enabled bool) error
}

// Engine orchestrates every staking state transition: bonding, reward
// accrual, the two-tier unbonding protocol and treasury routing. It never
// moves tokens itself; outbound transfers are returned to the caller as
// instructions.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
	admin   [20]byte
}

// NewEngine constructs a staking engine whose admin operations are restricted
// to the supplied address.
func NewEngine(admin [20]byte) *Engine {
	return &Engine{admin: admin, emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the governance pause view consulted before every mutation.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Admin returns the configured admin address.
func (e *Engine) Admin() [20]byte { return e.admin }

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) requireAdmin(caller [20]byte) error {
	if caller != e.admin {
		return ErrNotAuthorized
	}
	return nil
}

func (e *Engine) guard() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) config() (*Config, error) {
	cfg, err := e.state.StakeConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	return cfg, nil
}

// supply bundles the pool counters that move together.
type supply struct {
	shares *big.Int
	tokens *big.Int
	total  *big.Int
}

func (e *Engine) loadSupply() (*supply, error) {
	shares, err := e.state.TotalShares()
	if err != nil {
		return nil, err
	}
	tokens, err := e.state.TotalTokens()
	if err != nil {
		return nil, err
	}
	total, err := e.state.TotalSupply()
	if err != nil {
		return nil, err
	}
	return &supply{shares: shares, tokens: tokens, total: total}, nil
}

func (e *Engine) storeSupply(s *supply) error {
	if err := e.state.SetTotalShares(s.shares); err != nil {
		return err
	}
	if err := e.state.SetTotalTokens(s.tokens); err != nil {
		return err
	}
	return e.state.SetTotalSupply(s.total)
}

// addBalance mints shares for a deposit and rolls the account and pool
// counters forward. All arithmetic is verified before anything is written so
// a failure leaves state untouched.
func (e *Engine) addBalance(cfg *Config, addr [20]byte, amount *big.Int) (*big.Int, error) {
	sup, err := e.loadSupply()
	if err != nil {
		return nil, err
	}
	userShares, _, err := e.state.UserShares(addr)
	if err != nil {
		return nil, err
	}
	balance, err := e.state.AccountBalance(addr)
	if err != nil {
		return nil, err
	}

	minted := SharesPerToken(cfg, amount, sup.tokens, sup.shares)

	newUserShares, err := checkedAdd(userShares, minted)
	if err != nil {
		return nil, err
	}
	newShares, err := checkedAdd(sup.shares, minted)
	if err != nil {
		return nil, err
	}
	newTokens, err := checkedAdd(sup.tokens, amount)
	if err != nil {
		return nil, err
	}
	newSupply, err := checkedAdd(sup.total, amount)
	if err != nil {
		return nil, err
	}
	newBalance, err := checkedAdd(balance, amount)
	if err != nil {
		return nil, err
	}

	if err := e.state.SetUserShares(addr, newUserShares); err != nil {
		return nil, err
	}
	if err := e.storeSupply(&supply{shares: newShares, tokens: newTokens, total: newSupply}); err != nil {
		return nil, err
	}
	if err := e.state.SetAccountBalance(addr, newBalance); err != nil {
		return nil, err
	}
	return minted, nil
}

// removeBalance burns the shares equivalent to amount and rolls the account
// and pool counters back. Any underflow aborts before state is touched.
func (e *Engine) removeBalance(cfg *Config, addr [20]byte, amount *big.Int) (*big.Int, error) {
	userShares, exists, err := e.state.UserShares(addr)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNoStakedFunds
	}
	sup, err := e.loadSupply()
	if err != nil {
		return nil, err
	}
	balance, err := e.state.AccountBalance(addr)
	if err != nil {
		return nil, err
	}

	burned := SharesPerToken(cfg, amount, sup.tokens, sup.shares)

	newUserShares, err := checkedSub(userShares, burned, ErrInsufficientShares)
	if err != nil {
		return nil, err
	}
	newSup, err := subtractSupply(sup, burned, amount)
	if err != nil {
		return nil, err
	}
	newBalance, err := checkedSub(balance, amount, ErrInsufficientBalance)
	if err != nil {
		return nil, err
	}

	if err := e.state.SetUserShares(addr, newUserShares); err != nil {
		return nil, err
	}
	if err := e.storeSupply(newSup); err != nil {
		return nil, err
	}
	if err := e.state.SetAccountBalance(addr, newBalance); err != nil {
		return nil, err
	}
	return burned, nil
}

// subtractSupply removes shares and tokens from the pool counters with the
// same underflow discipline the account-level paths use.
func subtractSupply(sup *supply, shares, tokens *big.Int) (*supply, error) {
	newShares, err := checkedSub(sup.shares, shares, ErrInsufficientShares)
	if err != nil {
		return nil, err
	}
	newTokens, err := checkedSub(sup.tokens, tokens, ErrInsufficientShares)
	if err != nil {
		return nil, err
	}
	newTotal, err := checkedSub(sup.total, tokens, ErrInsufficientShares)
	if err != nil {
		return nil, err
	}
	return &supply{shares: newShares, tokens: newTokens, total: newTotal}, nil
}

// claimRewards burns the account's reward shares and returns the reward token
// amount. The token balance (the principal basis) stays untouched.
func (e *Engine) claimRewards(cfg *Config, addr [20]byte) (*big.Int, *big.Int, error) {
	userShares, exists, err := e.state.UserShares(addr)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, ErrNoStakedFunds
	}
	balance, err := e.state.AccountBalance(addr)
	if err != nil {
		return nil, nil, err
	}
	sup, err := e.loadSupply()
	if err != nil {
		return nil, nil, err
	}

	rewardTokens, rewardShares := CalculateRewards(cfg, balance, userShares, sup.tokens, sup.shares)

	newUserShares, err := checkedSub(userShares, rewardShares, ErrInsufficientShares)
	if err != nil {
		return nil, nil, err
	}
	newSup, err := subtractSupply(sup, rewardShares, rewardTokens)
	if err != nil {
		return nil, nil, err
	}

	if err := e.state.SetUserShares(addr, newUserShares); err != nil {
		return nil, nil, err
	}
	if err := e.storeSupply(newSup); err != nil {
		return nil, nil, err
	}
	return rewardTokens, rewardShares, nil
}

// routeBond forwards bonded principal to the treasury or parks it in the
// unsent buffer when no treasury is configured.
func (e *Engine) routeBond(cfg *Config, amount *big.Int) ([]types.Transfer, error) {
	if treasury, ok := cfg.TreasuryAddress(); ok {
		return []types.Transfer{{Recipient: treasury, Amount: new(big.Int).Set(amount), Token: cfg.StakedToken}}, nil
	}
	unsent, err := e.state.UnsentStakedTokens()
	if err != nil {
		return nil, err
	}
	newUnsent, err := checkedAdd(unsent, amount)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetUnsentStakedTokens(newUnsent); err != nil {
		return nil, err
	}
	return nil, nil
}

// Receive handles a typed deposit notification from the staked token. The
// tokenSource is the asset identity delivering the funds and sender the
// account that parted with them.
func (e *Engine) Receive(tokenSource, sender [20]byte, amount *big.Int, receiveType ReceiveType) ([]types.Transfer, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if tokenSource != cfg.StakedToken {
		return nil, ErrNotStakeToken
	}

	switch receiveType {
	case ReceiveBond:
		minted, err := e.addBalance(cfg, sender, amount)
		if err != nil {
			return nil, err
		}
		transfers, err := e.routeBond(cfg, amount)
		if err != nil {
			return nil, err
		}
		e.emit(events.StakeBonded{Account: sender, Amount: amount, SharesMinted: minted, ToTreasury: len(transfers) > 0})
		return transfers, nil

	case ReceiveReward:
		if err := e.checkDistributor(sender); err != nil {
			return nil, err
		}
		tokens, err := e.state.TotalTokens()
		if err != nil {
			return nil, err
		}
		newTokens, err := checkedAdd(tokens, amount)
		if err != nil {
			return nil, err
		}
		if err := e.state.SetTotalTokens(newTokens); err != nil {
			return nil, err
		}
		e.emit(events.StakeRewardAdded{Sender: sender, Amount: amount, TotalTokens: newTokens})
		return nil, nil

	case ReceiveUnbond:
		queue, err := e.state.DailyUnbondingQueue()
		if err != nil {
			return nil, err
		}
		remainder := queue.Fund(amount)
		if err := e.state.SetDailyUnbondingQueue(queue); err != nil {
			return nil, err
		}
		applied := new(big.Int).Sub(amount, remainder)
		var transfers []types.Transfer
		if remainder.Sign() > 0 {
			// Overfunded: the surplus goes straight back to the sender.
			transfers = append(transfers, types.Transfer{Recipient: sender, Amount: remainder, Token: cfg.StakedToken})
		}
		e.emit(events.StakeUnbondFunded{Sender: sender, Applied: applied, Refunded: remainder})
		return transfers, nil

	default:
		return nil, ErrNoReceiveType
	}
}

// Unbond files a withdrawal request: the amount leaves the account's balance
// immediately, a cooldown entry is queued, and the request day's global
// bucket grows by the same amount.
func (e *Engine) Unbond(caller [20]byte, amount *big.Int, now uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}

	day := RoundDate(now)
	daily, err := e.state.DailyUnbondingQueue()
	if err != nil {
		return err
	}
	if err := daily.RequestUnbonding(day, amount); err != nil {
		return err
	}

	queue, _, err := e.state.UnbondingQueue(caller)
	if err != nil {
		return err
	}
	release := now + cfg.UnbondSeconds
	queue.Push(Unbonding{Amount: new(big.Int).Set(amount), Release: release, Day: day})

	if _, err := e.removeBalance(cfg, caller, amount); err != nil {
		return err
	}
	if err := e.state.SetDailyUnbondingQueue(daily); err != nil {
		return err
	}
	if err := e.state.SetUnbondingQueue(caller, queue); err != nil {
		return err
	}
	e.emit(events.StakeUnbondRequested{Account: caller, Amount: amount, Release: release, Day: day})
	return nil
}

// ClaimUnbond releases every cooldown entry that has both matured and been
// funded by its originating day bucket. Entries are strictly ordered, so the
// walk stops at the first entry failing either condition. A zero payout is a
// valid outcome, not an error.
func (e *Engine) ClaimUnbond(caller [20]byte, now uint64) (*big.Int, []types.Transfer, error) {
	if err := e.guard(); err != nil {
		return nil, nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, nil, err
	}
	daily, err := e.state.DailyUnbondingQueue()
	if err != nil {
		return nil, nil, err
	}
	queue, exists, err := e.state.UnbondingQueue(caller)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, ErrNoUnbondings
	}

	total := big.NewInt(0)
	claimed := uint64(0)
	for entry := queue.Peek(); entry != nil; entry = queue.Peek() {
		if entry.Release > now || !daily.IsFunded(entry.Day) {
			break
		}
		total.Add(total, entry.Amount)
		queue.Pop()
		claimed++
	}
	if err := e.state.SetUnbondingQueue(caller, queue); err != nil {
		return nil, nil, err
	}

	var transfers []types.Transfer
	if total.Sign() > 0 {
		transfers = append(transfers, types.Transfer{Recipient: caller, Amount: new(big.Int).Set(total), Token: cfg.StakedToken})
	}
	e.emit(events.StakeUnbondClaimed{Account: caller, Amount: total, Entries: claimed})
	return total, transfers, nil
}

// ClaimRewards extracts the account's accrued rewards and pays them out.
func (e *Engine) ClaimRewards(caller [20]byte) (*big.Int, []types.Transfer, error) {
	if err := e.guard(); err != nil {
		return nil, nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, nil, err
	}
	rewardTokens, rewardShares, err := e.claimRewards(cfg, caller)
	if err != nil {
		return nil, nil, err
	}
	var transfers []types.Transfer
	if rewardTokens.Sign() > 0 {
		transfers = append(transfers, types.Transfer{Recipient: caller, Amount: new(big.Int).Set(rewardTokens), Token: cfg.StakedToken})
	}
	e.emit(events.StakeRewardsClaimed{Account: caller, Amount: rewardTokens, SharesBurned: rewardShares})
	return rewardTokens, transfers, nil
}

// StakeRewards claims the account's rewards and immediately re-bonds them,
// compounding the position in a single atomic operation. The re-bonded
// principal follows the same treasury routing a fresh bond would.
func (e *Engine) StakeRewards(caller [20]byte) (*big.Int, []types.Transfer, error) {
	if err := e.guard(); err != nil {
		return nil, nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, nil, err
	}
	rewardTokens, rewardShares, err := e.claimRewards(cfg, caller)
	if err != nil {
		return nil, nil, err
	}
	var transfers []types.Transfer
	if rewardTokens.Sign() > 0 {
		if _, err := e.addBalance(cfg, caller, rewardTokens); err != nil {
			return nil, nil, err
		}
		transfers, err = e.routeBond(cfg, rewardTokens)
		if err != nil {
			return nil, nil, err
		}
	}
	e.emit(events.StakeRewardsClaimed{Account: caller, Amount: rewardTokens, SharesBurned: rewardShares, Compounded: true})
	return rewardTokens, transfers, nil
}

// UpdateStakeConfig applies an admin reconfiguration. Enabling a treasury
// flushes the unsent buffer to it in a single forwarding transfer.
func (e *Engine) UpdateStakeConfig(caller [20]byte, unbondSeconds *uint64, disableTreasury bool, treasury *[20]byte) ([]types.Transfer, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	if unbondSeconds != nil {
		cfg.UnbondSeconds = *unbondSeconds
	}

	flushed := big.NewInt(0)
	var transfers []types.Transfer
	if disableTreasury {
		cfg.TreasuryEnabled = false
		cfg.Treasury = [20]byte{}
	} else if treasury != nil {
		cfg.Treasury = *treasury
		cfg.TreasuryEnabled = true

		unsent, err := e.state.UnsentStakedTokens()
		if err != nil {
			return nil, err
		}
		if unsent.Sign() > 0 {
			transfers = append(transfers, types.Transfer{Recipient: *treasury, Amount: new(big.Int).Set(unsent), Token: cfg.StakedToken})
			if err := e.state.SetUnsentStakedTokens(big.NewInt(0)); err != nil {
				return nil, err
			}
			flushed = unsent
		}
	}

	if err := e.state.SetStakeConfig(cfg); err != nil {
		return nil, err
	}
	e.emit(events.StakeConfigUpdated{UnbondSeconds: cfg.UnbondSeconds, TreasuryEnabled: cfg.TreasuryEnabled, Flushed: flushed})
	return transfers, nil
}

// ExposeBalance produces the outbound notification pushing the caller's
// staked balance to a third-party recipient.
func (e *Engine) ExposeBalance(caller, recipient [20]byte, memo string) (*BalanceNotification, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	_, exists, err := e.state.UserShares(caller)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNoStakedFunds
	}
	balance, err := e.state.AccountBalance(caller)
	if err != nil {
		return nil, err
	}
	e.emit(events.StakeBalanceExposed{Account: caller, Recipient: recipient, Balance: balance})
	return &BalanceNotification{
		Sender:    caller,
		Recipient: recipient,
		Balance:   new(big.Int).Set(balance),
		Memo:      memo,
	}, nil
}
