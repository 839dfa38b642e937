package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"stakevault/core/types"
)

const (
	// TypeStakeBonded captures principal deposited to the pool.
	TypeStakeBonded = "stake.bonded"
	// TypeStakeRewardAdded captures reward liquidity accruing to the pool.
	TypeStakeRewardAdded = "stake.rewardAdded"
	// TypeStakeUnbondRequested captures a withdrawal entering cooldown.
	TypeStakeUnbondRequested = "stake.unbondRequested"
	// TypeStakeUnbondFunded captures liquidity allocated to daily buckets.
	TypeStakeUnbondFunded = "stake.unbondFunded"
	// TypeStakeUnbondClaimed captures matured cooldown entries paid out.
	TypeStakeUnbondClaimed = "stake.unbondClaimed"
	// TypeStakeRewardsClaimed captures rewards extracted from the pool.
	TypeStakeRewardsClaimed = "stake.rewardsClaimed"
	// TypeStakeRewardsCompounded captures rewards claimed and re-bonded.
	TypeStakeRewardsCompounded = "stake.rewardsCompounded"
	// TypeStakeConfigUpdated is emitted on admin reconfiguration.
	TypeStakeConfigUpdated = "stake.configUpdated"
	// TypeStakeDistributorsUpdated is emitted when the allow-list changes.
	TypeStakeDistributorsUpdated = "stake.distributorsUpdated"
	// TypeStakeBalanceExposed is emitted when an account pushes its balance
	// to a third party.
	TypeStakeBalanceExposed = "stake.balanceExposed"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func addrString(addr [20]byte) string {
	return common.BytesToAddress(addr[:]).Hex()
}

// StakeBonded captures a bond deposit and the shares it minted.
type StakeBonded struct {
	Account      [20]byte
	Amount       *big.Int
	SharesMinted *big.Int
	ToTreasury   bool
}

func (StakeBonded) EventType() string { return TypeStakeBonded }

// Event converts the payload into a broadcastable event.
func (e StakeBonded) Event() *types.Event {
	return &types.Event{Type: TypeStakeBonded, Attributes: map[string]string{
		"addr":       addrString(e.Account),
		"amount":     formatAmount(e.Amount),
		"shares":     formatAmount(e.SharesMinted),
		"toTreasury": strconv.FormatBool(e.ToTreasury),
	}}
}

// StakeRewardAdded captures reward liquidity entering the pool.
type StakeRewardAdded struct {
	Sender      [20]byte
	Amount      *big.Int
	TotalTokens *big.Int
}

func (StakeRewardAdded) EventType() string { return TypeStakeRewardAdded }

func (e StakeRewardAdded) Event() *types.Event {
	return &types.Event{Type: TypeStakeRewardAdded, Attributes: map[string]string{
		"sender":      addrString(e.Sender),
		"amount":      formatAmount(e.Amount),
		"totalTokens": formatAmount(e.TotalTokens),
	}}
}

// StakeUnbondRequested captures a withdrawal request entering cooldown.
type StakeUnbondRequested struct {
	Account [20]byte
	Amount  *big.Int
	Release uint64
	Day     uint64
}

func (StakeUnbondRequested) EventType() string { return TypeStakeUnbondRequested }

func (e StakeUnbondRequested) Event() *types.Event {
	return &types.Event{Type: TypeStakeUnbondRequested, Attributes: map[string]string{
		"addr":    addrString(e.Account),
		"amount":  formatAmount(e.Amount),
		"release": strconv.FormatUint(e.Release, 10),
		"day":     strconv.FormatUint(e.Day, 10),
	}}
}

// StakeUnbondFunded captures incoming liquidity consumed by daily buckets.
type StakeUnbondFunded struct {
	Sender   [20]byte
	Applied  *big.Int
	Refunded *big.Int
}

func (StakeUnbondFunded) EventType() string { return TypeStakeUnbondFunded }

func (e StakeUnbondFunded) Event() *types.Event {
	return &types.Event{Type: TypeStakeUnbondFunded, Attributes: map[string]string{
		"sender":   addrString(e.Sender),
		"applied":  formatAmount(e.Applied),
		"refunded": formatAmount(e.Refunded),
	}}
}

// StakeUnbondClaimed captures matured entries released to their owner.
type StakeUnbondClaimed struct {
	Account [20]byte
	Amount  *big.Int
	Entries uint64
}

func (StakeUnbondClaimed) EventType() string { return TypeStakeUnbondClaimed }

func (e StakeUnbondClaimed) Event() *types.Event {
	return &types.Event{Type: TypeStakeUnbondClaimed, Attributes: map[string]string{
		"addr":    addrString(e.Account),
		"amount":  formatAmount(e.Amount),
		"entries": strconv.FormatUint(e.Entries, 10),
	}}
}

// StakeRewardsClaimed captures rewards extracted from the pool.
type StakeRewardsClaimed struct {
	Account      [20]byte
	Amount       *big.Int
	SharesBurned *big.Int
	Compounded   bool
}

func (e StakeRewardsClaimed) EventType() string {
	if e.Compounded {
		return TypeStakeRewardsCompounded
	}
	return TypeStakeRewardsClaimed
}

func (e StakeRewardsClaimed) Event() *types.Event {
	return &types.Event{Type: e.EventType(), Attributes: map[string]string{
		"addr":   addrString(e.Account),
		"amount": formatAmount(e.Amount),
		"shares": formatAmount(e.SharesBurned),
	}}
}

// StakeConfigUpdated is emitted after an admin reconfiguration, including the
// flushed unsent buffer when a treasury is (re-)enabled.
type StakeConfigUpdated struct {
	UnbondSeconds   uint64
	TreasuryEnabled bool
	Flushed         *big.Int
}

func (StakeConfigUpdated) EventType() string { return TypeStakeConfigUpdated }

func (e StakeConfigUpdated) Event() *types.Event {
	return &types.Event{Type: TypeStakeConfigUpdated, Attributes: map[string]string{
		"unbondSeconds":   strconv.FormatUint(e.UnbondSeconds, 10),
		"treasuryEnabled": strconv.FormatBool(e.TreasuryEnabled),
		"flushed":         formatAmount(e.Flushed),
	}}
}

// StakeDistributorsUpdated is emitted when the allow-list or its toggle
// changes.
type StakeDistributorsUpdated struct {
	Count   int
	Enabled bool
}

func (StakeDistributorsUpdated) EventType() string { return TypeStakeDistributorsUpdated }

func (e StakeDistributorsUpdated) Event() *types.Event {
	return &types.Event{Type: TypeStakeDistributorsUpdated, Attributes: map[string]string{
		"count":   strconv.Itoa(e.Count),
		"enabled": strconv.FormatBool(e.Enabled),
	}}
}

// StakeBalanceExposed is emitted alongside the expose-balance notification.
type StakeBalanceExposed struct {
	Account   [20]byte
	Recipient [20]byte
	Balance   *big.Int
}

func (StakeBalanceExposed) EventType() string { return TypeStakeBalanceExposed }

func (e StakeBalanceExposed) Event() *types.Event {
	return &types.Event{Type: TypeStakeBalanceExposed, Attributes: map[string]string{
		"addr":      addrString(e.Account),
		"recipient": addrString(e.Recipient),
		"balance":   formatAmount(e.Balance),
	}}
}
