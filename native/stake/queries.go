package stake

import (
	"math"
	"math/big"
)

// Queries are read-only and never mutate state. Accounts without a record
// produce empty results rather than errors.

// Config returns the current staking configuration.
func (e *Engine) Config() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// TotalStaked reports the pool counters: tokens backing shares (rewards
// included) and outstanding share claims.
func (e *Engine) TotalStaked() (tokens, shares *big.Int, err error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	tokens, err = e.state.TotalTokens()
	if err != nil {
		return nil, nil, err
	}
	shares, err = e.state.TotalShares()
	if err != nil {
		return nil, nil, err
	}
	return tokens, shares, nil
}

// StakeRate returns the shares one token currently buys.
func (e *Engine) StakeRate() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	tokens, shares, err := e.TotalStaked()
	if err != nil {
		return nil, err
	}
	return SharesPerToken(cfg, big.NewInt(1), tokens, shares), nil
}

// Unbonding sums the requested withdrawal volume across buckets with
// start < release day <= end. A zero end means no upper bound.
func (e *Engine) Unbonding(start, end uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if end == 0 {
		end = math.MaxUint64
	}
	queue, err := e.state.DailyUnbondingQueue()
	if err != nil {
		return nil, err
	}
	return queue.TotalUnbonding(start, end), nil
}

// Unfunded sums the outstanding (requested minus funded) obligations over up
// to limit buckets from fromDay onward.
func (e *Engine) Unfunded(fromDay uint64, limit int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	queue, err := e.state.DailyUnbondingQueue()
	if err != nil {
		return nil, err
	}
	return queue.TotalUnfunded(fromDay, limit), nil
}

// Staked summarises an account's position. When asOf is non-nil the cooldown
// entries are split into matured (Unbonded) and still cooling (Unbonding);
// otherwise everything pending counts as Unbonding and Unbonded stays nil.
func (e *Engine) Staked(addr [20]byte, asOf *uint64) (*StakedInfo, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	balance, err := e.state.AccountBalance(addr)
	if err != nil {
		return nil, err
	}
	shares, _, err := e.state.UserShares(addr)
	if err != nil {
		return nil, err
	}
	totalTokens, totalShares, err := e.TotalStaked()
	if err != nil {
		return nil, err
	}
	rewards, _ := CalculateRewards(cfg, balance, shares, totalTokens, totalShares)

	queue, _, err := e.state.UnbondingQueue(addr)
	if err != nil {
		return nil, err
	}
	info := &StakedInfo{
		Tokens:         balance,
		Shares:         shares,
		PendingRewards: rewards,
		Unbonding:      big.NewInt(0),
	}
	if asOf != nil {
		info.Unbonded = big.NewInt(0)
	}
	for i := range queue.Entries {
		entry := &queue.Entries[i]
		if asOf != nil && entry.Release <= *asOf {
			info.Unbonded.Add(info.Unbonded, entry.Amount)
			continue
		}
		info.Unbonding.Add(info.Unbonding, entry.Amount)
	}
	return info, nil
}

// DistributorList returns the allow-list and whether enforcement is enabled.
func (e *Engine) DistributorList() ([][20]byte, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	distributors, err := e.state.Distributors()
	if err != nil {
		return nil, false, err
	}
	enabled, err := e.state.DistributorsEnabled()
	if err != nil {
		return nil, false, err
	}
	return distributors, enabled, nil
}
