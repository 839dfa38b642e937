package stake

import (
	"math/big"
	"time"
)

// DayFormat renders bucket keys as UTC calendar dates in logs and queries.
const DayFormat = "2006-01-02"

// Config is the singleton staking configuration. Treasury forwarding is
// optional; when disabled, bonded principal accumulates in the unsent buffer
// until a treasury is configured.
type Config struct {
	// UnbondSeconds is the cooldown applied to every unbond request.
	UnbondSeconds uint64
	// StakedToken identifies the only deposit asset the ledger accepts.
	StakedToken [20]byte
	// DecimalDifference is the exponent normalising the staked token's
	// decimal precision to the internal share precision.
	DecimalDifference uint8
	// Treasury receives freshly bonded principal when enabled.
	Treasury        [20]byte
	TreasuryEnabled bool
}

// TreasuryAddress returns the configured treasury and whether forwarding is
// enabled.
func (c *Config) TreasuryAddress() ([20]byte, bool) {
	if c == nil || !c.TreasuryEnabled {
		return [20]byte{}, false
	}
	return c.Treasury, true
}

// Clone returns a deep copy so callers can mutate without aliasing state.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Unbonding is a single cooldown entry owned by one account. Day records the
// bucket the request was filed under, which is keyed by the request day, not
// the release day.
type Unbonding struct {
	Amount  *big.Int
	Release uint64
	Day     uint64
}

// DailyUnbonding aggregates every unbond request filed on one UTC day and
// tracks how much incoming liquidity has been allocated against it. Funded
// never exceeds Requested; new same-day requests can reopen a bucket that was
// previously fully funded.
type DailyUnbonding struct {
	Release   uint64
	Requested *big.Int
	Funded    *big.Int
}

// IsFunded reports whether the bucket's obligations are fully backed.
func (d *DailyUnbonding) IsFunded() bool {
	if d == nil {
		return false
	}
	return d.funded().Cmp(d.requested()) >= 0
}

// Fund allocates as much of amount as the bucket still needs and returns the
// remainder.
func (d *DailyUnbonding) Fund(amount *big.Int) *big.Int {
	if d == nil || amount == nil || amount.Sign() <= 0 {
		return amount
	}
	missing := new(big.Int).Sub(d.requested(), d.funded())
	if missing.Sign() <= 0 {
		return amount
	}
	if amount.Cmp(missing) <= 0 {
		d.Funded = new(big.Int).Add(d.funded(), amount)
		return big.NewInt(0)
	}
	d.Funded = new(big.Int).Set(d.Requested)
	return new(big.Int).Sub(amount, missing)
}

func (d *DailyUnbonding) requested() *big.Int {
	if d.Requested == nil {
		return big.NewInt(0)
	}
	return d.Requested
}

func (d *DailyUnbonding) funded() *big.Int {
	if d.Funded == nil {
		return big.NewInt(0)
	}
	return d.Funded
}

// DayString renders a bucket key as a UTC calendar date.
func DayString(day uint64) string {
	return time.Unix(int64(day), 0).UTC().Format(DayFormat)
}

// DayString renders the bucket key as a UTC calendar date.
func (d *DailyUnbonding) DayString() string {
	return DayString(d.Release)
}

// StakedInfo summarises an account's position for queries. Unbonded is only
// populated when the query supplied an as-of time.
type StakedInfo struct {
	Tokens         *big.Int
	Shares         *big.Int
	PendingRewards *big.Int
	Unbonding      *big.Int
	Unbonded       *big.Int
}

// BalanceNotification is the outbound expose-balance callback payload.
type BalanceNotification struct {
	Sender    [20]byte
	Recipient [20]byte
	Balance   *big.Int
	Memo      string
}
