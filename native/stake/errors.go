package stake

import "errors"

var (
	// ErrNilState is returned when the engine has no persistence wired.
	ErrNilState = errors.New("stake engine: state not configured")
	// ErrNotConfigured is returned when the stake config singleton is missing.
	ErrNotConfigured = errors.New("stake engine: staking not configured")
	// ErrInvalidAmount rejects nil, zero or negative amounts.
	ErrInvalidAmount = errors.New("stake engine: amount must be positive")
	// ErrNotStakeToken rejects deposits that do not originate from the
	// configured staked token.
	ErrNotStakeToken = errors.New("stake engine: not the stake token")
	// ErrNoReceiveType rejects deposit notifications without a classification.
	ErrNoReceiveType = errors.New("stake engine: no receive type supplied in message")
	// ErrNoStakedFunds is returned for mutating claims against an account
	// with no staking record.
	ErrNoStakedFunds = errors.New("stake engine: account has no staked funds")
	// ErrNoUnbondings is returned when claiming with no cooldown queue.
	ErrNoUnbondings = errors.New("stake engine: no unbonding queue found")
	// ErrInsufficientShares covers share underflow in the account or pool.
	ErrInsufficientShares = errors.New("stake engine: insufficient shares")
	// ErrInsufficientBalance covers token balance underflow.
	ErrInsufficientBalance = errors.New("stake engine: insufficient funds")
	// ErrBalanceOverflow is returned when an increment would push a balance
	// or supply counter above the supported maximum.
	ErrBalanceOverflow = errors.New("stake engine: balance would exceed the supported maximum")
	// ErrNotAuthorized rejects admin operations from non-admin callers.
	ErrNotAuthorized = errors.New("stake engine: caller is not an authorized admin")
	// ErrNotDistributor rejects reward deposits from senders outside the
	// enabled distributor allow-list.
	ErrNotDistributor = errors.New("stake engine: sender is not an allowed distributor")
)
