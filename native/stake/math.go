package stake

import "math/big"

// maxUint128 caps every stored amount. The ledger predates arbitrary width
// storage encodings, so all balances, shares and supply counters must stay
// representable in 128 bits.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

const secondsPerDay uint64 = 24 * 60 * 60

// RoundDate truncates a unix timestamp down to its UTC day boundary. Daily
// unbonding buckets are keyed by this value.
func RoundDate(ts uint64) uint64 {
	return ts - ts%secondsPerDay
}

// tokenMultiplier returns 10^decimalDifference, the factor normalising the
// staked token's precision to the internal share precision.
func tokenMultiplier(decimalDifference uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalDifference)), nil)
}

// SharesPerToken converts a token amount into shares at the current pool rate.
// An empty pool bootstraps the rate at 1 token = 10^decimalDifference shares.
// The division truncates toward zero so rounding always favours the pool.
func SharesPerToken(cfg *Config, tokens, totalTokens, totalShares *big.Int) *big.Int {
	if tokens == nil {
		return big.NewInt(0)
	}
	if isZero(totalTokens) && isZero(totalShares) {
		return new(big.Int).Mul(tokens, tokenMultiplier(cfg.DecimalDifference))
	}
	if isZero(totalTokens) {
		return big.NewInt(0)
	}
	shares := new(big.Int).Mul(tokens, totalShares)
	return shares.Quo(shares, totalTokens)
}

// TokensPerShare converts a share amount into tokens at the current pool rate.
// The multiplication happens before the division on arbitrary-width integers,
// so the 128x128 bit intermediate product never overflows.
func TokensPerShare(cfg *Config, shares, totalTokens, totalShares *big.Int) *big.Int {
	if shares == nil {
		return big.NewInt(0)
	}
	if isZero(totalTokens) && isZero(totalShares) {
		return new(big.Int).Quo(shares, tokenMultiplier(cfg.DecimalDifference))
	}
	if isZero(totalShares) {
		return big.NewInt(0)
	}
	tokens := new(big.Int).Mul(shares, totalTokens)
	return tokens.Quo(tokens, totalShares)
}

// CalculateRewards returns the gap between what an account's shares are worth
// and its recorded token basis, in tokens and in shares. A basis exceeding the
// current worth yields zero rewards rather than a negative amount.
func CalculateRewards(cfg *Config, tokens, shares, totalTokens, totalShares *big.Int) (rewardTokens, rewardShares *big.Int) {
	worth := TokensPerShare(cfg, shares, totalTokens, totalShares)
	rewardTokens = new(big.Int).Sub(worth, tokens)
	if rewardTokens.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	return rewardTokens, SharesPerToken(cfg, rewardTokens, totalTokens, totalShares)
}

func isZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}

// checkedAdd returns a+b or ErrBalanceOverflow when the sum leaves the
// supported 128 bit range.
func checkedAdd(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if sum.Cmp(maxUint128) > 0 {
		return nil, ErrBalanceOverflow
	}
	return sum, nil
}

// checkedSub returns a-b or the supplied sentinel when the difference would be
// negative.
func checkedSub(a, b *big.Int, insufficient error) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, insufficient
	}
	return new(big.Int).Sub(a, b), nil
}
