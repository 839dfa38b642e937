package stake

import (
	"math/big"
	"testing"
)

func testConfig() *Config {
	return &Config{
		UnbondSeconds:     7 * secondsPerDay,
		StakedToken:       [20]byte{0x01},
		DecimalDifference: 6,
	}
}

func TestRoundDate(t *testing.T) {
	cases := []struct {
		ts   uint64
		want uint64
	}{
		{0, 0},
		{1, 0},
		{86399, 0},
		{86400, 86400},
		{86401, 86400},
		{1700000000, 1699920000},
	}
	for _, tc := range cases {
		if got := RoundDate(tc.ts); got != tc.want {
			t.Fatalf("RoundDate(%d) = %d, want %d", tc.ts, got, tc.want)
		}
	}
}

func TestSharesPerTokenBootstrap(t *testing.T) {
	cfg := testConfig()
	got := SharesPerToken(cfg, big.NewInt(5), big.NewInt(0), big.NewInt(0))
	if got.Cmp(big.NewInt(5_000_000)) != 0 {
		t.Fatalf("empty pool bootstrap: got %s, want 5000000", got)
	}
}

func TestSharesPerTokenAtRate(t *testing.T) {
	cfg := testConfig()
	// Pool worth 200 tokens backing 100 shares: 1 token buys half a share.
	got := SharesPerToken(cfg, big.NewInt(10), big.NewInt(200), big.NewInt(100))
	if got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("got %s, want 5", got)
	}
}

func TestSharesPerTokenTruncates(t *testing.T) {
	cfg := testConfig()
	// 1 * 100 / 3 = 33.33, truncated to 33 in the pool's favour.
	got := SharesPerToken(cfg, big.NewInt(1), big.NewInt(3), big.NewInt(100))
	if got.Cmp(big.NewInt(33)) != 0 {
		t.Fatalf("got %s, want 33", got)
	}
}

func TestTokensPerShareBootstrap(t *testing.T) {
	cfg := testConfig()
	got := TokensPerShare(cfg, big.NewInt(5_000_000), big.NewInt(0), big.NewInt(0))
	if got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("empty pool bootstrap: got %s, want 5", got)
	}
}

func TestRateRoundTrip(t *testing.T) {
	cfg := testConfig()
	totalTokens := big.NewInt(1_000_000)
	totalShares := big.NewInt(4_000_000_000_000)

	tokens := big.NewInt(123_456)
	shares := SharesPerToken(cfg, tokens, totalTokens, totalShares)
	back := TokensPerShare(cfg, shares, totalTokens, totalShares)
	if back.Cmp(tokens) > 0 {
		t.Fatalf("round trip inflated value: %s tokens became %s", tokens, back)
	}
	diff := new(big.Int).Sub(tokens, back)
	if diff.Cmp(big.NewInt(1)) > 0 {
		t.Fatalf("round trip lost more than a unit: %s", diff)
	}
}

func TestSharesPerTokenScaleInvariant(t *testing.T) {
	cfg := testConfig()
	tokens := big.NewInt(777)
	totalTokens := big.NewInt(12_345)
	totalShares := big.NewInt(67_890_000)

	base := SharesPerToken(cfg, tokens, totalTokens, totalShares)
	doubled := SharesPerToken(cfg, tokens,
		new(big.Int).Mul(totalTokens, big.NewInt(2)),
		new(big.Int).Mul(totalShares, big.NewInt(2)))
	if base.Cmp(doubled) != 0 {
		t.Fatalf("rate should be scale invariant: %s vs %s", base, doubled)
	}
}

func TestSharesPerTokenDegeneratePools(t *testing.T) {
	cfg := testConfig()
	if got := SharesPerToken(cfg, big.NewInt(10), big.NewInt(0), big.NewInt(5)); got.Sign() != 0 {
		t.Fatalf("zero-token pool should value deposits at 0 shares, got %s", got)
	}
	if got := TokensPerShare(cfg, big.NewInt(10), big.NewInt(5), big.NewInt(0)); got.Sign() != 0 {
		t.Fatalf("zero-share pool should value shares at 0 tokens, got %s", got)
	}
}

func TestCalculateRewards(t *testing.T) {
	cfg := testConfig()
	// Account holds 100m shares with a basis of 100 tokens while the pool
	// rate says they are worth 150.
	totalTokens := big.NewInt(150)
	totalShares := big.NewInt(100_000_000)
	rewardTokens, rewardShares := CalculateRewards(cfg, big.NewInt(100), big.NewInt(100_000_000), totalTokens, totalShares)
	if rewardTokens.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("reward tokens: got %s, want 50", rewardTokens)
	}
	wantShares := SharesPerToken(cfg, big.NewInt(50), totalTokens, totalShares)
	if rewardShares.Cmp(wantShares) != 0 {
		t.Fatalf("reward shares: got %s, want %s", rewardShares, wantShares)
	}
}

func TestCalculateRewardsNeverNegative(t *testing.T) {
	cfg := testConfig()
	// Basis above current worth, e.g. after truncation drift.
	rewardTokens, rewardShares := CalculateRewards(cfg, big.NewInt(100), big.NewInt(50_000_000), big.NewInt(100), big.NewInt(100_000_000))
	if rewardTokens.Sign() != 0 || rewardShares.Sign() != 0 {
		t.Fatalf("expected zero rewards, got %s tokens / %s shares", rewardTokens, rewardShares)
	}
}

func TestCheckedAddOverflow(t *testing.T) {
	if _, err := checkedAdd(maxUint128, big.NewInt(1)); err != ErrBalanceOverflow {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}
	sum, err := checkedAdd(new(big.Int).Sub(maxUint128, big.NewInt(1)), big.NewInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Cmp(maxUint128) != 0 {
		t.Fatalf("sum mismatch: %s", sum)
	}
}

func TestCheckedSubUnderflow(t *testing.T) {
	if _, err := checkedSub(big.NewInt(1), big.NewInt(2), ErrInsufficientBalance); err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	diff, err := checkedSub(big.NewInt(2), big.NewInt(2), ErrInsufficientBalance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff.Sign() != 0 {
		t.Fatalf("diff mismatch: %s", diff)
	}
}
