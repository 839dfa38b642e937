package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/native/stake"
	"stakevault/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestKVRoundTrip(t *testing.T) {
	m := newTestManager(t)

	type record struct {
		Name  string
		Value uint64
	}
	require.NoError(t, m.KVPut([]byte("test/record"), record{Name: "a", Value: 7}))

	var out record
	exists, err := m.KVGet([]byte("test/record"), &out)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, record{Name: "a", Value: 7}, out)

	exists, err = m.KVGet([]byte("test/missing"), &out)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestOverlayCommitAndRevert(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	require.NoError(t, m.SetTotalTokens(big.NewInt(42)))
	require.True(t, m.Dirty())

	// Uncommitted writes are visible through the manager but not yet stored.
	tokens, err := m.TotalTokens()
	require.NoError(t, err)
	require.Equal(t, int64(42), tokens.Int64())

	fresh := NewManager(db)
	tokens, err = fresh.TotalTokens()
	require.NoError(t, err)
	require.Zero(t, tokens.Sign())

	require.NoError(t, m.Commit())
	require.False(t, m.Dirty())
	tokens, err = fresh.TotalTokens()
	require.NoError(t, err)
	require.Equal(t, int64(42), tokens.Int64())

	require.NoError(t, m.SetTotalTokens(big.NewInt(99)))
	m.Revert()
	require.False(t, m.Dirty())
	tokens, err = m.TotalTokens()
	require.NoError(t, err)
	require.Equal(t, int64(42), tokens.Int64())
}

func TestStakeConfigRoundTrip(t *testing.T) {
	m := newTestManager(t)

	cfg, err := m.StakeConfig()
	require.NoError(t, err)
	require.Nil(t, cfg)

	want := &stake.Config{
		UnbondSeconds:     604800,
		StakedToken:       [20]byte{0x01},
		DecimalDifference: 6,
		Treasury:          [20]byte{0x02},
		TreasuryEnabled:   true,
	}
	require.NoError(t, m.SetStakeConfig(want))

	cfg, err = m.StakeConfig()
	require.NoError(t, err)
	require.Equal(t, want, cfg)

	require.Error(t, m.SetStakeConfig(nil))
}

func TestUserSharesExistence(t *testing.T) {
	m := newTestManager(t)
	addr := [20]byte{0x0A}

	_, exists, err := m.UserShares(addr)
	require.NoError(t, err)
	require.False(t, exists)

	// A record explicitly set to zero still exists: it distinguishes an
	// account that unbonded everything from one that never staked.
	require.NoError(t, m.SetUserShares(addr, big.NewInt(0)))
	shares, exists, err := m.UserShares(addr)
	require.NoError(t, err)
	require.True(t, exists)
	require.Zero(t, shares.Sign())

	require.NoError(t, m.SetUserShares(addr, big.NewInt(123)))
	shares, exists, err = m.UserShares(addr)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, int64(123), shares.Int64())
}

func TestSetAmountRejectsOutOfRange(t *testing.T) {
	m := newTestManager(t)
	require.Error(t, m.SetTotalTokens(big.NewInt(-1)))
	over := new(big.Int).Lsh(big.NewInt(1), 256)
	require.Error(t, m.SetTotalTokens(over))
}

func TestDailyUnbondingQueueRoundTrip(t *testing.T) {
	m := newTestManager(t)

	queue, err := m.DailyUnbondingQueue()
	require.NoError(t, err)
	require.Empty(t, queue.Buckets)

	require.NoError(t, queue.RequestUnbonding(86400, big.NewInt(50)))
	require.NoError(t, m.SetDailyUnbondingQueue(queue))

	loaded, err := m.DailyUnbondingQueue()
	require.NoError(t, err)
	require.Len(t, loaded.Buckets, 1)
	require.Equal(t, uint64(86400), loaded.Buckets[0].Release)
	require.Equal(t, int64(50), loaded.Buckets[0].Requested.Int64())
	require.Zero(t, loaded.Buckets[0].Funded.Sign())
}

func TestUnbondingQueueRoundTrip(t *testing.T) {
	m := newTestManager(t)
	addr := [20]byte{0x0A}

	_, exists, err := m.UnbondingQueue(addr)
	require.NoError(t, err)
	require.False(t, exists)

	queue := &stake.UnbondingQueue{}
	queue.Push(stake.Unbonding{Amount: big.NewInt(10), Release: 1000, Day: 0})
	require.NoError(t, m.SetUnbondingQueue(addr, queue))

	loaded, exists, err := m.UnbondingQueue(addr)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 1, loaded.Len())
	require.Equal(t, int64(10), loaded.Peek().Amount.Int64())
}

func TestDistributorsRoundTrip(t *testing.T) {
	m := newTestManager(t)

	list, err := m.Distributors()
	require.NoError(t, err)
	require.Empty(t, list)

	enabled, err := m.DistributorsEnabled()
	require.NoError(t, err)
	require.False(t, enabled)

	want := [][20]byte{{0x01}, {0x02}}
	require.NoError(t, m.SetDistributors(want))
	require.NoError(t, m.SetDistributorsEnabled(true))

	list, err = m.Distributors()
	require.NoError(t, err)
	require.Equal(t, want, list)

	enabled, err = m.DistributorsEnabled()
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestHistoryPagination(t *testing.T) {
	m := newTestManager(t)
	addr := [20]byte{0x0A}

	entries, total, err := m.History(addr, 0, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, entries)

	for i := 1; i <= 5; i++ {
		require.NoError(t, m.AppendHistory(addr, HistoryEntry{
			Kind:      HistoryStake,
			Amount:    big.NewInt(int64(i)),
			Timestamp: uint64(i),
		}))
	}

	// Newest first, two per page.
	entries, total, err = m.History(addr, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, entries, 2)
	require.Equal(t, int64(5), entries[0].Amount.Int64())
	require.Equal(t, int64(4), entries[1].Amount.Int64())

	entries, _, err = m.History(addr, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(1), entries[0].Amount.Int64())

	entries, _, err = m.History(addr, 9, 2)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, _, err = m.History(addr, 0, 0)
	require.Error(t, err)
}
