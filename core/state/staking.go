package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"stakevault/native/stake"
)

// Amount records are stored as fixed-width 256-bit big-endian values. The
// uint256 conversion doubles as the final guard against out-of-range values
// reaching disk; the engine enforces the tighter 128-bit ceiling.
func (m *Manager) amount(key []byte) (*big.Int, error) {
	data, err := m.get(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(data), nil
}

func (m *Manager) setAmount(key []byte, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	encoded, overflow := uint256.FromBig(value)
	if overflow || value.Sign() < 0 {
		return fmt.Errorf("state: amount out of range")
	}
	fixed := encoded.Bytes32()
	m.put(key, fixed[:])
	return nil
}

// StakeConfig loads the staking configuration singleton, nil when unset.
func (m *Manager) StakeConfig() (*stake.Config, error) {
	cfg := new(stake.Config)
	exists, err := m.KVGet(stakeConfigKey, cfg)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return cfg, nil
}

// SetStakeConfig persists the staking configuration singleton.
func (m *Manager) SetStakeConfig(cfg *stake.Config) error {
	if cfg == nil {
		return fmt.Errorf("state: nil stake config")
	}
	return m.KVPut(stakeConfigKey, cfg)
}

func (m *Manager) TotalShares() (*big.Int, error) { return m.amount(totalSharesKey) }

func (m *Manager) SetTotalShares(v *big.Int) error { return m.setAmount(totalSharesKey, v) }

func (m *Manager) TotalTokens() (*big.Int, error) { return m.amount(totalTokensKey) }

func (m *Manager) SetTotalTokens(v *big.Int) error { return m.setAmount(totalTokensKey, v) }

func (m *Manager) TotalSupply() (*big.Int, error) { return m.amount(totalSupplyKey) }

func (m *Manager) SetTotalSupply(v *big.Int) error { return m.setAmount(totalSupplyKey, v) }

func (m *Manager) UnsentStakedTokens() (*big.Int, error) {
	return m.amount(unsentStakedTokensKey)
}

func (m *Manager) SetUnsentStakedTokens(v *big.Int) error {
	return m.setAmount(unsentStakedTokensKey, v)
}

// UserShares returns the account's share record. The boolean distinguishes an
// account that unbonded down to zero from one that never staked.
func (m *Manager) UserShares(addr [20]byte) (*big.Int, bool, error) {
	data, err := m.get(accountKey(userSharesPrefix, addr))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return big.NewInt(0), false, nil
	}
	return new(big.Int).SetBytes(data), true, nil
}

func (m *Manager) SetUserShares(addr [20]byte, shares *big.Int) error {
	return m.setAmount(accountKey(userSharesPrefix, addr), shares)
}

// AccountBalance returns the account's token balance, the principal basis
// used for reward computation.
func (m *Manager) AccountBalance(addr [20]byte) (*big.Int, error) {
	return m.amount(accountKey(accountBalancePrefix, addr))
}

func (m *Manager) SetAccountBalance(addr [20]byte, balance *big.Int) error {
	return m.setAmount(accountKey(accountBalancePrefix, addr), balance)
}

// DailyUnbondingQueue loads the global funding ledger, empty when unset.
func (m *Manager) DailyUnbondingQueue() (*stake.DailyUnbondingQueue, error) {
	queue := new(stake.DailyUnbondingQueue)
	if _, err := m.KVGet(dailyUnbondingQueueKey, queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (m *Manager) SetDailyUnbondingQueue(queue *stake.DailyUnbondingQueue) error {
	if queue == nil {
		queue = new(stake.DailyUnbondingQueue)
	}
	return m.KVPut(dailyUnbondingQueueKey, queue)
}

// UnbondingQueue loads an account's cooldown queue. The boolean reports
// whether the account ever filed an unbond request.
func (m *Manager) UnbondingQueue(addr [20]byte) (*stake.UnbondingQueue, bool, error) {
	queue := new(stake.UnbondingQueue)
	exists, err := m.KVGet(accountKey(unbondingQueuePrefix, addr), queue)
	if err != nil {
		return nil, false, err
	}
	return queue, exists, nil
}

func (m *Manager) SetUnbondingQueue(addr [20]byte, queue *stake.UnbondingQueue) error {
	if queue == nil {
		queue = new(stake.UnbondingQueue)
	}
	return m.KVPut(accountKey(unbondingQueuePrefix, addr), queue)
}

// Distributors loads the reward distributor allow-list.
func (m *Manager) Distributors() ([][20]byte, error) {
	var distributors [][20]byte
	if _, err := m.KVGet(distributorsKey, &distributors); err != nil {
		return nil, err
	}
	return distributors, nil
}

func (m *Manager) SetDistributors(distributors [][20]byte) error {
	if distributors == nil {
		distributors = [][20]byte{}
	}
	return m.KVPut(distributorsKey, distributors)
}

func (m *Manager) DistributorsEnabled() (bool, error) {
	var enabled bool
	if _, err := m.KVGet(distributorsToggleKey, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

func (m *Manager) SetDistributorsEnabled(enabled bool) error {
	return m.KVPut(distributorsToggleKey, enabled)
}
