package state

// Namespaced record keys. Singletons are stored once; the per-account records
// append the account address to their prefix.
var (
	stakeConfigKey         = []byte("staking/stake_config")
	totalSharesKey         = []byte("staking/total_shares")
	totalTokensKey         = []byte("staking/total_tokens")
	totalSupplyKey         = []byte("staking/total_supply")
	unsentStakedTokensKey  = []byte("staking/unsent_staked_tokens")
	dailyUnbondingQueueKey = []byte("staking/daily_unbonding_queue")
	distributorsKey        = []byte("staking/distributors")
	distributorsToggleKey  = []byte("staking/distributors_enabled")

	userSharesPrefix     = []byte("staking/user_shares/")
	accountBalancePrefix = []byte("staking/balances/")
	unbondingQueuePrefix = []byte("staking/unbonding_queue/")
	historyPrefix        = []byte("staking/history/")
)

func accountKey(prefix []byte, addr [20]byte) []byte {
	key := make([]byte, len(prefix)+len(addr))
	copy(key, prefix)
	copy(key[len(prefix):], addr[:])
	return key
}
