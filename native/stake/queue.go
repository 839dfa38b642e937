package stake

import (
	"math/big"
	"sort"
)

// DailyUnbondingQueue is the global funding ledger: one bucket per UTC day,
// ordered ascending by release day with no duplicate keys. Buckets are never
// deleted; a fully funded bucket is inert but stays queryable.
type DailyUnbondingQueue struct {
	Buckets []DailyUnbonding
}

// search returns the index of the first bucket with Release >= day.
func (q *DailyUnbondingQueue) search(day uint64) int {
	return sort.Search(len(q.Buckets), func(i int) bool {
		return q.Buckets[i].Release >= day
	})
}

// bucket returns the bucket keyed by day, or nil when absent.
func (q *DailyUnbondingQueue) bucket(day uint64) *DailyUnbonding {
	if q == nil {
		return nil
	}
	idx := q.search(day)
	if idx < len(q.Buckets) && q.Buckets[idx].Release == day {
		return &q.Buckets[idx]
	}
	return nil
}

// RequestUnbonding adds amount to the bucket keyed by day, creating the bucket
// lazily on first use. Growing Requested past Funded reopens the bucket.
func (q *DailyUnbondingQueue) RequestUnbonding(day uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if existing := q.bucket(day); existing != nil {
		grown, err := checkedAdd(existing.requested(), amount)
		if err != nil {
			return err
		}
		existing.Requested = grown
		return nil
	}
	idx := q.search(day)
	q.Buckets = append(q.Buckets, DailyUnbonding{})
	copy(q.Buckets[idx+1:], q.Buckets[idx:])
	q.Buckets[idx] = DailyUnbonding{
		Release:   day,
		Requested: new(big.Int).Set(amount),
		Funded:    big.NewInt(0),
	}
	return nil
}

// Fund walks buckets in ascending day order, topping each one up until the
// liquidity runs out, and returns whatever is left once every current
// obligation is covered. The remainder is never silently dropped; callers
// route it onward.
func (q *DailyUnbondingQueue) Fund(amount *big.Int) *big.Int {
	if q == nil || amount == nil {
		return big.NewInt(0)
	}
	remaining := new(big.Int).Set(amount)
	for i := range q.Buckets {
		if remaining.Sign() == 0 {
			break
		}
		remaining = q.Buckets[i].Fund(remaining)
	}
	return remaining
}

// IsFunded reports whether a bucket exists for day and is fully backed.
func (q *DailyUnbondingQueue) IsFunded(day uint64) bool {
	return q.bucket(day).IsFunded()
}

// TotalUnfunded sums requested-minus-funded over up to limit buckets with
// Release >= fromDay. A limit <= 0 scans nothing, keeping read-path work
// bounded by the caller.
func (q *DailyUnbondingQueue) TotalUnfunded(fromDay uint64, limit int) *big.Int {
	total := big.NewInt(0)
	if q == nil || limit <= 0 {
		return total
	}
	for idx := q.search(fromDay); idx < len(q.Buckets) && limit > 0; idx++ {
		b := &q.Buckets[idx]
		missing := new(big.Int).Sub(b.requested(), b.funded())
		if missing.Sign() > 0 {
			total.Add(total, missing)
		}
		limit--
	}
	return total
}

// TotalUnbonding sums the requested volume of every bucket with
// start < Release <= end.
func (q *DailyUnbondingQueue) TotalUnbonding(start, end uint64) *big.Int {
	total := big.NewInt(0)
	if q == nil {
		return total
	}
	for i := range q.Buckets {
		b := &q.Buckets[i]
		if b.Release <= start {
			continue
		}
		if b.Release > end {
			break
		}
		total.Add(total, b.requested())
	}
	return total
}

// UnbondingQueue holds one account's cooldown entries ordered by release time
// ascending, ties broken by insertion order.
type UnbondingQueue struct {
	Entries []Unbonding
}

// Push inserts the entry keeping release order stable.
func (q *UnbondingQueue) Push(entry Unbonding) {
	idx := sort.Search(len(q.Entries), func(i int) bool {
		return q.Entries[i].Release > entry.Release
	})
	q.Entries = append(q.Entries, Unbonding{})
	copy(q.Entries[idx+1:], q.Entries[idx:])
	q.Entries[idx] = entry
}

// Peek returns the earliest entry without removing it, or nil when empty.
func (q *UnbondingQueue) Peek() *Unbonding {
	if q == nil || len(q.Entries) == 0 {
		return nil
	}
	return &q.Entries[0]
}

// Pop removes the earliest entry.
func (q *UnbondingQueue) Pop() {
	if q == nil || len(q.Entries) == 0 {
		return
	}
	q.Entries = q.Entries[1:]
}

// Len reports the number of pending entries.
func (q *UnbondingQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Entries)
}
