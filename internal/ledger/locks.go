package ledger

import (
	"sort"
	"sync"
)

// lockTable holds one mutex per account. Locks are acquired in sorted
// account-number order so two transfers running in opposite directions
// between the same pair of accounts cannot deadlock.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() lockTable {
	return lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) lockFor(number string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.locks[number]; !ok {
		t.locks[number] = &sync.Mutex{}
	}
	return t.locks[number]
}

// LockAccounts serializes balance mutation for the given accounts. The
// returned release function unlocks in reverse acquisition order. Duplicate
// numbers are collapsed; callers pass every account the operation touches.
func (l *Ledger) LockAccounts(numbers ...string) (release func()) {
	uniq := make([]string, 0, len(numbers))
	seen := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		uniq = append(uniq, n)
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, n := range uniq {
		mu := l.locks.lockFor(n)
		mu.Lock()
		held = append(held, mu)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
