package main

// Mempool holds unconfirmed, validated transactions awaiting inclusion
// in a block, in arrival order, plus a set of known identity hashes
// for duplicate rejection (spec §3).
type Mempool struct {
	entries []*Transaction
	known   map[string]struct{}
}

// NewMempool returns an empty mempool.
func NewMempool() *Mempool {
	return &Mempool{known: make(map[string]struct{})}
}

// Add admits tx if its identity hash has not already been seen.
// Returns false for a duplicate.
func (m *Mempool) Add(tx *Transaction) bool {
	id := tx.IdentityHash()
	if _, seen := m.known[id]; seen {
		return false
	}
	m.known[id] = struct{}{}
	m.entries = append(m.entries, tx)
	return true
}

// Contains reports whether a transaction with this identity hash is
// already known to the mempool.
func (m *Mempool) Contains(identityHash string) bool {
	_, ok := m.known[identityHash]
	return ok
}

// Take removes and returns up to n transactions from the front of the
// mempool, in arrival order.
func (m *Mempool) Take(n int) []*Transaction {
	if n > len(m.entries) {
		n = len(m.entries)
	}
	taken := m.entries[:n]
	m.entries = m.entries[n:]
	return taken
}

// Len returns the number of unconfirmed transactions waiting.
func (m *Mempool) Len() int {
	return len(m.entries)
}

// All returns every pending transaction, in arrival order.
func (m *Mempool) All() []*Transaction {
	return append([]*Transaction(nil), m.entries...)
}
