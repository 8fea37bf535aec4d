package main

import "testing"

func TestMempoolAddRejectsDuplicate(t *testing.T) {
	m := NewMempool()
	tx := sampleTxs(1)[0]
	if !m.Add(tx) {
		t.Fatalf("expected first Add to succeed")
	}
	if m.Add(tx) {
		t.Fatalf("expected duplicate Add to be rejected")
	}
	if m.Len() != 1 {
		t.Fatalf("expected exactly one entry, got %d", m.Len())
	}
}

func TestMempoolTakeRemovesFromFront(t *testing.T) {
	m := NewMempool()
	txs := sampleTxs(3)
	for _, tx := range txs {
		m.Add(tx)
	}
	taken := m.Take(2)
	if len(taken) != 2 || taken[0] != txs[0] || taken[1] != txs[1] {
		t.Fatalf("expected the first two transactions in arrival order")
	}
	if m.Len() != 1 {
		t.Fatalf("expected one transaction left, got %d", m.Len())
	}
}

func TestMempoolTakeCapsAtAvailableLength(t *testing.T) {
	m := NewMempool()
	m.Add(sampleTxs(1)[0])
	if got := m.Take(10); len(got) != 1 {
		t.Fatalf("expected Take to cap at available length, got %d", len(got))
	}
}
