package main

import (
	"context"
	"testing"
	"time"
)

func newTestChain(t *testing.T, difficulty int) *Chain {
	t.Helper()
	c, err := NewChain(difficulty, NewMemStore(), nil)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	return c
}

func TestNewChainSeedsGenesis(t *testing.T) {
	c := newTestChain(t, 1)
	if c.Height() != 1 {
		t.Fatalf("expected height 1 after genesis seed, got %d", c.Height())
	}
	tip := c.Tip()
	if tip.PreviousHash != genesisPrevHash {
		t.Fatalf("genesis previous_hash mismatch")
	}
}

func TestMineAndAcceptAppendsBlock(t *testing.T) {
	c := newTestChain(t, 1)
	sender, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	recipient, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	tx, err := sender.CreateTransaction(recipient.Address, 10, 1, nil)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if !c.AddTransaction(tx) {
		t.Fatalf("expected transaction to be admitted to the mempool")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	block, ok := c.Mine(ctx, "miner-address")
	if !ok {
		t.Fatalf("expected mining to succeed")
	}
	if c.Height() != 2 {
		t.Fatalf("expected height 2 after mining, got %d", c.Height())
	}
	if c.Tip().Hash != block.Hash {
		t.Fatalf("tip does not match the mined block")
	}
	if c.MempoolLen() != 0 {
		t.Fatalf("expected mempool to be drained after mining")
	}
}

func TestAddBlockRejectsBadProofOfWork(t *testing.T) {
	c := newTestChain(t, 4)
	tip := c.Tip()
	candidate := NewCandidateBlock(tip.Hash, "miner", nil, 4, time.Now().Unix())
	// Not actually mined: almost certainly fails the difficulty-4 prefix.
	if err := c.AddBlock(candidate); err == nil {
		t.Fatalf("expected an unmined candidate block to be rejected")
	}
}

func TestAddBlockOrphanThenReconnect(t *testing.T) {
	c := newTestChain(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pow := NewProofOfWork(1, nil)

	block1 := NewCandidateBlock(c.Tip().Hash, "miner", nil, 1, 1)
	if !pow.Mine(ctx, block1) {
		t.Fatalf("mining block1 failed")
	}
	block2 := NewCandidateBlock(block1.Hash, "miner", nil, 1, 2)
	if !pow.Mine(ctx, block2) {
		t.Fatalf("mining block2 failed")
	}

	// Submit block2 first: it cannot connect to the tip yet, so it goes to pending.
	if err := c.AddBlock(block2); err == nil {
		t.Fatalf("expected block2 to be reported as a state conflict while orphaned")
	}
	if c.Height() != 1 {
		t.Fatalf("chain should not have grown from an orphan block")
	}
	if c.PendingCount() != 1 {
		t.Fatalf("expected the orphan to be tracked in pending")
	}

	// Submitting block1 should connect it and then drain block2 from pending.
	if err := c.AddBlock(block1); err != nil {
		t.Fatalf("AddBlock(block1): %v", err)
	}
	if c.Height() != 3 {
		t.Fatalf("expected height 3 after the orphan drains, got %d", c.Height())
	}
	if c.PendingCount() != 0 {
		t.Fatalf("expected pending set to be empty after draining")
	}
}

func TestReplaceChainRequiresStrictlyLonger(t *testing.T) {
	c := newTestChain(t, 1)
	same := c.Blocks()
	if c.ReplaceChain(same) {
		t.Fatalf("a chain of equal length must not replace the current chain")
	}
}

func TestReplaceChainAcceptsLongerValidChain(t *testing.T) {
	c := newTestChain(t, 1)
	pow := NewProofOfWork(1, nil)

	genesis := c.Blocks()[0]
	block1 := NewCandidateBlock(genesis.Hash, "miner", nil, 1, 1)
	if !pow.Mine(context.Background(), block1) {
		t.Fatalf("mining block1 failed")
	}
	candidate := []*Block{genesis, block1}

	if !c.ReplaceChain(candidate) {
		t.Fatalf("expected a valid, strictly longer chain to be accepted")
	}
	if c.Height() != 2 {
		t.Fatalf("expected height 2 after replacement, got %d", c.Height())
	}
}

func TestReplaceChainRejectsMismatchedGenesis(t *testing.T) {
	c := newTestChain(t, 1)
	foreignGenesis := NewGenesisBlock(2)
	pow := NewProofOfWork(1, nil)
	block1 := NewCandidateBlock(foreignGenesis.Hash, "miner", nil, 1, 1)
	if !pow.Mine(context.Background(), block1) {
		t.Fatalf("mining block1 failed")
	}
	if c.ReplaceChain([]*Block{foreignGenesis, block1}) {
		t.Fatalf("a chain with a different genesis block must never replace ours")
	}
}

func TestGetBalanceReplaysChain(t *testing.T) {
	c := newTestChain(t, 1)
	sender, _ := NewWallet()
	recipient, _ := NewWallet()
	tx, err := sender.CreateTransaction(recipient.Address, 100, 5, nil)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	c.AddTransaction(tx)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, ok := c.Mine(ctx, "miner-address"); !ok {
		t.Fatalf("mining failed")
	}

	if got := c.GetBalance(recipient.Address); got != 100 {
		t.Fatalf("recipient balance = %d, want 100", got)
	}
	if got := c.GetBalance(sender.Address); got != -105 {
		t.Fatalf("sender balance = %d, want -105", got)
	}
}
