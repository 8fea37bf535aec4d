package main

import "testing"

func TestGenesisBlockIsInternallyValid(t *testing.T) {
	genesis := NewGenesisBlock(2)
	if genesis.MerkleRoot != NewMerkleTree(genesis.Transactions).Root() {
		t.Fatalf("genesis merkle root mismatch")
	}
	if genesis.Hash != genesis.computeHash() {
		t.Fatalf("genesis hash does not match recomputation")
	}
	if genesis.PreviousHash != genesisPrevHash {
		t.Fatalf("genesis previous_hash must be the fixed all-zero string")
	}
}

func TestCandidateBlockRefreshCommitments(t *testing.T) {
	txs := sampleTxs(2)
	block := NewCandidateBlock("deadbeef", "miner-addr", txs, 1, 12345)
	oldHash := block.Hash

	block.Nonce = 999
	block.RefreshCommitments()
	if block.Hash == oldHash {
		t.Fatalf("expected hash to change after nonce change + refresh")
	}
}

func TestBlockIsValidDetectsTransactionTamper(t *testing.T) {
	txs := sampleTxs(3)
	block := NewCandidateBlock("deadbeef", "miner-addr", txs, 0, 1)
	if !block.IsValid() {
		t.Fatalf("freshly built block at difficulty 0 should be valid")
	}

	block.Transactions[0].Amount += 1
	if block.IsValid() {
		t.Fatalf("block should be invalid after a transaction is mutated without refreshing commitments")
	}
}

func TestBlockIsValidChecksDifficultyPrefix(t *testing.T) {
	block := NewCandidateBlock(genesisPrevHash, "miner", sampleTxs(1), 64, 1)
	if block.IsValid() {
		t.Fatalf("a block at an absurd difficulty should not pass without mining")
	}
}
