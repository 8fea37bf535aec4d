package main

import (
	"context"
	"testing"
	"time"
)

func TestMineProducesValidatableBlock(t *testing.T) {
	pow := NewProofOfWork(2, nil)
	block := NewCandidateBlock(genesisPrevHash, "miner", sampleTxs(2), pow.Difficulty(), time.Now().Unix())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !pow.Mine(ctx, block) {
		t.Fatalf("mining at low difficulty should succeed well within the timeout")
	}
	if !pow.Validate(block) {
		t.Fatalf("mined block failed validation")
	}
}

func TestValidateRejectsTamperedNonce(t *testing.T) {
	pow := NewProofOfWork(2, nil)
	block := NewCandidateBlock(genesisPrevHash, "miner", sampleTxs(1), pow.Difficulty(), time.Now().Unix())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if !pow.Mine(ctx, block) {
		t.Fatalf("mining should succeed")
	}

	block.Nonce++
	if pow.Validate(block) {
		t.Fatalf("validate should fail once the nonce changes without recomputing the hash")
	}
}

func TestMineRespectsCancellation(t *testing.T) {
	pow := NewProofOfWork(64, nil)
	block := NewCandidateBlock(genesisPrevHash, "miner", sampleTxs(1), pow.Difficulty(), time.Now().Unix())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if pow.Mine(ctx, block) {
		t.Fatalf("mining against an already-cancelled context should not succeed")
	}
}

func TestAdjustDifficultyRequiresMinimumWindow(t *testing.T) {
	pow := NewProofOfWork(4, nil)
	recent := make([]*Block, minRetargetWindow-1)
	for i := range recent {
		recent[i] = &Block{Timestamp: int64(i) * 600}
	}
	if _, ok := pow.AdjustDifficulty(recent, defaultTargetTime); ok {
		t.Fatalf("expected no adjustment below the minimum window size")
	}
}

func TestAdjustDifficultyIncreasesWhenBlocksArriveFast(t *testing.T) {
	pow := NewProofOfWork(4, nil)
	recent := make([]*Block, minRetargetWindow)
	for i := range recent {
		recent[i] = &Block{Timestamp: int64(i) * 10} // far faster than the 600s target
	}
	newDifficulty, ok := pow.AdjustDifficulty(recent, defaultTargetTime)
	if !ok || newDifficulty != 5 {
		t.Fatalf("expected difficulty to increase to 5, got %d (ok=%v)", newDifficulty, ok)
	}
}

func TestAdjustDifficultyDecreasesWhenBlocksArriveSlow(t *testing.T) {
	pow := NewProofOfWork(4, nil)
	recent := make([]*Block, minRetargetWindow)
	for i := range recent {
		recent[i] = &Block{Timestamp: int64(i) * 2000} // far slower than the 600s target
	}
	newDifficulty, ok := pow.AdjustDifficulty(recent, defaultTargetTime)
	if !ok || newDifficulty != 3 {
		t.Fatalf("expected difficulty to decrease to 3, got %d (ok=%v)", newDifficulty, ok)
	}
}

func TestAdjustDifficultyStableWithinBand(t *testing.T) {
	pow := NewProofOfWork(4, nil)
	recent := make([]*Block, minRetargetWindow)
	for i := range recent {
		recent[i] = &Block{Timestamp: int64(i) * 600} // exactly on target
	}
	if _, ok := pow.AdjustDifficulty(recent, defaultTargetTime); ok {
		t.Fatalf("expected no adjustment when mean block time matches the target")
	}
}
