package main

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxMiningNonce      = uint64(1) << 32
	miningCancelStride  = 100_000
	defaultTargetTime   = 600 * time.Second
	minRetargetWindow   = 10
	retargetSlowFactor  = 0.5
	retargetFastFactor  = 1.5
)

// ProofOfWork mines and validates blocks against a leading-zero hash
// prefix.
type ProofOfWork struct {
	difficulty int
	log        *zap.SugaredLogger
}

// NewProofOfWork constructs a ProofOfWork at the given initial
// difficulty.
func NewProofOfWork(difficulty int, log *zap.SugaredLogger) *ProofOfWork {
	return &ProofOfWork{difficulty: difficulty, log: log}
}

// Difficulty returns the current difficulty.
func (p *ProofOfWork) Difficulty() int {
	return p.difficulty
}

// SetDifficulty overrides the current difficulty, used when the chain
// applies a retarget decision at an epoch boundary.
func (p *ProofOfWork) SetDifficulty(d int) {
	p.difficulty = d
}

// Mine searches nonces 0..2^32 for one producing a hash with the
// required leading-zero prefix, checking ctx for cancellation every
// miningCancelStride nonces (spec §5: mining has no cancellation point
// in the source material and must be extended with one). Returns false
// if the nonce space is exhausted or ctx is cancelled first.
func (p *ProofOfWork) Mine(ctx context.Context, block *Block) bool {
	start := time.Now()
	block.Difficulty = p.difficulty

	for nonce := uint64(0); nonce < maxMiningNonce; nonce++ {
		if nonce%miningCancelStride == 0 {
			select {
			case <-ctx.Done():
				if p.log != nil {
					p.log.Infow("mining cancelled", "nonce", nonce)
				}
				return false
			default:
			}
		}

		block.Nonce = nonce
		block.RefreshCommitments()
		if hasLeadingZeros(block.Hash, p.difficulty) {
			if p.log != nil {
				p.log.Infow("block mined", "nonce", nonce, "hash", block.Hash, "elapsed", time.Since(start))
			}
			return true
		}
	}

	if p.log != nil {
		p.log.Warnw("mining exhausted nonce space", "max_nonce", maxMiningNonce)
	}
	return false
}

// Validate recomputes the block's hash and checks it both matches the
// stored hash and meets the block's own declared difficulty.
func (p *ProofOfWork) Validate(block *Block) bool {
	if block.Hash != block.computeHash() {
		return false
	}
	return hasLeadingZeros(block.Hash, block.Difficulty)
}

// AdjustDifficulty computes a retarget decision from the timestamps of
// recentBlocks (oldest first), given a target block time. It returns
// (newDifficulty, true) when an adjustment is warranted, or (0, false)
// when fewer than minRetargetWindow blocks are supplied or the mean
// block time is within [T/2, 1.5T]. The chain decides when to apply
// the result (spec §4.3: "retarget is an advisory output").
func (p *ProofOfWork) AdjustDifficulty(recentBlocks []*Block, targetBlockTime time.Duration) (int, bool) {
	if len(recentBlocks) < minRetargetWindow {
		return 0, false
	}

	var totalDelta int64
	for i := 1; i < len(recentBlocks); i++ {
		totalDelta += recentBlocks[i].Timestamp - recentBlocks[i-1].Timestamp
	}
	meanDelta := float64(totalDelta) / float64(len(recentBlocks)-1)
	target := targetBlockTime.Seconds()

	switch {
	case meanDelta < target*retargetSlowFactor:
		return p.difficulty + 1, true
	case meanDelta > target*retargetFastFactor:
		next := p.difficulty - 1
		if next < 1 {
			next = 1
		}
		return next, true
	default:
		return 0, false
	}
}

// difficultyTargetPrefix returns the target prefix string for logging
// and diagnostics, e.g. "0000" for difficulty 4.
func difficultyTargetPrefix(difficulty int) string {
	return strings.Repeat("0", difficulty)
}
