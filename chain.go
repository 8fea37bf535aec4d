package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	maxTxPerBlock    = 10
	defaultRetargetWindow = 10
)

// Chain is the account-balance chain state machine: genesis, mempool,
// main chain, pending (orphan) blocks, and balance/history queries,
// all serialized behind one mutex so that between add_block returning
// success and the subsequent STATUS broadcast no other chain mutation
// is interleaved. It holds an embedded mutex and a BlockStore
// collaborator rather than a direct database handle.
type Chain struct {
	mu      sync.Mutex
	blocks  []*Block
	mempool *Mempool
	pending map[string]*Block // hash -> block
	pow     *ProofOfWork
	store   BlockStore
	log     *zap.SugaredLogger

	targetBlockTime time.Duration
	retargetWindow  int
	subscribers     []chan *Block
}

// NewChain loads an existing chain from store, or, if store holds
// nothing yet, seeds a fresh one with the genesis block at the given
// initial difficulty and persists it. The resumed difficulty tracks
// the tip block's own declared difficulty, so a restarted node keeps
// whatever a prior retarget left in place.
func NewChain(difficulty int, store BlockStore, log *zap.SugaredLogger) (*Chain, error) {
	if store == nil {
		store = NewMemStore()
	}
	c := &Chain{
		mempool:         NewMempool(),
		pending:         make(map[string]*Block),
		store:           store,
		log:             log,
		targetBlockTime: defaultTargetTime,
		retargetWindow:  defaultRetargetWindow,
	}

	existing, err := store.LoadChain()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		c.blocks = existing
		c.pow = NewProofOfWork(existing[len(existing)-1].Difficulty, log)
		if log != nil {
			log.Infow("chain resumed from store", "height", len(c.blocks))
		}
		return c, nil
	}

	c.pow = NewProofOfWork(difficulty, log)
	c.blocks = []*Block{NewGenesisBlock(difficulty)}
	if err := c.store.SaveChain(c.blocks); err != nil {
		return nil, err
	}
	return c, nil
}

// Tip returns the current chain head.
func (c *Chain) Tip() *Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[len(c.blocks)-1]
}

// Height returns the number of blocks in the main chain.
func (c *Chain) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

// Blocks returns a copy of the main chain.
func (c *Chain) Blocks() []*Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Block(nil), c.blocks...)
}

// BlocksFrom returns chain[start:end] (end == -1 means to the tip),
// used to answer GET_BLOCKS.
func (c *Chain) BlocksFrom(start, end int) []*Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if start >= len(c.blocks) {
		return nil
	}
	if end < 0 || end > len(c.blocks) {
		end = len(c.blocks)
	}
	return append([]*Block(nil), c.blocks[start:end]...)
}

// AddTransaction validates and admits a transaction to the mempool.
func (c *Chain) AddTransaction(tx *Transaction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mempool.Contains(tx.IdentityHash()) {
		return false
	}
	if err := ValidateBasic(tx); err != nil {
		if c.log != nil {
			c.log.Warnw("transaction rejected", "reason", err)
		}
		return false
	}
	if !Verify(tx) {
		if c.log != nil {
			c.log.Warnw("transaction rejected: bad signature")
		}
		return false
	}
	return c.mempool.Add(tx)
}

// Mine takes up to maxTxPerBlock mempool entries, runs proof-of-work
// off the caller's context, and appends the resulting block on
// success.
func (c *Chain) Mine(ctx context.Context, minerAddress string) (*Block, bool) {
	c.mu.Lock()
	if c.mempool.Len() == 0 {
		c.mu.Unlock()
		return nil, false
	}
	txs := c.mempool.Take(maxTxPerBlock)
	tip := c.blocks[len(c.blocks)-1]
	difficulty := c.pow.Difficulty()
	c.mu.Unlock()

	candidate := NewCandidateBlock(tip.Hash, minerAddress, txs, difficulty, time.Now().Unix())
	if !c.pow.Mine(ctx, candidate) {
		c.mu.Lock()
		c.mempool.entries = append(txs, c.mempool.entries...)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	err := c.addBlockLocked(candidate)
	c.mu.Unlock()
	if err != nil {
		if c.log != nil {
			c.log.Warnw("mined block rejected", "error", err)
		}
		return nil, false
	}
	return candidate, true
}

// AddBlock validates and appends a received block, routing it to the
// pending set if it does not connect to the current tip (spec §4.5).
func (c *Chain) AddBlock(block *Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addBlockLocked(block)
}

func (c *Chain) addBlockLocked(block *Block) error {
	if !block.IsValid() {
		return &ValidationError{Reason: "block integrity check failed"}
	}

	tip := c.blocks[len(c.blocks)-1]
	if block.PreviousHash != tip.Hash {
		c.pending[block.Hash] = block
		return &StateConflictError{Reason: "block does not connect to tip"}
	}

	if !c.pow.Validate(block) {
		return &ValidationError{Reason: "proof of work invalid"}
	}

	c.blocks = append(c.blocks, block)
	if c.log != nil {
		c.log.Infow("block accepted", "height", len(c.blocks)-1, "hash", block.Hash)
	}
	if err := c.store.SaveChain(c.blocks); err != nil && c.log != nil {
		c.log.Warnw("failed to persist chain", "error", err)
	}

	c.notifySubscribers(block)
	c.maybeRetarget()
	c.drainPending()
	return nil
}

// drainPending repeatedly scans the pending set for a block whose
// previous_hash now matches the tip, adding it and repeating until a
// full pass makes no progress (spec §4.5).
func (c *Chain) drainPending() {
	for {
		progressed := false
		tip := c.blocks[len(c.blocks)-1]
		for hash, block := range c.pending {
			if block.PreviousHash != tip.Hash {
				continue
			}
			if !block.IsValid() || !c.pow.Validate(block) {
				delete(c.pending, hash)
				continue
			}
			c.blocks = append(c.blocks, block)
			delete(c.pending, hash)
			progressed = true
			c.notifySubscribers(block)
			if c.log != nil {
				c.log.Infow("pending block connected", "height", len(c.blocks)-1, "hash", block.Hash)
			}
			if err := c.store.SaveChain(c.blocks); err != nil && c.log != nil {
				c.log.Warnw("failed to persist chain", "error", err)
			}
			c.maybeRetarget()
			break
		}
		if !progressed {
			return
		}
	}
}

// maybeRetarget applies a difficulty adjustment at fixed epoch
// boundaries, every retargetWindow accepted blocks (spec §4.3: "apply
// at fixed epoch boundaries, e.g. every K blocks" — the design choice
// recorded for this implementation).
func (c *Chain) maybeRetarget() {
	if len(c.blocks)%c.retargetWindow != 0 || len(c.blocks) < c.retargetWindow {
		return
	}
	window := c.blocks[len(c.blocks)-c.retargetWindow:]
	if newDifficulty, ok := c.pow.AdjustDifficulty(window, c.targetBlockTime); ok {
		if c.log != nil {
			c.log.Infow("difficulty retargeted", "from", c.pow.Difficulty(), "to", newDifficulty)
		}
		c.pow.SetDifficulty(newDifficulty)
	}
}

// ReplaceChain accepts a candidate chain iff it shares our genesis
// block, every non-genesis block is internally valid and correctly
// linked and passes PoW, and it is strictly longer than our chain
// (spec §4.5). The mempool and pending set are left untouched.
func (c *Chain) ReplaceChain(candidate []*Block) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(candidate) <= len(c.blocks) {
		return false
	}
	if len(candidate) == 0 || candidate[0].Hash != c.blocks[0].Hash {
		return false
	}
	for i := 1; i < len(candidate); i++ {
		if !candidate[i].IsValid() {
			return false
		}
		if candidate[i].PreviousHash != candidate[i-1].Hash {
			return false
		}
		if !c.pow.Validate(candidate[i]) {
			return false
		}
	}

	c.blocks = append([]*Block(nil), candidate...)
	if err := c.store.SaveChain(c.blocks); err != nil && c.log != nil {
		c.log.Warnw("failed to persist replaced chain", "error", err)
	}
	if c.log != nil {
		c.log.Infow("chain replaced", "new_height", len(c.blocks))
	}
	return true
}

// GetBalance replays every block to compute an address's current
// balance: +amount for each transaction received, -(amount+fee) for
// each transaction sent.
func (c *Chain) GetBalance(address string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var balance int64
	for _, block := range c.blocks {
		for _, tx := range block.Transactions {
			if tx.Recipient == address {
				balance += int64(tx.Amount)
			}
			if tx.Sender == address {
				balance -= int64(tx.Amount + tx.Fee)
			}
		}
	}
	return balance
}

// GetHistory returns every transaction in the main chain touching
// address as sender or recipient, oldest first.
func (c *Chain) GetHistory(address string) []*Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	var history []*Transaction
	for _, block := range c.blocks {
		for _, tx := range block.Transactions {
			if tx.Sender == address || tx.Recipient == address {
				history = append(history, tx)
			}
		}
	}
	return history
}

// FindTransaction returns the transaction with the given identity hash
// and the height of the block containing it, for the REST
// transaction-lookup endpoint.
func (c *Chain) FindTransaction(identityHash string) (*Transaction, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for height, block := range c.blocks {
		for _, tx := range block.Transactions {
			if tx.IdentityHash() == identityHash {
				return tx, height, true
			}
		}
	}
	return nil, 0, false
}

// BlockByHash returns the block with the given hash from the main
// chain, for the REST block-lookup endpoint.
func (c *Chain) BlockByHash(hash string) (*Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, block := range c.blocks {
		if block.Hash == hash {
			return block, true
		}
	}
	return nil, false
}

// Subscribe registers a channel that receives every block appended to
// the main chain from this point on (new blocks mined locally or
// accepted from gossip/pending-drain). The channel is buffered; a slow
// subscriber drops blocks rather than blocking chain mutation.
func (c *Chain) Subscribe() <-chan *Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan *Block, 16)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

func (c *Chain) notifySubscribers(block *Block) {
	for _, ch := range c.subscribers {
		select {
		case ch <- block:
		default:
		}
	}
}

// ChainSnapshot is the shape returned by the REST chain-snapshot query
// (original_source get_chain_data). Gossip BLOCKS replies carry a bare
// block array instead.
type ChainSnapshot struct {
	Length     int      `json:"length"`
	Difficulty int      `json:"difficulty"`
	Chain      []*Block `json:"chain"`
}

// Snapshot returns the current chain as a ChainSnapshot.
func (c *Chain) Snapshot() ChainSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChainSnapshot{
		Length:     len(c.blocks),
		Difficulty: c.pow.Difficulty(),
		Chain:      append([]*Block(nil), c.blocks...),
	}
}

// PendingCount returns the number of blocks currently awaiting a
// predecessor, for diagnostics and tests.
func (c *Chain) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// MempoolLen returns the number of unconfirmed transactions.
func (c *Chain) MempoolLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mempool.Len()
}
