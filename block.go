package main

import (
	"fmt"
	"strings"
)

// blockVersion is the fixed header version string stamped into every
// mined block.
const blockVersion = "1.0"

// genesisPrevHash is 64 '0' characters, the fixed previous_hash of the
// genesis block.
var genesisPrevHash = strings.Repeat("0", 64)

// Block is a header plus its ordered transaction list, self-committing
// via a SHA-256 hash over its canonical fields, with proof of work over
// that hash rather than a validator signature.
type Block struct {
	Version      string         `json:"version"`
	Timestamp    int64          `json:"timestamp"`
	PreviousHash string         `json:"previous_hash"`
	Miner        string         `json:"miner"`
	Transactions []*Transaction `json:"transactions"`
	Nonce        uint64         `json:"nonce"`
	Difficulty   int            `json:"difficulty"`
	MerkleRoot   string         `json:"merkle_root"`
	Hash         string         `json:"hash"`
}

// headerDict returns the canonical dict hashed into the block's
// identity, excluding the hash field itself.
func (b *Block) headerDict() map[string]any {
	txDicts := make([]map[string]any, len(b.Transactions))
	for i, tx := range b.Transactions {
		txDicts[i] = tx.CanonicalDict()
	}
	return map[string]any{
		"version":       b.Version,
		"timestamp":     b.Timestamp,
		"previous_hash": b.PreviousHash,
		"miner":         b.Miner,
		"transactions":  txDicts,
		"nonce":         b.Nonce,
		"difficulty":    b.Difficulty,
		"merkle_root":   b.MerkleRoot,
	}
}

// computeHash recomputes the block's self-hash from its current
// fields without mutating the block.
func (b *Block) computeHash() string {
	return Hash(b.headerDict())
}

// RefreshCommitments recomputes merkle_root from the current
// transaction list and then the block hash from the full header. Must
// be called after Transactions or Nonce change and before mining reads
// Hash.
func (b *Block) RefreshCommitments() {
	b.MerkleRoot = NewMerkleTree(b.Transactions).Root()
	b.Hash = b.computeHash()
}

// IsValid checks the self-integrity invariants of spec §3: the stored
// hash matches recomputation, the hash meets its own declared
// difficulty prefix, and the Merkle root matches the transaction list.
// It does not check linkage to a predecessor; that is the chain's job.
func (b *Block) IsValid() bool {
	if b.MerkleRoot != NewMerkleTree(b.Transactions).Root() {
		return false
	}
	if b.Hash != b.computeHash() {
		return false
	}
	return hasLeadingZeros(b.Hash, b.Difficulty)
}

func hasLeadingZeros(hash string, difficulty int) bool {
	if difficulty < 0 || difficulty > len(hash) {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}
	return true
}

// NewCandidateBlock builds an unmined block ready for proof-of-work:
// commitments are computed but Hash will not yet satisfy difficulty.
func NewCandidateBlock(previousHash string, miner string, txs []*Transaction, difficulty int, timestamp int64) *Block {
	b := &Block{
		Version:      blockVersion,
		Timestamp:    timestamp,
		PreviousHash: previousHash,
		Miner:        miner,
		Transactions: txs,
		Nonce:        0,
		Difficulty:   difficulty,
	}
	b.RefreshCommitments()
	return b
}

// String renders a short identifying summary, for CLI/log output.
func (b *Block) String() string {
	return fmt.Sprintf("Block(hash=%s, prev=%s, txs=%d, nonce=%d, difficulty=%d)",
		shortHash(b.Hash), shortHash(b.PreviousHash), len(b.Transactions), b.Nonce, b.Difficulty)
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
