package main

// MerkleTree commits a block's transaction list to a single root hash.
// It is built once from a transaction list and discarded; only the root
// is retained inside a Block. Grounded on
// original_source/src/blockchain/merkle-tree.py, translated from a
// pointer tree of MerkleNodes to level-indexed hash slices, which is
// enough since only leaf hashes and the root are ever needed.
type MerkleTree struct {
	leaves []string // leaf hashes, in transaction order
	root   string
}

// NewMerkleTree builds a tree whose leaves are the hashes of the
// transactions' full canonical dicts, signature included. An empty
// transaction list yields the fixed "empty_block" root.
func NewMerkleTree(txs []*Transaction) *MerkleTree {
	leaves := make([]string, len(txs))
	for i, tx := range txs {
		leaves[i] = Hash(tx.CanonicalDict())
	}
	return &MerkleTree{leaves: leaves, root: computeRoot(leaves)}
}

func computeRoot(leaves []string) string {
	if len(leaves) == 0 {
		return Hash("empty_block")
	}
	level := append([]string(nil), leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = HashConcat(level[i], level[i+1])
		}
		level = next
	}
	return level[0]
}

// Root returns the Merkle root hash.
func (t *MerkleTree) Root() string {
	return t.root
}

// ProofStep is one sibling hash encountered walking from a leaf to the
// root, tagged with the sibling's position relative to the node being
// proven at that level.
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"` // "left" or "right"
}

// Proof returns the Merkle proof for the given leaf hash: the ordered
// list of sibling hashes needed to reconstruct the root. The second
// return value is false if the leaf hash is not present in the tree.
func (t *MerkleTree) Proof(leafHash string) ([]ProofStep, bool) {
	index := -1
	for i, h := range t.leaves {
		if h == leafHash {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, false
	}

	var proof []ProofStep
	level := append([]string(nil), t.leaves...)
	current := index

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		isRight := current%2 == 0
		var siblingIndex int
		var position string
		if isRight {
			siblingIndex = current + 1
			position = "right"
		} else {
			siblingIndex = current - 1
			position = "left"
		}
		proof = append(proof, ProofStep{Hash: level[siblingIndex], Position: position})

		next := make([]string, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = HashConcat(level[i], level[i+1])
		}
		level = next
		current /= 2
	}

	return proof, true
}

// VerifyMerkleProof recomputes the root from a leaf hash and its proof
// steps and checks it against the supplied root.
func VerifyMerkleProof(leafHash string, proof []ProofStep, root string) bool {
	current := leafHash
	for _, step := range proof {
		if step.Position == "left" {
			current = HashConcat(step.Hash, current)
		} else {
			current = HashConcat(current, step.Hash)
		}
	}
	return current == root
}
