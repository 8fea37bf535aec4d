package main

// NewGenesisBlock builds the fixed genesis block mandated by spec §3:
// timestamp 0, previous_hash 64 zero characters, and a single fixed
// transaction sender="0" -> recipient="Genesis", amount=0,
// signature="0". It is constructed directly, not mined: chain
// replacement only requires candidate chains to share this exact hash,
// not to satisfy difficulty at index 0.
func NewGenesisBlock(difficulty int) *Block {
	genesisTx := &Transaction{
		Sender:    "0",
		Recipient: "Genesis",
		Amount:    0,
		Timestamp: 0,
		Nonce:     0,
		Fee:       0,
		Signature: "0",
	}
	return NewCandidateBlock(genesisPrevHash, "Genesis", []*Transaction{genesisTx}, difficulty, 0)
}
