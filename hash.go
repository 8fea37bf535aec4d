package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash computes the canonical SHA-256 digest used everywhere consensus
// state is committed: transaction identities, block hashes, and Merkle
// leaves all route through this function. Maps are marshaled through
// encoding/json, which already sorts object keys, so two producers that
// build the same logical document always hash to the same bytes.
func Hash(x any) string {
	var payload []byte
	switch v := x.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		payload = encoded
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// HashConcat hashes the concatenation of two hex-encoded hash strings,
// as used when pairing Merkle tree nodes and when combining a Merkle
// proof step with its sibling.
func HashConcat(left, right string) string {
	return Hash(left + right)
}
