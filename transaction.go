package main

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
)

// Transaction is an account-balance transfer: balances are derived by
// replaying every block rather than tracked through a UTXO set. Amount
// and Fee are base units of a uint64 fixed-point currency rather than
// a float, since a float amount is a consensus hazard across runtimes.
type Transaction struct {
	Sender       string            `json:"sender"`
	Recipient    string            `json:"recipient"`
	Amount       uint64            `json:"amount"`
	Timestamp    int64             `json:"timestamp"`
	Nonce        uint64            `json:"nonce"`
	Fee          uint64            `json:"fee"`
	Data         map[string]string `json:"data,omitempty"`
	SenderPubKey []byte            `json:"sender_pub_key,omitempty"` // compressed SEC1, open question resolved in favor of embedding
	Signature    string            `json:"signature,omitempty"`      // base64 DER ECDSA signature
}

// signingDict returns the canonical dict that is signed and hashed into
// the transaction's identity: every field except the signature itself.
func (tx *Transaction) signingDict() map[string]any {
	d := map[string]any{
		"sender":    tx.Sender,
		"recipient": tx.Recipient,
		"amount":    tx.Amount,
		"timestamp": tx.Timestamp,
		"nonce":     tx.Nonce,
		"fee":       tx.Fee,
	}
	if len(tx.Data) > 0 {
		d["data"] = tx.Data
	}
	if len(tx.SenderPubKey) > 0 {
		d["sender_pub_key"] = base64.StdEncoding.EncodeToString(tx.SenderPubKey)
	}
	return d
}

// CanonicalDict returns the full canonical dict used for Merkle leaf
// hashing and block-level hashing, including the signature.
func (tx *Transaction) CanonicalDict() map[string]any {
	d := tx.signingDict()
	if tx.Signature != "" {
		d["signature"] = tx.Signature
	}
	return d
}

// IdentityHash returns the SHA-256 of the canonical serialization with
// the signature field removed (spec §4 "Identity hash").
func (tx *Transaction) IdentityHash() string {
	return Hash(tx.signingDict())
}

// IsGenesis reports whether this is the fixed genesis transaction.
func (tx *Transaction) IsGenesis() bool {
	return tx.Sender == "0" && tx.Recipient == "Genesis" && tx.Signature == "0"
}

// Sign computes the transaction's identity hash and signs it with the
// given private key, storing the base64 DER signature and the signer's
// compressed public key. The wallet nonce is the caller's
// responsibility to increment (see Wallet.CreateTransaction).
func Sign(tx *Transaction, priv *ecdsa.PrivateKey, compressedPub []byte) error {
	tx.SenderPubKey = compressedPub
	digest := tx.IdentityHash()
	sig, err := ecdsa.SignASN1(rand.Reader, priv, []byte(digest))
	if err != nil {
		return err
	}
	tx.Signature = base64.StdEncoding.EncodeToString(sig)
	return nil
}

// Verify checks the transaction's signature against its embedded
// sender public key. Any malformed signature, key, or hash yields
// false rather than an error, per spec §4.4/§7 (CryptoError surfaces
// as a boolean false from verify).
func Verify(tx *Transaction) bool {
	if tx.IsGenesis() {
		return true
	}
	if tx.Signature == "" || len(tx.SenderPubKey) == 0 {
		return false
	}
	pub, err := ParseCompressedPubKey(tx.SenderPubKey)
	if err != nil {
		return false
	}
	if DeriveAddress(tx.SenderPubKey) != tx.Sender {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(tx.Signature)
	if err != nil {
		return false
	}
	digest := tx.IdentityHash()
	return ecdsa.VerifyASN1(pub, []byte(digest), sig)
}

// ValidateBasic performs the structural checks spec §4.5 requires
// before a transaction is admitted to the mempool: both endpoints
// non-empty, a positive amount, and a present signature. Full
// cryptographic verification is a separate step (Verify).
func ValidateBasic(tx *Transaction) error {
	if tx.Sender == "" || tx.Recipient == "" {
		return &ValidationError{Reason: "missing sender or recipient"}
	}
	if tx.Amount == 0 {
		return &ValidationError{Reason: "amount must be positive"}
	}
	if tx.Signature == "" {
		return &ValidationError{Reason: "missing signature"}
	}
	return nil
}
