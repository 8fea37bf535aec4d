package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"time"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/ripemd160"
)

// addressVersion is the single version byte prepended to the RIPEMD-160
// hash (0x00, as in Bitcoin's own address scheme).
const addressVersion = byte(0x00)

const pbkdf2Iterations = 200_000 // best-available-by-convention work factor for the PBKDF2 stack we stand in for PKCS#8 encryption

// Wallet holds an ECDSA/SECP256K1 keypair and the derived address.
type Wallet struct {
	priv    *ecdsa.PrivateKey
	pub     []byte // compressed SEC1 public key
	Address string
	Nonce   uint64
}

// NewWallet generates a fresh SECP256K1 keypair and derives its address.
func NewWallet() (*Wallet, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, &CryptoError{Reason: "key generation failed", Err: err}
	}
	return walletFromSecp(priv), nil
}

// NewWalletFromMnemonic deterministically derives a wallet from a
// BIP-39 mnemonic and passphrase — a recovered feature (SPEC_FULL §4)
// that lets a wallet be regenerated from a recorded word list instead
// of only from an encrypted file.
func NewWalletFromMnemonic(mnemonic, passphrase string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, &CryptoError{Reason: "invalid mnemonic"}
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	priv := secp256k1.PrivKeyFromBytes(derivePrivateScalar(seed))
	return walletFromSecp(priv), nil
}

// NewMnemonic generates a fresh BIP-39 mnemonic suitable for
// NewWalletFromMnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// derivePrivateScalar folds a 64-byte BIP-39 seed down to a 32-byte
// SECP256K1 scalar via SHA-256. This is a simplification of full BIP-32
// hierarchical derivation, adequate for a single-account wallet.
func derivePrivateScalar(seed []byte) []byte {
	sum := sha256.Sum256(seed)
	return sum[:]
}

func walletFromSecp(priv *secp256k1.PrivateKey) *Wallet {
	pub := priv.PubKey().SerializeCompressed()
	return &Wallet{
		priv:    priv.ToECDSA(),
		pub:     pub,
		Address: DeriveAddress(pub),
	}
}

// PublicKey returns the compressed SEC1 public key.
func (w *Wallet) PublicKey() []byte {
	return w.pub
}

// CreateTransaction builds and signs a transaction spending from this
// wallet, advancing the wallet's nonce on success (spec §4.4).
func (w *Wallet) CreateTransaction(recipient string, amount, fee uint64, data map[string]string) (*Transaction, error) {
	if !ValidateAddress(recipient) {
		return nil, &ValidationError{Reason: "invalid recipient address"}
	}
	if amount == 0 {
		return nil, &ValidationError{Reason: "amount must be positive"}
	}
	tx := &Transaction{
		Sender:    w.Address,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: time.Now().Unix(),
		Nonce:     w.Nonce,
		Fee:       fee,
		Data:      data,
	}
	if err := Sign(tx, w.priv, w.pub); err != nil {
		return nil, &CryptoError{Reason: "signing failed", Err: err}
	}
	w.Nonce++
	return tx, nil
}

// DeriveAddress implements spec §4.4: compressed pubkey -> SHA-256 ->
// RIPEMD-160 -> version byte -> checksum -> Base58.
func DeriveAddress(compressedPubKey []byte) string {
	versioned := append([]byte{addressVersion}, hashPubKey(compressedPubKey)...)
	payload := append(versioned, doubleSHA256Checksum(versioned)...)
	return Base58Encode(payload)
}

func hashPubKey(pubKey []byte) []byte {
	sha := sha256.Sum256(pubKey)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return hasher.Sum(nil)
}

// ValidateAddress Base58-decodes an address and verifies it is exactly
// 25 bytes with a matching checksum (spec §4.4).
func ValidateAddress(address string) bool {
	decoded, err := Base58Decode(address)
	if err != nil || len(decoded) != 25 {
		return false
	}
	versioned, gotChecksum := decoded[:21], decoded[21:]
	return string(doubleSHA256Checksum(versioned)) == string(gotChecksum)
}

// ParseCompressedPubKey parses a compressed SEC1 SECP256K1 public key
// into a stdlib *ecdsa.PublicKey for use with crypto/ecdsa verification.
func ParseCompressedPubKey(compressed []byte) (*ecdsa.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return nil, err
	}
	return pub.ToECDSA(), nil
}

// PersistedWallet is the JSON shape spec §6 mandates for wallet files:
// version, a base64-wrapped password-encrypted private key blob,
// address, and nonce.
type PersistedWallet struct {
	Version    string `json:"version"`
	PrivateKey string `json:"private_key"`
	Address    string `json:"address"`
	Nonce      uint64 `json:"nonce"`
}

// Export encrypts the wallet's private key with the given password and
// returns the persisted-wallet shape. The stdlib has no PKCS#8
// encryption primitive, so the PKCS#8 DER is wrapped in a
// PBKDF2-derived AES-256-GCM envelope and PEM-encoded — the best
// password-based construction available from the platform's own
// crypto primitives, matching the spirit of spec §6's requirement.
func (w *Wallet) Export(password string) (*PersistedWallet, error) {
	der, err := x509.MarshalPKCS8PrivateKey(w.priv)
	if err != nil {
		return nil, &CryptoError{Reason: "marshal private key", Err: err}
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, &CryptoError{Reason: "generate salt", Err: err}
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &CryptoError{Reason: "init cipher", Err: err}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &CryptoError{Reason: "init gcm", Err: err}
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, &CryptoError{Reason: "generate nonce", Err: err}
	}
	ciphertext := gcm.Seal(nil, nonce, der, nil)

	pemBlock := pem.EncodeToMemory(&pem.Block{
		Type:  "ENCRYPTED PRIVATE KEY",
		Headers: map[string]string{
			"Salt":  base64.StdEncoding.EncodeToString(salt),
			"Nonce": base64.StdEncoding.EncodeToString(nonce),
		},
		Bytes: ciphertext,
	})

	return &PersistedWallet{
		Version:    "1.0.0",
		PrivateKey: base64.StdEncoding.EncodeToString(pemBlock),
		Address:    w.Address,
		Nonce:      w.Nonce,
	}, nil
}

// ImportWallet decrypts a PersistedWallet's private key with the given
// password and reconstructs the wallet, verifying the derived address
// matches the recorded one.
func ImportWallet(pw *PersistedWallet, password string) (*Wallet, error) {
	pemBytes, err := base64.StdEncoding.DecodeString(pw.PrivateKey)
	if err != nil {
		return nil, &CryptoError{Reason: "decode private key blob", Err: err}
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, &CryptoError{Reason: "malformed PEM block"}
	}
	saltB64, nonceB64 := block.Headers["Salt"], block.Headers["Nonce"]
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, &CryptoError{Reason: "decode salt", Err: err}
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return nil, &CryptoError{Reason: "decode nonce", Err: err}
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, &CryptoError{Reason: "init cipher", Err: err}
	}
	gcm, err := cipher.NewGCM(cipherBlock)
	if err != nil {
		return nil, &CryptoError{Reason: "init gcm", Err: err}
	}
	der, err := gcm.Open(nil, nonce, block.Bytes, nil)
	if err != nil {
		return nil, &CryptoError{Reason: "decrypt private key (wrong password?)", Err: err}
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, &CryptoError{Reason: "parse private key", Err: err}
	}
	ecdsaPriv, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, &CryptoError{Reason: "unexpected key type"}
	}

	secpPriv := secp256k1.PrivKeyFromBytes(ecdsaPriv.D.Bytes())
	wallet := walletFromSecp(secpPriv)
	wallet.Nonce = pw.Nonce

	if wallet.Address != pw.Address {
		return nil, &CryptoError{Reason: "address mismatch in imported wallet"}
	}
	return wallet, nil
}
