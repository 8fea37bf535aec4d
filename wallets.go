package main

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

const defaultWalletFile = "wallets.json"

// WalletStore holds a collection of encrypted, persisted wallets keyed
// by address, in a JSON wallet file. Unlocked wallets are never kept
// resident; every read decrypts from the persisted blob.
type WalletStore struct {
	path    string
	log     *zap.SugaredLogger
	Wallets map[string]*PersistedWallet `json:"wallets"`
}

// OpenWalletStore loads a WalletStore from path, creating an empty one
// if the file does not yet exist.
func OpenWalletStore(path string, log *zap.SugaredLogger) (*WalletStore, error) {
	if path == "" {
		path = defaultWalletFile
	}
	ws := &WalletStore{path: path, log: log, Wallets: make(map[string]*PersistedWallet)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ws, nil
	}
	if err != nil {
		return nil, &IOError{Reason: "read wallet store", Err: err}
	}
	if err := json.Unmarshal(data, ws); err != nil {
		return nil, &IOError{Reason: "parse wallet store", Err: err}
	}
	return ws, nil
}

// CreateWallet generates a fresh wallet, encrypts it with password, adds
// it to the store, persists the store, and returns the new wallet.
func (ws *WalletStore) CreateWallet(password string) (*Wallet, error) {
	wallet, err := NewWallet()
	if err != nil {
		return nil, err
	}
	if err := ws.add(wallet, password); err != nil {
		return nil, err
	}
	return wallet, nil
}

// CreateWalletFromMnemonic imports a wallet derived from a mnemonic,
// encrypts and persists it the same way CreateWallet does.
func (ws *WalletStore) CreateWalletFromMnemonic(mnemonic, passphrase, password string) (*Wallet, error) {
	wallet, err := NewWalletFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	if err := ws.add(wallet, password); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (ws *WalletStore) add(wallet *Wallet, password string) error {
	persisted, err := wallet.Export(password)
	if err != nil {
		return err
	}
	ws.Wallets[wallet.Address] = persisted
	return ws.saveToFile()
}

// Unlock decrypts the stored wallet at address with password.
func (ws *WalletStore) Unlock(address, password string) (*Wallet, error) {
	persisted, ok := ws.Wallets[address]
	if !ok {
		return nil, &ValidationError{Reason: "no such wallet: " + address}
	}
	return ImportWallet(persisted, password)
}

// Addresses returns every address held in the store.
func (ws *WalletStore) Addresses() []string {
	addrs := make([]string, 0, len(ws.Wallets))
	for addr := range ws.Wallets {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Persist writes an already-unlocked wallet's updated nonce back into
// its encrypted record. The caller supplies the password again since the
// store never retains it.
func (ws *WalletStore) Persist(wallet *Wallet, password string) error {
	return ws.add(wallet, password)
}

func (ws *WalletStore) saveToFile() error {
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return &IOError{Reason: "encode wallet store", Err: err}
	}
	if err := os.WriteFile(ws.path, data, 0600); err != nil {
		return &IOError{Reason: "write wallet store", Err: err}
	}
	if ws.log != nil {
		ws.log.Debugw("wallet store persisted", "path", ws.path, "count", len(ws.Wallets))
	}
	return nil
}
