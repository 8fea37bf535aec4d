package main

import (
	"path/filepath"
	"testing"
)

func TestWalletStoreCreateUnlockRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	ws, err := OpenWalletStore(path, nil)
	if err != nil {
		t.Fatalf("OpenWalletStore: %v", err)
	}

	wallet, err := ws.CreateWallet("s3cret")
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}

	reopened, err := OpenWalletStore(path, nil)
	if err != nil {
		t.Fatalf("OpenWalletStore reopen: %v", err)
	}
	if len(reopened.Addresses()) != 1 {
		t.Fatalf("expected one persisted wallet, got %d", len(reopened.Addresses()))
	}

	unlocked, err := reopened.Unlock(wallet.Address, "s3cret")
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if unlocked.Address != wallet.Address {
		t.Fatalf("unlocked wallet address mismatch")
	}
}

func TestWalletStoreUnlockRejectsWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	ws, err := OpenWalletStore(path, nil)
	if err != nil {
		t.Fatalf("OpenWalletStore: %v", err)
	}
	wallet, err := ws.CreateWallet("right-password")
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	if _, err := ws.Unlock(wallet.Address, "wrong-password"); err == nil {
		t.Fatalf("expected Unlock with the wrong password to fail")
	}
}

func TestWalletStoreUnlockRejectsUnknownAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	ws, err := OpenWalletStore(path, nil)
	if err != nil {
		t.Fatalf("OpenWalletStore: %v", err)
	}
	if _, err := ws.Unlock("nonexistent-address", "whatever"); err == nil {
		t.Fatalf("expected Unlock for an unknown address to fail")
	}
}
