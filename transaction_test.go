package main

import "testing"

func signedTestTx(t *testing.T, amount, fee uint64) (*Wallet, *Transaction) {
	t.Helper()
	w, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	recipient, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet recipient: %v", err)
	}
	tx, err := w.CreateTransaction(recipient.Address, amount, fee, nil)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return w, tx
}

func TestTransactionSignAndVerify(t *testing.T) {
	_, tx := signedTestTx(t, 100, 1)
	if !Verify(tx) {
		t.Fatalf("freshly signed transaction failed to verify")
	}
}

func TestTransactionVerifyRejectsTamperedAmount(t *testing.T) {
	_, tx := signedTestTx(t, 100, 1)
	tx.Amount = 999999
	if Verify(tx) {
		t.Fatalf("verification should fail once a signed field is tampered")
	}
}

func TestTransactionVerifyRejectsWrongSender(t *testing.T) {
	_, tx := signedTestTx(t, 100, 1)
	other, err := NewWallet()
	if err != nil {
		t.Fatalf("NewWallet: %v", err)
	}
	tx.Sender = other.Address
	if Verify(tx) {
		t.Fatalf("verification should fail when sender does not match the embedded public key")
	}
}

func TestTransactionIdentityHashExcludesSignature(t *testing.T) {
	_, tx := signedTestTx(t, 50, 1)
	withoutSig := tx.IdentityHash()
	tx.Signature = "something-else"
	if tx.IdentityHash() != withoutSig {
		t.Fatalf("identity hash must not depend on the signature field")
	}
}

func TestValidateBasicRejectsZeroAmount(t *testing.T) {
	_, tx := signedTestTx(t, 100, 1)
	tx.Amount = 0
	if err := ValidateBasic(tx); err == nil {
		t.Fatalf("expected validation error for zero amount")
	}
}

func TestValidateBasicRejectsMissingSignature(t *testing.T) {
	_, tx := signedTestTx(t, 100, 1)
	tx.Signature = ""
	if err := ValidateBasic(tx); err == nil {
		t.Fatalf("expected validation error for missing signature")
	}
}
