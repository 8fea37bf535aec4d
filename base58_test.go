package main

import (
	"bytes"
	"testing"
)

func TestBase58RoundTrip(t *testing.T) {
	inputs := [][]byte{
		{0x00, 0x01, 0x02, 0x03},
		{0xff, 0xee, 0xdd},
		{0x00, 0x00, 0x00, 0x01},
		[]byte("hello world"),
	}
	for _, in := range inputs {
		encoded := Base58Encode(in)
		decoded, err := Base58Decode(encoded)
		if err != nil {
			t.Fatalf("decode %x: %v", in, err)
		}
		if !bytes.Equal(decoded, in) {
			t.Fatalf("round-trip mismatch: %x != %x", decoded, in)
		}
	}
}

func TestBase58DecodeRejectsInvalidCharacter(t *testing.T) {
	if _, err := Base58Decode("0OIl"); err == nil {
		t.Fatalf("expected an error decoding characters outside the alphabet")
	}
}

func TestBase58LeadingZeroPreservation(t *testing.T) {
	encoded := Base58Encode([]byte{0x00, 0x00, 0xAB})
	if encoded[0] != base58Alphabet[0] || encoded[1] != base58Alphabet[0] {
		t.Fatalf("expected two leading '1' characters for two leading zero bytes, got %q", encoded)
	}
}
