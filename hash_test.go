package main

import "testing"

func TestHashDeterministicAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2}
	b := map[string]any{"a": 2, "b": 1}
	if Hash(a) != Hash(b) {
		t.Fatalf("hash differs for the same logical document with different key order")
	}
}

func TestHashDiffersOnValueChange(t *testing.T) {
	a := map[string]any{"amount": 1}
	b := map[string]any{"amount": 2}
	if Hash(a) == Hash(b) {
		t.Fatalf("hash collided for distinct documents")
	}
}

func TestHashConcatOrderMatters(t *testing.T) {
	left, right := "aa", "bb"
	if HashConcat(left, right) == HashConcat(right, left) {
		t.Fatalf("HashConcat must not be commutative")
	}
}
