package main

import (
	"crypto/sha256"
	"errors"
	"math/big"
)

// base58Alphabet is the Bitcoin-style alphabet: no 0, O, I, or l, to
// avoid visual confusion when an address is transcribed by hand.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Base58Encode encodes a byte slice to a Base58 string. Leading zero
// bytes become leading '1' characters, one per zero byte, so that
// versioned address payloads round-trip their length through Decode.
func Base58Encode(input []byte) string {
	x := new(big.Int).SetBytes(input)

	base := big.NewInt(int64(len(base58Alphabet)))
	mod := new(big.Int)

	var encoded []byte
	for x.Sign() != 0 {
		x.DivMod(x, base, mod)
		encoded = append(encoded, base58Alphabet[mod.Int64()])
	}
	reverse(encoded)

	leadingZeros := 0
	for _, b := range input {
		if b != 0x00 {
			break
		}
		leadingZeros++
	}

	out := make([]byte, 0, leadingZeros+len(encoded))
	for i := 0; i < leadingZeros; i++ {
		out = append(out, base58Alphabet[0])
	}
	out = append(out, encoded...)
	return string(out)
}

// Base58Decode reverses Base58Encode.
func Base58Decode(input string) ([]byte, error) {
	leadingZeros := 0
	for _, c := range input {
		if byte(c) != base58Alphabet[0] {
			break
		}
		leadingZeros++
	}

	value := new(big.Int)
	base := big.NewInt(58)
	for _, c := range input[leadingZeros:] {
		idx := indexOf(byte(c))
		if idx < 0 {
			return nil, errors.New("invalid base58 character")
		}
		value.Mul(value, base)
		value.Add(value, big.NewInt(int64(idx)))
	}

	decoded := value.Bytes()
	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}

func indexOf(c byte) int {
	for i := 0; i < len(base58Alphabet); i++ {
		if base58Alphabet[i] == c {
			return i
		}
	}
	return -1
}

func reverse(data []byte) {
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
}

// doubleSHA256Checksum returns the first 4 bytes of SHA256(SHA256(payload)),
// the checksum scheme used by address derivation (spec §4.4).
func doubleSHA256Checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}
