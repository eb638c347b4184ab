// Copyright 2025 Shadow Atlas Contributors
//
// Field-element helpers over the BN254 scalar field.
// Per spec section 4.4: all leaf/node inputs are field elements < p;
// string and byte inputs are packed 31 bytes at a time so that no value
// ever needs reduction modulo p (31 bytes < 32-byte field width).

package merkle

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Modulus is the BN254 scalar field prime (spec section 4.4).
var Modulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// packBytesToFieldElements packs data into field elements, 31 bytes per
// element, zero-padding the final chunk. Order is preserved.
func packBytesToFieldElements(data []byte) []fr.Element {
	const chunkSize = 31
	if len(data) == 0 {
		return []fr.Element{{}}
	}
	n := (len(data) + chunkSize - 1) / chunkSize
	out := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		var buf [chunkSize]byte
		copy(buf[:], data[start:end])
		out[i].SetBytes(buf[:])
	}
	return out
}

// elementFromUint64 is a small convenience wrapper.
func elementFromUint64(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

// elementToHex renders a field element as 0x-prefixed big-endian hex.
func elementToHex(e fr.Element) string {
	b := e.Bytes() // 32-byte big-endian canonical representation
	return "0x" + bigEndianHex(b[:])
}

func bigEndianHex(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

// elementFromHex parses a 0x-prefixed hex string into a field element.
func elementFromHex(s string) (fr.Element, error) {
	var e fr.Element
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	bi, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return e, errInvalidHex
	}
	e.SetBigInt(bi)
	return e, nil
}

// lessThanModulus reports whether e, interpreted as a big.Int, is < Modulus.
// Always true for any valid fr.Element but exposed for the testable property
// in spec section 8 ("Field bounds").
func lessThanModulus(e fr.Element) bool {
	bi := new(big.Int)
	e.BigInt(bi)
	return bi.Cmp(Modulus) < 0
}
