// Copyright 2025 Shadow Atlas Contributors
//
// Canonical WKB encoding and geometry hashing. Per spec section 4.4:
// little-endian, exterior ring first, interior rings clockwise,
// coordinates quantized to 1e-7 degrees. Quantization is normative so that
// floating-point noise never changes the hash of an identical geometry.

package merkle

import (
	"encoding/binary"
	"math"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const coordQuantizeScale = 1e7 // 1e-7 degree resolution

// quantizeCoord rounds a degree value to the nearest 1e-7 and returns the
// scaled integer representation, stable across platforms (round-half-away
// from zero via math.Round).
func quantizeCoord(v float64) int64 {
	return int64(math.Round(v * coordQuantizeScale))
}

// ringSignedArea computes twice the signed planar area of a ring over its
// raw (unquantized) degree coordinates; sign indicates winding order
// (positive = CCW).
func ringSignedArea(r boundary.Ring) float64 {
	var sum float64
	n := len(r)
	if n < 3 {
		return 0
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i][0]*r[j][1] - r[j][0]*r[i][1]
	}
	return sum
}

// isClockwise reports whether a ring winds clockwise in (lon, lat) space.
func isClockwise(r boundary.Ring) bool {
	return ringSignedArea(r) < 0
}

// reverseRing returns a copy of r with vertex order reversed.
func reverseRing(r boundary.Ring) boundary.Ring {
	out := make(boundary.Ring, len(r))
	for i, v := range r {
		out[len(r)-1-i] = v
	}
	return out
}

// canonicalWKB encodes a Geometry deterministically: little-endian byte
// order, exterior ring first per polygon and forced CCW, interior rings
// forced clockwise, coordinates quantized to 1e-7 degrees and written as
// fixed 8-byte little-endian integers.
func canonicalWKB(g boundary.Geometry) []byte {
	buf := make([]byte, 0, 256)
	buf = appendUint32LE(buf, uint32(len(g.Polygons)))
	for _, polygon := range g.Polygons {
		buf = appendUint32LE(buf, uint32(len(polygon)))
		for ringIdx, ring := range polygon {
			r := ring
			if ringIdx == 0 {
				if isClockwise(r) {
					r = reverseRing(r)
				}
			} else {
				if !isClockwise(r) {
					r = reverseRing(r)
				}
			}
			buf = appendUint32LE(buf, uint32(len(r)))
			for _, vertex := range r {
				lon := quantizeCoord(vertex[0])
				lat := quantizeCoord(vertex[1])
				buf = appendInt64LE(buf, lon)
				buf = appendInt64LE(buf, lat)
			}
		}
	}
	return buf
}

func appendUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendInt64LE(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

// GeometryHash computes the Poseidon2 field-element hash of a geometry's
// canonical WKB encoding, then returns its 32-byte big-endian form.
func GeometryHash(g boundary.Geometry) ([32]byte, error) {
	if g.IsEmpty() {
		return [32]byte{}, ErrInvalidGeometry
	}
	wkb := canonicalWKB(g)
	elements := packBytesToFieldElements(wkb)
	h := Hash(elements...)
	return h.Bytes(), nil
}

// geometryHashElement is the field-element form used internally by the
// leaf-hash computation, avoiding a bytes round-trip.
func geometryHashElement(g boundary.Geometry) (fr.Element, error) {
	if g.IsEmpty() {
		return fr.Element{}, ErrInvalidGeometry
	}
	wkb := canonicalWKB(g)
	elements := packBytesToFieldElements(wkb)
	return Hash(elements...), nil
}
