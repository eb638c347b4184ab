// Copyright 2025 Shadow Atlas Contributors
//
// Poseidon2-over-BN254 sponge hashing, built on gnark-crypto's Poseidon2
// permutation primitive — the same BN254 scalar field the teacher's
// bls_zkp prover compiles circuits over (pkg/crypto/bls_zkp/prover.go),
// generalized here from a Groth16 witness commitment to a general-purpose
// field hash.
//
// Global mutable state: a single Permutation instance is built once and
// reused from every worker goroutine. gnark-crypto's Permutation.Permutation
// only reads its round constants and MDS matrix, so read-only re-entrancy
// from concurrent callers is safe; we still serialize actual calls with a
// mutex since the scratch state buffer must not be shared (spec section 9:
// "Global mutable state ... must be safely initializable once and
// thereafter callable from worker threads").
package merkle

import (
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// Sponge width/round parameters: t=3 (rate 2, capacity 1), the BN254
// parameter set gnark-crypto documents for its Poseidon2 instantiation.
const (
	spongeWidth        = 3
	spongeRate         = 2
	fullRounds         = 8
	partialRounds      = 56
)

var (
	permOnce sync.Once
	perm     *poseidon2.Permutation
	permMu   sync.Mutex
)

func permutation() *poseidon2.Permutation {
	permOnce.Do(func() {
		perm = poseidon2.NewPermutation(spongeWidth, fullRounds, partialRounds)
	})
	return perm
}

// Hash absorbs elements (any arity >= 1) into a capacity-separated sponge
// and squeezes a single output element. The arity is mixed into the
// capacity lane up front, so H(a,b) and H(a,b,0) never collide even though
// their rate-lane contents would otherwise coincide after zero-padding.
func Hash(elements ...fr.Element) fr.Element {
	p := permutation()

	permMu.Lock()
	defer permMu.Unlock()

	var state [spongeWidth]fr.Element
	state[spongeWidth-1].SetUint64(uint64(len(elements)))

	for offset := 0; offset < len(elements); offset += spongeRate {
		end := offset + spongeRate
		if end > len(elements) {
			end = len(elements)
		}
		for i := offset; i < end; i++ {
			lane := i - offset
			state[lane].Add(&state[lane], &elements[i])
		}
		if err := p.Permutation(state[:]); err != nil {
			// gnark-crypto's Permutation only errors on a width mismatch,
			// which would be a programmer error in this package, not a
			// runtime condition callers can recover from.
			panic("merkle: poseidon2 permutation: " + err.Error())
		}
	}

	return state[0]
}

// HashPair is the common 2-ary case used for internal tree nodes.
func HashPair(left, right fr.Element) fr.Element {
	return Hash(left, right)
}
