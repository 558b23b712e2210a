// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package shachain

import (
	"sync"

	"github.com/lightningpeach/brontide/types"
)

// startIndex is the internal index assigned to the first inserted element;
// successive insertions count down from here. External callers address
// elements by a separate, increasing sequence number — see Lookup.
const startIndex = maxIndex

type bucket struct {
	index uint64
	hash  types.Hash256
	set   bool
}

// Store retains only the elements needed to derive every secret inserted so
// far, in O(log N) space: 48 buckets, one per possible trailing-zero count.
// Mutating (Insert) and reading (Lookup) operations are serialized by an
// exclusive lock.
type Store struct {
	mu         sync.Mutex
	buckets    [MaxHeight]bucket
	numBuckets int
	next       uint64
}

// NewStore returns an empty Store, ready to accept secrets in production
// order starting from external index 0.
func NewStore() *Store {
	return &Store{next: startIndex}
}

// Insert stores the next secret in sequence. hash MUST be the element a
// Producer emits at the store's current internal index — hashes must be
// inserted in the exact order they're produced. Insert verifies that hash
// derives every already-retained element it is about to supersede,
// returning ErrNotDerivable if the chain is broken.
func (s *Store) Insert(hash types.Hash256) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.next
	b := trailingZeros(idx)

	for i := 0; i < b; i++ {
		if !s.buckets[i].set {
			continue
		}
		derived, ok := deriveSecret(idx, hash, s.buckets[i].index)
		if !ok || derived != s.buckets[i].hash {
			return ErrNotDerivable
		}
	}

	s.buckets[b] = bucket{index: idx, hash: hash, set: true}
	if b+1 > s.numBuckets {
		s.numBuckets = b + 1
	}
	s.next--
	return nil
}

// Lookup recovers the secret at external sequence number v (the same
// increasing 0, 1, 2, ... order secrets were Inserted in), trying every
// retained bucket and returning the first successful derivation.
func (s *Store) Lookup(v uint64) (types.Hash256, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v > startIndex {
		return types.Hash256{}, ErrIndexOutOfRange
	}
	target := startIndex - v

	for i := 0; i < s.numBuckets; i++ {
		if !s.buckets[i].set {
			continue
		}
		if derived, ok := deriveSecret(s.buckets[i].index, s.buckets[i].hash, target); ok {
			return derived, nil
		}
	}
	return types.Hash256{}, ErrNotFound
}
