// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package shachain

import "github.com/lightningpeach/brontide/types"

// Producer generates the secret at any of the 2^48 indices in the chain
// from a single 32-byte seed, in O(48) work per index.
type Producer struct {
	seed types.Hash256
}

// NewProducer returns a Producer rooted at seed.
func NewProducer(seed types.Hash256) Producer {
	return Producer{seed: seed}
}

// AtIndex derives the secret at index. Index 0 is the seed itself; every
// other index requires one SHA-256 application per set bit.
func (p Producer) AtIndex(index uint64) (types.Hash256, error) {
	if index > maxIndex {
		return types.Hash256{}, ErrIndexOutOfRange
	}
	// The seed is the root of the tree at index 0, which has maximal
	// trailing-zero count (MaxHeight) and is therefore an ancestor of
	// every other index.
	secret, _ := deriveSecret(0, p.seed, index)
	return secret, nil
}
