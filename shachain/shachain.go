// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

// Package shachain implements a per-commitment-secret producer and store: a
// 48-level binary secret derivation tree that lets 2^48 distinct secrets be
// generated from one 32-byte seed, and stored in O(log N) space regardless
// of how many have been revealed.
package shachain

import (
	"crypto/sha256"

	"github.com/lightningpeach/brontide/types"
)

// MaxHeight is the number of significant bits in a shachain index.
const MaxHeight = 48

// maxIndex is the largest representable 48-bit index, 2^48 - 1.
const maxIndex = uint64(1)<<MaxHeight - 1

// trailingZeros counts the number of trailing zero bits of index within the
// 48-bit domain, returning MaxHeight if index is zero.
func trailingZeros(index uint64) int {
	for n := 0; n < MaxHeight; n++ {
		if index>>uint(n)&1 == 1 {
			return n
		}
	}
	return MaxHeight
}

// deriveSecret attempts to compute the secret at toIndex given the secret
// fromHash already known at fromIndex. It succeeds only if fromIndex is an
// ancestor of toIndex: every bit of fromIndex at or above its own trailing
// zero count must agree with the corresponding bit of toIndex. Starting
// from fromHash, for each bit position below that count that is set in
// toIndex, the corresponding bit of the running value is flipped and the
// result rehashed with SHA-256 — the shachain PRF construction.
func deriveSecret(fromIndex uint64, fromHash types.Hash256, toIndex uint64) (types.Hash256, bool) {
	tz := trailingZeros(fromIndex)
	if tz < MaxHeight {
		mask := (^uint64(0) << uint(tz)) & maxIndex
		if fromIndex&mask != toIndex&mask {
			return types.Hash256{}, false
		}
	}

	value := fromHash
	for n := tz - 1; n >= 0; n-- {
		if toIndex>>uint(n)&1 == 1 {
			value[n/8] ^= 1 << (uint(n) % 8)
			value = sha256.Sum256(value[:])
		}
	}
	return value, true
}
