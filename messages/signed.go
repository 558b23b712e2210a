// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"crypto/sha256"

	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// CanonicalHash computes the double-SHA256 of v's canonical re-serialization:
// SHA256(SHA256(canonical_bytes)). This is the digest signed submessages
// (channel/node announcement, channel update) are signed over and verified
// against.
func CanonicalHash(v codec.Codec) (types.Hash256, error) {
	b, err := codec.Marshal(v)
	if err != nil {
		return types.Hash256{}, err
	}
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:]), nil
}

// verifyDigest checks sig against the canonical hash of v under pk.
func verifyDigest(v codec.Codec, pk types.PublicKey, sig types.Signature) error {
	hash, err := CanonicalHash(v)
	if err != nil {
		return err
	}
	if !pk.Verify(hash, sig) {
		return types.ErrInvalidSignature
	}
	return nil
}
