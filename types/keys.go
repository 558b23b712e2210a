// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package types provides the fixed-size wire primitives shared by the rest
// of this module: secp256k1 keys and compact signatures. The key capabilities
// (ECDH, signing, verification, blinding) are methods on the concrete
// SecretKey and PublicKey types; the package defines no interface for them.
package types

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// PublicKeySize is the length of a compressed secp256k1 point on the wire.
const PublicKeySize = 33

// SecretKeySize is the length of a secp256k1 scalar.
const SecretKeySize = 32

// SignatureSize is the length of a 64-byte compact ECDSA signature (r || s,
// no recovery id).
const SignatureSize = 64

var (
	// ErrInvalidKey is returned when a byte string does not decode to a
	// valid point on the curve.
	ErrInvalidKey = errors.New("types: invalid public key")
	// ErrInvalidSignature is returned when a signature fails to verify or
	// is malformed.
	ErrInvalidSignature = errors.New("types: invalid signature")
)

// SecretKey is a 32-byte secp256k1 scalar. It is never serialized in
// plaintext across the wire; only its derived PublicKey travels.
type SecretKey struct {
	key *btcec.PrivateKey
}

// NewSecretKey derives a SecretKey from raw entropy. The caller is
// responsible for sourcing cryptographically secure randomness.
func NewSecretKey(seed [SecretKeySize]byte) (SecretKey, error) {
	key, pub := btcec.PrivKeyFromBytes(seed[:])
	if pub == nil {
		return SecretKey{}, ErrInvalidKey
	}
	return SecretKey{key: key}, nil
}

// GenerateSecretKey draws a fresh SecretKey from crypto/rand.
func GenerateSecretKey() (SecretKey, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return SecretKey{}, fmt.Errorf("types: generate secret key: %w", err)
	}
	return SecretKey{key: key}, nil
}

// Bytes returns the raw 32-byte scalar.
func (sk SecretKey) Bytes() [SecretKeySize]byte {
	var out [SecretKeySize]byte
	copy(out[:], sk.key.Serialize())
	return out
}

// PublicKey derives the compressed public point paired with sk.
func (sk SecretKey) PublicKey() PublicKey {
	return PublicKey{key: sk.key.PubKey()}
}

// Paired reports whether pk is the public counterpart of sk.
func (sk SecretKey) Paired(pk PublicKey) bool {
	return sk.PublicKey().Equal(pk)
}

// DH performs the Brontide-flavoured Diffie-Hellman:
// SHA256(serialize_compressed(sk * pk)).
func (sk SecretKey) DH(pk PublicKey) ([32]byte, error) {
	if pk.key == nil {
		return [32]byte{}, ErrInvalidKey
	}

	var point btcec.JacobianPoint
	pk.key.AsJacobian(&point)

	var result btcec.JacobianPoint
	btcec.ScalarMultNonConst(&sk.key.Key, &point, &result)
	result.ToAffine()

	shared := btcec.NewPublicKey(&result.X, &result.Y)
	return sha256.Sum256(shared.SerializeCompressed()), nil
}

// Sign produces a 64-byte compact (r || s) ECDSA signature over digest.
func (sk SecretKey) Sign(digest [32]byte) (Signature, error) {
	sig := ecdsa.Sign(sk.key, digest[:])
	return signatureFromEcdsa(sig), nil
}

// Blind returns sk multiplied by the scalar factor, reduced mod the group
// order. This is the ephemeral-key-advancing step used by onion
// construction: each hop's blinding factor rolls the shared session key
// forward without ever exposing the original scalar to later hops.
func (sk SecretKey) Blind(factor [32]byte) (SecretKey, error) {
	var scalar btcec.ModNScalar
	if overflow := scalar.SetBytes(&factor); overflow != 0 {
		return SecretKey{}, ErrInvalidKey
	}

	blinded := &btcec.PrivateKey{}
	*blinded = *sk.key
	blinded.Key.Mul(&scalar)
	return SecretKey{key: blinded}, nil
}

// PublicKey is a compressed secp256k1 point, as carried on the wire.
type PublicKey struct {
	key *btcec.PublicKey
}

// ParsePublicKey decodes a 33-byte compressed point, failing if it is not a
// valid curve point.
func ParsePublicKey(b [PublicKeySize]byte) (PublicKey, error) {
	key, err := btcec.ParsePubKey(b[:])
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return PublicKey{key: key}, nil
}

// IsValid reports whether pk was constructed from a valid curve point.
func (pk PublicKey) IsValid() bool {
	return pk.key != nil
}

// Bytes returns the 33-byte compressed encoding.
func (pk PublicKey) Bytes() [PublicKeySize]byte {
	var out [PublicKeySize]byte
	if pk.key != nil {
		copy(out[:], pk.key.SerializeCompressed())
	}
	return out
}

// Equal reports whether pk and other encode the same point.
func (pk PublicKey) Equal(other PublicKey) bool {
	if pk.key == nil || other.key == nil {
		return pk.key == other.key
	}
	return pk.key.IsEqual(other.key)
}

// Multiply returns pk scaled by factor, i.e. the point factor*pk. Used to
// derive the next hop's ephemeral key during onion processing, mirroring
// the scalar rolled forward on the construction side by SecretKey.Blind.
func (pk PublicKey) Multiply(factor [32]byte) (PublicKey, error) {
	if pk.key == nil {
		return PublicKey{}, ErrInvalidKey
	}

	var scalar btcec.ModNScalar
	if overflow := scalar.SetBytes(&factor); overflow != 0 {
		return PublicKey{}, ErrInvalidKey
	}

	var point, result btcec.JacobianPoint
	pk.key.AsJacobian(&point)
	btcec.ScalarMultNonConst(&scalar, &point, &result)
	result.ToAffine()

	return PublicKey{key: btcec.NewPublicKey(&result.X, &result.Y)}, nil
}

// Verify checks that sig is a valid signature over digest under pk.
func (pk PublicKey) Verify(digest [32]byte, sig Signature) bool {
	if pk.key == nil {
		return false
	}
	s, err := sig.toEcdsa()
	if err != nil {
		return false
	}
	return s.Verify(digest[:], pk.key)
}

// Signature is a 64-byte compact ECDSA signature (r || s).
type Signature [SignatureSize]byte

func signatureFromEcdsa(sig *ecdsa.Signature) Signature {
	var out Signature
	der := sig.Serialize()
	r, s := parseDER(der)
	copy(out[0:32], r)
	copy(out[32:64], s)
	return out
}

func (sig Signature) toEcdsa() (*ecdsa.Signature, error) {
	var rb, sb [32]byte
	copy(rb[:], sig[0:32])
	copy(sb[:], sig[32:64])

	var modNScalarR, modNScalarS btcec.ModNScalar
	if overflow := modNScalarR.SetBytes(&rb); overflow != 0 {
		return nil, ErrInvalidSignature
	}
	if overflow := modNScalarS.SetBytes(&sb); overflow != 0 {
		return nil, ErrInvalidSignature
	}
	return ecdsa.NewSignature(&modNScalarR, &modNScalarS), nil
}

// parseDER extracts the raw 32-byte r and s components from a DER-encoded
// ECDSA signature, left-padding with zeroes if a component serialized
// shorter than 32 bytes.
func parseDER(der []byte) (r, s []byte) {
	// DER: 0x30 len 0x02 rlen r 0x02 slen s
	if len(der) < 8 || der[0] != 0x30 {
		return make([]byte, 32), make([]byte, 32)
	}
	idx := 2
	idx++ // skip 0x02
	rlen := int(der[idx])
	idx++
	rb := der[idx : idx+rlen]
	idx += rlen
	idx++ // skip 0x02
	slen := int(der[idx])
	idx++
	sb := der[idx : idx+slen]

	r = leftPad32(rb)
	s = leftPad32(sb)
	return r, s
}

func leftPad32(b []byte) []byte {
	// DER integers may carry a leading 0x00 to keep them non-negative;
	// strip it before padding back out to a fixed 32 bytes.
	for len(b) > 32 && b[0] == 0x00 {
		b = b[1:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
