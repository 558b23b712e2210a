// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package handshake

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	protocolName = "Noise_XK_secp256k1_ChaChaPoly_SHA256"
	prologue     = "lightning"

	hashSize = sha256.Size
	keySize  = 32
)

var zeroNonce [chacha20poly1305.NonceSize]byte

// symmetricState tracks the running chaining key and handshake hash that
// thread through all three acts.
type symmetricState struct {
	ck      [keySize]byte
	h       [hashSize]byte
	tempKey [keySize]byte
}

// initSymmetricState performs the Noise initialization: h = SHA256(name),
// ck = h, then mix_hash(prologue), then mix_hash(responderStatic).
func initSymmetricState(responderStatic [33]byte) symmetricState {
	var ss symmetricState
	ss.h = sha256.Sum256([]byte(protocolName))
	ss.ck = ss.h

	ss.mixHash([]byte(prologue))
	ss.mixHash(responderStatic[:])

	return ss
}

// mixHash folds data into the running handshake hash: h = SHA256(h||data).
func (ss *symmetricState) mixHash(data []byte) {
	h := sha256.New()
	h.Write(ss.h[:])
	h.Write(data)
	copy(ss.h[:], h.Sum(nil))
}

// mixKey derives a fresh chaining key and temp AEAD key from the current
// chaining key and a DH (or other) input, via HKDF-SHA256.
func (ss *symmetricState) mixKey(input []byte) error {
	h := hkdf.New(sha256.New, input, ss.ck[:], nil)

	var out [2 * keySize]byte
	if _, err := io.ReadFull(h, out[:]); err != nil {
		return err
	}

	copy(ss.ck[:], out[:keySize])
	copy(ss.tempKey[:], out[keySize:])
	return nil
}

// encryptAndHash seals plaintext (almost always empty, during the
// handshake) under tempKey with a zero nonce and h as associated data, then
// mixes the ciphertext (including its tag) into h.
func (ss *symmetricState) encryptAndHash(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(ss.tempKey[:])
	if err != nil {
		return nil, err
	}

	ciphertext := aead.Seal(nil, zeroNonce[:], plaintext, ss.h[:])
	ss.mixHash(ciphertext)
	return ciphertext, nil
}

// decryptAndHash is the receive-side counterpart of encryptAndHash.
func (ss *symmetricState) decryptAndHash(ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(ss.tempKey[:])
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, zeroNonce[:], ciphertext, ss.h[:])
	if err != nil {
		return nil, ErrInvalidTag
	}
	ss.mixHash(ciphertext)
	return plaintext, nil
}

// split derives the two session keys (sk, rk) = HKDF(ck, empty) that seed
// the pair of CipherStates handed off at the end of the handshake.
func (ss *symmetricState) split() (sk, rk [keySize]byte, err error) {
	h := hkdf.New(sha256.New, nil, ss.ck[:], nil)

	var out [2 * keySize]byte
	if _, err = io.ReadFull(h, out[:]); err != nil {
		return sk, rk, err
	}

	copy(sk[:], out[:keySize])
	copy(rk[:], out[keySize:])
	return sk, rk, nil
}
