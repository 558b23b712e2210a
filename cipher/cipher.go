// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 *
 * Portions of this file are based on code originally from wireguard-go,
 *
 * Copyright (C) 2017-2023 WireGuard LLC. All Rights Reserved.
 */

// Package cipher implements a per-direction ChaCha20-Poly1305 AEAD
// CipherState: a keyed, rekeying stream cipher with a deterministic nonce
// and a message counter.
package cipher

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the width of both the AEAD key and the chaining salt.
const KeySize = 32

// RekeyThreshold is the number of records after which both endpoints
// deterministically rotate their key and salt.
const RekeyThreshold = 1000

// ErrInvalidTag is returned when an AEAD tag fails to verify.
var ErrInvalidTag = errors.New("cipher: invalid tag")

// CipherState is one direction (send or receive) of a connection's
// encrypted stream. It is never shared between directions or connections.
type CipherState struct {
	key            [KeySize]byte
	salt           [KeySize]byte
	nonce          uint64
	messageCounter uint64

	aead aeadCipher
}

type aeadCipher interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// New constructs a CipherState directly from a key and chaining salt, as
// produced at the end of the handshake.
func New(key, salt [KeySize]byte) (*CipherState, error) {
	cs := &CipherState{key: key, salt: salt}
	if err := cs.rebuildAEAD(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *CipherState) rebuildAEAD() error {
	aead, err := chacha20poly1305.New(cs.key[:])
	if err != nil {
		return err
	}
	cs.aead = aead
	return nil
}

// nonceBytes renders the 64-bit little-endian counter into the 96-bit AEAD
// nonce field, with the upper 32 bits left zero.
func (cs *CipherState) nonceBytes() [chacha20poly1305.NonceSize]byte {
	var n [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(n[4:], cs.nonce)
	return n
}

// Encrypt seals plaintext under the current key/nonce with associatedData
// bound in, then advances the cipher state (incrementing the counter and,
// if the rekey threshold was just reached, deriving a fresh key/salt pair).
func (cs *CipherState) Encrypt(associatedData, plaintext []byte) ([]byte, error) {
	nonce := cs.nonceBytes()
	out := cs.aead.Seal(nil, nonce[:], plaintext, associatedData)
	if err := cs.advance(); err != nil {
		return nil, err
	}
	return out, nil
}

// Decrypt opens ciphertext (which must include its trailing 16-byte tag)
// under the current key/nonce with associatedData bound in. Cipher state is
// only advanced once the tag has verified — a failed decrypt never commits
// a partial record.
func (cs *CipherState) Decrypt(associatedData, ciphertext []byte) ([]byte, error) {
	nonce := cs.nonceBytes()
	out, err := cs.aead.Open(nil, nonce[:], ciphertext, associatedData)
	if err != nil {
		return nil, ErrInvalidTag
	}
	if err := cs.advance(); err != nil {
		return nil, err
	}
	return out, nil
}

// advance increments nonce and messageCounter in lockstep, rekeying exactly
// when the counter reaches RekeyThreshold.
func (cs *CipherState) advance() error {
	cs.nonce++
	cs.messageCounter++

	if cs.messageCounter == RekeyThreshold {
		if err := cs.rekey(); err != nil {
			return err
		}
	}
	return nil
}

// rekey derives (new_salt, new_key) = HKDF(salt, key) (SHA-256, empty info,
// 64 bytes split as 32+32), then resets nonce and the message counter.
func (cs *CipherState) rekey() error {
	h := hkdf.New(sha256.New, cs.key[:], cs.salt[:], nil)

	var out [2 * KeySize]byte
	if _, err := io.ReadFull(h, out[:]); err != nil {
		return err
	}

	copy(cs.salt[:], out[:KeySize])
	copy(cs.key[:], out[KeySize:])
	cs.nonce = 0
	cs.messageCounter = 0

	return cs.rebuildAEAD()
}

// MessageCounter reports the number of records sealed/opened since the
// last rekey (or since construction). Exposed so a rekey boundary can be
// observed as a testable side-effect.
func (cs *CipherState) MessageCounter() uint64 {
	return cs.messageCounter
}

// Salt returns the current chaining salt.
func (cs *CipherState) Salt() [KeySize]byte {
	return cs.salt
}
