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

// Package handshake implements the three-act Noise_XK handshake ("Brontide"):
// a precise byte-for-byte protocol over secp256k1 that leaves both peers
// holding a pair of cipher.CipherStates.
package handshake

import (
	"fmt"
	"log/slog"

	"github.com/lightningpeach/brontide/cipher"
	"github.com/lightningpeach/brontide/types"
)

// State names the position of a Machine in the act state machine:
// "Uninit → AwaitActOne → AwaitActTwo → AwaitActThree → Established". Only
// the role-correct transition is accepted from each state; anything else is
// ErrUnexpectedAct.
type State int

const (
	// StateUninit is the state of a freshly-constructed Machine.
	StateUninit State = iota
	// StateAwaitActOne is a responder waiting to receive act one.
	StateAwaitActOne
	// StateAwaitActTwo is an initiator waiting to receive act two.
	StateAwaitActTwo
	// StateAwaitActThree is a responder waiting to receive act three.
	StateAwaitActThree
	// StateEstablished is the terminal state: both session keys are
	// available via Split.
	StateEstablished
)

func (s State) String() string {
	switch s {
	case StateUninit:
		return "Uninit"
	case StateAwaitActOne:
		return "AwaitActOne"
	case StateAwaitActTwo:
		return "AwaitActTwo"
	case StateAwaitActThree:
		return "AwaitActThree"
	case StateEstablished:
		return "Established"
	default:
		return fmt.Sprintf("State(UNKNOWN:%d)", int(s))
	}
}

const (
	// ActOneSize is the wire length of act one: version(1) || e.pub(33) ||
	// tag(16).
	ActOneSize = 1 + types.PublicKeySize + 16
	// ActTwoSize is the wire length of act two: identical shape to act one.
	ActTwoSize = ActOneSize
	// ActThreeSize is the wire length of act three: version(1) ||
	// enc(s.pub)(33+16) || tag(16).
	ActThreeSize = 1 + (types.PublicKeySize + 16) + 16

	version = 0x00
)

// generateEphemeral produces the per-act ephemeral key used in GenActOne and
// GenActTwo. Tests override it to drive the handshake against fixed byte
// vectors; it is otherwise always types.GenerateSecretKey.
var generateEphemeral = types.GenerateSecretKey

// Machine is a Brontide handshake in progress. It is owned by exactly one
// connection until Split consumes it and hands back a pair of CipherStates.
type Machine struct {
	initiator bool
	state     State

	localStatic     types.SecretKey
	remoteStatic    types.PublicKey
	localEphemeral  types.SecretKey
	remoteEphemeral types.PublicKey

	ss symmetricState
}

// NewInitiator begins a handshake as the dialling party, who must already
// know the responder's static public key (the "XK" in Noise_XK: the
// initiator's static key is transmitted, the responder's is Known in
// advance).
func NewInitiator(local types.SecretKey, remoteStatic types.PublicKey) (*Machine, error) {
	if !remoteStatic.IsValid() {
		return nil, ErrInvalidKey
	}

	m := &Machine{
		initiator:    true,
		state:        StateUninit,
		localStatic:  local,
		remoteStatic: remoteStatic,
		ss:           initSymmetricState(remoteStatic.Bytes()),
	}
	return m, nil
}

// NewResponder begins a handshake as the listening party. The remote
// static key becomes known only after act three completes.
func NewResponder(local types.SecretKey) (*Machine, error) {
	m := &Machine{
		initiator:   false,
		state:       StateAwaitActOne,
		localStatic: local,
		ss:          initSymmetricState(local.PublicKey().Bytes()),
	}
	return m, nil
}

// State reports the machine's current position in the act sequence.
func (m *Machine) State() State {
	return m.state
}

// RemoteStatic returns the peer's static public key. It is always known for
// an initiator, and becomes known for a responder only once act three has
// been received.
func (m *Machine) RemoteStatic() types.PublicKey {
	return m.remoteStatic
}

// GenActOne is called by the initiator to produce the first 50-byte
// handshake message.
func (m *Machine) GenActOne() ([]byte, error) {
	if !m.initiator || m.state != StateUninit {
		return nil, ErrUnexpectedAct
	}

	e, err := generateEphemeral()
	if err != nil {
		return nil, err
	}
	m.localEphemeral = e

	epub := e.PublicKey().Bytes()
	m.ss.mixHash(epub[:])

	es, err := e.DH(m.remoteStatic)
	if err != nil {
		return nil, err
	}
	if err := m.ss.mixKey(es[:]); err != nil {
		return nil, err
	}

	tag, err := m.ss.encryptAndHash(nil)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, ActOneSize)
	out = append(out, version)
	out = append(out, epub[:]...)
	out = append(out, tag...)

	m.state = StateAwaitActTwo
	return out, nil
}

// RecvActOne is called by the responder on receipt of act one.
func (m *Machine) RecvActOne(b []byte) error {
	if m.initiator || m.state != StateAwaitActOne {
		return ErrUnexpectedAct
	}
	if len(b) != ActOneSize {
		return ErrInvalidLength
	}
	if b[0] != version {
		slog.Warn("act one rejected: invalid version", "version", b[0])
		return ErrInvalidVersion
	}

	var epub [types.PublicKeySize]byte
	copy(epub[:], b[1:1+types.PublicKeySize])
	re, err := types.ParsePublicKey(epub)
	if err != nil {
		return ErrInvalidKey
	}
	m.remoteEphemeral = re

	m.ss.mixHash(epub[:])

	es, err := m.localStatic.DH(re)
	if err != nil {
		return err
	}
	if err := m.ss.mixKey(es[:]); err != nil {
		return err
	}

	tag := b[1+types.PublicKeySize:]
	if _, err := m.ss.decryptAndHash(tag); err != nil {
		slog.Warn("act one rejected: tag mismatch")
		return ErrInvalidTag
	}

	m.state = StateAwaitActThree
	return nil
}

// GenActTwo is called by the responder after RecvActOne, producing the
// second 50-byte handshake message.
func (m *Machine) GenActTwo() ([]byte, error) {
	if m.initiator || m.state != StateAwaitActThree {
		return nil, ErrUnexpectedAct
	}

	e2, err := generateEphemeral()
	if err != nil {
		return nil, err
	}
	m.localEphemeral = e2

	e2pub := e2.PublicKey().Bytes()
	m.ss.mixHash(e2pub[:])

	ee, err := e2.DH(m.remoteEphemeral)
	if err != nil {
		return nil, err
	}
	if err := m.ss.mixKey(ee[:]); err != nil {
		return nil, err
	}

	tag, err := m.ss.encryptAndHash(nil)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, ActTwoSize)
	out = append(out, version)
	out = append(out, e2pub[:]...)
	out = append(out, tag...)

	return out, nil
}

// RecvActTwo is called by the initiator on receipt of act two.
func (m *Machine) RecvActTwo(b []byte) error {
	if !m.initiator || m.state != StateAwaitActTwo {
		return ErrUnexpectedAct
	}
	if len(b) != ActTwoSize {
		return ErrInvalidLength
	}
	if b[0] != version {
		slog.Warn("act two rejected: invalid version", "version", b[0])
		return ErrInvalidVersion
	}

	var epub [types.PublicKeySize]byte
	copy(epub[:], b[1:1+types.PublicKeySize])
	re, err := types.ParsePublicKey(epub)
	if err != nil {
		return ErrInvalidKey
	}
	m.remoteEphemeral = re

	m.ss.mixHash(epub[:])

	ee, err := m.localEphemeral.DH(re)
	if err != nil {
		return err
	}
	if err := m.ss.mixKey(ee[:]); err != nil {
		return err
	}

	tag := b[1+types.PublicKeySize:]
	if _, err := m.ss.decryptAndHash(tag); err != nil {
		slog.Warn("act two rejected: tag mismatch")
		return ErrInvalidTag
	}

	return nil
}

// GenActThree is called by the initiator after RecvActTwo, producing the
// final 66-byte handshake message. It reveals the initiator's static key,
// encrypted under the handshake's running temp key.
func (m *Machine) GenActThree() ([]byte, error) {
	if !m.initiator || m.state != StateAwaitActTwo {
		return nil, ErrUnexpectedAct
	}

	spub := m.localStatic.PublicKey().Bytes()
	encStatic, err := m.ss.encryptAndHash(spub[:])
	if err != nil {
		return nil, err
	}

	se, err := m.localStatic.DH(m.remoteEphemeral)
	if err != nil {
		return nil, err
	}
	if err := m.ss.mixKey(se[:]); err != nil {
		return nil, err
	}

	tag, err := m.ss.encryptAndHash(nil)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, ActThreeSize)
	out = append(out, version)
	out = append(out, encStatic...)
	out = append(out, tag...)

	m.state = StateEstablished
	return out, nil
}

// RecvActThree is called by the responder on receipt of act three. On
// success, the peer's static key becomes available via RemoteStatic and
// the machine reaches StateEstablished.
func (m *Machine) RecvActThree(b []byte) error {
	if m.initiator || m.state != StateAwaitActThree {
		return ErrUnexpectedAct
	}
	if len(b) != ActThreeSize {
		return ErrInvalidLength
	}
	if b[0] != version {
		slog.Warn("act three rejected: invalid version", "version", b[0])
		return ErrInvalidVersion
	}

	encStatic := b[1 : 1+types.PublicKeySize+16]
	spubBytes, err := m.ss.decryptAndHash(encStatic)
	if err != nil {
		slog.Warn("act three rejected: tag mismatch decrypting static key")
		return ErrInvalidTag
	}

	var spub [types.PublicKeySize]byte
	copy(spub[:], spubBytes)
	rs, err := types.ParsePublicKey(spub)
	if err != nil {
		return ErrInvalidKey
	}
	m.remoteStatic = rs

	se, err := m.localEphemeral.DH(rs)
	if err != nil {
		return err
	}
	if err := m.ss.mixKey(se[:]); err != nil {
		return err
	}

	tag := b[1+types.PublicKeySize+16:]
	if _, err := m.ss.decryptAndHash(tag); err != nil {
		slog.Warn("act three rejected: tag mismatch")
		return ErrInvalidTag
	}

	m.state = StateEstablished
	return nil
}

// Split consumes the completed handshake and derives the pair of
// CipherStates that carry the connection's post-handshake traffic: the
// initiator sends with sk and receives with rk, and vice versa for the
// responder.
func (m *Machine) Split() (send, recv *cipher.CipherState, err error) {
	if m.state != StateEstablished {
		return nil, nil, ErrUnexpectedAct
	}

	sk, rk, err := m.ss.split()
	if err != nil {
		return nil, nil, err
	}

	salt := m.ss.ck

	if m.initiator {
		send, err = cipher.New(sk, salt)
	} else {
		send, err = cipher.New(rk, salt)
	}
	if err != nil {
		return nil, nil, err
	}

	if m.initiator {
		recv, err = cipher.New(rk, salt)
	} else {
		recv, err = cipher.New(sk, salt)
	}
	if err != nil {
		return nil, nil, err
	}

	return send, recv, nil
}
