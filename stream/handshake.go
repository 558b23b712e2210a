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

package stream

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/lightningpeach/brontide/handshake"
	"github.com/lightningpeach/brontide/types"
)

// HandshakeReadTimeout is the per-act read timeout enforced while awaiting
// the remote party's half of the handshake.
const HandshakeReadTimeout = 5 * time.Second

// ErrHandshakeTimeout is returned when the remote party fails to deliver
// its half of an act within HandshakeReadTimeout.
var ErrHandshakeTimeout = errors.New("stream: handshake timed out awaiting remote act")

// Outgoing performs the initiator's side of the Brontide handshake over
// conn and, on success, returns an established Stream. remoteStatic must be
// the static public key the caller expects to be dialing.
func Outgoing(conn net.Conn, localSecret types.SecretKey, remoteStatic types.PublicKey) (*Stream, error) {
	m, err := handshake.NewInitiator(localSecret, remoteStatic)
	if err != nil {
		return nil, err
	}

	actOne, err := m.GenActOne()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(actOne); err != nil {
		return nil, err
	}

	actTwo, err := readFullTimeout(conn, handshake.ActTwoSize)
	if err != nil {
		return nil, err
	}
	if err := m.RecvActTwo(actTwo); err != nil {
		return nil, err
	}

	actThree, err := m.GenActThree()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(actThree); err != nil {
		return nil, err
	}

	return split(conn, m)
}

// Incoming performs the responder's side of the Brontide handshake over
// conn and, on success, returns an established Stream.
func Incoming(conn net.Conn, localSecret types.SecretKey) (*Stream, error) {
	m, err := handshake.NewResponder(localSecret)
	if err != nil {
		return nil, err
	}

	actOne, err := readFullTimeout(conn, handshake.ActOneSize)
	if err != nil {
		return nil, err
	}
	if err := m.RecvActOne(actOne); err != nil {
		return nil, err
	}

	actTwo, err := m.GenActTwo()
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(actTwo); err != nil {
		return nil, err
	}

	actThree, err := readFullTimeout(conn, handshake.ActThreeSize)
	if err != nil {
		return nil, err
	}
	if err := m.RecvActThree(actThree); err != nil {
		return nil, err
	}

	return split(conn, m)
}

func split(conn net.Conn, m *handshake.Machine) (*Stream, error) {
	send, recv, err := m.Split()
	if err != nil {
		return nil, err
	}
	return New(conn, send, recv, m.RemoteStatic()), nil
}

// readFullTimeout reads exactly n bytes from conn, enforcing
// HandshakeReadTimeout on the whole read.
func readFullTimeout(conn net.Conn, n int) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(HandshakeReadTimeout)); err != nil {
		return nil, err
	}
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			slog.Warn("handshake act read timed out", "remote", conn.RemoteAddr(), "timeout", HandshakeReadTimeout)
			return nil, ErrHandshakeTimeout
		}
		return nil, err
	}
	return buf, nil
}
