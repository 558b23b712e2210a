// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package stream glues a completed handshake's cipher pair onto a net.Conn,
// producing a length-prefixed encrypted record layer.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/lightningpeach/brontide/cipher"
	"github.com/lightningpeach/brontide/types"
)

// ErrFrameTooLarge is returned when a caller asks to send a payload that
// cannot fit in a u16 length prefix.
var ErrFrameTooLarge = errors.New("stream: payload exceeds 65535 bytes")

// readBufferSize is how much the Stream asks the underlying conn for per
// Read call while filling the decoder.
const readBufferSize = 4096

// Stream is a handshake-authenticated, length-prefixed encrypted record
// layer. It exclusively owns the underlying net.Conn.
type Stream struct {
	conn net.Conn

	send *cipher.CipherState
	dec  *Decoder

	remoteKey types.PublicKey
}

// New wraps conn with the send/recv CipherState pair produced by a
// completed handshake.Machine. remoteKey is the peer's static identity,
// exposed for the application layer.
func New(conn net.Conn, send, recv *cipher.CipherState, remoteKey types.PublicKey) *Stream {
	return &Stream{
		conn:      conn,
		send:      send,
		dec:       NewDecoder(recv),
		remoteKey: remoteKey,
	}
}

// RemoteKey returns the peer's static public key, as established by the
// handshake.
func (s *Stream) RemoteKey() types.PublicKey {
	return s.remoteKey
}

// Close closes the underlying transport, aborting any in-flight read or
// write immediately.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// WriteMessage encrypts payload as two AEAD records — a length record
// followed by a payload record — and writes them to the underlying
// connection. Both records share the same CipherState, so a rekey landing
// between them is handled transparently by CipherState.Encrypt.
func (s *Stream) WriteMessage(payload []byte) error {
	if len(payload) > maxPayloadLen {
		return ErrFrameTooLarge
	}

	var lenBytes [2]byte
	binary.BigEndian.PutUint16(lenBytes[:], uint16(len(payload)))

	lenRecord, err := s.send.Encrypt(nil, lenBytes[:])
	if err != nil {
		return err
	}

	payloadRecord, err := s.send.Encrypt(nil, payload)
	if err != nil {
		return err
	}

	frame := make([]byte, 0, len(lenRecord)+len(payloadRecord))
	frame = append(frame, lenRecord...)
	frame = append(frame, payloadRecord...)

	_, err = s.conn.Write(frame)
	return err
}

// ReadMessage blocks until one complete message has been decrypted, or the
// connection fails. It is built on top of the pull-driven Decoder: each
// underlying Read pulls in whatever bytes are currently available, and at
// most one message is produced per successful decode.
func (s *Stream) ReadMessage() ([]byte, error) {
	for {
		if msg, ok, err := s.dec.Next(); err != nil {
			return nil, err
		} else if ok {
			return msg, nil
		}

		buf := make([]byte, readBufferSize)
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.dec.Feed(buf[:n])
		}
		if err != nil {
			if err == io.EOF && n > 0 {
				continue
			}
			return nil, err
		}
	}
}
