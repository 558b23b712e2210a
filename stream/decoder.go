// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package stream

import (
	"encoding/binary"
	"log/slog"

	"github.com/lightningpeach/brontide/cipher"
)

// lengthRecordSize is the on-the-wire size of the first, length-carrying
// record: a 2-byte payload length sealed as its own AEAD record.
const lengthRecordSize = 2 + 16

// maxPayloadLen is the largest payload a single frame may declare.
const maxPayloadLen = 65535

// Decoder is a pull-driven frame decoder: Feed appends newly-arrived bytes,
// and Next extracts at most one complete message per call, leaving any
// partial frame buffered for a later call. Decryption — and therefore
// cipher-state advancement — only ever happens once a complete record is
// present; a partial record never mutates the CipherState.
type Decoder struct {
	cs  *cipher.CipherState
	buf []byte

	havePayloadLen bool
	payloadLen     int
}

// NewDecoder constructs a Decoder that reads records off cs.
func NewDecoder(cs *cipher.CipherState) *Decoder {
	return &Decoder{cs: cs}
}

// Feed appends newly-read bytes to the decoder's internal buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next attempts to decode a single complete message from the buffered
// bytes. ok is false (with a nil error) when more bytes are needed.
func (d *Decoder) Next() (msg []byte, ok bool, err error) {
	if !d.havePayloadLen {
		if len(d.buf) < lengthRecordSize {
			return nil, false, nil
		}

		lenPlaintext, err := d.cs.Decrypt(nil, d.buf[:lengthRecordSize])
		if err != nil {
			return nil, false, err
		}

		// payloadLen is a u16, so it is already bounded by maxPayloadLen.
		payloadLen := int(binary.BigEndian.Uint16(lenPlaintext))

		d.buf = d.buf[lengthRecordSize:]
		d.havePayloadLen = true
		d.payloadLen = payloadLen
	}

	recordSize := d.payloadLen + 16
	if len(d.buf) < recordSize {
		return nil, false, nil
	}

	plaintext, err := d.cs.Decrypt(nil, d.buf[:recordSize])
	if err != nil {
		return nil, false, err
	}

	d.buf = d.buf[recordSize:]
	d.havePayloadLen = false
	d.payloadLen = 0

	if d.cs.MessageCounter() == 0 {
		slog.Debug("cipher state rekeyed")
	}

	return plaintext, true, nil
}
