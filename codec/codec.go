// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

// Package codec implements the bijective, big-endian, length-prefixed
// binary format shared by every wire message in this module. There is no
// reflection-based serde here: every type that rides the wire implements
// Encode/Decode explicitly, in the style this codebase's teacher uses for
// its own fixed-width WireGuard message structs.
package codec

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxLength is the largest value a u16 length or variant-tag prefix can
// carry; any encode that would overflow it is rejected before it reaches
// the wire.
const MaxLength = 65535

var (
	// ErrTooLong is returned when a variable-length value would need a
	// length prefix greater than MaxLength.
	ErrTooLong = errors.New("codec: value exceeds 65535 bytes")
	// ErrTruncated is returned when the reader runs out of input before a
	// value is fully decoded.
	ErrTruncated = errors.New("codec: truncated input")
)

// Writer accumulates encoded bytes. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with cap bytes of pre-allocated capacity.
func NewWriter(cap int) *Writer {
	return &Writer{buf: make([]byte, 0, cap)}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len reports how many bytes have been written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends a big-endian u16.
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint32 appends a big-endian u32.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint64 appends a big-endian u64.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteFixed appends a fixed-size byte array verbatim, with no length
// prefix — the reader is expected to already know its size.
func (w *Writer) WriteFixed(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteVarBytes appends a u16_be(len) || bytes variable-length blob.
func (w *Writer) WriteVarBytes(b []byte) error {
	if len(b) > MaxLength {
		return ErrTooLong
	}
	w.WriteUint16(uint16(len(b)))
	w.buf = append(w.buf, b...)
	return nil
}

// WriteTag appends a u16_be sum-type variant tag.
func (w *Writer) WriteTag(tag uint16) {
	w.WriteUint16(tag)
}

// Reader consumes bytes in order, failing closed on underflow.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential decoding.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining reports how many bytes are left to consume.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a big-endian u16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint32 reads a big-endian u32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadUint64 reads a big-endian u64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadFixed reads exactly n raw bytes, with no length prefix.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	return r.take(n)
}

// ReadVarBytes reads a u16_be(len) || bytes variable-length blob.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

// ReadTag reads a u16_be sum-type variant tag.
func (r *Reader) ReadTag() (uint16, error) {
	return r.ReadUint16()
}

// ReadAll returns every byte not yet consumed, without advancing further
// than the end of the buffer. Used to capture trailing "extra data" on a
// message frame so it can be preserved across a decode/re-encode cycle.
func (r *Reader) ReadAll() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}

// Codec is implemented by every value that can round-trip through the wire
// format: Encode appends to w, Decode consumes from r.
type Codec interface {
	Encode(w *Writer) error
	Decode(r *Reader) error
}

// Marshal encodes v to a fresh byte slice.
func Marshal(v Codec) ([]byte, error) {
	w := NewWriter(64)
	if err := v.Encode(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes v from b, requiring the entire buffer to be consumed.
func Unmarshal(b []byte, v Codec) error {
	r := NewReader(b)
	if err := v.Decode(r); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return io.ErrUnexpectedEOF
	}
	return nil
}
