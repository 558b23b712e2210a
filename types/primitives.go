// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package types

import "encoding/hex"

// Hash256 is a 32-byte double-SHA256 digest, used both as a chaining hash
// and as the canonical hash of a signed submessage.
type Hash256 [32]byte

// String renders the hash as lowercase hex, most-significant byte first.
func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

// ChannelId identifies a channel; it is the funding outpoint's txid XORed
// with the output index, and is all-zero to address "every channel" in an
// Error message.
type ChannelId [32]byte

// IsZero reports whether id addresses every channel on the connection.
func (id ChannelId) IsZero() bool {
	return id == ChannelId{}
}

func (id ChannelId) String() string {
	return hex.EncodeToString(id[:])
}

// Satoshi is a channel-relevant amount denominated in satoshis.
type Satoshi uint64

// MilliSatoshi is a sub-satoshi amount used for HTLC values and fees.
type MilliSatoshi uint64

// ToSatoshi truncates toward zero, discarding the sub-satoshi remainder.
func (m MilliSatoshi) ToSatoshi() Satoshi {
	return Satoshi(m / 1000)
}

// ShortChannelIdEncoding discriminates the two wire encodings of a
// ShortChannelId: plain, and zlib-compressed. Variant 1 (zlib) is decoded as
// a distinct, genuinely compressed payload rather than being aliased onto
// variant 0's plain decoder.
type ShortChannelIdEncoding uint16

const (
	// ShortChannelIdPlain is the uncompressed encoding (variant 0).
	ShortChannelIdPlain ShortChannelIdEncoding = 0
	// ShortChannelIdZlib is the zlib-compressed encoding (variant 1).
	ShortChannelIdZlib ShortChannelIdEncoding = 1
)

// ShortChannelId packs (block_height, tx_index, output_index) into 8 bytes,
// as `block_height (3 bytes) || tx_index (3 bytes) || output_index (2 bytes)`.
type ShortChannelId struct {
	BlockHeight uint32 // only the low 24 bits are significant
	TxIndex     uint32 // only the low 24 bits are significant
	OutputIndex uint16
}

// ToU64 packs the triple into the canonical 8-byte integer form.
func (s ShortChannelId) ToU64() uint64 {
	return (uint64(s.BlockHeight&0xffffff) << 40) |
		(uint64(s.TxIndex&0xffffff) << 16) |
		uint64(s.OutputIndex)
}

// ShortChannelIdFromU64 unpacks the canonical 8-byte integer form.
func ShortChannelIdFromU64(v uint64) ShortChannelId {
	return ShortChannelId{
		BlockHeight: uint32((v >> 40) & 0xffffff),
		TxIndex:     uint32((v >> 16) & 0xffffff),
		OutputIndex: uint16(v & 0xffff),
	}
}
