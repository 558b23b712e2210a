// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// encodeZlibIds serializes ids as 8-byte records and zlib-compresses the
// result, producing the payload carried after the ShortChannelIdZlib
// encoding byte.
func encodeZlibIds(ids []types.ShortChannelId) ([]byte, error) {
	body := codec.NewWriter(8 * len(ids))
	for _, id := range ids {
		writeShortChannelId(body, id)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(body.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeZlibIds inflates a zlib-compressed payload and parses it back into
// the 8-byte short_channel_id records it was built from.
func decodeZlibIds(compressed []byte) ([]types.ShortChannelId, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	if len(inflated)%8 != 0 {
		return nil, codec.ErrTruncated
	}

	body := codec.NewReader(inflated)
	ids := make([]types.ShortChannelId, 0, body.Remaining()/8)
	for body.Remaining() > 0 {
		id, err := readShortChannelId(body)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// announcementChannelData is everything in AnnouncementChannel past the
// four leading signatures — the content the signatures actually cover, under
// the "canonical hash of all following fields" rule.
type announcementChannelData struct {
	Features       FeatureVector
	ChainHash      types.Hash256
	ShortChannelId types.ShortChannelId
	NodeId         [2]types.PublicKey
	BitcoinKey     [2]types.PublicKey
}

// Encode implements codec.Codec.
func (d *announcementChannelData) Encode(w *codec.Writer) error {
	if err := d.Features.Encode(w); err != nil {
		return err
	}
	writeHash256(w, d.ChainHash)
	writeShortChannelId(w, d.ShortChannelId)
	for _, k := range d.NodeId {
		writePublicKey(w, k)
	}
	for _, k := range d.BitcoinKey {
		writePublicKey(w, k)
	}
	return nil
}

// Decode implements codec.Codec.
func (d *announcementChannelData) Decode(r *codec.Reader) error {
	if err := d.Features.Decode(r); err != nil {
		return err
	}
	var err error
	if d.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	if d.ShortChannelId, err = readShortChannelId(r); err != nil {
		return err
	}
	for i := range d.NodeId {
		if d.NodeId[i], err = readPublicKey(r); err != nil {
			return err
		}
	}
	for i := range d.BitcoinKey {
		if d.BitcoinKey[i], err = readPublicKey(r); err != nil {
			return err
		}
	}
	return nil
}

// AnnouncementChannel binds a channel's short_channel_id to the identity
// and on-chain keys of both endpoints, authenticated by four signatures:
// each endpoint signs once with its node key and once with its funding key.
type AnnouncementChannel struct {
	NodeSignature    [2]types.Signature
	BitcoinSignature [2]types.Signature
	Data             announcementChannelData
}

// Type implements Message.
func (m *AnnouncementChannel) Type() uint16 { return TypeAnnouncementChannel }

// Encode implements Message.
func (m *AnnouncementChannel) Encode(w *codec.Writer) error {
	for _, s := range m.NodeSignature {
		writeSignature(w, s)
	}
	for _, s := range m.BitcoinSignature {
		writeSignature(w, s)
	}
	return m.Data.Encode(w)
}

// Decode implements Message.
func (m *AnnouncementChannel) Decode(r *codec.Reader) error {
	var err error
	for i := range m.NodeSignature {
		if m.NodeSignature[i], err = readSignature(r); err != nil {
			return err
		}
	}
	for i := range m.BitcoinSignature {
		if m.BitcoinSignature[i], err = readSignature(r); err != nil {
			return err
		}
	}
	return m.Data.Decode(r)
}

// Verify checks both node signatures and both bitcoin signatures against the
// four corresponding public keys carried in Data.
func (m *AnnouncementChannel) Verify() error {
	for i, pk := range m.Data.NodeId {
		if err := verifyDigest(&m.Data, pk, m.NodeSignature[i]); err != nil {
			return err
		}
	}
	for i, pk := range m.Data.BitcoinKey {
		if err := verifyDigest(&m.Data, pk, m.BitcoinSignature[i]); err != nil {
			return err
		}
	}
	return nil
}

// announcementNodeData is the signed portion of AnnouncementNode.
type announcementNodeData struct {
	Features  FeatureVector
	Timestamp uint32
	NodeId    types.PublicKey
	RGBColor  [3]byte
	Alias     [32]byte
	Addresses []byte
}

// Encode implements codec.Codec.
func (d *announcementNodeData) Encode(w *codec.Writer) error {
	if err := d.Features.Encode(w); err != nil {
		return err
	}
	w.WriteUint32(d.Timestamp)
	writePublicKey(w, d.NodeId)
	w.WriteFixed(d.RGBColor[:])
	w.WriteFixed(d.Alias[:])
	return w.WriteVarBytes(d.Addresses)
}

// Decode implements codec.Codec.
func (d *announcementNodeData) Decode(r *codec.Reader) error {
	if err := d.Features.Decode(r); err != nil {
		return err
	}
	var err error
	if d.Timestamp, err = r.ReadUint32(); err != nil {
		return err
	}
	if d.NodeId, err = readPublicKey(r); err != nil {
		return err
	}
	rgb, err := r.ReadFixed(3)
	if err != nil {
		return err
	}
	copy(d.RGBColor[:], rgb)
	alias, err := r.ReadFixed(32)
	if err != nil {
		return err
	}
	copy(d.Alias[:], alias)
	d.Addresses, err = r.ReadVarBytes()
	return err
}

// AnnouncementNode carries a node's public identity: its feature set,
// network addresses, and display metadata, signed by its node key.
type AnnouncementNode struct {
	Signature types.Signature
	Data      announcementNodeData
}

// Type implements Message.
func (m *AnnouncementNode) Type() uint16 { return TypeAnnouncementNode }

// Encode implements Message.
func (m *AnnouncementNode) Encode(w *codec.Writer) error {
	writeSignature(w, m.Signature)
	return m.Data.Encode(w)
}

// Decode implements Message.
func (m *AnnouncementNode) Decode(r *codec.Reader) error {
	var err error
	if m.Signature, err = readSignature(r); err != nil {
		return err
	}
	return m.Data.Decode(r)
}

// Verify checks the node signature against the declared NodeId.
func (m *AnnouncementNode) Verify() error {
	return verifyDigest(&m.Data, m.Data.NodeId, m.Signature)
}

// ChannelUpdateFlags packs the direction and disabled bits of an
// UpdateChannel message into a single u16.
type ChannelUpdateFlags uint16

const (
	// ChannelUpdateDirection is set by the node with the numerically
	// greater node_id in the channel.
	ChannelUpdateDirection ChannelUpdateFlags = 0b01
	// ChannelUpdateDisabled marks the direction as currently unusable.
	ChannelUpdateDisabled ChannelUpdateFlags = 0b10
)

// updateChannelData is the signed portion of UpdateChannel.
type updateChannelData struct {
	ChainHash      types.Hash256
	ShortChannelId types.ShortChannelId
	Timestamp      uint32
	Flags          ChannelUpdateFlags
	TimeLockDelta  uint16
	HtlcMinimum    types.MilliSatoshi
	BaseFee        uint32
	FeeRate        uint32
}

// Encode implements codec.Codec.
func (d *updateChannelData) Encode(w *codec.Writer) error {
	writeHash256(w, d.ChainHash)
	writeShortChannelId(w, d.ShortChannelId)
	w.WriteUint32(d.Timestamp)
	w.WriteUint16(uint16(d.Flags))
	w.WriteUint16(d.TimeLockDelta)
	w.WriteUint64(uint64(d.HtlcMinimum))
	w.WriteUint32(d.BaseFee)
	w.WriteUint32(d.FeeRate)
	return nil
}

// Decode implements codec.Codec.
func (d *updateChannelData) Decode(r *codec.Reader) error {
	var err error
	if d.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	if d.ShortChannelId, err = readShortChannelId(r); err != nil {
		return err
	}
	if d.Timestamp, err = r.ReadUint32(); err != nil {
		return err
	}
	flags, err := r.ReadUint16()
	if err != nil {
		return err
	}
	d.Flags = ChannelUpdateFlags(flags)
	if d.TimeLockDelta, err = r.ReadUint16(); err != nil {
		return err
	}
	htlcMin, err := r.ReadUint64()
	if err != nil {
		return err
	}
	d.HtlcMinimum = types.MilliSatoshi(htlcMin)
	if d.BaseFee, err = r.ReadUint32(); err != nil {
		return err
	}
	d.FeeRate, err = r.ReadUint32()
	return err
}

// UpdateChannel advertises one direction's routing policy for a channel:
// fee rate, minimum HTLC, and CLTV delta, signed by the announcing side.
type UpdateChannel struct {
	Signature types.Signature
	Data      updateChannelData
}

// Type implements Message.
func (m *UpdateChannel) Type() uint16 { return TypeUpdateChannel }

// Encode implements Message.
func (m *UpdateChannel) Encode(w *codec.Writer) error {
	writeSignature(w, m.Signature)
	return m.Data.Encode(w)
}

// Decode implements Message.
func (m *UpdateChannel) Decode(r *codec.Reader) error {
	var err error
	if m.Signature, err = readSignature(r); err != nil {
		return err
	}
	return m.Data.Decode(r)
}

// Verify checks the signature against the announcing node's public key,
// which the caller must already know from the channel's AnnouncementChannel.
func (m *UpdateChannel) Verify(pk types.PublicKey) error {
	return verifyDigest(&m.Data, pk, m.Signature)
}

// AnnounceSignatures exchanges each endpoint's signature over the other's
// half of a channel announcement, letting either side assemble and gossip
// the completed AnnouncementChannel once both signatures are in hand.
type AnnounceSignatures struct {
	ChannelId        types.ChannelId
	ShortChannelId   types.ShortChannelId
	NodeSignature    types.Signature
	BitcoinSignature types.Signature
}

// Type implements Message.
func (m *AnnounceSignatures) Type() uint16 { return TypeAnnounceSignatures }

// Encode implements Message.
func (m *AnnounceSignatures) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	writeShortChannelId(w, m.ShortChannelId)
	writeSignature(w, m.NodeSignature)
	writeSignature(w, m.BitcoinSignature)
	return nil
}

// Decode implements Message.
func (m *AnnounceSignatures) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.ShortChannelId, err = readShortChannelId(r); err != nil {
		return err
	}
	if m.NodeSignature, err = readSignature(r); err != nil {
		return err
	}
	m.BitcoinSignature, err = readSignature(r)
	return err
}

// QueryShortChannelIds asks a peer to resend the channel announcements and
// updates for a list of short_channel_ids, in either plain or
// zlib-compressed encoding. Variant 1 is treated as a genuinely distinct
// zlib-compressed payload rather than being silently aliased to variant 0.
type QueryShortChannelIds struct {
	ChainHash types.Hash256
	Encoding  types.ShortChannelIdEncoding
	Ids       []types.ShortChannelId
	// CompressedIds holds the raw zlib-compressed wire payload once this
	// message has been decoded with Encoding set to ShortChannelIdZlib. It
	// is ignored on Encode: Ids is always (re)compressed from scratch.
	CompressedIds []byte
}

// Type implements Message.
func (m *QueryShortChannelIds) Type() uint16 { return TypeQueryShortChannelIds }

// Encode implements Message.
func (m *QueryShortChannelIds) Encode(w *codec.Writer) error {
	writeHash256(w, m.ChainHash)
	switch m.Encoding {
	case types.ShortChannelIdPlain:
		body := codec.NewWriter(8 * len(m.Ids))
		for _, id := range m.Ids {
			writeShortChannelId(body, id)
		}
		payload := append([]byte{byte(types.ShortChannelIdPlain)}, body.Bytes()...)
		return w.WriteVarBytes(payload)
	case types.ShortChannelIdZlib:
		compressed, err := encodeZlibIds(m.Ids)
		if err != nil {
			return err
		}
		payload := append([]byte{byte(types.ShortChannelIdZlib)}, compressed...)
		return w.WriteVarBytes(payload)
	default:
		return codec.ErrTruncated
	}
}

// Decode implements Message.
func (m *QueryShortChannelIds) Decode(r *codec.Reader) error {
	var err error
	if m.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	blob, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	if len(blob) < 1 {
		return codec.ErrTruncated
	}
	m.Encoding = types.ShortChannelIdEncoding(blob[0])
	switch m.Encoding {
	case types.ShortChannelIdPlain:
		body := codec.NewReader(blob[1:])
		if body.Remaining()%8 != 0 {
			return codec.ErrTruncated
		}
		m.Ids = make([]types.ShortChannelId, 0, body.Remaining()/8)
		for body.Remaining() > 0 {
			id, err := readShortChannelId(body)
			if err != nil {
				return err
			}
			m.Ids = append(m.Ids, id)
		}
		return nil
	case types.ShortChannelIdZlib:
		m.CompressedIds = blob[1:]
		ids, err := decodeZlibIds(m.CompressedIds)
		if err != nil {
			return err
		}
		m.Ids = ids
		return nil
	default:
		return codec.ErrTruncated
	}
}

// ReplyShortChannelIdsEnd marks the end of the stream of gossip messages
// sent in response to a QueryShortChannelIds.
type ReplyShortChannelIdsEnd struct {
	ChainHash types.Hash256
	Complete  bool
}

// Type implements Message.
func (m *ReplyShortChannelIdsEnd) Type() uint16 { return TypeReplyShortChannelIdsEnd }

// Encode implements Message.
func (m *ReplyShortChannelIdsEnd) Encode(w *codec.Writer) error {
	writeHash256(w, m.ChainHash)
	var b uint8
	if m.Complete {
		b = 1
	}
	w.WriteUint8(b)
	return nil
}

// Decode implements Message.
func (m *ReplyShortChannelIdsEnd) Decode(r *codec.Reader) error {
	var err error
	if m.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	b, err := r.ReadUint8()
	if err != nil {
		return err
	}
	m.Complete = b != 0
	return nil
}

// QueryChannelRange asks a peer for the short_channel_ids of every channel
// it knows about whose funding transaction confirmed within a block range.
type QueryChannelRange struct {
	ChainHash   types.Hash256
	FirstHeight uint32
	NumHeights  uint32
}

// Type implements Message.
func (m *QueryChannelRange) Type() uint16 { return TypeQueryChannelRange }

// Encode implements Message.
func (m *QueryChannelRange) Encode(w *codec.Writer) error {
	writeHash256(w, m.ChainHash)
	w.WriteUint32(m.FirstHeight)
	w.WriteUint32(m.NumHeights)
	return nil
}

// Decode implements Message.
func (m *QueryChannelRange) Decode(r *codec.Reader) error {
	var err error
	if m.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	if m.FirstHeight, err = r.ReadUint32(); err != nil {
		return err
	}
	m.NumHeights, err = r.ReadUint32()
	return err
}

// ReplyChannelRange answers a QueryChannelRange with the matching
// short_channel_ids, in possibly multiple messages.
type ReplyChannelRange struct {
	ChainHash   types.Hash256
	FirstHeight uint32
	NumHeights  uint32
	Complete    bool
	Encoding    types.ShortChannelIdEncoding
	Ids         []types.ShortChannelId
	// CompressedIds holds the raw zlib-compressed wire payload once this
	// message has been decoded with Encoding set to ShortChannelIdZlib. It
	// is ignored on Encode: Ids is always (re)compressed from scratch.
	CompressedIds []byte
}

// Type implements Message.
func (m *ReplyChannelRange) Type() uint16 { return TypeReplyChannelRange }

// Encode implements Message.
func (m *ReplyChannelRange) Encode(w *codec.Writer) error {
	writeHash256(w, m.ChainHash)
	w.WriteUint32(m.FirstHeight)
	w.WriteUint32(m.NumHeights)
	var b uint8
	if m.Complete {
		b = 1
	}
	w.WriteUint8(b)

	switch m.Encoding {
	case types.ShortChannelIdPlain:
		body := codec.NewWriter(8 * len(m.Ids))
		for _, id := range m.Ids {
			writeShortChannelId(body, id)
		}
		payload := append([]byte{byte(types.ShortChannelIdPlain)}, body.Bytes()...)
		return w.WriteVarBytes(payload)
	case types.ShortChannelIdZlib:
		compressed, err := encodeZlibIds(m.Ids)
		if err != nil {
			return err
		}
		payload := append([]byte{byte(types.ShortChannelIdZlib)}, compressed...)
		return w.WriteVarBytes(payload)
	default:
		return codec.ErrTruncated
	}
}

// Decode implements Message.
func (m *ReplyChannelRange) Decode(r *codec.Reader) error {
	var err error
	if m.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	if m.FirstHeight, err = r.ReadUint32(); err != nil {
		return err
	}
	if m.NumHeights, err = r.ReadUint32(); err != nil {
		return err
	}
	b, err := r.ReadUint8()
	if err != nil {
		return err
	}
	m.Complete = b != 0

	blob, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	if len(blob) < 1 {
		return codec.ErrTruncated
	}
	m.Encoding = types.ShortChannelIdEncoding(blob[0])
	switch m.Encoding {
	case types.ShortChannelIdPlain:
		body := codec.NewReader(blob[1:])
		if body.Remaining()%8 != 0 {
			return codec.ErrTruncated
		}
		m.Ids = make([]types.ShortChannelId, 0, body.Remaining()/8)
		for body.Remaining() > 0 {
			id, err := readShortChannelId(body)
			if err != nil {
				return err
			}
			m.Ids = append(m.Ids, id)
		}
		return nil
	case types.ShortChannelIdZlib:
		m.CompressedIds = blob[1:]
		ids, err := decodeZlibIds(m.CompressedIds)
		if err != nil {
			return err
		}
		m.Ids = ids
		return nil
	default:
		return codec.ErrTruncated
	}
}

// GossipTimestampRange bounds the gossip a peer is willing to forward to a
// timestamp window, per the channel range query extension.
type GossipTimestampRange struct {
	ChainHash      types.Hash256
	FirstTimestamp uint32
	TimestampRange uint32
}

// Type implements Message.
func (m *GossipTimestampRange) Type() uint16 { return TypeGossipTimestampRange }

// Range returns the half-open [first, first+range) timestamp window this
// message declares, matching the textual BOLT-07 wording rather than the
// stricter-looking "less than or equal" some implementations use.
func (m *GossipTimestampRange) Range() (start, end uint32) {
	return m.FirstTimestamp, m.FirstTimestamp + m.TimestampRange
}

// Encode implements Message.
func (m *GossipTimestampRange) Encode(w *codec.Writer) error {
	writeHash256(w, m.ChainHash)
	w.WriteUint32(m.FirstTimestamp)
	w.WriteUint32(m.TimestampRange)
	return nil
}

// Decode implements Message.
func (m *GossipTimestampRange) Decode(r *codec.Reader) error {
	var err error
	if m.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	if m.FirstTimestamp, err = r.ReadUint32(); err != nil {
		return err
	}
	m.TimestampRange, err = r.ReadUint32()
	return err
}
