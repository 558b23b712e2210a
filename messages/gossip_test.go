// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"bytes"
	"testing"

	"github.com/lightningpeach/brontide/types"
)

func TestQueryShortChannelIdsPlainRoundTrip(t *testing.T) {
	m := &QueryShortChannelIds{
		ChainHash: types.Hash256{0x01},
		Encoding:  types.ShortChannelIdPlain,
		Ids: []types.ShortChannelId{
			{BlockHeight: 123456, TxIndex: 1, OutputIndex: 0},
			{BlockHeight: 123457, TxIndex: 2, OutputIndex: 1},
		},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*QueryShortChannelIds)
	if got.ChainHash != m.ChainHash {
		t.Errorf("ChainHash mismatch")
	}
	if got.Encoding != types.ShortChannelIdPlain {
		t.Errorf("Encoding = %v, want Plain", got.Encoding)
	}
	if len(got.Ids) != len(m.Ids) {
		t.Fatalf("len(Ids) = %d, want %d", len(got.Ids), len(m.Ids))
	}
	for i := range m.Ids {
		if got.Ids[i] != m.Ids[i] {
			t.Errorf("Ids[%d] = %+v, want %+v", i, got.Ids[i], m.Ids[i])
		}
	}
}

func TestQueryShortChannelIdsZlibRoundTrip(t *testing.T) {
	m := &QueryShortChannelIds{
		ChainHash: types.Hash256{0x02},
		Encoding:  types.ShortChannelIdZlib,
		Ids: []types.ShortChannelId{
			{BlockHeight: 500000, TxIndex: 10, OutputIndex: 0},
			{BlockHeight: 500000, TxIndex: 11, OutputIndex: 1},
			{BlockHeight: 500001, TxIndex: 1, OutputIndex: 0},
		},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*QueryShortChannelIds)
	if got.Encoding != types.ShortChannelIdZlib {
		t.Errorf("Encoding = %v, want Zlib", got.Encoding)
	}
	if len(got.CompressedIds) == 0 {
		t.Errorf("CompressedIds is empty, want a zlib stream")
	}
	if bytes.Equal(got.CompressedIds, encodeMustPlain(t, m.Ids)) {
		t.Errorf("CompressedIds looks like an uncompressed passthrough, not a zlib stream")
	}
	if len(got.Ids) != len(m.Ids) {
		t.Fatalf("len(Ids) = %d, want %d", len(got.Ids), len(m.Ids))
	}
	for i := range m.Ids {
		if got.Ids[i] != m.Ids[i] {
			t.Errorf("Ids[%d] = %+v, want %+v", i, got.Ids[i], m.Ids[i])
		}
	}
}

// encodeMustPlain serializes ids as the same 8-byte-per-record body the
// plain encoding uses, for comparison against a zlib-compressed payload.
func encodeMustPlain(t *testing.T, ids []types.ShortChannelId) []byte {
	t.Helper()
	body := make([]byte, 0, 8*len(ids))
	for _, id := range ids {
		var b [8]byte
		b[0] = byte(id.BlockHeight >> 16)
		b[1] = byte(id.BlockHeight >> 8)
		b[2] = byte(id.BlockHeight)
		b[3] = byte(id.TxIndex >> 16)
		b[4] = byte(id.TxIndex >> 8)
		b[5] = byte(id.TxIndex)
		b[6] = byte(id.OutputIndex >> 8)
		b[7] = byte(id.OutputIndex)
		body = append(body, b[:]...)
	}
	return body
}

func TestReplyShortChannelIdsEndRoundTrip(t *testing.T) {
	m := &ReplyShortChannelIdsEnd{
		ChainHash: types.Hash256{0x03},
		Complete:  true,
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*ReplyShortChannelIdsEnd)
	if got.ChainHash != m.ChainHash || got.Complete != m.Complete {
		t.Errorf("fields mismatch: %+v", got)
	}
}

func TestQueryChannelRangeRoundTrip(t *testing.T) {
	m := &QueryChannelRange{
		ChainHash:   types.Hash256{0x04},
		FirstHeight: 500_000,
		NumHeights:  1_000,
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*QueryChannelRange)
	if got.ChainHash != m.ChainHash || got.FirstHeight != m.FirstHeight || got.NumHeights != m.NumHeights {
		t.Errorf("fields mismatch: %+v", got)
	}
}

func TestReplyChannelRangePlainRoundTrip(t *testing.T) {
	m := &ReplyChannelRange{
		ChainHash:   types.Hash256{0x05},
		FirstHeight: 500_000,
		NumHeights:  1_000,
		Complete:    true,
		Encoding:    types.ShortChannelIdPlain,
		Ids: []types.ShortChannelId{
			{BlockHeight: 500_100, TxIndex: 3, OutputIndex: 0},
		},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*ReplyChannelRange)
	if got.Complete != m.Complete || got.Encoding != m.Encoding {
		t.Errorf("flags mismatch: %+v", got)
	}
	if len(got.Ids) != 1 || got.Ids[0] != m.Ids[0] {
		t.Errorf("Ids mismatch: %+v", got.Ids)
	}
}

func TestReplyChannelRangeZlibRoundTrip(t *testing.T) {
	m := &ReplyChannelRange{
		ChainHash:   types.Hash256{0x06},
		FirstHeight: 400000,
		NumHeights:  200,
		Complete:    true,
		Encoding:    types.ShortChannelIdZlib,
		Ids: []types.ShortChannelId{
			{BlockHeight: 400010, TxIndex: 3, OutputIndex: 0},
			{BlockHeight: 400020, TxIndex: 4, OutputIndex: 1},
		},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*ReplyChannelRange)
	if got.Encoding != types.ShortChannelIdZlib {
		t.Errorf("Encoding = %v, want Zlib", got.Encoding)
	}
	if len(got.CompressedIds) == 0 {
		t.Errorf("CompressedIds is empty, want a zlib stream")
	}
	if bytes.Equal(got.CompressedIds, encodeMustPlain(t, m.Ids)) {
		t.Errorf("CompressedIds looks like an uncompressed passthrough, not a zlib stream")
	}
	if len(got.Ids) != len(m.Ids) {
		t.Fatalf("len(Ids) = %d, want %d", len(got.Ids), len(m.Ids))
	}
	for i := range m.Ids {
		if got.Ids[i] != m.Ids[i] {
			t.Errorf("Ids[%d] = %+v, want %+v", i, got.Ids[i], m.Ids[i])
		}
	}
}

func TestGossipTimestampRangeRoundTrip(t *testing.T) {
	m := &GossipTimestampRange{
		ChainHash:      types.Hash256{0x07},
		FirstTimestamp: 1_700_000_000,
		TimestampRange: 3600,
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*GossipTimestampRange)
	if got.ChainHash != m.ChainHash || got.FirstTimestamp != m.FirstTimestamp || got.TimestampRange != m.TimestampRange {
		t.Errorf("fields mismatch: %+v", got)
	}
	start, end := got.Range()
	if start != m.FirstTimestamp || end != m.FirstTimestamp+m.TimestampRange {
		t.Errorf("Range() = (%d, %d), want (%d, %d)", start, end, m.FirstTimestamp, m.FirstTimestamp+m.TimestampRange)
	}
}

func TestAnnounceSignaturesRoundTrip(t *testing.T) {
	m := &AnnounceSignatures{
		ChannelId:        types.ChannelId{0x08},
		ShortChannelId:   types.ShortChannelId{BlockHeight: 600_000, TxIndex: 4, OutputIndex: 1},
		NodeSignature:    types.Signature{0x09},
		BitcoinSignature: types.Signature{0x0a},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*AnnounceSignatures)
	if got.ChannelId != m.ChannelId || got.ShortChannelId != m.ShortChannelId {
		t.Errorf("identifiers mismatch: %+v", got)
	}
	if got.NodeSignature != m.NodeSignature || got.BitcoinSignature != m.BitcoinSignature {
		t.Errorf("signatures mismatch: %+v", got)
	}
}

func TestAnnouncementChannelVerify(t *testing.T) {
	nodeSK0, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	nodeSK1, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	bitcoinSK0, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	bitcoinSK1, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}

	m := &AnnouncementChannel{
		Data: announcementChannelData{
			Features:       NewFeatureVector(),
			ChainHash:      types.Hash256{0x0b},
			ShortChannelId: types.ShortChannelId{BlockHeight: 700_000, TxIndex: 1, OutputIndex: 0},
			NodeId:         [2]types.PublicKey{nodeSK0.PublicKey(), nodeSK1.PublicKey()},
			BitcoinKey:     [2]types.PublicKey{bitcoinSK0.PublicKey(), bitcoinSK1.PublicKey()},
		},
	}

	hash, err := CanonicalHash(&m.Data)
	if err != nil {
		t.Fatalf("CanonicalHash: %v", err)
	}
	if m.NodeSignature[0], err = nodeSK0.Sign(hash); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if m.NodeSignature[1], err = nodeSK1.Sign(hash); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if m.BitcoinSignature[0], err = bitcoinSK0.Sign(hash); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if m.BitcoinSignature[1], err = bitcoinSK1.Sign(hash); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if err := m.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}

	m.NodeSignature[0], err = nodeSK1.Sign(hash)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := m.Verify(); err == nil {
		t.Errorf("Verify with swapped signature: want error, got nil")
	}
}

func TestUpdateChannelVerify(t *testing.T) {
	sk, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}

	m := &UpdateChannel{
		Data: updateChannelData{
			ChainHash:      types.Hash256{0x0c},
			ShortChannelId: types.ShortChannelId{BlockHeight: 700_001, TxIndex: 2, OutputIndex: 0},
			Timestamp:      1_700_000_000,
			Flags:          ChannelUpdateDirection,
			TimeLockDelta:  144,
			HtlcMinimum:    types.MilliSatoshi(1000),
			BaseFee:        1000,
			FeeRate:        100,
		},
	}

	hash, err := CanonicalHash(&m.Data)
	if err != nil {
		t.Fatalf("CanonicalHash: %v", err)
	}
	sig, err := sk.Sign(hash)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	m.Signature = sig

	if err := m.Verify(sk.PublicKey()); err != nil {
		t.Errorf("Verify: %v", err)
	}

	other, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	if err := m.Verify(other.PublicKey()); err == nil {
		t.Errorf("Verify with wrong key: want error, got nil")
	}
}
