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

func TestShutdownChannelRoundTrip(t *testing.T) {
	m := &ShutdownChannel{
		ChannelId: types.ChannelId{0x01, 0x02, 0x03},
		Script:    []byte{0x00, 0x14, 0xde, 0xad, 0xbe, 0xef},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*ShutdownChannel)
	if got.ChannelId != m.ChannelId {
		t.Errorf("ChannelId = %x, want %x", got.ChannelId, m.ChannelId)
	}
	if !bytes.Equal(got.Script, m.Script) {
		t.Errorf("Script = %x, want %x", got.Script, m.Script)
	}
}

func TestClosingSignedRoundTrip(t *testing.T) {
	m := &ClosingSigned{
		ChannelId: types.ChannelId{0xaa, 0xbb},
		Fee:       types.Satoshi(1500),
		Signature: RawSignature{DER: []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := decoded.(*ClosingSigned)
	if got.ChannelId != m.ChannelId {
		t.Errorf("ChannelId = %x, want %x", got.ChannelId, m.ChannelId)
	}
	if got.Fee != m.Fee {
		t.Errorf("Fee = %d, want %d", got.Fee, m.Fee)
	}
	if !bytes.Equal(got.Signature.DER, m.Signature.DER) {
		t.Errorf("Signature.DER = %x, want %x", got.Signature.DER, m.Signature.DER)
	}
}
