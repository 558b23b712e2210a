// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// ShutdownChannel begins cooperative close, carrying the scriptpubkey the
// sender wants its settlement paid to.
type ShutdownChannel struct {
	ChannelId types.ChannelId
	Script    []byte
}

// Type implements Message.
func (m *ShutdownChannel) Type() uint16 { return TypeShutdownChannel }

// Encode implements Message.
func (m *ShutdownChannel) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	return w.WriteVarBytes(m.Script)
}

// Decode implements Message.
func (m *ShutdownChannel) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	m.Script, err = r.ReadVarBytes()
	return err
}

// ClosingSigned proposes a closing fee and carries the sender's signature
// over the resulting closing transaction. Unlike every other signature on
// the wire, this one is transmitted in raw DER form, length-prefixed.
type ClosingSigned struct {
	ChannelId types.ChannelId
	Fee       types.Satoshi
	Signature RawSignature
}

// Type implements Message.
func (m *ClosingSigned) Type() uint16 { return TypeClosingSigned }

// Encode implements Message.
func (m *ClosingSigned) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	w.WriteUint64(uint64(m.Fee))
	return m.Signature.encode(w)
}

// Decode implements Message.
func (m *ClosingSigned) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	fee, err := r.ReadUint64()
	if err != nil {
		return err
	}
	m.Fee = types.Satoshi(fee)
	return m.Signature.decode(r)
}
