// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"errors"

	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// Init is the first message either peer sends, declaring the feature bits
// it supports or requires, even on a reconnection.
type Init struct {
	GlobalFeatures FeatureVector
	LocalFeatures  FeatureVector
	ExtraData      []byte
}

// Type implements Message.
func (m *Init) Type() uint16 { return TypeInit }

// Encode implements Message.
func (m *Init) Encode(w *codec.Writer) error {
	if err := m.GlobalFeatures.Encode(w); err != nil {
		return err
	}
	if err := m.LocalFeatures.Encode(w); err != nil {
		return err
	}
	w.WriteFixed(m.ExtraData)
	return nil
}

// Decode implements Message.
func (m *Init) Decode(r *codec.Reader) error {
	if err := m.GlobalFeatures.Decode(r); err != nil {
		return err
	}
	if err := m.LocalFeatures.Decode(r); err != nil {
		return err
	}
	m.ExtraData = r.ReadAll()
	return nil
}

// Error notifies the peer that something went wrong, either for a specific
// channel_id or, if channel_id is all-zero, for every channel on the
// connection.
type Error struct {
	ChannelId types.ChannelId
	Data      []byte
}

// Type implements Message.
func (m *Error) Type() uint16 { return TypeError }

// Encode implements Message.
func (m *Error) Encode(w *codec.Writer) error {
	w.WriteFixed(m.ChannelId[:])
	return w.WriteVarBytes(m.Data)
}

// Decode implements Message.
func (m *Error) Decode(r *codec.Reader) error {
	b, err := r.ReadFixed(32)
	if err != nil {
		return err
	}
	copy(m.ChannelId[:], b)
	m.Data, err = r.ReadVarBytes()
	return err
}

// Wire overhead accounted for when bounding a Ping against its implied Pong.
const (
	pongEmbellishment = 5               // type tag + data length prefix + 1
	pingEmbellishment = 2 + 2 + 2       // type tag + pong_length + data length prefix
	maxFrameSize      = codec.MaxLength // u16 record length
)

// ErrPingOverflow is returned by Validate when a Ping's requested Pong size
// (or the Ping itself) would not fit the 65535-byte frame limit.
var ErrPingOverflow = errors.New("messages: ping implies an oversized pong")

// Ping is sent periodically to keep a connection alive and, via its random
// padding, to obscure traffic patterns.
type Ping struct {
	PongLength uint16
	Data       []byte
}

// Type implements Message.
func (m *Ping) Type() uint16 { return TypePing }

// Validate reports ErrPingOverflow if the implied Pong (or this Ping itself,
// including overhead) would exceed the 65535-byte frame size. A receiver
// must ignore a Ping that fails this check rather than reply with an
// oversized Pong.
func (m *Ping) Validate() error {
	pongSize := int(m.PongLength) + pongEmbellishment
	pingSize := len(m.Data) + pingEmbellishment
	if pongSize > maxFrameSize || pingSize > maxFrameSize {
		return ErrPingOverflow
	}
	return nil
}

// Encode implements Message.
func (m *Ping) Encode(w *codec.Writer) error {
	w.WriteUint16(m.PongLength)
	return w.WriteVarBytes(m.Data)
}

// Decode implements Message.
func (m *Ping) Decode(r *codec.Reader) error {
	v, err := r.ReadUint16()
	if err != nil {
		return err
	}
	m.PongLength = v
	m.Data, err = r.ReadVarBytes()
	return err
}

// Pong answers a Ping, echoing back PongLength bytes of padding.
type Pong struct {
	Data []byte
}

// Type implements Message.
func (m *Pong) Type() uint16 { return TypePong }

// Encode implements Message.
func (m *Pong) Encode(w *codec.Writer) error {
	return w.WriteVarBytes(m.Data)
}

// Decode implements Message.
func (m *Pong) Decode(r *codec.Reader) error {
	var err error
	m.Data, err = r.ReadVarBytes()
	return err
}
