// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

// Package messages implements a closed wire message union: a 16-bit type
// tag dispatching to a typed payload, decoded and re-encoded through the
// codec package. Unknown type tags are preserved losslessly as Unknown. Init
// keeps any bytes left over past its declared fields as ExtraData; the other
// known messages discard bytes past their declared fields, so re-encoding
// them does not reproduce those bytes.
package messages

import (
	"errors"

	"github.com/lightningpeach/brontide/codec"
)

// Type codes for the wire message union.
const (
	TypeInit                    uint16 = 16
	TypeError                   uint16 = 17
	TypePing                    uint16 = 18
	TypePong                    uint16 = 19
	TypeOpenChannel             uint16 = 32
	TypeAcceptChannel           uint16 = 33
	TypeFundingCreated          uint16 = 34
	TypeFundingSigned           uint16 = 35
	TypeFundingLocked           uint16 = 36
	TypeShutdownChannel         uint16 = 38
	TypeClosingSigned           uint16 = 39
	TypeUpdateAddHtlc           uint16 = 128
	TypeUpdateFulfillHtlc       uint16 = 130
	TypeUpdateFailHtlc          uint16 = 131
	TypeCommitmentSigned        uint16 = 132
	TypeRevokeAndAck            uint16 = 133
	TypeUpdateFee               uint16 = 134
	TypeUpdateFailMalformedHtlc uint16 = 135
	TypeChannelReestablish      uint16 = 136
	TypeAnnouncementChannel     uint16 = 256
	TypeAnnouncementNode        uint16 = 257
	TypeUpdateChannel           uint16 = 258
	TypeAnnounceSignatures      uint16 = 259
	TypeQueryShortChannelIds    uint16 = 261
	TypeReplyShortChannelIdsEnd uint16 = 262
	TypeQueryChannelRange       uint16 = 263
	TypeReplyChannelRange       uint16 = 264
	TypeGossipTimestampRange    uint16 = 265
)

// ErrMalformed is returned when the codec fails to decode a recognized
// message's payload — a terminal, connection-desynchronizing error.
var ErrMalformed = errors.New("messages: malformed message payload")

// Message is implemented by every payload in the closed wire message union.
// Type reports the 16-bit tag this value is dispatched under; Encode/Decode
// handle the payload only — the type tag itself is handled by EncodeMessage
// and DecodeMessage.
type Message interface {
	codec.Codec
	Type() uint16
}

// factories maps a known type code to a constructor for its zero-value
// payload, used by DecodeMessage to pick a concrete type to decode into.
var factories = map[uint16]func() Message{
	TypeInit:                   func() Message { return &Init{} },
	TypeError:                  func() Message { return &Error{} },
	TypePing:                   func() Message { return &Ping{} },
	TypePong:                   func() Message { return &Pong{} },
	TypeOpenChannel:            func() Message { return &OpenChannel{} },
	TypeAcceptChannel:          func() Message { return &AcceptChannel{} },
	TypeFundingCreated:         func() Message { return &FundingCreated{} },
	TypeFundingSigned:          func() Message { return &FundingSigned{} },
	TypeFundingLocked:          func() Message { return &FundingLocked{} },
	TypeShutdownChannel:        func() Message { return &ShutdownChannel{} },
	TypeClosingSigned:          func() Message { return &ClosingSigned{} },
	TypeUpdateAddHtlc:          func() Message { return &UpdateAddHtlc{} },
	TypeUpdateFulfillHtlc:      func() Message { return &UpdateFulfillHtlc{} },
	TypeUpdateFailHtlc:         func() Message { return &UpdateFailHtlc{} },
	TypeCommitmentSigned:       func() Message { return &CommitmentSigned{} },
	TypeRevokeAndAck:           func() Message { return &RevokeAndAck{} },
	TypeUpdateFee:              func() Message { return &UpdateFee{} },
	TypeUpdateFailMalformedHtlc: func() Message { return &UpdateFailMalformedHtlc{} },
	TypeChannelReestablish:     func() Message { return &ChannelReestablish{} },
	TypeAnnouncementChannel:    func() Message { return &AnnouncementChannel{} },
	TypeAnnouncementNode:       func() Message { return &AnnouncementNode{} },
	TypeUpdateChannel:          func() Message { return &UpdateChannel{} },
	TypeAnnounceSignatures:     func() Message { return &AnnounceSignatures{} },
	TypeQueryShortChannelIds:    func() Message { return &QueryShortChannelIds{} },
	TypeReplyShortChannelIdsEnd: func() Message { return &ReplyShortChannelIdsEnd{} },
	TypeQueryChannelRange:       func() Message { return &QueryChannelRange{} },
	TypeReplyChannelRange:       func() Message { return &ReplyChannelRange{} },
	TypeGossipTimestampRange:    func() Message { return &GossipTimestampRange{} },
}

// EncodeMessage serializes m as type_code || payload.
func EncodeMessage(m Message) ([]byte, error) {
	w := codec.NewWriter(128)
	w.WriteTag(m.Type())
	if err := m.Encode(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeMessage reads the leading type tag from b and routes to the
// matching Message implementation. A type tag not present in factories
// decodes to an Unknown, preserving every payload byte verbatim so the
// frame can be re-emitted losslessly.
func DecodeMessage(b []byte) (Message, error) {
	r := codec.NewReader(b)
	tag, err := r.ReadTag()
	if err != nil {
		return nil, err
	}

	factory, ok := factories[tag]
	if !ok {
		return &Unknown{TypeCode: tag, Payload: r.ReadAll()}, nil
	}

	m := factory()
	if err := m.Decode(r); err != nil {
		return nil, ErrMalformed
	}
	return m, nil
}
