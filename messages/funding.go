// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// FundingCreated is the funder's disclosure of the funding outpoint, plus
// its signature on the responder's first commitment transaction.
type FundingCreated struct {
	TemporaryChannelId types.ChannelId
	FundingTxid        types.Hash256
	OutputIndex        OutputIndex
	Signature          types.Signature
}

// Type implements Message.
func (m *FundingCreated) Type() uint16 { return TypeFundingCreated }

// Encode implements Message.
func (m *FundingCreated) Encode(w *codec.Writer) error {
	writeChannelId(w, m.TemporaryChannelId)
	writeHash256(w, m.FundingTxid)
	w.WriteUint16(uint16(m.OutputIndex))
	writeSignature(w, m.Signature)
	return nil
}

// Decode implements Message.
func (m *FundingCreated) Decode(r *codec.Reader) error {
	var err error
	if m.TemporaryChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.FundingTxid, err = readHash256(r); err != nil {
		return err
	}
	idx, err := r.ReadUint16()
	if err != nil {
		return err
	}
	m.OutputIndex = OutputIndex(idx)
	m.Signature, err = readSignature(r)
	return err
}

// FundingSigned is the responder's countersignature on the funder's first
// commitment transaction, completing the funding negotiation.
type FundingSigned struct {
	ChannelId types.ChannelId
	Signature types.Signature
}

// Type implements Message.
func (m *FundingSigned) Type() uint16 { return TypeFundingSigned }

// Encode implements Message.
func (m *FundingSigned) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	writeSignature(w, m.Signature)
	return nil
}

// Decode implements Message.
func (m *FundingSigned) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	m.Signature, err = readSignature(r)
	return err
}

// FundingLocked announces that the funding transaction has reached the
// required confirmation depth and reveals the next per-commitment point.
type FundingLocked struct {
	ChannelId              types.ChannelId
	NextPerCommitmentPoint types.PublicKey
}

// Type implements Message.
func (m *FundingLocked) Type() uint16 { return TypeFundingLocked }

// Encode implements Message.
func (m *FundingLocked) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	writePublicKey(w, m.NextPerCommitmentPoint)
	return nil
}

// Decode implements Message.
func (m *FundingLocked) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	m.NextPerCommitmentPoint, err = readPublicKey(r)
	return err
}
