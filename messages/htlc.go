// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// UpdateAddHtlc offers a new HTLC on the channel, carrying the forwarding
// onion for the next hop.
type UpdateAddHtlc struct {
	ChannelId types.ChannelId
	Id        uint64
	Amount    types.MilliSatoshi
	Payment   types.Hash256
	Expiry    uint32
	OnionBlob OnionBlob
}

// Type implements Message.
func (m *UpdateAddHtlc) Type() uint16 { return TypeUpdateAddHtlc }

// Encode implements Message.
func (m *UpdateAddHtlc) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	w.WriteUint64(m.Id)
	w.WriteUint64(uint64(m.Amount))
	writeHash256(w, m.Payment)
	w.WriteUint32(m.Expiry)
	w.WriteFixed(m.OnionBlob[:])
	return nil
}

// Decode implements Message.
func (m *UpdateAddHtlc) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.Id, err = r.ReadUint64(); err != nil {
		return err
	}
	amount, err := r.ReadUint64()
	if err != nil {
		return err
	}
	m.Amount = types.MilliSatoshi(amount)
	if m.Payment, err = readHash256(r); err != nil {
		return err
	}
	if m.Expiry, err = r.ReadUint32(); err != nil {
		return err
	}
	blob, err := r.ReadFixed(OnionBlobSize)
	if err != nil {
		return err
	}
	copy(m.OnionBlob[:], blob)
	return nil
}

// UpdateFulfillHtlc releases the preimage that settles a previously
// offered HTLC.
type UpdateFulfillHtlc struct {
	ChannelId       types.ChannelId
	Id              uint64
	PaymentPreimage types.Hash256
}

// Type implements Message.
func (m *UpdateFulfillHtlc) Type() uint16 { return TypeUpdateFulfillHtlc }

// Encode implements Message.
func (m *UpdateFulfillHtlc) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	w.WriteUint64(m.Id)
	writeHash256(w, m.PaymentPreimage)
	return nil
}

// Decode implements Message.
func (m *UpdateFulfillHtlc) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.Id, err = r.ReadUint64(); err != nil {
		return err
	}
	m.PaymentPreimage, err = readHash256(r)
	return err
}

// UpdateFailHtlc fails a previously offered HTLC, carrying an
// onion-encrypted failure reason opaque to every hop but the origin.
type UpdateFailHtlc struct {
	ChannelId types.ChannelId
	Id        uint64
	Reason    []byte
}

// Type implements Message.
func (m *UpdateFailHtlc) Type() uint16 { return TypeUpdateFailHtlc }

// Encode implements Message.
func (m *UpdateFailHtlc) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	w.WriteUint64(m.Id)
	return w.WriteVarBytes(m.Reason)
}

// Decode implements Message.
func (m *UpdateFailHtlc) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.Id, err = r.ReadUint64(); err != nil {
		return err
	}
	m.Reason, err = r.ReadVarBytes()
	return err
}

// UpdateFailMalformedHtlc fails an HTLC whose onion could not even be
// parsed, reporting the hash of the undecryptable onion and a BOLT-04
// failure code in place of an encrypted reason.
type UpdateFailMalformedHtlc struct {
	ChannelId     types.ChannelId
	Id            uint64
	SHA256OfOnion types.Hash256
	FailureCode   uint16
}

// Type implements Message.
func (m *UpdateFailMalformedHtlc) Type() uint16 { return TypeUpdateFailMalformedHtlc }

// Encode implements Message.
func (m *UpdateFailMalformedHtlc) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	w.WriteUint64(m.Id)
	writeHash256(w, m.SHA256OfOnion)
	w.WriteUint16(m.FailureCode)
	return nil
}

// Decode implements Message.
func (m *UpdateFailMalformedHtlc) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.Id, err = r.ReadUint64(); err != nil {
		return err
	}
	if m.SHA256OfOnion, err = readHash256(r); err != nil {
		return err
	}
	m.FailureCode, err = r.ReadUint16()
	return err
}

// CommitmentSigned delivers the sender's signature on the receiver's new
// commitment transaction, plus one signature per HTLC output in
// commitment-transaction order.
type CommitmentSigned struct {
	ChannelId      types.ChannelId
	Signature      types.Signature
	HtlcSignatures []types.Signature
}

// Type implements Message.
func (m *CommitmentSigned) Type() uint16 { return TypeCommitmentSigned }

// Encode implements Message.
func (m *CommitmentSigned) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	writeSignature(w, m.Signature)
	if len(m.HtlcSignatures) > codec.MaxLength {
		return codec.ErrTooLong
	}
	w.WriteUint16(uint16(len(m.HtlcSignatures)))
	for _, s := range m.HtlcSignatures {
		writeSignature(w, s)
	}
	return nil
}

// Decode implements Message.
func (m *CommitmentSigned) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.Signature, err = readSignature(r); err != nil {
		return err
	}
	n, err := r.ReadUint16()
	if err != nil {
		return err
	}
	m.HtlcSignatures = make([]types.Signature, n)
	for i := range m.HtlcSignatures {
		if m.HtlcSignatures[i], err = readSignature(r); err != nil {
			return err
		}
	}
	return nil
}

// RevokeAndAck releases the revocation preimage for the sender's previous
// commitment transaction, and advances the sender's per-commitment chain.
type RevokeAndAck struct {
	ChannelId              types.ChannelId
	RevocationPreimage     types.Hash256
	NextPerCommitmentPoint types.PublicKey
}

// Type implements Message.
func (m *RevokeAndAck) Type() uint16 { return TypeRevokeAndAck }

// Encode implements Message.
func (m *RevokeAndAck) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	writeHash256(w, m.RevocationPreimage)
	writePublicKey(w, m.NextPerCommitmentPoint)
	return nil
}

// Decode implements Message.
func (m *RevokeAndAck) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.RevocationPreimage, err = readHash256(r); err != nil {
		return err
	}
	m.NextPerCommitmentPoint, err = readPublicKey(r)
	return err
}

// UpdateFee updates the fee rate applied to future commitment transactions
// for the channel.
type UpdateFee struct {
	ChannelId types.ChannelId
	Fee       SatoshiPerKiloWeight
}

// Type implements Message.
func (m *UpdateFee) Type() uint16 { return TypeUpdateFee }

// Encode implements Message.
func (m *UpdateFee) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	w.WriteUint32(uint32(m.Fee))
	return nil
}

// Decode implements Message.
func (m *UpdateFee) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	fee, err := r.ReadUint32()
	if err != nil {
		return err
	}
	m.Fee = SatoshiPerKiloWeight(fee)
	return nil
}

// ChannelReestablish resynchronizes channel state after a reconnection,
// letting each side detect and recover from missed revocations.
type ChannelReestablish struct {
	ChannelId                  types.ChannelId
	NextLocalCommitmentNumber  uint64
	NextRemoteRevocationNumber uint64
	LastRemoteCommitSecret     types.Hash256
	LocalUnrevokedCommitPoint  types.PublicKey
}

// Type implements Message.
func (m *ChannelReestablish) Type() uint16 { return TypeChannelReestablish }

// Encode implements Message.
func (m *ChannelReestablish) Encode(w *codec.Writer) error {
	writeChannelId(w, m.ChannelId)
	w.WriteUint64(m.NextLocalCommitmentNumber)
	w.WriteUint64(m.NextRemoteRevocationNumber)
	writeHash256(w, m.LastRemoteCommitSecret)
	writePublicKey(w, m.LocalUnrevokedCommitPoint)
	return nil
}

// Decode implements Message.
func (m *ChannelReestablish) Decode(r *codec.Reader) error {
	var err error
	if m.ChannelId, err = readChannelId(r); err != nil {
		return err
	}
	if m.NextLocalCommitmentNumber, err = r.ReadUint64(); err != nil {
		return err
	}
	if m.NextRemoteRevocationNumber, err = r.ReadUint64(); err != nil {
		return err
	}
	if m.LastRemoteCommitSecret, err = readHash256(r); err != nil {
		return err
	}
	m.LocalUnrevokedCommitPoint, err = readPublicKey(r)
	return err
}
