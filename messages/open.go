// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// OpenChannel proposes a new channel, declaring funding amount, reserve and
// fee parameters, and the keys the responder needs to build its half of the
// initial commitment transaction.
type OpenChannel struct {
	ChainHash          types.Hash256
	TemporaryChannelId types.ChannelId
	Funding            types.Satoshi
	Push               types.MilliSatoshi
	DustLimit          types.Satoshi
	MaxInFlight        types.MilliSatoshi
	ChannelReserve     types.Satoshi
	HtlcMinimum        types.MilliSatoshi
	Fee                SatoshiPerKiloWeight
	CsvDelay           CsvDelay
	MaxAcceptedHtlcs   uint16
	Keys               ChannelKeys
	Flags              ChannelFlags
}

// Type implements Message.
func (m *OpenChannel) Type() uint16 { return TypeOpenChannel }

// Encode implements Message.
func (m *OpenChannel) Encode(w *codec.Writer) error {
	writeHash256(w, m.ChainHash)
	writeChannelId(w, m.TemporaryChannelId)
	w.WriteUint64(uint64(m.Funding))
	w.WriteUint64(uint64(m.Push))
	w.WriteUint64(uint64(m.DustLimit))
	w.WriteUint64(uint64(m.MaxInFlight))
	w.WriteUint64(uint64(m.ChannelReserve))
	w.WriteUint64(uint64(m.HtlcMinimum))
	w.WriteUint32(uint32(m.Fee))
	w.WriteUint16(uint16(m.CsvDelay))
	w.WriteUint16(m.MaxAcceptedHtlcs)
	if err := m.Keys.encode(w); err != nil {
		return err
	}
	w.WriteUint8(uint8(m.Flags))
	return nil
}

// Decode implements Message.
func (m *OpenChannel) Decode(r *codec.Reader) error {
	var err error
	if m.ChainHash, err = readHash256(r); err != nil {
		return err
	}
	if m.TemporaryChannelId, err = readChannelId(r); err != nil {
		return err
	}
	v, err := r.ReadUint64()
	if err != nil {
		return err
	}
	m.Funding = types.Satoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.Push = types.MilliSatoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.DustLimit = types.Satoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.MaxInFlight = types.MilliSatoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.ChannelReserve = types.Satoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.HtlcMinimum = types.MilliSatoshi(v)
	fee, err := r.ReadUint32()
	if err != nil {
		return err
	}
	m.Fee = SatoshiPerKiloWeight(fee)
	csv, err := r.ReadUint16()
	if err != nil {
		return err
	}
	m.CsvDelay = CsvDelay(csv)
	if m.MaxAcceptedHtlcs, err = r.ReadUint16(); err != nil {
		return err
	}
	if err := m.Keys.decode(r); err != nil {
		return err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return err
	}
	m.Flags = ChannelFlags(flags)
	return nil
}

// AcceptChannel is the responder's reply to OpenChannel, echoing back the
// negotiated parameters it accepts along with its own channel keys.
type AcceptChannel struct {
	TemporaryChannelId   types.ChannelId
	DustLimit            types.Satoshi
	MaxHtlcValueInFlight types.MilliSatoshi
	ChannelReserve       types.Satoshi
	HtlcMinimum          types.MilliSatoshi
	MinimumAcceptDepth   uint32
	CsvDelay             CsvDelay
	MaxAcceptedHtlcs     uint16
	Keys                 ChannelKeys
}

// Type implements Message.
func (m *AcceptChannel) Type() uint16 { return TypeAcceptChannel }

// Encode implements Message.
func (m *AcceptChannel) Encode(w *codec.Writer) error {
	writeChannelId(w, m.TemporaryChannelId)
	w.WriteUint64(uint64(m.DustLimit))
	w.WriteUint64(uint64(m.MaxHtlcValueInFlight))
	w.WriteUint64(uint64(m.ChannelReserve))
	w.WriteUint64(uint64(m.HtlcMinimum))
	w.WriteUint32(m.MinimumAcceptDepth)
	w.WriteUint16(uint16(m.CsvDelay))
	w.WriteUint16(m.MaxAcceptedHtlcs)
	return m.Keys.encode(w)
}

// Decode implements Message.
func (m *AcceptChannel) Decode(r *codec.Reader) error {
	var err error
	if m.TemporaryChannelId, err = readChannelId(r); err != nil {
		return err
	}
	v, err := r.ReadUint64()
	if err != nil {
		return err
	}
	m.DustLimit = types.Satoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.MaxHtlcValueInFlight = types.MilliSatoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.ChannelReserve = types.Satoshi(v)
	if v, err = r.ReadUint64(); err != nil {
		return err
	}
	m.HtlcMinimum = types.MilliSatoshi(v)
	if m.MinimumAcceptDepth, err = r.ReadUint32(); err != nil {
		return err
	}
	csv, err := r.ReadUint16()
	if err != nil {
		return err
	}
	m.CsvDelay = CsvDelay(csv)
	if m.MaxAcceptedHtlcs, err = r.ReadUint16(); err != nil {
		return err
	}
	return m.Keys.decode(r)
}
