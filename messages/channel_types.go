// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"github.com/lightningpeach/brontide/codec"
	"github.com/lightningpeach/brontide/types"
)

// SatoshiPerKiloWeight is a feerate, denominated in satoshis per 1000
// weight units.
type SatoshiPerKiloWeight uint32

// CsvDelay is the number of blocks a revocable output must mature for.
type CsvDelay uint16

// OutputIndex addresses a single output of a funding transaction.
type OutputIndex uint16

// ChannelFlags carries the single-byte per-channel option set negotiated at
// open time (bit 0: announce_channel).
type ChannelFlags uint8

// AnnounceChannel reports whether the channel-announce bit is set.
func (f ChannelFlags) AnnounceChannel() bool {
	return f&0x01 != 0
}

// ChannelKeys is the set of six basepoints a channel party reveals during
// open/accept, from which the per-commitment keys are derived.
type ChannelKeys struct {
	FundingPubkey           types.PublicKey
	RevocationBasepoint     types.PublicKey
	PaymentBasepoint        types.PublicKey
	DelayedPaymentBasepoint types.PublicKey
	HtlcBasepoint           types.PublicKey
	FirstPerCommitmentPoint types.PublicKey
}

func (k ChannelKeys) encode(w *codec.Writer) error {
	points := [...]types.PublicKey{
		k.FundingPubkey,
		k.RevocationBasepoint,
		k.PaymentBasepoint,
		k.DelayedPaymentBasepoint,
		k.HtlcBasepoint,
		k.FirstPerCommitmentPoint,
	}
	for _, p := range points {
		b := p.Bytes()
		w.WriteFixed(b[:])
	}
	return nil
}

func (k *ChannelKeys) decode(r *codec.Reader) error {
	points := [...]*types.PublicKey{
		&k.FundingPubkey,
		&k.RevocationBasepoint,
		&k.PaymentBasepoint,
		&k.DelayedPaymentBasepoint,
		&k.HtlcBasepoint,
		&k.FirstPerCommitmentPoint,
	}
	for _, p := range points {
		b, err := r.ReadFixed(types.PublicKeySize)
		if err != nil {
			return err
		}
		var arr [types.PublicKeySize]byte
		copy(arr[:], b)
		parsed, err := types.ParsePublicKey(arr)
		if err != nil {
			return err
		}
		*p = parsed
	}
	return nil
}

// RawSignature carries a DER-encoded ECDSA signature behind a u16 length
// prefix — used only by ClosingSigned, deliberately kept in raw DER form
// rather than the compact 64-byte form used everywhere else on the wire.
type RawSignature struct {
	DER []byte
}

func (s RawSignature) encode(w *codec.Writer) error {
	return w.WriteVarBytes(s.DER)
}

func (s *RawSignature) decode(r *codec.Reader) error {
	b, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	s.DER = b
	return nil
}

func writeSignature(w *codec.Writer, sig types.Signature) {
	w.WriteFixed(sig[:])
}

func readSignature(r *codec.Reader) (types.Signature, error) {
	var sig types.Signature
	b, err := r.ReadFixed(types.SignatureSize)
	if err != nil {
		return sig, err
	}
	copy(sig[:], b)
	return sig, nil
}

func writeHash256(w *codec.Writer, h types.Hash256) {
	w.WriteFixed(h[:])
}

func readHash256(r *codec.Reader) (types.Hash256, error) {
	var h types.Hash256
	b, err := r.ReadFixed(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func writeChannelId(w *codec.Writer, id types.ChannelId) {
	w.WriteFixed(id[:])
}

func readChannelId(r *codec.Reader) (types.ChannelId, error) {
	var id types.ChannelId
	b, err := r.ReadFixed(32)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

func writeShortChannelId(w *codec.Writer, id types.ShortChannelId) {
	w.WriteUint64(id.ToU64())
}

func readShortChannelId(r *codec.Reader) (types.ShortChannelId, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return types.ShortChannelId{}, err
	}
	return types.ShortChannelIdFromU64(v), nil
}

// OnionBlobSize is the fixed wire size of a Sphinx-style onion routing
// packet: version(1) + ephemeral_key(33) + hops(20*65) + hmac(32).
const OnionBlobSize = 1 + 33 + 20*65 + 32

// OnionBlob carries an opaque onion routing packet alongside an HTLC. It is
// transmitted as a fixed-size blob with no length prefix; unwrapping it into
// a parsed onion.Packet is the receiving hop's responsibility.
type OnionBlob [OnionBlobSize]byte

func writePublicKey(w *codec.Writer, pk types.PublicKey) {
	b := pk.Bytes()
	w.WriteFixed(b[:])
}

func readPublicKey(r *codec.Reader) (types.PublicKey, error) {
	b, err := r.ReadFixed(types.PublicKeySize)
	if err != nil {
		return types.PublicKey{}, err
	}
	var arr [types.PublicKeySize]byte
	copy(arr[:], b)
	return types.ParsePublicKey(arr)
}
