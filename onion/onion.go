// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

// Package onion implements a fixed-size Sphinx-style onion routing packet:
// each of up to 20 hops peels one layer off a 1366-byte packet, recovering
// its own forwarding instructions while learning nothing about its position
// in the route or the hops beyond it.
package onion

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/lightningpeach/brontide/types"
)

const (
	// NumHops is the number of hop slots carried by every packet,
	// regardless of the actual route length.
	NumHops = 20
	// hopDataSize is the size in bytes of one hop's forwarding
	// instructions plus the HMAC authenticating the next packet.
	hopDataSize = 65
	// hopPayloadSize is the part of hopDataSize that carries cleartext
	// forwarding instructions, before the chained HMAC.
	hopPayloadSize = 33
	// PayloadsSize is the total size of the obfuscated hop region.
	PayloadsSize = NumHops * hopDataSize
	// PacketSize is the total wire size of a Packet: version(1) +
	// ephemeral_key(33) + hops(20*65) + hmac(32).
	PacketSize = 1 + types.PublicKeySize + PayloadsSize + 32
)

// HopData is the cleartext forwarding instruction one hop recovers after
// peeling its layer: which channel to forward out on, how much, and by
// when. Realm is reserved for future payload formats and is always 0 here.
type HopData struct {
	Realm          byte
	ShortChannelId uint64
	AmtToForward   types.MilliSatoshi
	OutgoingCltv   uint32
}

func (h HopData) encode() [hopPayloadSize]byte {
	var out [hopPayloadSize]byte
	out[0] = h.Realm
	binary.BigEndian.PutUint64(out[1:9], h.ShortChannelId)
	binary.BigEndian.PutUint64(out[9:17], uint64(h.AmtToForward))
	binary.BigEndian.PutUint32(out[17:21], h.OutgoingCltv)
	// out[21:33] is reserved padding, left zero.
	return out
}

func decodeHopData(b []byte) HopData {
	return HopData{
		Realm:          b[0],
		ShortChannelId: binary.BigEndian.Uint64(b[1:9]),
		AmtToForward:   types.MilliSatoshi(binary.BigEndian.Uint64(b[9:17])),
		OutgoingCltv:   binary.BigEndian.Uint32(b[17:21]),
	}
}

// Hop is one node along a route being constructed: its identity key, and
// the instructions it should recover when it unwraps its layer.
type Hop struct {
	NodeKey types.PublicKey
	Data    HopData
}

// Packet is a Sphinx onion packet in flight between two hops.
type Packet struct {
	Version      byte
	EphemeralKey types.PublicKey
	HopPayloads  [PayloadsSize]byte
	HMAC         [32]byte
}

// Bytes serializes p to its fixed 1366-byte wire form.
func (p *Packet) Bytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0] = p.Version
	ephemeral := p.EphemeralKey.Bytes()
	copy(out[1:1+types.PublicKeySize], ephemeral[:])
	copy(out[1+types.PublicKeySize:1+types.PublicKeySize+PayloadsSize], p.HopPayloads[:])
	copy(out[1+types.PublicKeySize+PayloadsSize:], p.HMAC[:])
	return out
}

// Parse decodes a 1366-byte packet, failing if the version or ephemeral key
// is invalid.
func Parse(b [PacketSize]byte) (*Packet, error) {
	if b[0] != 0 {
		return nil, ErrInvalidVersion
	}

	var keyBytes [types.PublicKeySize]byte
	copy(keyBytes[:], b[1:1+types.PublicKeySize])
	ephemeral, err := types.ParsePublicKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	p := &Packet{Version: 0, EphemeralKey: ephemeral}
	copy(p.HopPayloads[:], b[1+types.PublicKeySize:1+types.PublicKeySize+PayloadsSize])
	copy(p.HMAC[:], b[1+types.PublicKeySize+PayloadsSize:])
	return p, nil
}

// New constructs a fresh packet routing through hops in order, using
// sessionKey as the first ephemeral key. len(hops) must not exceed NumHops;
// the final entry's Data is the payload the terminal hop recovers.
func New(sessionKey types.SecretKey, hops []Hop, associatedData []byte) (*Packet, error) {
	numHops := len(hops)
	if numHops > NumHops {
		return nil, ErrTooManyHops
	}

	ephemeralKeys := make([]types.PublicKey, numHops)
	sharedSecrets := make([][32]byte, numHops)

	current := sessionKey
	for i, hop := range hops {
		ephemeralKeys[i] = current.PublicKey()

		secret, err := current.DH(hop.NodeKey)
		if err != nil {
			return nil, fmt.Errorf("onion: shared secret with hop %d: %w", i, err)
		}
		sharedSecrets[i] = secret

		factor := blindingFactor(ephemeralKeys[i], secret)
		blinded, err := current.Blind(factor)
		if err != nil {
			return nil, fmt.Errorf("onion: advancing ephemeral key past hop %d: %w", i, err)
		}
		current = blinded
	}

	padKey := deriveKey(keyPad, sharedSecrets[0])
	buf := keyStream(padKey, PayloadsSize)

	filler := generateFiller(hopDataSize, sharedSecrets)

	nextHmac := make([]byte, 32)
	for i := numHops - 1; i >= 0; i-- {
		rhoKey := deriveKey(keyRho, sharedSecrets[i])
		muKey := deriveKey(keyMu, sharedSecrets[i])

		shiftRight(buf, hopDataSize)

		payload := hops[i].Data.encode()
		copy(buf[0:hopPayloadSize], payload[:])
		copy(buf[hopPayloadSize:hopDataSize], nextHmac)

		stream := keyStream(rhoKey, PayloadsSize)
		xorBytes(buf, buf, stream)

		if i == numHops-1 && len(filler) > 0 {
			copy(buf[PayloadsSize-len(filler):], filler)
		}

		mac := hmac.New(sha256.New, muKey)
		mac.Write(buf)
		mac.Write(associatedData)
		nextHmac = mac.Sum(nil)
	}

	p := &Packet{Version: 0, EphemeralKey: ephemeralKeys[0]}
	copy(p.HopPayloads[:], buf)
	copy(p.HMAC[:], nextHmac)
	return p, nil
}

// Shift peels one layer of p using onionKey, the local node's long-term or
// per-channel onion secret. On success it returns the forwarding
// instructions recovered for this hop together with the packet to forward
// to the next one. If this hop is the route's terminal destination, it
// returns the instructions alongside ErrFinalHop and a nil next packet.
func (p *Packet) Shift(onionKey types.SecretKey, associatedData []byte) (*HopData, *Packet, error) {
	if p.Version != 0 {
		return nil, nil, ErrInvalidVersion
	}

	sharedSecret, err := onionKey.DH(p.EphemeralKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	muKey := deriveKey(keyMu, sharedSecret)
	mac := hmac.New(sha256.New, muKey)
	mac.Write(p.HopPayloads[:])
	mac.Write(associatedData)
	if !hmac.Equal(mac.Sum(nil), p.HMAC[:]) {
		return nil, nil, ErrInvalidMAC
	}

	rhoKey := deriveKey(keyRho, sharedSecret)
	// Pad with a trailing hopDataSize of zeroes before unwrapping: the
	// keystream XOR'd over those zero bytes reproduces exactly the
	// filler the constructing node pre-applied for this layer.
	padded := make([]byte, PayloadsSize+hopDataSize)
	copy(padded, p.HopPayloads[:])
	stream := keyStream(rhoKey, PayloadsSize+hopDataSize)
	xorBytes(padded, padded, stream)

	data := decodeHopData(padded[:hopPayloadSize])
	nextHmac := padded[hopPayloadSize:hopDataSize]

	if bytes.Equal(nextHmac, make([]byte, 32)) {
		return &data, nil, ErrFinalHop
	}

	factor := blindingFactor(p.EphemeralKey, sharedSecret)
	nextEphemeral, err := p.EphemeralKey.Multiply(factor)
	if err != nil {
		return nil, nil, fmt.Errorf("onion: deriving next ephemeral key: %w", err)
	}

	next := &Packet{Version: 0, EphemeralKey: nextEphemeral}
	copy(next.HopPayloads[:], padded[hopDataSize:hopDataSize+PayloadsSize])
	copy(next.HMAC[:], nextHmac)
	return &data, next, nil
}

// blindingFactor computes SHA256(ephemeral || shared_secret), the scalar
// that rolls the ephemeral key forward by one hop on both the constructing
// and the processing side.
func blindingFactor(ephemeral types.PublicKey, sharedSecret [32]byte) [32]byte {
	b := ephemeral.Bytes()
	h := sha256.New()
	h.Write(b[:])
	h.Write(sharedSecret[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

var (
	keyRho = []byte("rho")
	keyMu  = []byte("mu")
	keyPad = []byte("pad")
)

// deriveKey computes HMAC-SHA256(keyType, secret), the Mu/Rho/pad key
// schedule shared by construction and processing.
func deriveKey(keyType []byte, secret [32]byte) []byte {
	mac := hmac.New(sha256.New, keyType)
	mac.Write(secret[:])
	return mac.Sum(nil)
}

// keyStream generates n pseudorandom bytes by running ChaCha20 with a fixed
// zero nonce over an all-zero plaintext, keyed by key. The packet's
// unpredictability comes entirely from the per-hop shared secrets feeding
// into key, not from the nonce.
func keyStream(key []byte, n int) []byte {
	nonce := make([]byte, chacha20.NonceSize)
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		panic(err)
	}
	out := make([]byte, n)
	stream.XORKeyStream(out, out)
	return out
}

func xorBytes(dst, a, b []byte) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
}

// shiftRight shifts buf right by n bytes in place, discarding the trailing
// n bytes and zero-filling the gap at the front.
func shiftRight(buf []byte, n int) {
	for i := len(buf) - 1; i >= n; i-- {
		buf[i] = buf[i-n]
	}
	for i := 0; i < n; i++ {
		buf[i] = 0
	}
}

// generateFiller reproduces, for the constructing node, the obfuscating
// keystream tail that every intermediate hop's unwrap will cascade onto the
// packet's unused trailing slots. Without it, the terminal hop's layer
// would leak the route length to earlier hops as trailing zero bytes.
//
// Each non-terminal hop i contributes one pass over a prefix of the filler,
// using the same rho-keyed stream its own Shift will later XOR over the
// padded tail it receives; the passes accumulate in the same order the
// hops themselves will peel the packet, so the final filler exactly
// cancels out to the all-zero terminal HMAC once every real hop has
// forwarded the packet.
func generateFiller(hopSize int, sharedSecrets [][32]byte) []byte {
	numHops := len(sharedSecrets)
	if numHops < 2 {
		return nil
	}

	fillerSize := (numHops - 1) * hopSize
	filler := make([]byte, fillerSize)

	for i := 0; i < numHops-1; i++ {
		rhoKey := deriveKey(keyRho, sharedSecrets[i])
		stream := keyStream(rhoKey, PayloadsSize+hopSize)

		fillerStart := PayloadsSize - i*hopSize
		fillerEnd := PayloadsSize + hopSize
		xorBytes(filler, filler, stream[fillerStart:fillerEnd])
	}

	return filler
}
