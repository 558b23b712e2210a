// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import (
	"github.com/lightningpeach/brontide/codec"
)

// FeatureVector is a bit-set of feature flags encoded on the wire as
// u16_be(length_bytes) || big-endian bit buffer. Bit n indicates feature n;
// by convention even bits are "required" and the following odd bit is the
// matching "optional" form.
type FeatureVector struct {
	raw []byte
}

// NewFeatureVector returns an empty feature vector.
func NewFeatureVector() FeatureVector {
	return FeatureVector{}
}

// SetBit sets feature bit n, growing the backing buffer if needed. Bit 0 is
// the least significant bit of the last byte, matching the BOLT convention of
// numbering from the end of the buffer.
func (f *FeatureVector) SetBit(n uint) {
	byteIdx := int(n / 8)
	need := byteIdx + 1
	if len(f.raw) < need {
		grown := make([]byte, need)
		copy(grown[need-len(f.raw):], f.raw)
		f.raw = grown
	}
	pos := len(f.raw) - 1 - byteIdx
	f.raw[pos] |= 1 << (n % 8)
}

// IsSet reports whether feature bit n is set.
func (f FeatureVector) IsSet(n uint) bool {
	byteIdx := int(n / 8)
	if byteIdx >= len(f.raw) {
		return false
	}
	pos := len(f.raw) - 1 - byteIdx
	return f.raw[pos]&(1<<(n%8)) != 0
}

// Bytes returns the raw big-endian bit buffer, most-significant byte first.
func (f FeatureVector) Bytes() []byte {
	return f.raw
}

// Encode implements codec.Codec.
func (f FeatureVector) Encode(w *codec.Writer) error {
	return w.WriteVarBytes(f.raw)
}

// Decode implements codec.Codec.
func (f *FeatureVector) Decode(r *codec.Reader) error {
	b, err := r.ReadVarBytes()
	if err != nil {
		return err
	}
	f.raw = b
	return nil
}
