// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package messages

import "github.com/lightningpeach/brontide/codec"

// Unknown is the fallback variant for a type code outside the known set. An
// unrecognized type code is not fatal: the frame is preserved with its raw
// payload bytes so it can be logged, forwarded, or ignored by the
// application layer without desynchronizing the connection.
type Unknown struct {
	TypeCode uint16
	Payload  []byte
}

// Type returns the type code as read off the wire.
func (u *Unknown) Type() uint16 {
	return u.TypeCode
}

// Encode writes the payload back out verbatim.
func (u *Unknown) Encode(w *codec.Writer) error {
	w.WriteFixed(u.Payload)
	return nil
}

// Decode is never called on Unknown: DecodeMessage constructs it directly
// from the remaining bytes of the frame, since an unrecognized type code has
// no known field layout to decode against.
func (u *Unknown) Decode(r *codec.Reader) error {
	u.Payload = r.ReadAll()
	return nil
}
