// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package handshake

import "errors"

var (
	// ErrInvalidVersion is returned when an act's leading version byte is
	// not 0x00.
	ErrInvalidVersion = errors.New("handshake: invalid version byte")
	// ErrInvalidKey is returned when an act carries a point that does not
	// parse as valid on the curve.
	ErrInvalidKey = errors.New("handshake: invalid public key")
	// ErrInvalidTag is returned when an AEAD tag embedded in an act fails
	// to verify.
	ErrInvalidTag = errors.New("handshake: invalid tag")
	// ErrInvalidLength is returned when an act's payload is not the exact
	// size required for that act.
	ErrInvalidLength = errors.New("handshake: invalid act length")
	// ErrUnexpectedAct is returned when an act method is invoked out of
	// turn for the machine's role and current state.
	ErrUnexpectedAct = errors.New("handshake: act invoked out of order")
)
