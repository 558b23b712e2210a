// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package onion

import "errors"

var (
	// ErrFinalHop is returned by Packet.Shift when the processing node is
	// the terminal hop. It is not a failure: the returned HopData is
	// still valid, there is simply no next packet to forward.
	ErrFinalHop = errors.New("onion: reached final hop")
	// ErrInvalidVersion is returned when the packet version byte is not 0.
	ErrInvalidVersion = errors.New("onion: unsupported packet version")
	// ErrInvalidKey is returned when the ephemeral key does not parse as
	// a valid curve point.
	ErrInvalidKey = errors.New("onion: invalid ephemeral key")
	// ErrInvalidMAC is returned when the packet HMAC does not match the
	// computed value over the hop payloads and associated data.
	ErrInvalidMAC = errors.New("onion: mac mismatch")
	// ErrTooManyHops is returned when a route is constructed with more
	// hops than the packet has slots for.
	ErrTooManyHops = errors.New("onion: route exceeds maximum hop count")
)
