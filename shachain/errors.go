// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package shachain

import "errors"

var (
	// ErrIndexOutOfRange is returned when an index does not fit the
	// 48-bit domain the chain is defined over.
	ErrIndexOutOfRange = errors.New("shachain: index exceeds 48-bit domain")
	// ErrNotDerivable is returned by Store.Insert when the newly inserted
	// element cannot reproduce one of the elements it is meant to
	// supersede — a violation of the required insertion order.
	ErrNotDerivable = errors.New("shachain: element not derivable from insertion")
	// ErrNotFound is returned by Store.Lookup when no retained element
	// can derive the requested index.
	ErrNotFound = errors.New("shachain: index not found")
)
