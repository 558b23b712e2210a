// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads YAML-encoded brontide peer configuration and
// resolves it into typed keys and a dialable peer directory.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lightningpeach/brontide/config/v1alpha1"
	"github.com/lightningpeach/brontide/types"
)

// Load reads and parses the YAML document at path.
func Load(path string) (*v1alpha1.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var probe v1alpha1.TypeMeta
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	doc, err := v1alpha1.GetConfigByKind(probe.Kind)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return doc, nil
}

// StaticKey decodes the node's hex-encoded static secret key.
func StaticKey(c *v1alpha1.Config) (types.SecretKey, error) {
	raw, err := hex.DecodeString(c.StaticKey)
	if err != nil {
		return types.SecretKey{}, fmt.Errorf("config: static key: %w", err)
	}
	if len(raw) != types.SecretKeySize {
		return types.SecretKey{}, fmt.Errorf("config: static key: want %d bytes, got %d", types.SecretKeySize, len(raw))
	}

	var seed [types.SecretKeySize]byte
	copy(seed[:], raw)
	return types.NewSecretKey(seed)
}

// Directory resolves PeerConfig entries into a name- and key-addressable
// lookup table of known peers.
type Directory struct {
	byName    map[string]types.PublicKey
	addresses map[types.PublicKey]string
}

// NewDirectory builds a Directory from a config document's peer list,
// failing if any entry's public key does not decode or duplicates another.
func NewDirectory(c *v1alpha1.Config) (*Directory, error) {
	d := &Directory{
		byName:    make(map[string]types.PublicKey, len(c.Peers)),
		addresses: make(map[types.PublicKey]string, len(c.Peers)),
	}

	for _, peer := range c.Peers {
		raw, err := hex.DecodeString(peer.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("config: peer %q: public key: %w", peer.Name, err)
		}
		if len(raw) != types.PublicKeySize {
			return nil, fmt.Errorf("config: peer %q: public key: want %d bytes, got %d", peer.Name, types.PublicKeySize, len(raw))
		}

		var keyBytes [types.PublicKeySize]byte
		copy(keyBytes[:], raw)
		pk, err := types.ParsePublicKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("config: peer %q: %w", peer.Name, err)
		}

		if _, ok := d.addresses[pk]; ok {
			return nil, fmt.Errorf("config: peer %q: duplicate public key", peer.Name)
		}

		if peer.Name != "" {
			d.byName[peer.Name] = pk
		}
		d.addresses[pk] = peer.Address
	}

	return d, nil
}

// LookupByName resolves a peer's static key by its configured name.
func (d *Directory) LookupByName(name string) (types.PublicKey, bool) {
	pk, ok := d.byName[name]
	return pk, ok
}

// Address returns the dialable address configured for pk, if any.
func (d *Directory) Address(pk types.PublicKey) (string, bool) {
	addr, ok := d.addresses[pk]
	return addr, addr != "" && ok
}
