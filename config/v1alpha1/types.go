// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package v1alpha1

import "fmt"

const ApiVersion = "brontide.lightningpeach/v1alpha1"

// TypeMeta is the API-version/kind envelope carried by every config document,
// letting a loader dispatch on Kind before parsing the rest of the file.
type TypeMeta struct {
	ApiVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

// Config is the configuration for a single brontide peer: its static
// identity key, where it listens, and the peers it already knows about.
type Config struct {
	TypeMeta `yaml:",inline"`
	// Name is the optional hostname of this peer, used only for logging.
	Name string `yaml:"name,omitempty"`
	// ListenAddress is the host:port this peer accepts incoming brontide
	// connections on.
	ListenAddress string `yaml:"listenAddress,omitempty"`
	// StaticKey is the hex-encoded 32-byte secp256k1 scalar identifying
	// this peer across reconnects.
	StaticKey string `yaml:"staticKey"`
	// Peers is a list of known peers this node may dial or accept
	// handshakes from.
	Peers []PeerConfig `yaml:"peers,omitempty"`
}

// PeerConfig identifies one known remote peer by its static public key and,
// optionally, a dialable address.
type PeerConfig struct {
	// Name is the optional hostname of the peer.
	Name string `yaml:"name,omitempty"`
	// PublicKey is the hex-encoded 33-byte compressed static public key
	// of the peer.
	PublicKey string `yaml:"publicKey"`
	// Address is an optional host:port to dial the peer at. If empty,
	// the peer is only reachable by accepting its incoming connections.
	Address string `yaml:"address,omitempty"`
}

func (c Config) GetKind() string {
	return "Config"
}

func (c Config) GetAPIVersion() string {
	return ApiVersion
}

// GetConfigByKind returns a zero-valued document for kind, so a generic
// loader can unmarshal into the right concrete type before dispatching on
// it. Brontide's config format only defines one kind today.
func GetConfigByKind(kind string) (*Config, error) {
	switch kind {
	case "Config":
		return &Config{}, nil
	default:
		return nil, fmt.Errorf("config: unsupported kind %q", kind)
	}
}
