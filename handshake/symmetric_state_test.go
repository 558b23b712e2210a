// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package handshake

import (
	"bytes"
	"errors"
	"testing"
)

func TestMixHashIsOrderSensitive(t *testing.T) {
	static := mustKey(t).PublicKey().Bytes()

	a := initSymmetricState(static)
	a.mixHash([]byte("first"))
	a.mixHash([]byte("second"))

	b := initSymmetricState(static)
	b.mixHash([]byte("second"))
	b.mixHash([]byte("first"))

	if a.h == b.h {
		t.Errorf("mixHash produced the same hash regardless of call order")
	}
}

func TestMixKeyDerivesDistinctKeys(t *testing.T) {
	static := mustKey(t).PublicKey().Bytes()

	ss := initSymmetricState(static)
	ckBefore := ss.ck

	if err := ss.mixKey([]byte("shared secret one")); err != nil {
		t.Fatalf("mixKey: %v", err)
	}
	ckAfterFirst := ss.ck
	tempKeyAfterFirst := ss.tempKey

	if ckBefore == ckAfterFirst {
		t.Errorf("mixKey did not update the chaining key")
	}

	if err := ss.mixKey([]byte("shared secret two")); err != nil {
		t.Fatalf("mixKey: %v", err)
	}
	if ckAfterFirst == ss.ck {
		t.Errorf("second mixKey did not update the chaining key")
	}
	if tempKeyAfterFirst == ss.tempKey {
		t.Errorf("second mixKey reused the first temp key")
	}
}

func TestEncryptAndHashRoundTrip(t *testing.T) {
	static := mustKey(t).PublicKey().Bytes()

	sender := initSymmetricState(static)
	if err := sender.mixKey([]byte("act one shared secret")); err != nil {
		t.Fatalf("mixKey: %v", err)
	}
	receiver := sender

	ciphertext, err := sender.encryptAndHash(nil)
	if err != nil {
		t.Fatalf("encryptAndHash: %v", err)
	}

	plaintext, err := receiver.decryptAndHash(ciphertext)
	if err != nil {
		t.Fatalf("decryptAndHash: %v", err)
	}
	if len(plaintext) != 0 {
		t.Errorf("decryptAndHash produced %d bytes, want 0", len(plaintext))
	}
	if sender.h != receiver.h {
		t.Errorf("sender and receiver handshake hashes diverged after a matching exchange")
	}
}

func TestDecryptAndHashRejectsTamperedCiphertext(t *testing.T) {
	static := mustKey(t).PublicKey().Bytes()

	ss := initSymmetricState(static)
	if err := ss.mixKey([]byte("act one shared secret")); err != nil {
		t.Fatalf("mixKey: %v", err)
	}

	ciphertext, err := ss.encryptAndHash(nil)
	if err != nil {
		t.Fatalf("encryptAndHash: %v", err)
	}
	tampered := bytes.Clone(ciphertext)
	tampered[len(tampered)-1] ^= 0xff

	if _, err := ss.decryptAndHash(tampered); !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("decryptAndHash = %v, want ErrInvalidTag", err)
	}
}

func TestSplitDerivesDistinctDirectionalKeys(t *testing.T) {
	static := mustKey(t).PublicKey().Bytes()

	ss := initSymmetricState(static)
	if err := ss.mixKey([]byte("final chaining key input")); err != nil {
		t.Fatalf("mixKey: %v", err)
	}

	sk, rk, err := ss.split()
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if sk == rk {
		t.Errorf("split produced identical send and receive keys")
	}

	sk2, rk2, err := ss.split()
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if sk != sk2 || rk != rk2 {
		t.Errorf("split is not deterministic given the same chaining key")
	}
}
