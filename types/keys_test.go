// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package types

import (
	"crypto/sha256"
	"testing"
)

func TestSecretKeyPublicKeyPaired(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	pk := sk.PublicKey()
	if !sk.Paired(pk) {
		t.Errorf("Paired = false, want true")
	}

	other, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	if sk.Paired(other.PublicKey()) {
		t.Errorf("Paired(unrelated) = true, want false")
	}
}

func TestDHAgreement(t *testing.T) {
	alice, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	bob, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}

	ab, err := alice.DH(bob.PublicKey())
	if err != nil {
		t.Fatalf("alice.DH: %v", err)
	}
	ba, err := bob.DH(alice.PublicKey())
	if err != nil {
		t.Fatalf("bob.DH: %v", err)
	}
	if ab != ba {
		t.Errorf("DH disagreement: %x != %x", ab, ba)
	}
}

func TestParsePublicKeyRoundTrip(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	want := sk.PublicKey()

	got, err := ParsePublicKey(want.Bytes())
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("ParsePublicKey round trip mismatch")
	}
}

func TestParsePublicKeyRejectsInvalidPoint(t *testing.T) {
	var b [PublicKeySize]byte
	b[0] = 0x04 // not a valid compressed-point prefix
	if _, err := ParsePublicKey(b); err == nil {
		t.Errorf("ParsePublicKey(invalid) = nil error, want error")
	}
}

func TestSignVerify(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	digest := sha256.Sum256([]byte("brontide"))

	sig, err := sk.Sign(digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !sk.PublicKey().Verify(digest, sig) {
		t.Errorf("Verify = false, want true")
	}

	other := sha256.Sum256([]byte("not brontide"))
	if sk.PublicKey().Verify(other, sig) {
		t.Errorf("Verify(wrong digest) = true, want false")
	}
}

func TestBlindMultiplyAgree(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	factorSk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	factor := factorSk.Bytes()

	blinded, err := sk.Blind(factor)
	if err != nil {
		t.Fatalf("Blind: %v", err)
	}
	scaled, err := sk.PublicKey().Multiply(factor)
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}

	if !blinded.PublicKey().Equal(scaled) {
		t.Errorf("Blind/Multiply disagreement: blinded pubkey != scaled point")
	}
}
