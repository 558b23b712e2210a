// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package handshake

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lightningpeach/brontide/types"
)

func mustKey(t *testing.T) types.SecretKey {
	t.Helper()
	sk, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	return sk
}

func TestHandshakeFullRoundTrip(t *testing.T) {
	initiatorStatic := mustKey(t)
	responderStatic := mustKey(t)

	initiator, err := NewInitiator(initiatorStatic, responderStatic.PublicKey())
	if err != nil {
		t.Fatalf("NewInitiator: %v", err)
	}
	responder, err := NewResponder(responderStatic)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}

	actOne, err := initiator.GenActOne()
	if err != nil {
		t.Fatalf("GenActOne: %v", err)
	}
	if len(actOne) != ActOneSize {
		t.Fatalf("len(actOne) = %d, want %d", len(actOne), ActOneSize)
	}
	if err := responder.RecvActOne(actOne); err != nil {
		t.Fatalf("RecvActOne: %v", err)
	}

	actTwo, err := responder.GenActTwo()
	if err != nil {
		t.Fatalf("GenActTwo: %v", err)
	}
	if len(actTwo) != ActTwoSize {
		t.Fatalf("len(actTwo) = %d, want %d", len(actTwo), ActTwoSize)
	}
	if err := initiator.RecvActTwo(actTwo); err != nil {
		t.Fatalf("RecvActTwo: %v", err)
	}

	actThree, err := initiator.GenActThree()
	if err != nil {
		t.Fatalf("GenActThree: %v", err)
	}
	if len(actThree) != ActThreeSize {
		t.Fatalf("len(actThree) = %d, want %d", len(actThree), ActThreeSize)
	}
	if err := responder.RecvActThree(actThree); err != nil {
		t.Fatalf("RecvActThree: %v", err)
	}

	if initiator.State() != StateEstablished {
		t.Errorf("initiator state = %v, want Established", initiator.State())
	}
	if responder.State() != StateEstablished {
		t.Errorf("responder state = %v, want Established", responder.State())
	}
	if !responder.RemoteStatic().Equal(initiatorStatic.PublicKey()) {
		t.Errorf("responder did not learn initiator's static key")
	}

	initiatorSend, initiatorRecv, err := initiator.Split()
	if err != nil {
		t.Fatalf("initiator.Split: %v", err)
	}
	responderSend, responderRecv, err := responder.Split()
	if err != nil {
		t.Fatalf("responder.Split: %v", err)
	}

	plaintext := []byte("Noise_XK handshake complete")
	ciphertext, err := initiatorSend.Encrypt(nil, plaintext)
	if err != nil {
		t.Fatalf("initiatorSend.Encrypt: %v", err)
	}
	got, err := responderRecv.Decrypt(nil, ciphertext)
	if err != nil {
		t.Fatalf("responderRecv.Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("initiator->responder: got %q, want %q", got, plaintext)
	}

	reply := []byte("acknowledged")
	ciphertext2, err := responderSend.Encrypt(nil, reply)
	if err != nil {
		t.Fatalf("responderSend.Encrypt: %v", err)
	}
	got2, err := initiatorRecv.Decrypt(nil, ciphertext2)
	if err != nil {
		t.Fatalf("initiatorRecv.Decrypt: %v", err)
	}
	if !bytes.Equal(got2, reply) {
		t.Errorf("responder->initiator: got %q, want %q", got2, reply)
	}
}

func TestRecvActOneRejectsBadVersion(t *testing.T) {
	responderStatic := mustKey(t)
	responder, err := NewResponder(responderStatic)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}

	bad := make([]byte, ActOneSize)
	bad[0] = 0x01
	if err := responder.RecvActOne(bad); !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("RecvActOne = %v, want ErrInvalidVersion", err)
	}
}

func TestRecvActOneRejectsShortMessage(t *testing.T) {
	responderStatic := mustKey(t)
	responder, err := NewResponder(responderStatic)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}

	if err := responder.RecvActOne(make([]byte, ActOneSize-1)); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("RecvActOne = %v, want ErrInvalidLength", err)
	}
}

func TestHandshakeFailsOnWrongRemoteStatic(t *testing.T) {
	initiatorStatic := mustKey(t)
	responderStatic := mustKey(t)
	wrongStatic := mustKey(t)

	initiator, err := NewInitiator(initiatorStatic, wrongStatic.PublicKey())
	if err != nil {
		t.Fatalf("NewInitiator: %v", err)
	}
	responder, err := NewResponder(responderStatic)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}

	actOne, err := initiator.GenActOne()
	if err != nil {
		t.Fatalf("GenActOne: %v", err)
	}
	if err := responder.RecvActOne(actOne); err == nil {
		t.Fatalf("RecvActOne succeeded against the wrong static key, want failure")
	}
}

func TestGenActOneRejectsWrongRole(t *testing.T) {
	responderStatic := mustKey(t)
	responder, err := NewResponder(responderStatic)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	if _, err := responder.GenActOne(); !errors.Is(err, ErrUnexpectedAct) {
		t.Fatalf("responder.GenActOne = %v, want ErrUnexpectedAct", err)
	}
}
