// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package stream

import (
	"net"
	"testing"

	"github.com/lightningpeach/brontide/types"
)

func mustSecretKey(t *testing.T) types.SecretKey {
	t.Helper()
	sk, err := types.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	return sk
}

func TestOutgoingIncomingHandshakeAndExchange(t *testing.T) {
	initiatorKey := mustSecretKey(t)
	responderKey := mustSecretKey(t)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	type result struct {
		s   *Stream
		err error
	}
	clientCh := make(chan result, 1)
	serverCh := make(chan result, 1)

	go func() {
		s, err := Outgoing(clientConn, initiatorKey, responderKey.PublicKey())
		clientCh <- result{s, err}
	}()
	go func() {
		s, err := Incoming(serverConn, responderKey)
		serverCh <- result{s, err}
	}()

	client := <-clientCh
	if client.err != nil {
		t.Fatalf("Outgoing: %v", client.err)
	}
	server := <-serverCh
	if server.err != nil {
		t.Fatalf("Incoming: %v", server.err)
	}

	if !client.s.RemoteKey().Equal(responderKey.PublicKey()) {
		t.Errorf("client RemoteKey mismatch")
	}
	if !server.s.RemoteKey().Equal(initiatorKey.PublicKey()) {
		t.Errorf("server RemoteKey mismatch")
	}

	msg := []byte("hello over brontide stream")
	writeErrCh := make(chan error, 1)
	go func() {
		writeErrCh <- client.s.WriteMessage(msg)
	}()

	got, err := server.s.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if err := <-writeErrCh; err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if string(got) != string(msg) {
		t.Errorf("ReadMessage = %q, want %q", got, msg)
	}
}

func TestWriteMessageRejectsOversizedPayload(t *testing.T) {
	initiatorKey := mustSecretKey(t)
	responderKey := mustSecretKey(t)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	type result struct {
		s   *Stream
		err error
	}
	clientCh := make(chan result, 1)
	serverCh := make(chan result, 1)

	go func() {
		s, err := Outgoing(clientConn, initiatorKey, responderKey.PublicKey())
		clientCh <- result{s, err}
	}()
	go func() {
		s, err := Incoming(serverConn, responderKey)
		serverCh <- result{s, err}
	}()

	client := <-clientCh
	if client.err != nil {
		t.Fatalf("Outgoing: %v", client.err)
	}
	server := <-serverCh
	if server.err != nil {
		t.Fatalf("Incoming: %v", server.err)
	}

	if err := client.s.WriteMessage(make([]byte, maxPayloadLen+1)); err != ErrFrameTooLarge {
		t.Fatalf("WriteMessage(oversized) = %v, want ErrFrameTooLarge", err)
	}
}
