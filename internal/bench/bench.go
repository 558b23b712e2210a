// SPDX-License-Identifier: MIT
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

// Package bench implements a handshake and stream throughput harness for
// brontide connections: a server command and a concurrent-client command
// reporting latency percentiles.
package bench

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cheggaaa/pb/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/rogpeppe/go-internal/par"

	"github.com/lightningpeach/brontide/stream"
	"github.com/lightningpeach/brontide/types"
)

// ServerConfig configures RunServer.
type ServerConfig struct {
	ListenAddress string
	StaticKey     types.SecretKey
	Logger        *slog.Logger
}

// RunServer accepts brontide connections and writes every message it
// receives back to the sender unchanged, until lis is closed or stop is
// signalled.
func RunServer(cfg ServerConfig, stop <-chan struct{}) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("bench: listen: %w", err)
	}
	defer lis.Close()

	go func() {
		<-stop
		lis.Close()
	}()

	logger.Info("listening for brontide connections", "addr", lis.Addr())

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				return fmt.Errorf("bench: accept: %w", err)
			}
		}

		go func() {
			if err := serveEcho(conn, cfg.StaticKey, logger); err != nil {
				logger.Error("connection closed", "error", err)
			}
		}()
	}
}

func serveEcho(conn net.Conn, staticKey types.SecretKey, logger *slog.Logger) error {
	defer conn.Close()

	s, err := stream.Incoming(conn, staticKey)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	logger.Debug("handshake complete", "remote", s.RemoteKey())

	for {
		msg, err := s.ReadMessage()
		if err != nil {
			return err
		}
		if err := s.WriteMessage(msg); err != nil {
			return err
		}
	}
}

// ClientConfig configures RunClient.
type ClientConfig struct {
	TargetAddress string
	RemoteStatic  types.PublicKey
	StaticKey     types.SecretKey
	Connections   int
	RoundsPerConn int
	Logger        *slog.Logger
}

// Report summarizes a client run's measured latencies.
type Report struct {
	TotalConnections  int
	FailedConnections int
	HandshakeLatency  *hdrhistogram.Histogram
	RoundTripLatency  *hdrhistogram.Histogram
	Errors            *multierror.Error
}

// RunClient dials cfg.Connections brontide connections concurrently,
// performing the handshake and cfg.RoundsPerConn echo round trips on
// each, recording latencies into a Report.
func RunClient(cfg ClientConfig) *Report {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{
		TotalConnections: cfg.Connections,
		HandshakeLatency: hdrhistogram.New(1, time.Minute.Milliseconds(), 3),
		RoundTripLatency: hdrhistogram.New(1, time.Minute.Milliseconds(), 3),
	}

	var mu sync.Mutex
	bar := pb.StartNew(cfg.Connections)

	var work par.Work
	for i := 0; i < cfg.Connections; i++ {
		work.Add(i)
	}

	work.Do(cfg.Connections, func(item any) {
		defer bar.Increment()

		handshakeLatency, roundTripLatencies, err := runOneConnection(cfg)

		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			report.FailedConnections++
			report.Errors = multierror.Append(report.Errors, err)
			return
		}

		if err := report.HandshakeLatency.RecordValue(handshakeLatency.Milliseconds()); err != nil {
			logger.Error("failed to record handshake latency", "error", err)
		}
		for _, d := range roundTripLatencies {
			if err := report.RoundTripLatency.RecordValue(d.Milliseconds()); err != nil {
				logger.Error("failed to record round-trip latency", "error", err)
			}
		}
	})

	bar.Finish()
	return report
}

func runOneConnection(cfg ClientConfig) (time.Duration, []time.Duration, error) {
	conn, err := net.Dial("tcp", cfg.TargetAddress)
	if err != nil {
		return 0, nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	start := time.Now()
	s, err := stream.Outgoing(conn, cfg.StaticKey, cfg.RemoteStatic)
	if err != nil {
		return 0, nil, fmt.Errorf("handshake: %w", err)
	}
	handshakeLatency := time.Since(start)

	roundTrips := make([]time.Duration, 0, cfg.RoundsPerConn)
	payload := []byte("brontide-bench")
	for i := 0; i < cfg.RoundsPerConn; i++ {
		rtStart := time.Now()
		if err := s.WriteMessage(payload); err != nil {
			return 0, nil, fmt.Errorf("write round %d: %w", i, err)
		}
		if _, err := s.ReadMessage(); err != nil {
			return 0, nil, fmt.Errorf("read round %d: %w", i, err)
		}
		roundTrips = append(roundTrips, time.Since(rtStart))
	}

	return handshakeLatency, roundTrips, nil
}
