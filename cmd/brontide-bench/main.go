/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"log/slog"

	"github.com/lightningpeach/brontide/internal/bench"
	"github.com/lightningpeach/brontide/types"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sharedFlags := []cli.Flag{
		&cli.GenericFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set the log level",
			Value:   fromLogLevel(slog.LevelInfo),
		},
	}

	before := func(c *cli.Context) error {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: (*slog.Level)(c.Generic("log-level").(*logLevelFlag)),
		}))
		return nil
	}

	app := &cli.App{
		Name:  "brontide-bench",
		Usage: "Benchmark brontide handshake and stream throughput",
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "Accept brontide connections and echo every message",
				Before: before,
				Flags: append(sharedFlags,
					&cli.StringFlag{Name: "listen", Value: ":18333"},
					&cli.StringFlag{Name: "static-key", Usage: "hex-encoded 32-byte static key; random if unset"},
				),
				Action: func(c *cli.Context) error {
					staticKey, err := resolveStaticKey(c.String("static-key"))
					if err != nil {
						return err
					}
					logger.Info("server static key", "public-key", hex.EncodeToString(pub(staticKey)))

					stop := make(chan struct{})
					sig := make(chan os.Signal, 1)
					signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
					go func() {
						<-sig
						logger.Info("received signal, shutting down")
						close(stop)
					}()

					return bench.RunServer(bench.ServerConfig{
						ListenAddress: c.String("listen"),
						StaticKey:     staticKey,
						Logger:        logger,
					}, stop)
				},
			},
			{
				Name:   "benchmark",
				Usage:  "Benchmark handshake and round-trip latency against a server",
				Before: before,
				Flags: append(sharedFlags,
					&cli.StringFlag{Name: "target", Value: "127.0.0.1:18333"},
					&cli.StringFlag{Name: "remote-static", Required: true, Usage: "hex-encoded 33-byte server public key"},
					&cli.StringFlag{Name: "static-key", Usage: "hex-encoded 32-byte client static key; random if unset"},
					&cli.IntFlag{Name: "connections", Value: 50},
					&cli.IntFlag{Name: "rounds", Value: 20, Usage: "echo round trips per connection"},
				),
				Action: func(c *cli.Context) error {
					staticKey, err := resolveStaticKey(c.String("static-key"))
					if err != nil {
						return err
					}

					remoteRaw, err := hex.DecodeString(c.String("remote-static"))
					if err != nil || len(remoteRaw) != types.PublicKeySize {
						return fmt.Errorf("invalid --remote-static: %v", err)
					}
					var remoteBytes [types.PublicKeySize]byte
					copy(remoteBytes[:], remoteRaw)
					remoteStatic, err := types.ParsePublicKey(remoteBytes)
					if err != nil {
						return fmt.Errorf("invalid --remote-static: %w", err)
					}

					report := bench.RunClient(bench.ClientConfig{
						TargetAddress: c.String("target"),
						RemoteStatic:  remoteStatic,
						StaticKey:     staticKey,
						Connections:   c.Int("connections"),
						RoundsPerConn: c.Int("rounds"),
						Logger:        logger,
					})

					printReport(report)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("failed to run app", "error", err)
		os.Exit(1)
	}
}

func printReport(r *bench.Report) {
	fmt.Printf("Total connections: %d\n", r.TotalConnections)
	fmt.Printf("Failed connections: %d\n", r.FailedConnections)
	if r.Errors != nil {
		fmt.Println("Errors:")
		for _, err := range r.Errors.Errors {
			fmt.Println(" ", err)
		}
	}

	fmt.Println("Handshake latency:")
	printHistogram(r.HandshakeLatency)
	fmt.Println("Round-trip latency:")
	printHistogram(r.RoundTripLatency)
}

func printHistogram(h interface {
	ValueAtQuantile(float64) int64
	Max() int64
}) {
	fmt.Printf("  Median: %dms\n", h.ValueAtQuantile(50))
	fmt.Printf("  95th: %dms\n", h.ValueAtQuantile(95))
	fmt.Printf("  99th: %dms\n", h.ValueAtQuantile(99))
	fmt.Printf("  Max: %dms\n", h.Max())
}

func resolveStaticKey(hexKey string) (types.SecretKey, error) {
	if hexKey == "" {
		return types.GenerateSecretKey()
	}

	raw, err := hex.DecodeString(hexKey)
	if err != nil || len(raw) != types.SecretKeySize {
		return types.SecretKey{}, fmt.Errorf("invalid static key: %v", err)
	}
	var seed [types.SecretKeySize]byte
	copy(seed[:], raw)
	return types.NewSecretKey(seed)
}

func pub(sk types.SecretKey) []byte {
	b := sk.PublicKey().Bytes()
	return b[:]
}

type logLevelFlag slog.Level

func fromLogLevel(l slog.Level) *logLevelFlag {
	f := logLevelFlag(l)
	return &f
}

func (f *logLevelFlag) Set(value string) error {
	return (*slog.Level)(f).UnmarshalText([]byte(value))
}

func (f *logLevelFlag) String() string {
	return (*slog.Level)(f).String()
}
