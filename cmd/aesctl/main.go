package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/aesctl/internal/accel"
	"github.com/danmuck/aesctl/internal/accel/sim"
	"github.com/danmuck/aesctl/internal/config"
	"github.com/danmuck/aesctl/internal/logging"
	"github.com/danmuck/aesctl/internal/protocol/frame"
	"github.com/danmuck/aesctl/internal/runloop"
	"github.com/danmuck/aesctl/internal/server"
	"github.com/danmuck/aesctl/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "aesctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to aesctl.toml (defaults apply when empty)")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := config.DefaultNodeConfig()
	if *cfgPath != "" {
		loaded, err := config.LoadNodeConfig(*cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	logger := log.With().Str("node", cfg.Name).Logger()

	asm := frame.NewAssembler(resyncMode(cfg.Framing))
	seq := buildSequencer(cfg.Accel, logger)
	loop := runloop.New(
		runloop.Config{Node: cfg.Name, Banner: cfg.Banner},
		asm, seq, runloop.LogIndicator(logger), logger,
	)

	admin := server.New(cfg.Name, cfg.AdminAddr, server.Options{
		CorsOrigins: cfg.CorsOrigins,
		Token:       cfg.AdminToken,
	}, loop, logger)
	go func() {
		if err := admin.Run(); err != nil {
			logger.Error().Err(err).Msg("admin server exited")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("transport", cfg.Transport.Kind).
		Str("accel_driver", cfg.Accel.Driver).
		Str("accel_mode", cfg.Accel.Mode).
		Str("resync", cfg.Framing.Resync).
		Msg("aesctl ready")

	switch cfg.Transport.Kind {
	case transport.KindSerial:
		port, err := transport.OpenSerial(cfg.Transport.Device, cfg.Transport.Baud)
		if err != nil {
			return err
		}
		defer port.Close()
		return loop.Run(ctx, port)
	case transport.KindStdio:
		return loop.Run(ctx, transport.Stdio())
	default:
		return serveTCP(ctx, cfg.Transport.Addr, loop, logger)
	}
}

// serveTCP accepts one connection at a time: the protocol carries a
// single peer with one in-flight operation.
func serveTCP(ctx context.Context, addr string, loop *runloop.Loop, logger zerolog.Logger) error {
	ln, err := transport.Listen(addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		logger.Info().Str("peer", conn.RemoteAddr().String()).Msg("link up")
		if err := loop.Run(ctx, conn); err != nil {
			if errors.Is(err, context.Canceled) {
				conn.Close()
				return nil
			}
			logger.Error().Err(err).Msg("link loop failed")
		}
		conn.Close()
		logger.Info().Msg("link down")
	}
}

func resyncMode(cfg config.FramingConfig) frame.ResyncMode {
	if cfg.Resync == "shift" {
		return frame.ResyncShift
	}
	return frame.ResyncScan
}

// buildSequencer wires the configured register backend. The sim driver
// is self-contained; hardware-attached backends supply their own
// accel.Registers and accel.CycleCounter pair.
func buildSequencer(cfg config.AccelConfig, logger zerolog.Logger) *accel.Sequencer {
	mode := accel.Polled
	if cfg.Mode == "notified" {
		mode = accel.Notified
	}
	acc := sim.New(sim.WithLatency(uint32(cfg.SimLatencyCycles)))
	seq := accel.NewSequencer(acc, acc, accel.Config{
		Mode:         mode,
		StallTimeout: time.Duration(cfg.StallTimeoutMS) * time.Millisecond,
	}, logger)
	if mode == accel.Notified {
		acc.SetNotify(seq.Notify)
	}
	return seq
}
