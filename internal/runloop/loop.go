// Package runloop owns the single-threaded protocol control loop.
//
// Ownership boundary:
// - byte-at-a-time stream consumption
// - assembler -> sequencer handoff, one operation in flight
// - response transmission and indicator toggling
package runloop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/aesctl/internal/accel"
	"github.com/danmuck/aesctl/internal/observability"
	"github.com/danmuck/aesctl/internal/protocol"
	"github.com/danmuck/aesctl/internal/protocol/frame"
)

// Indicator mirrors the board activity output: set while an operation
// is in flight, cleared once the response has been fully transmitted.
// Purely observational.
type Indicator interface {
	Set(on bool)
}

type nopIndicator struct{}

func (nopIndicator) Set(bool) {}

func NopIndicator() Indicator { return nopIndicator{} }

// Config carries loop identity and startup options.
type Config struct {
	Node   string
	Banner bool
}

// Stats is a read-safe snapshot of loop counters for the admin surface.
type Stats struct {
	Frames         uint64 `json:"frames"`
	Resyncs        uint64 `json:"resyncs"`
	BytesDiscarded uint64 `json:"bytes_discarded"`
	Operations     uint64 `json:"operations"`
	LastCycles     uint32 `json:"last_cycles"`
	CompletionMode string `json:"completion_mode"`
	ResyncMode     string `json:"resync_mode"`
}

// Loop reads one byte at a time, assembles request frames, runs each
// through the sequencer to completion, and writes the response before
// considering the next byte. Strictly one operation in flight.
type Loop struct {
	cfg Config
	asm *frame.Assembler
	seq *accel.Sequencer
	ind Indicator
	log zerolog.Logger

	frames    atomic.Uint64
	resyncs   atomic.Uint64
	discarded atomic.Uint64
}

func New(cfg Config, asm *frame.Assembler, seq *accel.Sequencer, ind Indicator, log zerolog.Logger) *Loop {
	if ind == nil {
		ind = NopIndicator()
	}
	return &Loop{cfg: cfg, asm: asm, seq: seq, ind: ind, log: log}
}

// Run consumes rw until EOF or a fatal error. A clean EOF on the link
// returns nil so the caller can accept the next connection.
func (l *Loop) Run(ctx context.Context, rw io.ReadWriter) error {
	if l.cfg.Banner {
		if err := l.writeBanner(rw); err != nil {
			return err
		}
	}

	resyncMode := l.asm.Mode().String()
	br := bufio.NewReader(rw)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("runloop: read: %w", err)
		}

		prev := l.asm.Stats()
		req, ok := l.asm.Feed(b)
		if !ok {
			if st := l.asm.Stats(); st.Resyncs != prev.Resyncs {
				dropped := st.BytesDiscarded - prev.BytesDiscarded
				l.resyncs.Add(1)
				l.discarded.Add(dropped)
				observability.RecordResync(l.cfg.Node, resyncMode, dropped)
				l.log.Warn().
					Uint64("dropped", dropped).
					Int("pending", l.asm.Pending()).
					Msg("frame_resync")
			}
			continue
		}

		l.frames.Add(1)
		observability.RecordFrame(l.cfg.Node)
		if err := l.process(ctx, rw, req); err != nil {
			return err
		}
	}
}

func (l *Loop) process(ctx context.Context, w io.Writer, req protocol.Request) error {
	l.ind.Set(true)
	defer l.ind.Set(false)

	began := time.Now()
	res, err := l.seq.Execute(ctx, req.Key, req.Plaintext)
	if err != nil {
		return fmt.Errorf("runloop: execute: %w", err)
	}
	observability.RecordOperation(l.cfg.Node, l.seq.Mode().String(), res.Cycles, time.Since(began))

	resp := protocol.Response{Ciphertext: res.Ciphertext, Cycles: res.Cycles}
	if _, err := w.Write(protocol.EncodeResponse(resp)); err != nil {
		return fmt.Errorf("runloop: write response: %w", err)
	}
	return nil
}

func (l *Loop) Stats() Stats {
	seq := l.seq.Stats()
	return Stats{
		Frames:         l.frames.Load(),
		Resyncs:        l.resyncs.Load(),
		BytesDiscarded: l.discarded.Load(),
		Operations:     seq.Operations,
		LastCycles:     seq.LastCycles,
		CompletionMode: l.seq.Mode().String(),
		ResyncMode:     l.asm.Mode().String(),
	}
}

func (l *Loop) writeBanner(w io.Writer) error {
	lines := []string{
		"AES-128 Hardware Accelerator Ready\r\n",
		"Protocol: Send 34 bytes = [16B key] + [16B plaintext] + [0xFFFF]\r\n",
		"Response: 20 bytes = [16B ciphertext] + [4B cycles]\r\n",
		fmt.Sprintf("Mode: %s\r\n", l.seq.Mode()),
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("runloop: write banner: %w", err)
		}
	}
	return nil
}
