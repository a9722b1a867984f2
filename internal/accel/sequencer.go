package accel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/aesctl/internal/protocol"
)

// ErrStall reports that the completion watchdog fired before the
// accelerator signaled done. Only possible with a non-zero
// StallTimeout; the compatible default is to wait forever.
var ErrStall = errors.New("accel: completion wait stalled")

// Config selects the completion mode and the optional stall watchdog.
type Config struct {
	Mode CompletionMode

	// StallTimeout bounds the busy/completion waits. Zero disables the
	// watchdog; waits then block until the hardware responds.
	StallTimeout time.Duration
}

// Result is the outcome of one encryption operation.
type Result struct {
	Ciphertext [protocol.BlockSize]byte
	Cycles     uint32
}

// Stats is a snapshot of sequencer counters, safe to read while the
// control loop is running.
type Stats struct {
	Operations uint64
	LastCycles uint32
}

// Sequencer drives the accelerator through one operation at a time:
// load registers, assert start, wait for completion, read the result.
// It is the sole owner of the register interface for the lifetime of
// each operation; Execute must not be called concurrently.
type Sequencer struct {
	regs    Registers
	counter CycleCounter
	cfg     Config
	log     zerolog.Logger

	done chan struct{}
	wait completer

	ops        atomic.Uint64
	lastCycles atomic.Uint32
}

func NewSequencer(regs Registers, counter CycleCounter, cfg Config, log zerolog.Logger) *Sequencer {
	s := &Sequencer{
		regs:    regs,
		counter: counter,
		cfg:     cfg,
		log:     log,
		done:    make(chan struct{}, 1),
	}
	switch cfg.Mode {
	case Notified:
		regs.WriteWord(RegCtrl, CtrlNotifyEn)
		s.wait = notifiedCompleter{ch: s.done}
	default:
		s.wait = polledCompleter{regs: regs}
	}
	return s
}

// Notify delivers an external completion signal. It is the only method
// safe to call from another goroutine, mirroring an interrupt handler:
// it clears the hardware done bit and wakes the waiting Execute. The
// signal slot holds one notification, so a notify that races ahead of
// the wait is not lost.
func (s *Sequencer) Notify() {
	s.regs.WriteWord(RegCtrl, CtrlClearDone)
	select {
	case s.done <- struct{}{}:
	default:
	}
}

// Execute runs one encryption. Key and plaintext bytes are packed
// big-endian into register words; the ciphertext is unpacked the same
// way. If the accelerator is still busy from stray prior state the
// call blocks until it clears rather than failing, since the register
// contract has no abort or error path.
func (s *Sequencer) Execute(ctx context.Context, key [protocol.KeySize]byte, plaintext [protocol.BlockSize]byte) (Result, error) {
	if s.cfg.StallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StallTimeout)
		defer cancel()
	}

	writeBlock(s.regs, RegKey0, PackWords(key))
	writeBlock(s.regs, RegPT0, PackWords(plaintext))

	// Defensive: never assert start while the busy bit is up.
	if err := s.waitIdle(ctx); err != nil {
		return Result{}, s.stallErr(err)
	}

	start := s.counter.Cycles()
	s.regs.WriteWord(RegCtrl, CtrlStart)
	if err := s.wait.wait(ctx); err != nil {
		return Result{}, s.stallErr(err)
	}
	end := s.counter.Cycles()

	res := Result{
		Ciphertext: UnpackWords(readBlock(s.regs, RegCT0)),
		Cycles:     Elapsed(start, end),
	}

	s.ops.Add(1)
	s.lastCycles.Store(res.Cycles)
	s.log.Debug().
		Str("mode", s.cfg.Mode.String()).
		Uint32("cycles", res.Cycles).
		Msg("accel_operation")
	return res, nil
}

func (s *Sequencer) Mode() CompletionMode {
	return s.cfg.Mode
}

func (s *Sequencer) Stats() Stats {
	return Stats{
		Operations: s.ops.Load(),
		LastCycles: s.lastCycles.Load(),
	}
}

func (s *Sequencer) waitIdle(ctx context.Context) error {
	for s.regs.ReadWord(RegCtrl)&StatusBusy != 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (s *Sequencer) stallErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrStall, s.cfg.StallTimeout)
	}
	return err
}
