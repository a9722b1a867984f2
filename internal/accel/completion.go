package accel

import "context"

// CompletionMode selects how operation completion is observed.
type CompletionMode int

const (
	// Polled spins on the status register until the done bit is set,
	// then clears it.
	Polled CompletionMode = iota

	// Notified blocks on an external completion notification. The
	// notifier (interrupt or transport layer) calls Sequencer.Notify,
	// which clears the hardware done bit and signals the waiter.
	Notified
)

func (m CompletionMode) String() string {
	switch m {
	case Notified:
		return "notified"
	default:
		return "polled"
	}
}

// completer is the sequencer's single suspension point: wait blocks
// until the in-flight operation completes.
type completer interface {
	wait(ctx context.Context) error
}

type polledCompleter struct {
	regs Registers
}

func (p polledCompleter) wait(ctx context.Context) error {
	for {
		if p.regs.ReadWord(RegCtrl)&StatusDone != 0 {
			p.regs.WriteWord(RegCtrl, CtrlClearDone)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

type notifiedCompleter struct {
	ch <-chan struct{}
}

func (n notifiedCompleter) wait(ctx context.Context) error {
	select {
	case <-n.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
