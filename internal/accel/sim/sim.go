// Package sim models the accelerator register contract in software.
//
// Ownership boundary:
// - register-accurate AES-128 model backed by crypto/aes
// - busy/done status lifecycle
// - synthetic down-counting cycle counter
//
// It backs integration tests and --sim runs without hardware attached.
package sim

import (
	"crypto/aes"
	"sync"

	"github.com/danmuck/aesctl/internal/accel"
)

// Accel implements accel.Registers and accel.CycleCounter. Status
// reads report busy for a fixed number of polls after start before the
// done bit comes up, so polled waiters actually spin.
type Accel struct {
	mu     sync.Mutex
	keyW   [4]uint32
	ptW    [4]uint32
	ctW    [4]uint32
	status uint32

	busyPolls int
	pending   int
	latency   uint32
	counter   uint32

	notify func()
}

// Option configures a simulated accelerator.
type Option func(*Accel)

// WithBusyPolls sets how many status reads report busy after start
// before the operation completes. Ignored while notification is
// enabled, where completion is signaled through the callback instead.
func WithBusyPolls(n int) Option {
	return func(a *Accel) { a.busyPolls = n }
}

// WithLatency sets the synthetic cycle cost charged per operation.
func WithLatency(cycles uint32) Option {
	return func(a *Accel) { a.latency = cycles }
}

// WithNotify installs the completion callback invoked when an
// operation finishes with notification enabled.
func WithNotify(fn func()) Option {
	return func(a *Accel) { a.notify = fn }
}

func New(opts ...Option) *Accel {
	a := &Accel{
		busyPolls: 3,
		latency:   1337,
		counter:   0xFFFFFFFF,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// SetNotify installs the completion callback after construction, for
// wiring a sequencer whose Notify method is the callback target.
func (a *Accel) SetNotify(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notify = fn
}

func (a *Accel) ReadWord(offset uint32) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch offset {
	case accel.RegCT0, accel.RegCT1, accel.RegCT2, accel.RegCT3:
		return a.ctW[(offset-accel.RegCT0)/4]
	case accel.RegCtrl:
		if a.status&accel.StatusBusy != 0 {
			a.pending--
			if a.pending <= 0 {
				a.status &^= accel.StatusBusy
				a.status |= accel.StatusDone
			}
		}
		return a.status
	}
	return 0
}

func (a *Accel) WriteWord(offset uint32, value uint32) {
	var fire func()

	a.mu.Lock()
	switch offset {
	case accel.RegKey0, accel.RegKey1, accel.RegKey2, accel.RegKey3:
		a.keyW[(offset-accel.RegKey0)/4] = value
	case accel.RegPT0, accel.RegPT1, accel.RegPT2, accel.RegPT3:
		a.ptW[(offset-accel.RegPT0)/4] = value
	case accel.RegCtrl:
		if value&accel.CtrlNotifyEn != 0 {
			a.status |= accel.StatusNotifyEn
		}
		if value&accel.CtrlClearDone != 0 {
			a.status &^= accel.StatusDone
		}
		if value&accel.CtrlStart != 0 {
			a.encrypt()
			a.counter -= a.latency
			if a.status&accel.StatusNotifyEn != 0 {
				a.status |= accel.StatusDone
				fire = a.notify
			} else {
				a.status |= accel.StatusBusy
				a.pending = a.busyPolls
			}
		}
	}
	a.mu.Unlock()

	// The callback runs unlocked: a sequencer's Notify writes the
	// clear-done command back through WriteWord.
	if fire != nil {
		fire()
	}
}

// Cycles samples the simulated free-running down-counter.
func (a *Accel) Cycles() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counter
}

func (a *Accel) encrypt() {
	key := accel.UnpackWords(a.keyW)
	pt := accel.UnpackWords(a.ptW)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		// 16-byte keys never fail NewCipher.
		panic(err)
	}
	var ct [16]byte
	block.Encrypt(ct[:], pt[:])
	a.ctW = accel.PackWords(ct)
}
