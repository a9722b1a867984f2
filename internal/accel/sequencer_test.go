package accel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/aesctl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

type regOp struct {
	write bool
	off   uint32
	val   uint32
}

// mockAccel models the register contract and records every access so
// tests can assert command ordering. The "ciphertext" is key XOR
// plaintext per word, enough to prove packing flows through.
type mockAccel struct {
	ops []regOp

	keyW [4]uint32
	ptW  [4]uint32
	ctW  [4]uint32

	status    uint32
	initBusy  int
	busyPolls int
	pending   int
	stuck     bool
	notify    func()

	starts          int
	startsWhileBusy int
}

func (m *mockAccel) ReadWord(off uint32) uint32 {
	m.ops = append(m.ops, regOp{off: off})
	switch off {
	case RegCT0, RegCT1, RegCT2, RegCT3:
		return m.ctW[(off-RegCT0)/4]
	case RegCtrl:
		if m.initBusy > 0 {
			m.initBusy--
			if m.initBusy == 0 {
				m.status &^= StatusBusy
			}
		} else if m.status&StatusBusy != 0 && !m.stuck {
			m.pending--
			if m.pending <= 0 {
				m.status &^= StatusBusy
				m.status |= StatusDone
			}
		}
		return m.status
	}
	return 0
}

func (m *mockAccel) WriteWord(off, val uint32) {
	m.ops = append(m.ops, regOp{write: true, off: off, val: val})
	switch off {
	case RegKey0, RegKey1, RegKey2, RegKey3:
		m.keyW[(off-RegKey0)/4] = val
	case RegPT0, RegPT1, RegPT2, RegPT3:
		m.ptW[(off-RegPT0)/4] = val
	case RegCtrl:
		if val&CtrlNotifyEn != 0 {
			m.status |= StatusNotifyEn
		}
		if val&CtrlClearDone != 0 {
			m.status &^= StatusDone
		}
		if val&CtrlStart != 0 {
			m.starts++
			if m.status&StatusBusy != 0 {
				m.startsWhileBusy++
			}
			for i := range m.ctW {
				m.ctW[i] = m.keyW[i] ^ m.ptW[i]
			}
			if m.stuck {
				m.status |= StatusBusy
				return
			}
			if m.status&StatusNotifyEn != 0 && m.notify != nil {
				m.status |= StatusDone
				m.notify()
			} else {
				m.status |= StatusBusy
				m.pending = m.busyPolls
			}
		}
	}
}

// fakeCounter returns canned down-counter samples in order.
type fakeCounter struct {
	samples []uint32
	next    int
}

func (f *fakeCounter) Cycles() uint32 {
	v := f.samples[f.next]
	f.next++
	return v
}

func (m *mockAccel) findOp(write bool, off uint32, mask uint32) int {
	for i, op := range m.ops {
		if op.write == write && op.off == off && (mask == 0 || op.val&mask != 0) {
			return i
		}
	}
	return -1
}

func testKeyPT() (key, pt [16]byte) {
	for i := 0; i < 16; i++ {
		key[i] = byte(i)
		pt[i] = byte(0x80 + i)
	}
	return key, pt
}

func TestExecutePolledLifecycle(t *testing.T) {
	testlog.Start(t)

	m := &mockAccel{busyPolls: 3}
	counter := &fakeCounter{samples: []uint32{1000, 400}}
	seq := NewSequencer(m, counter, Config{Mode: Polled}, zerolog.Nop())

	key, pt := testKeyPT()
	res, err := seq.Execute(context.Background(), key, pt)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	kw, pw := PackWords(key), PackWords(pt)
	var xorW [4]uint32
	for i := range xorW {
		xorW[i] = kw[i] ^ pw[i]
	}
	wantCT := UnpackWords(xorW)
	if res.Ciphertext != wantCT {
		t.Fatalf("ciphertext: got % 02x want % 02x", res.Ciphertext, wantCT)
	}
	if res.Cycles != 600 {
		t.Fatalf("cycles: got %d want 600", res.Cycles)
	}

	if m.starts != 1 {
		t.Fatalf("start asserted %d times", m.starts)
	}
	if m.startsWhileBusy != 0 {
		t.Fatalf("start asserted while busy")
	}

	startIdx := m.findOp(true, RegCtrl, CtrlStart)
	clearIdx := m.findOp(true, RegCtrl, CtrlClearDone)
	ctIdx := m.findOp(false, RegCT0, 0)
	if startIdx < 0 || clearIdx < 0 || ctIdx < 0 {
		t.Fatalf("missing lifecycle ops: start=%d clear=%d ct=%d", startIdx, clearIdx, ctIdx)
	}
	if !(startIdx < clearIdx && clearIdx < ctIdx) {
		t.Fatalf("lifecycle out of order: start=%d clear=%d ct=%d", startIdx, clearIdx, ctIdx)
	}
	keyIdx := m.findOp(true, RegKey3, 0)
	ptIdx := m.findOp(true, RegPT3, 0)
	if keyIdx < 0 || ptIdx < 0 || keyIdx > startIdx || ptIdx > startIdx {
		t.Fatalf("key/plaintext not loaded before start: key=%d pt=%d start=%d", keyIdx, ptIdx, startIdx)
	}

	st := seq.Stats()
	if st.Operations != 1 || st.LastCycles != 600 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestExecuteWaitsOutStrayBusyState(t *testing.T) {
	testlog.Start(t)

	m := &mockAccel{busyPolls: 1, initBusy: 4, status: StatusBusy}
	counter := &fakeCounter{samples: []uint32{100, 50}}
	seq := NewSequencer(m, counter, Config{Mode: Polled}, zerolog.Nop())

	key, pt := testKeyPT()
	if _, err := seq.Execute(context.Background(), key, pt); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if m.startsWhileBusy != 0 {
		t.Fatalf("start asserted before stray busy state cleared")
	}
}

func TestExecuteNotifiedMode(t *testing.T) {
	testlog.Start(t)

	m := &mockAccel{}
	counter := &fakeCounter{samples: []uint32{5000, 3000}}
	seq := NewSequencer(m, counter, Config{Mode: Notified}, zerolog.Nop())
	m.notify = seq.Notify

	if m.status&StatusNotifyEn == 0 {
		t.Fatalf("notification not enabled at setup")
	}

	key, pt := testKeyPT()
	res, err := seq.Execute(context.Background(), key, pt)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Cycles != 2000 {
		t.Fatalf("cycles: got %d want 2000", res.Cycles)
	}
	if m.status&StatusDone != 0 {
		t.Fatalf("notifier must clear the done bit")
	}
}

func TestExecuteStallWatchdog(t *testing.T) {
	testlog.Start(t)

	m := &mockAccel{stuck: true}
	counter := &fakeCounter{samples: []uint32{1, 1}}
	seq := NewSequencer(m, counter, Config{Mode: Polled, StallTimeout: 20 * time.Millisecond}, zerolog.Nop())

	key, pt := testKeyPT()
	_, err := seq.Execute(context.Background(), key, pt)
	if !errors.Is(err, ErrStall) {
		t.Fatalf("expected ErrStall, got %v", err)
	}
}
