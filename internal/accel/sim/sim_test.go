package sim

import (
	"bytes"
	"context"
	"crypto/aes"
	"encoding/hex"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/aesctl/internal/accel"
	"github.com/danmuck/aesctl/internal/testutil/testlog"
)

func TestZeroVectorMatchesPublishedCiphertext(t *testing.T) {
	testlog.Start(t)

	acc := New()
	seq := accel.NewSequencer(acc, acc, accel.Config{Mode: accel.Polled}, zerolog.Nop())

	var key, pt [16]byte
	res, err := seq.Execute(context.Background(), key, pt)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// AES-128 of the all-zero block under the all-zero key.
	want, _ := hex.DecodeString("66e94bd4ef8a2c3b884cfa59ca342b2e")
	if !bytes.Equal(res.Ciphertext[:], want) {
		t.Fatalf("zero vector: got %s want %s",
			hex.EncodeToString(res.Ciphertext[:]), hex.EncodeToString(want))
	}
}

func TestRoundTripThroughRegisterPacking(t *testing.T) {
	testlog.Start(t)

	acc := New(WithBusyPolls(5))
	seq := accel.NewSequencer(acc, acc, accel.Config{Mode: accel.Polled}, zerolog.Nop())

	var key, pt [16]byte
	for i := 0; i < 16; i++ {
		key[i] = byte(0x30 + i)
		pt[i] = byte(0xC0 + i)
	}
	res, err := seq.Execute(context.Background(), key, pt)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// Decrypting with the software reference must recover the
	// plaintext; this pins the big-endian register packing end to end.
	block, err := aes.NewCipher(key[:])
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	var recovered [16]byte
	block.Decrypt(recovered[:], res.Ciphertext[:])
	if recovered != pt {
		t.Fatalf("round trip: got % 02x want % 02x", recovered, pt)
	}
}

func TestNotifiedModeCompletes(t *testing.T) {
	testlog.Start(t)

	acc := New(WithLatency(777))
	seq := accel.NewSequencer(acc, acc, accel.Config{Mode: accel.Notified}, zerolog.Nop())
	acc.SetNotify(seq.Notify)

	var key, pt [16]byte
	res, err := seq.Execute(context.Background(), key, pt)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Cycles != 777 {
		t.Fatalf("cycles: got %d want 777", res.Cycles)
	}
	if acc.ReadWord(accel.RegCtrl)&accel.StatusDone != 0 {
		t.Fatalf("done bit not cleared by notifier")
	}
}

func TestCounterCountsDown(t *testing.T) {
	acc := New(WithLatency(100))
	seq := accel.NewSequencer(acc, acc, accel.Config{Mode: accel.Polled}, zerolog.Nop())

	before := acc.Cycles()
	var key, pt [16]byte
	res, err := seq.Execute(context.Background(), key, pt)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	after := acc.Cycles()
	if after >= before {
		t.Fatalf("counter must count down: before=%d after=%d", before, after)
	}
	if res.Cycles != 100 {
		t.Fatalf("cycles: got %d want 100", res.Cycles)
	}
}
