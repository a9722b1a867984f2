package accel

import "testing"

func TestPackWordsBigEndian(t *testing.T) {
	var b [16]byte
	for i := range b {
		b[i] = byte(i)
	}

	w := PackWords(b)
	want := [4]uint32{0x00010203, 0x04050607, 0x08090A0B, 0x0C0D0E0F}
	if w != want {
		t.Fatalf("packed words: got %08x want %08x", w, want)
	}

	if got := UnpackWords(w); got != b {
		t.Fatalf("unpack not inverse of pack: got % 02x", got)
	}
}

func TestElapsedDownCounter(t *testing.T) {
	if got := Elapsed(1000, 400); got != 600 {
		t.Fatalf("elapsed: got %d want 600", got)
	}
}

func TestElapsedWrapsAcrossReload(t *testing.T) {
	// Counter reloaded between samples: start near zero, end near max.
	// Unsigned subtraction still yields the positive delta.
	if got := Elapsed(5, 0xFFFFFFF0); got != 21 {
		t.Fatalf("elapsed across wrap: got %d want 21", got)
	}
}
