// Package frame owns request reassembly from the raw byte stream.
//
// Ownership boundary:
// - bounded reassembly buffer
// - marker detection and resynchronization
// - framing observability counters
package frame

import (
	"github.com/danmuck/aesctl/internal/protocol"
)

// ResyncMode selects how the assembler realigns after a window whose
// trailing bytes are not the marker.
type ResyncMode int

const (
	// ResyncScan is the wire-compatible default: scan the window for
	// the first marker pair and discard everything up to and including
	// it. A marker pair occurring naturally inside key or plaintext
	// material causes a false resync; the protocol has no escaping
	// scheme, so this is an accepted limitation.
	ResyncScan ResyncMode = iota

	// ResyncShift discards a single leading byte per mismatch and
	// re-evaluates. It never skips past a genuine frame boundary but
	// recovers more slowly. Off by default; only for links where
	// compatibility with the scan behavior is not required.
	ResyncShift
)

func (m ResyncMode) String() string {
	switch m {
	case ResyncShift:
		return "shift"
	default:
		return "scan"
	}
}

// Stats is a snapshot of assembler counters.
type Stats struct {
	Frames         uint64
	Resyncs        uint64
	BytesDiscarded uint64
}

// Assembler accumulates stream bytes into 34-byte request windows. It
// is owned by a single control loop; methods are not safe for
// concurrent use.
type Assembler struct {
	mode  ResyncMode
	buf   [protocol.RequestSize]byte
	n     int
	stats Stats
}

func NewAssembler(mode ResyncMode) *Assembler {
	return &Assembler{mode: mode}
}

// Feed appends one byte and evaluates the window. It returns a request
// exactly when the buffer holds a full window whose trailing bytes are
// the marker; partial buffers never produce output.
func (a *Assembler) Feed(b byte) (protocol.Request, bool) {
	if a.n < protocol.RequestSize {
		a.buf[a.n] = b
		a.n++
	}
	if a.n < protocol.RequestSize {
		return protocol.Request{}, false
	}

	req, err := protocol.ParseRequest(a.buf[:])
	if err != nil {
		a.resync()
		return protocol.Request{}, false
	}
	a.n = 0
	a.stats.Frames++
	return req, true
}

// Pending reports the number of buffered bytes awaiting a full window.
func (a *Assembler) Pending() int {
	return a.n
}

func (a *Assembler) Mode() ResyncMode {
	return a.mode
}

func (a *Assembler) Stats() Stats {
	return a.stats
}

func (a *Assembler) resync() {
	a.stats.Resyncs++

	if a.mode == ResyncShift {
		copy(a.buf[:], a.buf[1:a.n])
		a.n--
		a.stats.BytesDiscarded++
		return
	}

	// Treat a marker found mid-window as the end of a shifted prior
	// frame: drop through it, keep the tail for continued accumulation.
	for i := 0; i+protocol.MarkerSize <= a.n; i++ {
		if protocol.HasMarker(a.buf[i:a.n]) {
			tail := a.n - i - protocol.MarkerSize
			copy(a.buf[:tail], a.buf[i+protocol.MarkerSize:a.n])
			a.stats.BytesDiscarded += uint64(i + protocol.MarkerSize)
			a.n = tail
			return
		}
	}

	// No marker anywhere: the final byte may be the first half of a
	// future marker, keep it alone.
	a.buf[0] = a.buf[a.n-1]
	a.stats.BytesDiscarded += uint64(a.n - 1)
	a.n = 1
}
