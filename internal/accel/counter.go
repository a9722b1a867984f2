package accel

// CycleCounter samples a free-running, auto-reloading down-counter.
type CycleCounter interface {
	Cycles() uint32
}

// Elapsed computes the cycles spent between two samples of a
// down-counter. Unsigned subtraction keeps the delta correct across
// the auto-reload boundary; a wrap occurring exactly between the two
// samples is an accepted measurement artifact.
func Elapsed(start, end uint32) uint32 {
	return start - end
}
