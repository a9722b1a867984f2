// Package accel owns accelerator control sequencing.
//
// Ownership boundary:
// - register map and access interface
// - big-endian word packing contract
// - start/busy/done lifecycle and completion wait
// - cycle-delta measurement
package accel
