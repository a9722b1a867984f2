// Package protocol owns the byte-stream wire contract.
//
// Ownership boundary:
// - request/response frame layout and sizes
// - marker sentinel bytes
// - encode/parse primitives
package protocol
