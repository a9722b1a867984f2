// Package transport owns byte-stream link plumbing. The link is
// assumed reliable and in-order; framing and recovery live in the
// protocol layer, not here.
package transport

import (
	"fmt"
	"io"
	"net"
	"os"

	"go.bug.st/serial"
)

const (
	KindSerial = "serial"
	KindTCP    = "tcp"
	KindStdio  = "stdio"
)

// OpenSerial opens the UART link at 8N1.
func OpenSerial(device string, baud int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial %s: %w", device, err)
	}
	return port, nil
}

// Listen binds the TCP link endpoint. Connections are accepted one at
// a time by the caller; the protocol supports a single peer.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return ln, nil
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }

// Stdio exposes the process's standard streams as one link, for piping
// the protocol through another program.
func Stdio() io.ReadWriteCloser {
	return stdio{}
}
