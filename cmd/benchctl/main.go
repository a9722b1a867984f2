package main

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/aesctl/internal/observability"
	"github.com/danmuck/aesctl/internal/protocol"
	"github.com/danmuck/aesctl/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "benchctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:7700", "tcp link endpoint")
	device := flag.String("device", "", "serial link device (overrides -addr)")
	baud := flag.Int("baud", 115200, "serial baud rate")
	count := flag.Int("count", 1, "iterations per vector")
	keyHex := flag.String("key", "", "single custom key, 16 bytes hex")
	ptHex := flag.String("plaintext", "", "single custom plaintext, 16 bytes hex")
	vectorsPath := flag.String("vectors", "", "vectors.toml with named key/plaintext pairs")
	flag.Parse()

	logger := observability.InitLogger("benchctl")

	vectors, err := selectVectors(*vectorsPath, *keyHex, *ptHex)
	if err != nil {
		return err
	}

	conn, err := dial(*device, *baud, *addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	drainBanner(conn)

	failed := 0
	for _, v := range vectors {
		if err := benchVector(conn, v, *count, logger); err != nil {
			logger.Error().Err(err).Str("vector", v.Name).Msg("vector failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d vectors failed", failed, len(vectors))
	}
	return nil
}

func selectVectors(path, keyHex, ptHex string) ([]vector, error) {
	if path != "" {
		return loadVectorFile(path)
	}
	if keyHex != "" || ptHex != "" {
		v, err := parseVector(vectorEntry{Name: "custom", Key: keyHex, Plaintext: ptHex})
		if err != nil {
			return nil, err
		}
		return []vector{v}, nil
	}
	return defaultVectors(), nil
}

func dial(device string, baud int, addr string) (io.ReadWriteCloser, error) {
	if device != "" {
		return transport.OpenSerial(device, baud)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// drainBanner discards any startup text the device prints on the link
// before binary traffic begins.
func drainBanner(conn io.Reader) {
	d, ok := conn.(interface{ SetReadDeadline(time.Time) error })
	if !ok {
		return
	}
	buf := make([]byte, 512)
	for {
		d.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}
	d.SetReadDeadline(time.Time{})
}

func benchVector(conn io.ReadWriter, v vector, count int, logger zerolog.Logger) error {
	expected, err := softwareReference(v)
	if err != nil {
		return err
	}

	var minC, maxC uint32
	var sum uint64
	for i := 0; i < count; i++ {
		resp, err := oneRequest(conn, v)
		if err != nil {
			return err
		}
		if !bytes.Equal(resp.Ciphertext[:], expected[:]) {
			return fmt.Errorf("ciphertext mismatch: got %s want %s",
				hex.EncodeToString(resp.Ciphertext[:]), hex.EncodeToString(expected[:]))
		}
		if i == 0 || resp.Cycles < minC {
			minC = resp.Cycles
		}
		if resp.Cycles > maxC {
			maxC = resp.Cycles
		}
		sum += uint64(resp.Cycles)
	}

	logger.Info().
		Str("vector", v.Name).
		Int("count", count).
		Uint32("cycles_min", minC).
		Uint32("cycles_max", maxC).
		Uint64("cycles_avg", sum/uint64(count)).
		Msg("vector verified")
	return nil
}

func oneRequest(conn io.ReadWriter, v vector) (protocol.Response, error) {
	req := protocol.Request{Key: v.Key, Plaintext: v.Plaintext}
	if _, err := conn.Write(protocol.EncodeRequest(req)); err != nil {
		return protocol.Response{}, fmt.Errorf("write request: %w", err)
	}
	raw := make([]byte, protocol.ResponseSize)
	if _, err := io.ReadFull(conn, raw); err != nil {
		return protocol.Response{}, fmt.Errorf("read response: %w", err)
	}
	return protocol.ParseResponse(raw)
}

func softwareReference(v vector) ([16]byte, error) {
	var out [16]byte
	block, err := aes.NewCipher(v.Key[:])
	if err != nil {
		return out, err
	}
	block.Encrypt(out[:], v.Plaintext[:])
	return out, nil
}
