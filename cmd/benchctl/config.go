package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/aesctl/internal/protocol"
)

// vectorFile is the benchctl vectors.toml shape: named key/plaintext
// pairs, hex-encoded.
type vectorFile struct {
	Vectors []vectorEntry `toml:"vectors"`
}

type vectorEntry struct {
	Name      string `toml:"name"`
	Key       string `toml:"key"`
	Plaintext string `toml:"plaintext"`
}

type vector struct {
	Name      string
	Key       [protocol.KeySize]byte
	Plaintext [protocol.BlockSize]byte
}

func loadVectorFile(path string) ([]vector, error) {
	var raw vectorFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	if len(raw.Vectors) == 0 {
		return nil, fmt.Errorf("load vectors: %s defines no vectors", path)
	}
	out := make([]vector, 0, len(raw.Vectors))
	for i, entry := range raw.Vectors {
		v, err := parseVector(entry)
		if err != nil {
			return nil, fmt.Errorf("vectors[%d] invalid: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseVector(entry vectorEntry) (vector, error) {
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return vector{}, fmt.Errorf("name is required")
	}
	key, err := parseHexBlock(entry.Key)
	if err != nil {
		return vector{}, fmt.Errorf("key: %w", err)
	}
	pt, err := parseHexBlock(entry.Plaintext)
	if err != nil {
		return vector{}, fmt.Errorf("plaintext: %w", err)
	}
	return vector{Name: name, Key: key, Plaintext: pt}, nil
}

func parseHexBlock(s string) ([16]byte, error) {
	var out [16]byte
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return out, err
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("want 16 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// defaultVectors covers the published AES-128 references: the all-zero
// key/block pair and the FIPS-197 appendix B example.
func defaultVectors() []vector {
	fips := vector{Name: "fips197-example"}
	for i := range fips.Key {
		fips.Key[i] = byte(i)
	}
	ptHex, _ := hex.DecodeString("00112233445566778899aabbccddeeff")
	copy(fips.Plaintext[:], ptHex)

	return []vector{
		{Name: "zero"},
		fips,
	}
}
