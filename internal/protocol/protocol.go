package protocol

import "encoding/binary"

// Wire sizes. A request is key + plaintext + marker; a response is
// ciphertext + a 32-bit cycle count.
const (
	KeySize    = 16
	BlockSize  = 16
	MarkerSize = 2

	RequestSize  = KeySize + BlockSize + MarkerSize
	ResponseSize = BlockSize + 4
)

// Marker terminates every request frame. It is a protocol convention,
// not an escape scheme: the same byte pair may legally occur inside
// key or plaintext material.
const (
	MarkerLo byte = 0xFF
	MarkerHi byte = 0xFF
)

// Request is one validated encryption request.
type Request struct {
	Key       [KeySize]byte
	Plaintext [BlockSize]byte
}

// Response is the result of one accelerator operation.
type Response struct {
	Ciphertext [BlockSize]byte
	Cycles     uint32
}

// HasMarker reports whether b begins with the frame marker pair.
func HasMarker(b []byte) bool {
	return len(b) >= MarkerSize && b[0] == MarkerLo && b[1] == MarkerHi
}

// ParseRequest validates a full 34-byte window and extracts the request.
func ParseRequest(b []byte) (Request, error) {
	if len(b) < RequestSize {
		return Request{}, ErrShortRequest
	}
	if len(b) > RequestSize {
		return Request{}, ErrTrailingBytes
	}
	if !HasMarker(b[KeySize+BlockSize:]) {
		return Request{}, ErrInvalidMarker
	}
	var req Request
	copy(req.Key[:], b[0:KeySize])
	copy(req.Plaintext[:], b[KeySize:KeySize+BlockSize])
	return req, nil
}

// EncodeRequest renders the 34-byte wire form of req.
func EncodeRequest(req Request) []byte {
	buf := make([]byte, RequestSize)
	copy(buf[0:KeySize], req.Key[:])
	copy(buf[KeySize:KeySize+BlockSize], req.Plaintext[:])
	buf[KeySize+BlockSize] = MarkerLo
	buf[KeySize+BlockSize+1] = MarkerHi
	return buf
}

// EncodeResponse renders the 20-byte wire form: ciphertext followed by
// the cycle count, little-endian.
func EncodeResponse(resp Response) []byte {
	buf := make([]byte, ResponseSize)
	copy(buf[0:BlockSize], resp.Ciphertext[:])
	binary.LittleEndian.PutUint32(buf[BlockSize:], resp.Cycles)
	return buf
}

// ParseResponse decodes a 20-byte response frame.
func ParseResponse(b []byte) (Response, error) {
	if len(b) < ResponseSize {
		return Response{}, ErrShortResponse
	}
	if len(b) > ResponseSize {
		return Response{}, ErrTrailingBytes
	}
	var resp Response
	copy(resp.Ciphertext[:], b[0:BlockSize])
	resp.Cycles = binary.LittleEndian.Uint32(b[BlockSize:])
	return resp, nil
}
