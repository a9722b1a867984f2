package protocol

import "errors"

var (
	ErrShortRequest  = errors.New("protocol: short request frame")
	ErrShortResponse = errors.New("protocol: short response frame")
	ErrInvalidMarker = errors.New("protocol: invalid frame marker")
	ErrTrailingBytes = errors.New("protocol: trailing bytes after frame")
)
