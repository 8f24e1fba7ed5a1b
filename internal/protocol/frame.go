// Package protocol implements the chat wire protocol: length-prefixed frames
// carrying one encoded Message each.
//
// A frame is a 4-byte little-endian unsigned length followed by exactly that
// many body bytes. The body is a Message serialized with the protobuf wire
// format (see codec.go).
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the frame length prefix in bytes.
const HeaderSize = 4

// DefaultMaxFrameSize bounds the declared body length accepted by ReadFrame.
const DefaultMaxFrameSize = 4 << 20

var (
	// ErrProtocol reports malformed, truncated or otherwise undecodable input.
	ErrProtocol = errors.New("protocol error")

	// ErrFrameTooLarge reports a frame whose declared length exceeds the limit.
	// It wraps ErrProtocol.
	ErrFrameTooLarge = fmt.Errorf("%w: frame too large", ErrProtocol)
)

// EncodeFrame prepends the length header to body.
func EncodeFrame(body []byte) []byte {
	buf := make([]byte, HeaderSize+len(body))
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[HeaderSize:], body)
	return buf
}

// DecodeHeader returns the body length encoded in the first HeaderSize bytes of hdr.
func DecodeHeader(hdr []byte) (uint32, error) {
	if len(hdr) < HeaderSize {
		return 0, fmt.Errorf("%w: short header (%d bytes)", ErrProtocol, len(hdr))
	}
	return binary.LittleEndian.Uint32(hdr[:HeaderSize]), nil
}

// ReadFrame reads one frame from r and returns its body.
//
// A clean end of stream before the header yields io.EOF. A header declaring
// more than maxSize bytes yields ErrFrameTooLarge and the body is not read.
// A stream ending inside the header or the body yields ErrProtocol.
func ReadFrame(r io.Reader, maxSize uint32) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", ErrProtocol)
		}
		return nil, err
	}

	n, _ := DecodeHeader(hdr[:])
	if n > maxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, n, maxSize)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated body", ErrProtocol)
		}
		return nil, err
	}

	return body, nil
}

// WriteFrame writes body to w as a single frame.
func WriteFrame(w io.Writer, body []byte) error {
	_, err := w.Write(EncodeFrame(body))
	return err
}
