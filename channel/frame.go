// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package channel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// FrameVersion is the version of the frame format written by this package.
const FrameVersion = 0

// maxFramePayload bounds the payload size accepted by ReadFrom.
const maxFramePayload = 16 << 20

// A Frame is the unit of transmission of a Stream channel.
//
// The binary format of a frame is an 8-byte header followed by the payload:
//
//	'C' 'K' <version> <type> <length: uint32 big-endian>
type Frame struct {
	Version byte
	Type    FrameType
	Payload []byte
}

// Encode encodes f in binary format.
func (f Frame) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(f.Payload)))
	if _, err := f.WriteTo(buf); err != nil {
		panic(fmt.Errorf("encoding frame: %w", err))
	}
	return buf.Bytes()
}

// WriteTo writes the frame to w in binary format. It satisfies io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	buf := [8]byte{'C', 'K', f.Version, byte(f.Type)}
	binary.BigEndian.PutUint32(buf[4:], uint32(len(f.Payload)))
	nw, err := w.Write(buf[:])
	if err == nil && len(f.Payload) != 0 {
		var np int
		np, err = w.Write(f.Payload)
		nw += np
	}
	return int64(nw), err
}

// ReadFrom reads a frame from r in binary format. It satisfies io.ReaderFrom.
func (f *Frame) ReadFrom(r io.Reader) (int64, error) {
	var buf [8]byte
	nr, err := io.ReadFull(r, buf[:])
	if err != nil {
		return int64(nr), fmt.Errorf("short frame header: %w", err)
	}
	if v := string(buf[:3]); v != "CK\x00" {
		return int64(nr), fmt.Errorf("invalid frame version %q", v)
	}

	f.Version = buf[2]
	f.Type = FrameType(buf[3])
	f.Payload = nil

	psize := binary.BigEndian.Uint32(buf[4:])
	if psize > maxFramePayload {
		return int64(nr), fmt.Errorf("frame payload too large (%d bytes)", psize)
	} else if psize > 0 {
		f.Payload = make([]byte, int(psize))
		var np int
		np, err = io.ReadFull(r, f.Payload)
		nr += np
		if err != nil {
			err = fmt.Errorf("short payload: %w", err)
		}
	}
	return int64(nr), err
}

// String returns a human-friendly rendering of the frame.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame(CK%v, %v, %q)", f.Version, f.Type, truncate(string(f.Payload), 48))
}

// FrameType describes the content of a frame.
type FrameType byte

const (
	FrameHello   FrameType = 1 // identity announcement
	FrameMessage FrameType = 2 // encoded message
	FrameBye     FrameType = 3 // orderly departure
)

func (t FrameType) String() string {
	switch t {
	case FrameHello:
		return "HELLO"
	case FrameMessage:
		return "MESSAGE"
	case FrameBye:
		return "BYE"
	default:
		return fmt.Sprintf("TYPE:%d", byte(t))
	}
}

// truncate returns a prefix of s no longer than n bytes that does not end in
// a partial UTF-8 encoding.
func truncate(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && s[n-1]&0xc0 == 0x80 {
		n--
	}
	if n > 0 && s[n-1]&0xc0 == 0xc0 {
		n--
	}
	return s[:n]
}
