// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package channel provides implementations of the compack.Channel interface.
//
// The [File] channel exchanges messages through a shared directory. The
// [Stream] channel exchanges framed messages with a single peer over a
// connection. Use [New] to construct a channel by kind name.
package channel

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/creachadair/compack"
)

// New constructs an unopened channel of the given kind. The kinds "file" and
// "comfile" select a File channel; "stream", "tcp", "comtcp" and "chat" select
// a Stream channel that dials its SERVER setting when opened.
func New(kind string) (compack.Channel, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "file", "comfile":
		return NewFile(), nil
	case "stream", "tcp", "comtcp", "chat", "comchat":
		return NewStream(nil), nil
	}
	return nil, fmt.Errorf("%w: unknown channel kind %q", compack.ErrBadConfig, kind)
}

// A Conn sends and receives frames. A Conn must allow concurrent use by one
// sender and one receiver.
type Conn interface {
	Send(*Frame) error
	Recv() (*Frame, error)
	Close() error
}

// directBuffer is the number of frames a Direct connection buffers in each
// direction before Send blocks.
const directBuffer = 64

// Direct constructs a connected pair of in-memory connections that pass frames
// directly without encoding into binary. Frames sent to A are received by B
// and vice versa. Closing either connection closes both.
func Direct() (A, B Conn) {
	a2b := make(chan *Frame, directBuffer)
	b2a := make(chan *Frame, directBuffer)
	done := make(chan struct{})
	stop := sync.OnceFunc(func() { close(done) })
	A = direct{send: a2b, recv: b2a, done: done, stop: stop}
	B = direct{send: b2a, recv: a2b, done: done, stop: stop}
	return
}

type direct struct {
	send chan<- *Frame
	recv <-chan *Frame
	done <-chan struct{}
	stop func()
}

// Send implements a method of the [Conn] interface.
func (d direct) Send(f *Frame) error {
	select {
	case <-d.done:
		return net.ErrClosed
	default:
	}
	select {
	case d.send <- f:
		return nil
	case <-d.done:
		return net.ErrClosed
	}
}

// Recv implements a method of the [Conn] interface.
func (d direct) Recv() (*Frame, error) {
	select {
	case f := <-d.recv:
		return f, nil
	default:
	}
	select {
	case f := <-d.recv:
		return f, nil
	case <-d.done:
		return nil, net.ErrClosed
	}
}

// Close implements a method of the [Conn] interface.
func (d direct) Close() error { d.stop(); return nil }

// IO constructs a connection that receives from r and sends to wc.
func IO(r io.Reader, wc io.WriteCloser) IOConn {
	// N.B. The bufio package will reuse existing buffers if possible.
	return IOConn{r: bufio.NewReader(r), w: bufio.NewWriter(wc), c: wc}
}

// An IOConn sends and receives frames on a reader and a writer.
type IOConn struct {
	r *bufio.Reader
	w *bufio.Writer
	c io.Closer
}

// Send implements a method of the [Conn] interface.
func (c IOConn) Send(f *Frame) error {
	if _, err := f.WriteTo(c.w); err != nil {
		return err
	}
	return c.w.Flush()
}

// Recv implements a method of the [Conn] interface.
func (c IOConn) Recv() (*Frame, error) {
	var f Frame
	if _, err := f.ReadFrom(c.r); err != nil {
		return nil, err
	}
	return &f, nil
}

// Close implements a method of the [Conn] interface.
func (c IOConn) Close() error { return c.c.Close() }
