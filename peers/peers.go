// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package peers provides support code for managing and testing stream
// channels.
package peers

import (
	"context"
	"errors"
	"net"

	"github.com/creachadair/compack/channel"
	"github.com/creachadair/taskgroup"
)

// Local is a pair of in-memory connected stream channels, suitable for
// testing. Both channels are open and logged in.
type Local struct {
	A *channel.Stream
	B *channel.Stream
}

// Stop closes both channels.
func (p *Local) Stop() error {
	aerr := p.A.Close()
	berr := p.B.Close()
	return errors.Join(aerr, berr)
}

// NewLocal creates a pair of in-memory connected stream channels logged in
// as userA and userB, that communicate via a direct connection without
// encoding.
func NewLocal(userA, userB string) (*Local, error) {
	a2b, b2a := channel.Direct()
	loc := &Local{A: channel.NewStream(a2b), B: channel.NewStream(b2a)}
	for _, c := range []struct {
		s    *channel.Stream
		user string
	}{{loc.A, userA}, {loc.B, userB}} {
		if err := c.s.LogIn(c.user, ""); err != nil {
			loc.Stop()
			return nil, err
		} else if err := c.s.Open(); err != nil {
			loc.Stop()
			return nil, err
		}
	}
	return loc, nil
}

// An Accepter accepts connections for stream channels.
type Accepter interface {
	Accept(context.Context) (channel.Conn, error)
}

// Loop accepts connections from acc and, for each one, opens a stream channel
// configured by setup and passes it to handle in a goroutine. The channel is
// closed when handle returns. Loop continues until acc closes or ctx ends.
//
// When acc closes, the loop waits for running handlers to exit before
// returning. Handlers should return promptly once their context ends.
func Loop(ctx context.Context, acc Accepter, setup func(*channel.Stream) error, handle func(context.Context, *channel.Stream) error) error {
	g := taskgroup.New(nil)
	for {
		conn, err := acc.Accept(ctx)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				err = nil
			}
			g.Wait()
			return err
		}

		g.Go(func() error {
			s := channel.NewStream(conn)
			if setup != nil {
				if err := setup(s); err != nil {
					conn.Close()
					return err
				}
			}
			if err := s.Open(); err != nil {
				conn.Close()
				return err
			}
			defer s.Close()
			return handle(ctx, s)
		})
	}
}

// NetAccepter adapts a net.Listener to the Accepter interface.
func NetAccepter(lst net.Listener) Accepter {
	return netAccepter{Listener: lst}
}

type netAccepter struct {
	net.Listener
}

func (n netAccepter) Accept(ctx context.Context) (channel.Conn, error) {
	// A net.Listener does not obey a context, so simulate it by closing the
	// listener if ctx ends. The ok channel allows the context watcher to clean
	// up when we return before ctx ends.
	ok := make(chan struct{})
	defer close(ok)
	taskgroup.Go(func() error {
		select {
		case <-ctx.Done():
			n.Listener.Close()
		case <-ok:
			// release the waiter
		}
		return nil
	})

	conn, err := n.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return channel.IO(conn, conn), nil
}
