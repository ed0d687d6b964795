// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package channel

import (
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/creachadair/compack"
	"github.com/creachadair/mds/queue"
	"github.com/creachadair/taskgroup"
)

// StreamType is the transport type code reported by a Stream channel.
const StreamType = 4

// A Stream is a channel that exchanges messages with a single peer over a
// connection. Messages are carried in FrameMessage frames using the same text
// encoding as the File channel.
//
// A goroutine started by Open receives frames from the connection, so
// GetMessage never blocks. Streams have no reply primitive: ACKMessage and
// AddRecipient report [compack.ErrUnsupported].
type Stream struct {
	core *compack.Core
	conn Conn
	self *compack.Recipient
	g    *taskgroup.Group
	open bool
	dial bool          // conn was dialed by Open
	done chan struct{} // closed when the receiver exits

	μ       sync.Mutex
	inbound queue.Queue[*compack.Message]
	peer    *compack.Recipient
	recvErr error
}

var _ compack.Channel = (*Stream)(nil)

// NewStream constructs a new, unopened stream channel. If conn != nil the
// channel uses it; otherwise Open dials the address in the SERVER setting.
func NewStream(conn Conn) *Stream {
	return &Stream{core: compack.NewCore("stream", StreamType), conn: conn}
}

// Core implements a method of the [compack.Channel] interface.
func (s *Stream) Core() *compack.Core { return s.core }

// Open implements a method of the [compack.Channel] interface. If the channel
// has no connection, Open dials the SERVER setting, with the PORTOUT setting
// appended if the address has no port. Addresses of the form host:port are
// dialed over TCP, and other addresses are treated as Unix socket paths.
func (s *Stream) Open() error {
	const method = "Stream.Open"
	if s.open {
		return nil
	}
	if s.conn == nil {
		addr := s.core.Settings.Server
		if len(addr) < 3 {
			return s.core.AddError(compack.CodeNoServer, method,
				"server is not defined (must be 3 or more characters)", "", compack.ErrBadConfig)
		}
		if port := s.core.Settings.PortOut; port > 0 && !strings.Contains(addr, ":") {
			addr += ":" + strconv.Itoa(port)
		}
		network, target := compack.SplitAddress(addr)
		nc, err := net.Dial(network, target)
		if err != nil {
			return s.core.AddError(compack.CodeStreamDial, method, "cannot connect", addr, err)
		}
		s.conn, s.dial = IO(nc, nc), true
	}
	s.self = s.core.Self(compack.TransportStream)
	s.self.Key = s.core.InstanceID
	s.open = true
	s.done = make(chan struct{})
	s.g = taskgroup.New(nil)
	s.g.Go(s.receive)
	s.core.Debug(0, "channel opened", "kind", s.core.Kind)
	if s.core.Settings.UserName != "" {
		return s.hello()
	}
	return nil
}

// Done returns a channel that is closed when the connection of s has closed
// or failed. It returns nil if s has never been opened.
func (s *Stream) Done() <-chan struct{} { return s.done }

// receive delivers inbound frames until the connection fails or closes.
func (s *Stream) receive() error {
	defer close(s.done)
	for {
		f, err := s.conn.Recv()
		if err != nil {
			if !isClosed(err) {
				s.μ.Lock()
				s.recvErr = err
				s.μ.Unlock()
			}
			return nil
		}
		switch f.Type {
		case FrameHello:
			peer := parseHello(f.Payload)
			s.μ.Lock()
			if peer.SameContact(s.peer) {
				// A repeated hello renames the peer but does not reset it.
				peer.OnLine = s.peer.OnLine
				peer.MsgCount = s.peer.MsgCount
			}
			s.peer = peer
			s.μ.Unlock()
		case FrameMessage:
			msg := new(compack.Message)
			msg.UnmarshalText(f.Payload) // malformed input is flagged in ErrorCode
			s.μ.Lock()
			s.inbound.Add(msg)
			s.μ.Unlock()
		case FrameBye:
			s.μ.Lock()
			if s.peer != nil {
				gone := *s.peer
				gone.OffLine = true
				s.peer = &gone
			}
			s.μ.Unlock()
		default:
			// Discard frames of unknown type.
		}
	}
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)
}

// hello announces the identity of this channel to the peer.
func (s *Stream) hello() error {
	payload := strings.Join([]string{
		s.core.Settings.UserName, s.core.MachineName(), s.core.InstanceID, s.core.Settings.Nick,
	}, "\r\n")
	if err := s.conn.Send(&Frame{Type: FrameHello, Payload: []byte(payload)}); err != nil {
		return s.core.AddError(compack.CodeStreamHello, "Stream.LogIn", "cannot send hello", "", err)
	}
	return nil
}

// parseHello decodes the payload of a hello frame.
func parseHello(data []byte) *compack.Recipient {
	lines := append(strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), "", "", "", "")
	r := compack.NewRecipient(lines[0])
	r.MachineID = lines[1]
	r.Address = lines[2]
	r.Key = lines[2]
	if lines[3] != "" {
		r.NickName = lines[3]
	}
	r.Transport = compack.TransportStream
	return r
}

// Close implements a method of the [compack.Channel] interface. It notifies
// the peer, closes the connection, and waits for the receiver to exit.
// Closing a closed channel does nothing.
func (s *Stream) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	s.conn.Send(&Frame{Type: FrameBye})
	cerr := s.conn.Close()
	s.g.Wait()
	if s.dial {
		s.conn, s.dial = nil, false
	}
	s.core.Debug(0, "channel closed")
	s.core.Close()
	if cerr != nil && !isClosed(cerr) {
		return s.core.AddError(compack.CodeStreamSend, "Stream.Close", "cannot close connection", "", cerr)
	}
	return nil
}

// LogIn implements a method of the [compack.Channel] interface. If the
// channel is open, LogIn announces the new identity to the peer.
func (s *Stream) LogIn(user, password string) error {
	if !validLoginName(user) {
		s.core.Settings.UserName = ""
		return s.core.AddError(compack.CodeBadLogin, "Stream.LogIn", "invalid user name", user, compack.ErrBadConfig)
	}
	s.core.Settings.UserName = user
	if s.core.Settings.Nick == "" {
		s.core.Settings.Nick = user
	}
	if !s.open {
		return nil
	}
	s.self = s.core.Self(compack.TransportStream)
	s.self.Key = s.core.InstanceID
	return s.hello()
}

// MessagesWaiting implements a method of the [compack.Channel] interface.
func (s *Stream) MessagesWaiting() int {
	if !s.open {
		s.core.AddError(compack.CodeWaitNotOpen, "Stream.MessagesWaiting", "channel is not open", "", compack.ErrNotOpen)
		return 0
	}
	s.μ.Lock()
	n, rerr := s.inbound.Len(), s.recvErr
	s.recvErr = nil
	s.μ.Unlock()
	if rerr != nil {
		s.core.AddError(compack.CodeStreamRead, "Stream.MessagesWaiting", "receive failed", "", rerr)
	}
	return n
}

// GetMessage implements a method of the [compack.Channel] interface.
func (s *Stream) GetMessage() bool {
	s.core.SetCurrent(nil)
	s.μ.Lock()
	msg, ok := s.inbound.Pop()
	s.μ.Unlock()
	if !ok {
		return false
	}
	msg.Sender.Transport = compack.TransportStream
	msg.Recipients = []*compack.Recipient{s.self}
	msg.Body, _ = s.core.OpenBody(msg.Body)
	s.core.MsgCount++
	s.core.Count(compack.MetricReceived)
	s.core.SetCurrent(msg)
	return true
}

// CreateMessage implements a method of the [compack.Channel] interface. The
// address must name the peer, which is known once it has sent a hello.
func (s *Stream) CreateMessage(address, body, subject string) error {
	const method = "Stream.CreateMessage"
	if !s.open {
		return s.core.AddError(compack.CodeCreate, method, "channel is not open", "", compack.ErrNotOpen)
	}
	if len(address) < 3 {
		return s.core.AddError(compack.CodeShortAddress, method, "recipient address is too short", address, compack.ErrNoRecipient)
	}
	s.GetContactList()
	r, ok := s.core.Contacts.Find(address)
	if !ok {
		return s.core.AddError(compack.CodeNoRecipient, method, "recipient not found", address, compack.ErrNoRecipient)
	}
	msg := compack.NewMessage(body, subject, s.self)
	msg.Recipients = []*compack.Recipient{r}
	if err := s.core.Enqueue(msg); err != nil {
		return s.core.AddError(compack.CodeCreate, method, "cannot create message", body, err)
	}
	return nil
}

// AddRecipient implements a method of the [compack.Channel] interface. It is
// not supported by streams.
func (s *Stream) AddRecipient(address string) error {
	return s.core.AddError(compack.CodeUnsupported, "Stream.AddRecipient", "not supported", address, compack.ErrUnsupported)
}

// SendMessage implements a method of the [compack.Channel] interface.
// Streams are always asynchronous.
func (s *Stream) SendMessage() error {
	const method = "Stream.SendMessage"
	defer s.core.ClearOutbound()
	if !s.open {
		return s.core.AddError(compack.CodeSendNotOpen, method, "channel is not open", "", compack.ErrNotOpen)
	}
	var first error
	for {
		msg, ok := s.core.PopOutbound()
		if !ok {
			break
		}
		out := *msg
		out.Async = true
		out.Body = s.core.SealBody(msg.Body)
		data, err := out.MarshalText()
		if err == nil {
			err = s.conn.Send(&Frame{Type: FrameMessage, Payload: data})
		}
		if err != nil {
			s.core.Count(compack.MetricSendFailed)
			e := s.core.AddError(compack.CodeStreamSend, method, "cannot send message", msg.ID, err)
			if first == nil {
				first = e
			}
			continue
		}
		s.core.Count(compack.MetricSent)
	}
	return first
}

// ACKMessage implements a method of the [compack.Channel] interface. It is
// not supported by streams.
func (s *Stream) ACKMessage(code int) error {
	return s.core.AddError(compack.CodeUnsupported, "Stream.ACKMessage", "not supported", "", compack.ErrUnsupported)
}

// GetContactList implements a method of the [compack.Channel] interface. The
// list contains this channel and, once it has announced itself, the peer.
func (s *Stream) GetContactList() string {
	s.core.Contacts.Reset()
	if s.self == nil {
		return ""
	}
	s.μ.Lock()
	peer := s.peer
	s.μ.Unlock()

	var lines []string
	for _, r := range []*compack.Recipient{s.self, peer} {
		if r == nil {
			continue
		}
		s.core.Contacts.Add(r)
		line := r.Name + "|" + r.MachineID + "|" + r.Address + "|" + r.Key
		if r.OffLine {
			line += "|offline"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\r")
}
