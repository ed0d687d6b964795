// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package channel

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creachadair/compack"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// File name extensions used by the file rendezvous protocol.
const (
	ExtPresence = ".HSK" // presence record of one instance
	ExtMessage  = ".MSG" // message content
	ExtUnread   = ".SEM" // flag: message not yet picked up
	ExtReply    = ".RPL" // flag: reply written to the message file
)

// FileType is the transport type code reported by a File channel.
const FileType = 1

// counterDigits is the width of the counter in a message file name.
const counterDigits = 10

// maxNameProbes bounds the number of names a sender tries before giving up on
// creating a message file.
const maxNameProbes = 1000

// bounceText is the body of the reply sent for a synchronous message received
// by an asynchronous channel.
const bounceText = "Recipient is not set for synchronous communications"

var validate = validator.New()

// fileIdentity is the configuration a File channel requires to open.
type fileIdentity struct {
	Server   string `validate:"min=3"`
	UserName string `validate:"min=3"`
}

// A File is a channel that exchanges messages through a directory shared by
// the participants, with no server process.
//
// Each open channel maintains a presence record <user>_<machine>.HSK in the
// directory named by the SERVER setting. A message to a contact is written as
// a pair of files named <user>_<machine>-<counter> after the recipient: the
// .MSG file holds the encoded message, and the empty .SEM file marks it as
// unread. The receiver claims a message by deleting its .SEM file.
//
// When the ASYNC setting is false, SendMessage waits up to TIMEOUT for the
// receiver to reply. The receiver replies with ACKMessage, which rewrites the
// same .MSG file and adds an empty .RPL flag.
type File struct {
	core    *compack.Core
	self    *compack.Recipient
	prefix  string // presence name: <user>_<machine>
	counter int64  // last message counter used
	open    bool
}

var _ compack.Channel = (*File)(nil)

// NewFile constructs a new, unopened file channel with default settings.
func NewFile() *File { return &File{core: compack.NewCore("file", FileType)} }

// Core implements a method of the [compack.Channel] interface.
func (f *File) Core() *compack.Core { return f.core }

// Prefix reports the presence name of the channel, or "" if it is not open.
func (f *File) Prefix() string { return f.prefix }

func (f *File) server() string { return f.core.Settings.Server }

func (f *File) path(name string) string { return filepath.Join(f.server(), name) }

func (f *File) presencePath() string { return f.path(f.prefix + ExtPresence) }

// Open implements a method of the [compack.Channel] interface. It verifies the
// SERVER directory and writes the presence record of the channel.
func (f *File) Open() error {
	const method = "File.Open"
	id := fileIdentity{Server: f.server(), UserName: f.core.Settings.UserName}
	if err := validate.Struct(id); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) != 0 && verrs[0].Field() == "Server" {
			return f.core.AddError(compack.CodeNoServer, method,
				"server is not defined (must be 3 or more characters)", "", compack.ErrBadConfig)
		}
		return f.core.AddError(compack.CodeNoUser, method,
			"username is not defined (must be 3 or more characters)", "", compack.ErrBadConfig)
	}
	if fi, err := os.Stat(f.server()); err != nil {
		return f.core.AddError(compack.CodeNoServer, method, "server is not accessible", f.server(), err)
	} else if !fi.IsDir() {
		return f.core.AddError(compack.CodeNoServer, method, "server is not a directory", f.server(), compack.ErrBadConfig)
	}

	f.bind()
	f.open = true
	f.core.Debug(0, "channel opened", "kind", f.core.Kind, "prefix", f.prefix)
	if dir := f.core.Settings.LogDir; dir != "" {
		if n, err := compack.SweepLogs(dir, time.Now()); err != nil {
			f.core.Debug(1, "log sweep failed", "dir", dir, "err", err)
		} else if n != 0 {
			f.core.Debug(1, "swept old logs", "dir", dir, "removed", n)
		}
	}
	if err := f.heartbeat(); err != nil {
		f.open = false
		return f.core.AddError(compack.CodePresenceOpen, method, "cannot write presence record", f.presencePath(), err)
	}
	return nil
}

// bind computes the identity of the channel from its settings.
func (f *File) bind() {
	f.self = f.core.Self(compack.TransportFile)
	f.prefix = compack.SanitizeName(f.core.Settings.UserName) + "_" + f.core.MachineName()
	f.self.Key = f.prefix
}

// heartbeat rewrites the presence record of the channel. It is a no-op if the
// channel is not open.
func (f *File) heartbeat() error {
	if !f.open {
		return nil
	}
	text := strings.Join([]string{
		time.Now().Format("2006-01-02 15:04:05 -07:00"),
		f.core.Settings.UserName,
		f.core.MachineName(),
		f.core.InstanceID,
	}, "\r\n")
	if err := f.replaceFile(f.presencePath(), []byte(text)); err != nil {
		f.core.AddError(compack.CodePresenceWrite, "File.heartbeat", "cannot write presence record", f.presencePath(), err)
		return err
	}
	f.core.Count(compack.MetricPresence)
	return nil
}

// replaceFile replaces the contents of path with data. The data are written
// to a temporary file in the same directory and renamed into place, so that a
// concurrent reader sees either the old contents or the new, never a partial
// file.
func (f *File) replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hsk-*.tmp")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(data)
	merr := tmp.Chmod(0o644)
	cerr := tmp.Close()
	if err := errors.Join(werr, merr, cerr); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Close implements a method of the [compack.Channel] interface. It removes the
// presence record of the channel. Closing a closed channel does nothing.
func (f *File) Close() error {
	if !f.open {
		return nil
	}
	f.heartbeat()
	f.open = false
	var err error
	if rerr := os.Remove(f.presencePath()); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
		err = f.core.AddError(compack.CodePresenceDelete, "File.Close", "cannot delete presence record", f.presencePath(), rerr)
	}
	f.core.Debug(0, "channel closed", "prefix", f.prefix)
	f.core.Close()
	return err
}

// illegalNameChars are the characters not permitted in a login name.
const illegalNameChars = `?\/:%$#[]{};'"`

// validLoginName reports whether user has at least 3 characters, all of them
// printable ASCII, and none of them in illegalNameChars.
func validLoginName(user string) bool {
	return len(user) >= 3 && !strings.ContainsAny(user, illegalNameChars) &&
		!strings.ContainsFunc(user, func(r rune) bool { return r < 32 || r > 127 })
}

// LogIn implements a method of the [compack.Channel] interface. No password is
// required; the user name must have at least 3 printable ASCII characters and
// may not contain any of the characters ?\/:%$#[]{};'".
func (f *File) LogIn(user, password string) error {
	if !validLoginName(user) {
		f.core.Settings.UserName = ""
		return f.core.AddError(compack.CodeBadLogin, "File.LogIn", "invalid user name", user, compack.ErrBadConfig)
	}
	f.core.Settings.UserName = user
	if f.core.Settings.Nick == "" {
		f.core.Settings.Nick = user
	}
	if f.open {
		old := f.presencePath()
		f.bind()
		if old != f.presencePath() {
			os.Remove(old)
		}
		f.heartbeat()
	}
	f.core.Debug(1, "logged in", "user", user)
	return nil
}

// pending returns the base names of unread messages addressed to this channel,
// in lexical order.
func (f *File) pending() ([]string, error) {
	entries, err := os.ReadDir(f.server())
	if err != nil {
		return nil, err
	}
	want := f.prefix + "-"
	return lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		base, ok := strings.CutSuffix(e.Name(), ExtUnread)
		if e.IsDir() || !ok {
			return "", false
		}
		// The machine name may itself contain hyphens, so the remainder must be
		// exactly a counter for the message to be ours.
		rest, ok := strings.CutPrefix(base, want)
		return base, ok && isCounter(rest)
	}), nil
}

// isCounter reports whether s is a message counter of exactly counterDigits
// decimal digits.
func isCounter(s string) bool {
	if len(s) != counterDigits {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// MessagesWaiting implements a method of the [compack.Channel] interface. It
// reports the number of unread messages addressed to this channel.
func (f *File) MessagesWaiting() int {
	if !f.open {
		f.core.AddError(compack.CodeWaitNotOpen, "File.MessagesWaiting", "channel is not open", "", compack.ErrNotOpen)
		return 0
	}
	f.heartbeat()
	names, err := f.pending()
	if err != nil {
		f.core.AddError(compack.CodeWaitNotOpen, "File.MessagesWaiting", "cannot scan server", f.server(), err)
		return 0
	}
	f.core.Debug(3, "messages waiting", "count", len(names))
	return len(names)
}

// GetMessage implements a method of the [compack.Channel] interface.
//
// Unread messages are considered in lexical order of their names. A message is
// claimed by deleting its .SEM flag; if the flag is already gone another
// reader has taken it, and the message is skipped. An asynchronous channel
// also deletes the .MSG file, while a synchronous channel leaves the .MSG file
// of a synchronous message for ACKMessage to rewrite.
//
// A synchronous message received by an asynchronous channel is not delivered.
// Instead it is answered at once with code [compack.CodeAsyncRecipient].
func (f *File) GetMessage() bool {
	const method = "File.GetMessage"
	f.core.SetCurrent(nil)
	if !f.open {
		f.core.AddError(compack.CodeWaitNotOpen, method, "channel is not open", "", compack.ErrNotOpen)
		return false
	}
	f.heartbeat()
	f.GetContactList()

	names, err := f.pending()
	if err != nil {
		f.core.AddError(compack.CodeWaitNotOpen, method, "cannot scan server", f.server(), err)
		return false
	}
	for _, name := range names {
		if err := os.Remove(f.path(name + ExtUnread)); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				f.core.AddError(compack.CodeFlagDelete, method, "cannot delete flag", name+ExtUnread, err)
			}
			continue
		}
		msg, err := f.readMessage(name)
		if errors.Is(err, fs.ErrNotExist) {
			f.core.Debug(4, "request withdrawn by sender", "name", name)
			continue
		} else if err != nil {
			f.core.AddError(compack.CodeMalformed, method, "cannot read message", name+ExtMessage, err)
			continue
		}
		f.core.Debug(5, "received", "name", name, "code", msg.ErrorCode, "from", msg.Sender.Name, "async", msg.Async)

		if !msg.Async && f.core.Settings.Async {
			msg.Body = bounceText
			msg.ErrorCode = compack.CodeAsyncRecipient
			f.swap(msg)
			if err := f.writeReply(msg); errors.Is(err, fs.ErrNotExist) {
				f.core.Debug(4, "request withdrawn by sender", "name", name)
			} else if err != nil {
				f.core.AddError(compack.CodeSendFailed, method, "cannot refuse synchronous message", name, err)
			}
			f.core.Count(compack.MetricBounced)
			continue
		}
		// Nobody waits for a reply to an asynchronous message.
		if f.core.Settings.Async || msg.Async {
			f.removeFile(method, name+ExtMessage, compack.CodeMessageDelete)
		}

		body, rekey := f.core.OpenBody(msg.Body)
		if rekey {
			f.core.Debug(2, "rekeyed from dictionary", "name", name)
			continue
		}
		msg.Body = body
		f.core.MsgCount++
		msg.Sender.MsgCount++
		f.core.Count(compack.MetricReceived)
		f.core.SetCurrent(msg)
		return true
	}
	return false
}

// readMessage reads and decodes the message file with the given base name.
// The resulting message has ID name and is addressed to this channel.
func (f *File) readMessage(name string) (*compack.Message, error) {
	data, err := os.ReadFile(f.path(name + ExtMessage))
	if err != nil {
		return nil, err
	}
	msg := new(compack.Message)
	if err := msg.UnmarshalText(data); err != nil {
		return nil, err
	}
	msg.ID = name
	msg.Recipients = []*compack.Recipient{f.self}
	if msg.ErrorCode == compack.CodeMalformed && msg.Body == "" {
		msg.Body = "malformed message " + name
	}

	// Fill in missing sender details from the contact list.
	s := msg.Sender
	if s.Name == "" || s.MachineID == "" {
		if r, ok := f.core.Contacts.Find(s.Address); ok {
			s.Name = cmp.Or(s.Name, r.Name)
			s.NickName = cmp.Or(s.NickName, r.NickName)
			s.MachineID = cmp.Or(s.MachineID, r.MachineID)
		}
	}
	s.Transport = compack.TransportFile
	s.LastContact = msg.Received
	return msg, nil
}

// swap readdresses msg as a reply from this channel to its sender.
func (f *File) swap(msg *compack.Message) {
	msg.Recipients = []*compack.Recipient{msg.Sender}
	msg.Sender = f.self
}

// encode returns the wire encoding of msg as sent by this channel.
func (f *File) encode(msg *compack.Message) ([]byte, error) {
	out := *msg
	out.Async = f.core.Settings.Async
	out.Body = f.core.SealBody(msg.Body)
	out.Created = time.Now()
	return out.MarshalText()
}

// writeReply rewrites the message file of msg in place and flags the reply.
// If the sender has withdrawn the request, no reply is left behind and the
// error reported wraps [fs.ErrNotExist].
func (f *File) writeReply(msg *compack.Message) error {
	data, err := f.encode(msg)
	if err != nil {
		return err
	}
	msgPath := f.path(msg.ID + ExtMessage)
	out, err := os.OpenFile(msgPath, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	_, werr := out.Write(data)
	if err := errors.Join(werr, out.Close()); err != nil {
		return err
	}
	if err := os.WriteFile(f.path(msg.ID+ExtReply), nil, 0o644); err != nil {
		return err
	}

	// A sender that gives up removes the message file before the reply flag,
	// so if the message file is still here the sender will see the reply or
	// clean it up.
	if _, err := os.Stat(msgPath); err != nil {
		os.Remove(f.path(msg.ID + ExtReply))
		return err
	}
	f.core.Count(compack.MetricReplies)
	return nil
}

// removeFile deletes the named file from the server directory. A file that
// does not exist is not an error.
func (f *File) removeFile(method, name string, code int) bool {
	err := os.Remove(f.path(name))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return err == nil
	}
	f.core.AddError(code, method, "cannot delete file", name, err)
	return false
}

// CreateMessage implements a method of the [compack.Channel] interface. The
// address is resolved against the presence records in the server directory.
func (f *File) CreateMessage(address, body, subject string) error {
	const method = "File.CreateMessage"
	if !f.open {
		return f.core.AddError(compack.CodeCreate, method, "channel is not open", "", compack.ErrNotOpen)
	}
	f.heartbeat()
	f.GetContactList()
	if len(address) < 3 {
		return f.core.AddError(compack.CodeShortAddress, method, "recipient address is too short", address, compack.ErrNoRecipient)
	}
	r, ok := f.core.Contacts.Find(address)
	if !ok {
		return f.core.AddError(compack.CodeNoRecipient, method, "recipient not found", address, compack.ErrNoRecipient)
	}
	msg := compack.NewMessage(body, subject, f.self)
	msg.Async = f.core.Settings.Async
	msg.Recipients = []*compack.Recipient{r}
	if err := f.core.Enqueue(msg); err != nil {
		return f.core.AddError(compack.CodeCreate, method, "cannot create message", body, err)
	}
	f.core.Debug(4, "message created", "to", r.Key, "id", msg.ID)
	return nil
}

// AddRecipient implements a method of the [compack.Channel] interface.
func (f *File) AddRecipient(address string) error {
	const method = "File.AddRecipient"
	last := f.core.Last()
	if last == nil {
		return f.core.AddError(compack.CodeNoCurrent, method, "no message to address", address, nil)
	}
	if f.open {
		f.heartbeat()
	}
	r, ok := f.core.Contacts.Find(address)
	if !ok {
		return f.core.AddError(compack.CodeNoRecipient, method, "recipient not found", address, compack.ErrNoRecipient)
	}
	last.Recipients = append(last.Recipients, r)
	f.core.Debug(4, "recipient added", "to", r.Key, "id", last.ID)
	return nil
}

// SendMessage implements a method of the [compack.Channel] interface. Each
// queued message is written once for each of its recipients. The queue is
// empty when SendMessage returns, whether or not the messages were written.
//
// In synchronous mode, SendMessage waits for each recipient to reply. The
// reply becomes the current message. If the reply carries a nonzero code,
// SendMessage reports an error with that code. If no reply arrives within the
// TIMEOUT setting, the request is withdrawn and SendMessage reports an
// error with code [compack.CodeTimeout] that wraps [compack.ErrTimeout].
func (f *File) SendMessage() error {
	defer f.core.ClearOutbound()
	if !f.open {
		return f.core.AddError(compack.CodeSendNotOpen, "File.SendMessage", "channel is not open", "", compack.ErrNotOpen)
	}
	f.heartbeat()

	var first error
	for {
		msg, ok := f.core.PopOutbound()
		if !ok {
			break
		}
		for _, r := range msg.Recipients {
			if err := f.sendOut(msg, r); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// sendOut writes msg for a single recipient, and in synchronous mode waits
// for the reply.
func (f *File) sendOut(msg *compack.Message, r *compack.Recipient) error {
	const method = "File.SendMessage"
	data, err := f.encode(msg)
	if err != nil {
		f.core.Count(compack.MetricSendFailed)
		return f.core.AddError(compack.CodeSendFailed, method, "cannot encode message", msg.ID, err)
	}
	name, err := f.create(r, data)
	if err != nil {
		f.core.Count(compack.MetricSendFailed)
		return f.core.AddError(compack.CodeSendFailed, method, "cannot write message", r.Key, err)
	}
	f.core.Count(compack.MetricSent)
	f.core.Debug(4, "message sent", "name", name, "id", msg.ID)
	if f.core.Settings.Async {
		return nil
	}
	return f.awaitReply(name)
}

// create writes data as a new message for r, and returns its base name. The
// message file is created exclusively, advancing the counter past any name
// that is already in use.
func (f *File) create(r *compack.Recipient, data []byte) (string, error) {
	stem := compack.SanitizeName(r.Name) + "_" + r.MachineID
	for range maxNameProbes {
		f.counter++
		name := fmt.Sprintf("%s-%010d", stem, f.counter)
		out, err := os.OpenFile(f.path(name+ExtMessage), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		} else if err != nil {
			return "", err
		}
		_, werr := out.Write(data)
		cerr := out.Close()
		if err := errors.Join(werr, cerr); err != nil {
			os.Remove(f.path(name + ExtMessage))
			return "", err
		}
		if err := os.WriteFile(f.path(name+ExtUnread), nil, 0o644); err != nil {
			os.Remove(f.path(name + ExtMessage))
			return "", err
		}
		return name, nil
	}
	return "", fmt.Errorf("no free message name for %q after %d attempts", stem, maxNameProbes)
}

// awaitReply polls for the reply flag of the named message until it appears
// or the TIMEOUT setting elapses.
func (f *File) awaitReply(name string) error {
	const method = "File.SendMessage"
	poll := f.core.Settings.Poll
	if poll <= 0 {
		poll = compack.DefaultPoll
	}
	deadline := time.Now().Add(f.core.Settings.Timeout)
	for {
		if _, err := os.Stat(f.path(name + ExtReply)); err == nil {
			break
		}
		left := time.Until(deadline)
		if left <= 0 {
			// Withdraw the request whether or not the receiver has claimed it.
			// The order matters to writeReply.
			f.removeFile(method, name+ExtUnread, compack.CodeFlagDelete)
			f.removeFile(method, name+ExtMessage, compack.CodeMessageDelete)
			f.removeFile(method, name+ExtReply, compack.CodeFlagDelete)
			f.core.SetCurrent(nil)
			f.core.Count(compack.MetricReplyTimeouts)
			return f.core.AddError(compack.CodeTimeout, method, "no reply", name, compack.ErrTimeout)
		}
		time.Sleep(min(poll, left))
	}

	reply, err := f.readMessage(name)
	f.removeFile(method, name+ExtReply, compack.CodeFlagDelete)
	f.removeFile(method, name+ExtMessage, compack.CodeMessageDelete)
	if err != nil {
		return f.core.AddError(compack.CodeReplyInvalid, method, "cannot read reply", name, err)
	}
	reply.Body, _ = f.core.OpenBody(reply.Body)
	f.core.SetCurrent(reply)
	f.core.Debug(4, "reply received", "name", name, "code", reply.ErrorCode)
	if reply.ErrorCode != 0 {
		return f.core.AddError(reply.ErrorCode, method, "reply reported an error", reply.Body, nil)
	}
	return nil
}

// ACKMessage implements a method of the [compack.Channel] interface. It sends
// the current message back to its sender with the given code, rewriting the
// message file in place. The current message remains set. Acknowledging an
// asynchronous message does nothing, since its sender is not waiting. If the
// sender stopped waiting and withdrew the request, ACKMessage leaves no reply
// and reports an error with code [compack.CodeTimeout].
func (f *File) ACKMessage(code int) error {
	const method = "File.ACKMessage"
	if !f.open {
		return f.core.AddError(compack.CodeACKNotOpen, method, "channel is not open", "", compack.ErrNotOpen)
	}
	f.heartbeat()
	cur := f.core.Current()
	if cur == nil || cur.ID == "" {
		return f.core.AddError(compack.CodeNoCurrent, method, "no current message", "", nil)
	}
	if cur.Async {
		f.core.Debug(4, "no reply to asynchronous message", "name", cur.ID)
		return nil
	}
	f.swap(cur)
	cur.ErrorCode = code
	if err := f.writeReply(cur); errors.Is(err, fs.ErrNotExist) {
		return f.core.AddError(compack.CodeTimeout, method, "request was withdrawn by its sender", cur.ID, compack.ErrTimeout)
	} else if err != nil {
		f.core.Count(compack.MetricSendFailed)
		return f.core.AddError(compack.CodeSendFailed, method, "cannot write reply", cur.ID, err)
	}
	f.core.Debug(4, "reply sent", "name", cur.ID, "code", code)
	return nil
}

// GetContactList implements a method of the [compack.Channel] interface. It
// rebuilds the contact list of the core from the presence records in the
// server directory, and returns one line per contact, in the format
//
//	user|machine|instance|key
//
// with lines separated by "\r". The line for this channel comes first. When
// the STALE setting is positive, contacts whose presence record is older than
// that are marked offline, and their lines end with "|offline".
func (f *File) GetContactList() string {
	if !f.open {
		return ""
	}
	f.heartbeat()
	entries, err := os.ReadDir(f.server())
	if err != nil {
		f.core.AddError(compack.CodeWaitNotOpen, "File.GetContactList", "cannot scan server", f.server(), err)
		return ""
	}
	presence := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && filepath.Ext(e.Name()) == ExtPresence
	})

	var own *compack.Recipient
	var others []*compack.Recipient
	for i, e := range presence {
		r, err := f.readPresence(i, e)
		if err != nil {
			continue // removed since the scan
		}
		if r.Key == f.prefix {
			own = r
		} else {
			others = append(others, r)
		}
	}

	f.core.Contacts.Reset()
	var lines []string
	for _, r := range append([]*compack.Recipient{own}, others...) {
		if r == nil {
			continue
		}
		f.core.Contacts.Add(r)
		line := r.Name + "|" + r.MachineID + "|" + r.Address + "|" + r.Key
		if r.OffLine {
			line += "|offline"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\r")
}

// readPresence parses the i-th presence record in the server directory.
func (f *File) readPresence(i int, e os.DirEntry) (*compack.Recipient, error) {
	data, err := os.ReadFile(f.path(e.Name()))
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\n", "")
	lines := append(strings.Split(text, "\r"), "", "", "", "")
	field := func(k int, placeholder string) string {
		if v := strings.TrimSpace(lines[k]); v != "" {
			return v
		}
		return fmt.Sprintf("%s[%d]", placeholder, i)
	}
	r := compack.NewRecipient(field(1, "User"))
	r.MachineID = field(2, "MachID")
	r.Address = field(3, "Instance")
	r.Key = strings.TrimSuffix(e.Name(), ExtPresence)
	r.Transport = compack.TransportFile
	if stale := f.core.Settings.Stale; stale > 0 {
		if fi, err := e.Info(); err == nil && time.Since(fi.ModTime()) > stale {
			r.OffLine = true
		}
	}
	return r, nil
}
