// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/creachadair/compack/cipher"
	"github.com/creachadair/mds/queue"
)

// DefaultDictionary is the name of the shared dictionary file, relative to
// the SERVER directory, used when an ENCRYPT setting does not name one.
const DefaultDictionary = "dictionary.txt"

// defaultDictLength is the passphrase length used when a dictionary spec or
// a rekey request does not give one.
const defaultDictLength = 20

// A Core holds the state and services shared by every channel transport:
// settings, the error ring, the debug log, the outbound queue and the current
// message slot. A Core is owned by exactly one channel and is not safe for
// concurrent use.
type Core struct {
	Settings   Settings
	Errors     ErrorLog
	Contacts   Contacts
	InstanceID string   // random identifier of this channel instance
	Kind       string   // transport kind, reported by the NAME setting
	Type       int      // transport type code, reported by the TYPE setting
	MsgCount   int64    // messages received
	Host       HostInfo // local machine identity

	dlog     debugLog
	outbound queue.Queue[*Message]
	current  *Message
	last     *Message

	cryptor  *cipher.Cryptor
	dictPath string
}

// NewCore constructs a Core for a transport of the given kind and type code,
// with default settings and a fresh instance ID.
func NewCore(kind string, typ int) *Core {
	return &Core{
		Settings:   DefaultSettings(),
		InstanceID: NewID(),
		Kind:       kind,
		Type:       typ,
		Host:       LocalHost(),
	}
}

// Set assigns the named setting. See Settings.Set.
func (c *Core) Set(name, value string) error {
	if err := c.Settings.Set(name, value); err != nil {
		return err
	}
	c.Debug(8, "setting changed", "key", name)
	return nil
}

// Setting returns the value of the named setting, including the read-only
// settings MSGCOUNT, NAME and TYPE.
func (c *Core) Setting(name string) (any, error) {
	key, err := ParseKey(name)
	if err != nil {
		return nil, err
	}
	switch key {
	case KeyMsgCount:
		return c.MsgCount, nil
	case KeyName:
		return c.Kind, nil
	case KeyType:
		return c.Type, nil
	}
	return c.Settings.Get(name)
}

// MachineName reports the machine ID advertised by this channel: the MACHINE
// setting if present, otherwise the local host name.
func (c *Core) MachineName() string {
	if c.Settings.Machine != "" {
		return c.Settings.Machine
	}
	return c.Host.MachineID
}

// Self returns a recipient describing this channel instance.
func (c *Core) Self(transport int) *Recipient {
	r := NewRecipient(c.Settings.UserName)
	if c.Settings.Nick != "" {
		r.NickName = c.Settings.Nick
	}
	r.Address = c.InstanceID
	r.Transport = transport
	r.MachineID = c.MachineName()
	r.IP4Address = c.Host.IP4Address
	r.IP6Address = c.Host.IP6Address
	r.MACAddress = c.Host.MACAddress
	r.PortIn = c.Settings.PortIn
	r.PortOut = c.Settings.PortOut
	return r
}

// AddError records an error in the error ring and the debug log, and returns
// it. If cause is a sentinel such as ErrNotOpen, errors.Is reports it through
// the returned value.
func (c *Core) AddError(code int, method, msg, explain string, cause error) *Error {
	e := &Error{Code: code, Method: method, Message: msg, Explain: explain, Err: cause}
	rec := c.Errors.Add(e)
	rootMetrics.errors.Add(1)
	c.Debug(0, "error", "seq", rec.Seq, "code", code, "method", method, "msg", rec.messageText(), "explain", explain)
	return e
}

// Current returns the current message, or nil if there is none.
func (c *Core) Current() *Message { return c.current }

// SetCurrent replaces the current message.
func (c *Core) SetCurrent(m *Message) { c.current = m }

// TakeCurrent returns the current message and clears the slot.
func (c *Core) TakeCurrent() *Message {
	m := c.current
	c.current = nil
	return m
}

// Enqueue adds m to the outbound queue. A message with a body and no sender is
// rejected.
func (c *Core) Enqueue(m *Message) error {
	if m == nil || (m.Body != "" && m.Sender == nil) {
		return fmt.Errorf("%w: message has no sender", ErrBadConfig)
	}
	c.outbound.Add(m)
	c.last = m
	return nil
}

// PopOutbound removes and returns the oldest queued outbound message.
func (c *Core) PopOutbound() (*Message, bool) { return c.outbound.Pop() }

// Outbound reports the number of queued outbound messages.
func (c *Core) Outbound() int { return c.outbound.Len() }

// ClearOutbound discards all queued outbound messages.
func (c *Core) ClearOutbound() {
	c.outbound.Clear()
	c.last = nil
}

// Last returns the most recently enqueued message, or nil if the outbound
// queue has been cleared since.
func (c *Core) Last() *Message { return c.last }

// Encrypted reports whether outbound bodies are currently enciphered.
func (c *Core) Encrypted() bool {
	c.applyEncrypt()
	return c.cryptor != nil
}

// SetEncryption enables encryption with the given passphrase.
func (c *Core) SetEncryption(passphrase string) error {
	cr, err := cipher.New(passphrase)
	if err != nil {
		c.cryptor = nil
		return c.AddError(CodeKeySet, "Core.SetEncryption", "failed to set encryption", "", err)
	}
	c.cryptor = cr
	c.Debug(2, "encryption enabled")
	return nil
}

// SetEncryptionFromDictionary enables encryption with a passphrase extracted
// from the given dictionary file. An empty path selects DefaultDictionary in
// the SERVER directory.
func (c *Core) SetEncryptionFromDictionary(path string, offset, length int) error {
	if path == "" {
		path = filepath.Join(c.Settings.Server, DefaultDictionary)
	}
	c.dictPath = path
	pp, err := cipher.FromDictionary(path, offset, length)
	if err != nil {
		c.cryptor = nil
		return c.AddError(CodeKeyDictionary, "Core.SetEncryptionFromDictionary",
			"failed to set encryption from dictionary", path, err)
	}
	return c.SetEncryption(pp)
}

// applyEncrypt applies a pending change to the ENCRYPT setting. The setting
// has one of the forms
//
//	KEY:<passphrase>
//	LOC:<offset>[,<length>[,<file>]]
//	DEFAULT
//	<passphrase>
//
// where DEFAULT selects a passphrase derived from the local machine, and an
// empty value disables encryption.
func (c *Core) applyEncrypt() {
	if !c.Settings.encryptPending {
		return
	}
	c.Settings.encryptPending = false
	spec := c.Settings.Encrypt
	if spec == "" {
		c.cryptor = nil
		return
	}
	if strings.EqualFold(strings.TrimSpace(spec), "DEFAULT") {
		c.SetEncryption(cipher.DefaultPassphrase())
		return
	}
	if pp, ok := strings.CutPrefix(spec, "KEY:"); ok {
		c.SetEncryption(strings.TrimSpace(pp))
		return
	}
	loc, ok := strings.CutPrefix(spec, "LOC:")
	if !ok {
		c.SetEncryption(spec)
		return
	}
	parts := strings.SplitN(loc, ",", 3)
	offset, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		c.cryptor = nil
		c.AddError(CodeKeySpec, "Core.SetEncryption", "invalid dictionary offset", spec, err)
		return
	}
	length, path := defaultDictLength, ""
	if len(parts) > 1 {
		length = parseInt(strings.TrimSpace(parts[1]), defaultDictLength)
	}
	if len(parts) > 2 {
		path = strings.TrimSpace(parts[2])
	}
	c.SetEncryptionFromDictionary(path, offset, length)
}

// SealBody returns body enciphered if encryption is enabled, otherwise body.
func (c *Core) SealBody(body string) string {
	c.applyEncrypt()
	if c.cryptor == nil || body == "" {
		return body
	}
	return c.cryptor.Seal(body)
}

// OpenBody reverses SealBody on a received body. A body that is not sealed is
// returned as-is. A body that fails to decrypt is recorded as an error and
// returned undecrypted.
//
// A body of the form "[CRYPTORSET]<offset>" requests a rekey from the shared
// dictionary; it is applied and OpenBody reports rekey == true.
func (c *Core) OpenBody(body string) (_ string, rekey bool) {
	c.applyEncrypt()
	if rest, ok := strings.CutPrefix(body, cipher.SetMarker); ok {
		offset, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			c.AddError(CodeKeySpec, "Core.OpenBody", "invalid rekey request", body, err)
			return body, false
		}
		c.SetEncryptionFromDictionary(c.dictPath, offset, defaultDictLength)
		return "", true
	}
	if !cipher.IsSealed(body) {
		return body, false
	}
	if c.cryptor == nil {
		c.AddError(CodeDecrypt, "Core.OpenBody", "invalid encrypted message", "no passphrase is set", nil)
		return body, false
	}
	plain, _, err := c.cryptor.Unseal(body)
	if err != nil {
		c.AddError(CodeDecrypt, "Core.OpenBody", "invalid encrypted message", truncate(body, 64), err)
		return body, false
	}
	return plain, false
}

// Close releases the resources held by c.
func (c *Core) Close() error { return c.dlog.close() }
