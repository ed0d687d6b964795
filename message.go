// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// A Message is the envelope exchanged over a channel.
type Message struct {
	ID         string       // opaque unique identifier
	Subject    string       // optional subject line
	Body       string       // message text
	Sender     *Recipient   // originator
	Recipients []*Recipient // addressees, in insertion order

	ErrorCode int  // 0 for success, otherwise a domain-specific failure
	Type      int  // free-form classification set by a transport
	Code      int  // auxiliary result code
	Async     bool // false if the sender expects a correlated reply

	Created  time.Time // when the message was created
	Received time.Time // when the message was received, zero for outbound
}

// NewMessage constructs an asynchronous message with a fresh random ID.
func NewMessage(body, subject string, sender *Recipient) *Message {
	return &Message{
		ID:      NewID(),
		Subject: subject,
		Body:    body,
		Sender:  sender,
		Async:   true,
		Created: time.Now(),
	}
}

// NewID returns a fresh random token suitable for a message or instance ID.
func NewID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// String returns a human-friendly rendering of the message.
func (m *Message) String() string {
	mode := "ASYNC"
	if !m.Async {
		mode = "SYNC"
	}
	return fmt.Sprintf("Message(ID=%s, %s|%d, From=%v, To=%d, Body=%q)",
		m.ID, mode, m.ErrorCode, m.Sender, len(m.Recipients), truncate(m.Body, 64))
}

// Line tags of the message text format.
const (
	tagSync    = "SYNC"
	tagAsync   = "ASYNC"
	tagTime    = "TIME:"
	tagIID     = "IID:"
	tagWSID    = "WSID:"
	tagIP      = "IP:"
	tagFrom    = "FROM:"
	tagSubject = "SUBJECT:"
	tagBody    = "BODY:"

	timeFormat = "2006-01-02T15:04:05.0000000-07:00"
)

// MarshalText encodes m in the line-oriented message format. It implements
// encoding.TextMarshaler.
//
// The first line is "SYNC|<code>" or "ASYNC|<code>", followed by TIME, IID,
// WSID, IP and FROM lines, an optional SUBJECT line, and finally BODY and the
// body text. Lines are separated by CRLF.
func (m *Message) MarshalText() ([]byte, error) {
	sender := m.Sender
	if sender == nil {
		sender = new(Recipient)
	}
	ts := m.Created
	if ts.IsZero() {
		ts = time.Now()
	}
	var sb strings.Builder
	line := func(tag, value string) { sb.WriteString(tag); sb.WriteString(value); sb.WriteString("\r\n") }

	mode := tagAsync
	if !m.Async {
		mode = tagSync
	}
	line(mode, "|"+strconv.Itoa(m.ErrorCode))
	line(tagTime, ts.Format(timeFormat))
	line(tagIID, sender.Address)
	line(tagWSID, sender.MachineID)
	line(tagIP, sender.IP4Address)
	line(tagFrom, sender.NickName+"|"+sender.Name)
	if m.Subject != "" {
		line(tagSubject, m.Subject)
	}
	sb.WriteString(tagBody)
	sb.WriteString(m.Body)
	return []byte(sb.String()), nil
}

// UnmarshalText decodes data in the message format into m, replacing the
// sender, body, subject, timestamps and status fields. It implements
// encoding.TextUnmarshaler.
//
// Decoding is forgiving: a line that does not begin with a known tag, or is
// too short to hold one, is folded into the body; everything after the BODY
// tag is body text, with lines joined by "\r". Input that has no BODY line
// decodes with ErrorCode set to CodeMalformed and does not report an error.
func (m *Message) UnmarshalText(data []byte) error {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	sender := new(Recipient)
	m.Sender = sender
	m.Async = true
	m.ErrorCode = 0
	m.Subject = ""
	m.Received = time.Now()

	var body []string
	sawHeader, sawBody := false, false
	for i, ln := range lines {
		if rest, ok := strings.CutPrefix(ln, tagBody); ok {
			body = append(body, strings.TrimSpace(rest))
			body = append(body, lines[i+1:]...)
			sawBody = true
			break
		}
		if !sawHeader && (strings.HasPrefix(ln, tagSync) || strings.HasPrefix(ln, tagAsync)) {
			sawHeader = true
			m.Async = strings.HasPrefix(ln, tagAsync)
			if _, code, ok := strings.Cut(ln, "|"); ok {
				if v, err := strconv.Atoi(strings.TrimSpace(code)); err == nil {
					m.ErrorCode = v
				}
			}
			continue
		}

		// Lines too short to hold a tag, and unknown tags, become body text.
		k := strings.IndexByte(ln, ':')
		if k < 0 {
			body = append(body, ln)
			continue
		}
		value := strings.TrimSpace(ln[k+1:])
		switch ln[:k+1] {
		case tagTime:
			if t, err := time.Parse(timeFormat, value); err == nil {
				m.Created = t
			} else if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
				m.Created = t
			}
		case tagIID:
			sender.Address = value
		case tagWSID:
			sender.MachineID = value
		case tagIP:
			sender.IP4Address = value
		case tagFrom:
			if nick, name, ok := strings.Cut(value, "|"); ok {
				sender.NickName, sender.Name = nick, name
			} else {
				sender.Name = value
			}
		case tagSubject:
			m.Subject = value
		default:
			body = append(body, ln)
		}
	}

	m.Body = strings.Join(body, "\r")
	if !sawBody && m.ErrorCode == 0 {
		m.ErrorCode = CodeMalformed
	}
	return nil
}

// truncate returns a prefix of a UTF-8 string s, having length no greater than
// n bytes.  If s exceeds this length, it is truncated at a point ≤ n so that
// the result does not end in a partial UTF-8 encoding.
func truncate(s string, n int) string {
	if n >= len(s) {
		return s
	}

	// Back up until we find the beginning of a UTF-8 encoding.
	for n > 0 && s[n-1]&0xc0 == 0x80 { // 0x10... is a continuation byte
		n--
	}

	// If we're at the beginning of a multi-byte encoding, back up one more to
	// skip it. It's possible the value was already complete, but it's simpler
	// if we only have to check in one direction.
	if n > 0 && s[n-1]&0xc0 == 0xc0 { // 0x11... starts a multibyte encoding
		n--
	}
	return s[:n]
}
