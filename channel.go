// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"errors"
	"fmt"
)

// A Channel is one configured transport instance. Callers configure the
// channel through its settings, then call Open and LogIn, and thereafter
// exchange messages with CreateMessage/SendMessage (outbound) and
// MessagesWaiting/GetMessage (inbound).
//
// A nil error corresponds to result code 0. Any other result is reported as a
// *Error, which is also recorded in the error ring of the channel's Core.
//
// The methods of a Channel are not safe for concurrent use.
type Channel interface {
	// Open establishes readiness: bind, connect, or verify storage access.
	Open() error

	// Close releases resources. Close is idempotent.
	Close() error

	// LogIn validates and normalizes the caller's identity.
	LogIn(user, password string) error

	// MessagesWaiting reports the number of inbound messages available.
	MessagesWaiting() int

	// GetMessage moves the oldest available inbound message into the current
	// message slot. It reports false if no message is available, and it does
	// not block.
	GetMessage() bool

	// SendMessage flushes the entire outbound queue, one message at a time.
	// A failure for one message does not prevent the rest being sent.
	SendMessage() error

	// CreateMessage builds a message for the given address and enqueues it.
	// If the address cannot be resolved the message is discarded.
	CreateMessage(address, body, subject string) error

	// AddRecipient attaches another resolved contact to the most recently
	// created message.
	AddRecipient(address string) error

	// ACKMessage replies to the current message with the given result code.
	// Transports without a reply primitive report ErrUnsupported.
	ACKMessage(code int) error

	// GetContactList rebuilds and returns the known-contacts view.
	GetContactList() string

	// Core returns the shared state and services of the channel.
	Core() *Core
}

// Result codes reported by channel operations.
const (
	CodeOK              = 0
	CodeNoUser          = 1    // username missing or too short
	CodeNoServer        = 2    // server missing or too short
	CodeNoRecipient     = 3    // address did not resolve
	CodeMalformed       = 4    // message file could not be parsed
	CodeReplyInvalid    = 6    // synchronous reply could not be read
	CodeTimeout         = 7    // no synchronous reply before the deadline
	CodePresenceOpen    = 9    // presence file could not be written at open
	CodeWaitNotOpen     = 16   // MessagesWaiting on a closed channel
	CodeBadLogin        = 17   // login name rejected
	CodePresenceWrite   = 21   // presence file write failed
	CodePresenceDelete  = 22   // presence file delete failed
	CodeACKNotOpen      = 31   // ACKMessage on a closed channel
	CodeFlagDelete      = 33   // flag file delete failed
	CodeMessageDelete   = 34   // message file delete failed
	CodeCreate          = 35   // message could not be created
	CodeSendNotOpen     = 36   // SendMessage on a closed channel
	CodeSendFailed      = 37   // message could not be written
	CodeDecrypt         = 59   // body could not be decrypted
	CodeNoCurrent       = 99   // no current message
	CodeShortAddress    = 107  // recipient address too short
	CodeStreamRead      = 701  // stream receive failed
	CodeStreamHello     = 702  // stream hello failed
	CodeStreamDial      = 703  // stream connection failed
	CodeStreamSend      = 705  // stream send failed
	CodeKeySet          = 901  // passphrase could not be set
	CodeKeyDictionary   = 902  // dictionary key derivation failed
	CodeKeySpec         = 903  // ENCRYPT setting could not be applied
	CodeUnsupported     = 1000 // operation not supported by the transport
	CodeAsyncRecipient  = 1001 // synchronous message refused by an asynchronous receiver
	codeUnknownSentinel = -1
)

// Sentinel errors wrapped by *Error values. Use errors.Is to test for them.
var (
	ErrNotOpen        = errors.New("channel is not open")
	ErrTimeout        = errors.New("timed out waiting for reply")
	ErrUnsupported    = errors.New("operation not supported by this transport")
	ErrNoRecipient    = errors.New("recipient not found")
	ErrBadConfig      = errors.New("invalid channel configuration")
	ErrUnknownSetting = errors.New("unknown setting")
)

// Error is the concrete type of errors reported by channel operations.  It
// records the numeric result code, the operation that reported it, and any
// underlying cause.
type Error struct {
	Code    int    // numeric result code, never 0
	Method  string // originating operation, e.g. "File.Open"
	Message string // short description
	Explain string // free-text explanation, may be empty
	Err     error  // underlying cause, may be nil
}

// Unwrap reports the underlying cause of e, or nil.
func (e *Error) Unwrap() error { return e.Err }

// Error satisfies the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Method != "" {
		return fmt.Sprintf("[code %d] %s: %s", e.Code, e.Method, msg)
	}
	return fmt.Sprintf("[code %d] %s", e.Code, msg)
}

// Code reports the result code for err. It returns CodeOK if err == nil, the
// code of the first *Error in the chain of err, or -1 for other errors.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return codeUnknownSentinel
}
