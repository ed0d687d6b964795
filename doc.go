// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package compack defines interchangeable message channels.
//
// A [Channel] is one configured transport instance. Every transport exposes
// the same operations: configure it through its settings, call Open and LogIn,
// and thereafter exchange messages with CreateMessage and SendMessage
// (outbound) and MessagesWaiting and GetMessage (inbound). The channel package
// provides the concrete transports.
//
// # Core Services
//
// Each channel owns a [Core] holding the state shared by all transports:
//
//   - Typed [Settings], assigned by name with [Core.Set] and read back with
//     [Core.Setting]. Values that fail to parse fall back to the default for
//     the setting.
//   - A bounded [ErrorLog] of the 50 most recent errors. Every failure reported
//     by a channel operation is also recorded here.
//   - A leveled debug log written to a per-identity file in the LOGDIR
//     directory, enabled by a nonzero DEBUG setting. Use [SweepLogs] to remove
//     log files from previous days.
//   - The outbound queue and the current message slot.
//   - Optional body encryption, controlled by the ENCRYPT setting. See the
//     cipher package.
//
// # Errors
//
// Channel operations report failures as [*Error] values carrying a numeric
// result code. Use [Code] to recover the code from an error, and [errors.Is]
// to test for the sentinels [ErrNotOpen], [ErrTimeout], [ErrUnsupported] and
// [ErrNoRecipient].
//
// # Messages
//
// A [Message] is encoded for transport in a line-oriented text format:
//
//	ASYNC|0
//	TIME:2026-01-02T15:04:05.0000000+00:00
//	IID:<sender instance ID>
//	WSID:<sender machine>
//	IP:<sender IPv4 address>
//	FROM:<nick>|<name>
//	SUBJECT:<subject>
//	BODY:<body text>
//
// The first line is SYNC for a message whose sender waits for a reply. Use
// [NextMessage] to render received messages for display according to the
// MSGFORMAT setting.
//
// # Metrics
//
// Channels maintain a collection of counters, shared by all channels in the
// process. Use [Metrics] to obtain the [expvar.Map] containing them:
//
//   - messages_sent: counter of messages written to a transport
//   - messages_send_failed: counter of messages that could not be written
//   - messages_received: counter of messages delivered to the caller
//   - messages_bounced: counter of synchronous messages refused by an
//     asynchronous receiver
//   - replies_sent: counter of synchronous replies written
//   - reply_timeouts: counter of synchronous sends that timed out
//   - presence_writes: counter of presence records written
//   - errors_recorded: counter of errors added to error logs
package compack
