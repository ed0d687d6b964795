// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"fmt"

	"github.com/creachadair/mds/queue"
)

// MaxErrors is the number of error records retained by an ErrorLog.
const MaxErrors = 50

// An ErrorRecord is one entry in an ErrorLog.
type ErrorRecord struct {
	*Error
	Seq uint64 // insertion order, starting at 1
}

// String renders r as "code|method|message|explanation".
func (r ErrorRecord) String() string {
	return fmt.Sprintf("%d|%s|%s|%s", r.Code, r.Method, r.messageText(), r.Explain)
}

func (r ErrorRecord) messageText() string {
	if r.Message == "" && r.Err != nil {
		return r.Err.Error()
	}
	return r.Message
}

// An ErrorLog is a bounded FIFO of the most recent errors reported by a
// channel. When full, adding a record discards the oldest one. The zero value
// is ready for use.
type ErrorLog struct {
	q   queue.Queue[ErrorRecord]
	seq uint64
}

// Add appends e to the log, discarding the oldest record if the log is full.
// It returns the record that was added.
func (l *ErrorLog) Add(e *Error) ErrorRecord {
	l.seq++
	rec := ErrorRecord{Error: e, Seq: l.seq}
	l.q.Add(rec)
	for l.q.Len() > MaxErrors {
		l.q.Pop()
	}
	return rec
}

// Len reports the number of records in the log.
func (l *ErrorLog) Len() int { return l.q.Len() }

// Peek returns the record at offset i from the oldest, without removing it.
func (l *ErrorLog) Peek(i int) (ErrorRecord, bool) { return l.q.Peek(i) }

// Pop removes and returns the oldest record.
func (l *ErrorLog) Pop() (ErrorRecord, bool) { return l.q.Pop() }

// All returns a copy of the records in the log, oldest first.
func (l *ErrorLog) All() []ErrorRecord {
	out := make([]ErrorRecord, 0, l.q.Len())
	for i := 0; i < l.q.Len(); i++ {
		rec, _ := l.q.Peek(i)
		out = append(out, rec)
	}
	return out
}

// Clear discards all records in the log.
func (l *ErrorLog) Clear() { l.q.Clear() }
