// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"fmt"
	"strconv"
	"strings"
)

// Bits of the MSGFORMAT mask understood by FormatMessage.
const (
	FormatSubject = 1 << 0 // subject line
	FormatFrom    = 1 << 1 // sender name|nick|address
	FormatWSID    = 1 << 2 // sender machine
	FormatIID     = 1 << 3 // message ID
	FormatInfo    = 1 << 4 // mode|error code|result code
	FormatLabels  = 1 << 7 // prefix each field with its label
)

// FormatMessage renders m for a caller according to the given MSGFORMAT mask.
// Selected fields are emitted in the order INFO, IID, WSID, FROM, SUBJECT, each
// terminated by "\r", followed by the body. When the FormatLabels bit is set
// each field is prefixed by its label ("INFO: ", "IID: " and so on) and the
// body by "BODY: ". A mask of 0 yields the body alone.
func FormatMessage(m *Message, mask byte) string {
	if mask == 0 {
		return m.Body
	}
	labels := mask&FormatLabels != 0
	sender := m.Sender
	if sender == nil {
		sender = new(Recipient)
	}

	var sb strings.Builder
	field := func(bit byte, label, value string) {
		if mask&bit == 0 {
			return
		}
		if labels {
			sb.WriteString(label + ": ")
		}
		sb.WriteString(value)
		sb.WriteByte('\r')
	}
	mode := tagAsync
	if !m.Async {
		mode = tagSync
	}
	field(FormatInfo, "INFO", mode+"|"+strconv.Itoa(m.ErrorCode)+"|"+strconv.Itoa(m.Code))
	field(FormatIID, "IID", m.ID)
	field(FormatWSID, "WSID", sender.MachineID)
	field(FormatFrom, "FROM", sender.Name+"|"+sender.NickName+"|"+sender.Address)
	field(FormatSubject, "SUBJECT", m.Subject)
	if labels {
		sb.WriteString("BODY: ")
	}
	sb.WriteString(m.Body)
	return sb.String()
}

// NextMessage returns the current message of ch, or failing that the next
// available inbound message, formatted according to the MSGFORMAT setting.
// The message is consumed. If no message is available, NextMessage returns
// the error placeholder "<Channel Error: 99 - null msg>".
func NextMessage(ch Channel) string {
	c := ch.Core()
	m := c.Current()
	if m == nil && ch.GetMessage() {
		m = c.Current()
	}
	if m == nil {
		return fmt.Sprintf("<Channel Error: %d - null msg>", CodeNoCurrent)
	}
	c.SetCurrent(nil)
	if m.Body == "" && m.ErrorCode != 0 {
		return fmt.Sprintf("<Channel Error: %d>\r", m.ErrorCode)
	}
	out := FormatMessage(m, c.Settings.MsgFormat)
	c.Debug(8, "next message", "mask", fmt.Sprintf("%02X", c.Settings.MsgFormat), "result", truncate(out, 128))
	return out
}
