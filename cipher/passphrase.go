// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package cipher

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/host"
)

// MinDictionaryKey is the shortest passphrase FromDictionary will extract.
const MinDictionaryKey = 8

var notKeyChar = regexp.MustCompile(`[^a-zA-Z0-9 .]`)

// NormalizeDictionary returns the normalized form of dictionary text from
// which passphrases are extracted: line feeds are dropped, carriage returns
// become spaces, everything other than ASCII letters, digits, space and "."
// is removed, and spaces become "_".
func NormalizeDictionary(text string) string {
	text = strings.ReplaceAll(text, "\n", "")
	text = strings.ReplaceAll(text, "\r", " ")
	text = notKeyChar.ReplaceAllString(text, "")
	return strings.ReplaceAll(text, " ", "_")
}

// FromDictionary derives a passphrase from a dictionary file shared by both
// parties, by taking length characters at offset from the normalized text.
// Two parties holding the same file and parameters derive the same key
// without transmitting it.
func FromDictionary(path string, offset, length int) (string, error) {
	if offset < 0 || length < MinDictionaryKey {
		return "", fmt.Errorf("cipher: invalid dictionary range (offset %d, length %d)", offset, length)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cipher: %w", err)
	}
	text := NormalizeDictionary(string(data))
	if len(text) < offset+length {
		return "", fmt.Errorf("cipher: dictionary too short (%d < %d)", len(text), offset+length)
	}
	return text[offset : offset+length], nil
}

// DefaultPassphrase returns a passphrase derived from the identity of the
// local machine. Values that cannot be determined fall back to fixed strings,
// so the result is stable for a given host.
func DefaultPassphrase() string {
	hostID, hostName := "CrYpToR1", "cRyPtOr2"
	if info, err := host.Info(); err == nil {
		if len(info.HostID) >= 8 {
			hostID = info.HostID
		}
		if len(info.Hostname) >= 5 {
			hostName = info.Hostname
		}
	}
	return hostID + "_" + hostName
}
