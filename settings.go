// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// A Key names one channel setting. Key names are matched without regard to
// case.
type Key string

// Recognized setting keys.
const (
	KeyAsync         Key = "ASYNC"         // bool: fire-and-forget vs. request/reply
	KeyServer        Key = "SERVER"        // directory or host path
	KeyUserName      Key = "USERNAME"      // string, set once
	KeyNick          Key = "NICK"          // string
	KeyChannel       Key = "CHANNEL"       // room or channel name (alias ROOM)
	KeyDebug         Key = "DEBUG"         // verbosity level, 0 disables logging
	KeyTimeout       Key = "TIMEOUT"       // synchronous reply window, milliseconds
	KeyEncrypt       Key = "ENCRYPT"       // passphrase or dictionary spec
	KeyPortIn        Key = "PORTIN"        // int
	KeyPortOut       Key = "PORTOUT"       // int (alias PORT)
	KeyPortHandshake Key = "PORTHANDSHAKE" // int
	KeyProtocol      Key = "PROTOCOL"      // int
	KeyMsgFormat     Key = "MSGFORMAT"     // bit mask, see FormatMessage
	KeyLogDir        Key = "LOGDIR"        // directory for debug logs
	KeyMachine       Key = "MACHINE"       // override for the machine ID
	KeyStale         Key = "STALE"         // presence staleness threshold, milliseconds; 0 disables
	KeyPoll          Key = "POLL"          // reply poll interval, milliseconds

	// Read-only keys.
	KeyMsgCount Key = "MSGCOUNT"
	KeyName     Key = "NAME"
	KeyType     Key = "TYPE"
)

var keyAliases = map[string]Key{"ROOM": KeyChannel, "PORT": KeyPortOut}

// ParseKey resolves a setting name to a Key, or reports ErrUnknownSetting.
func ParseKey(name string) (Key, error) {
	up := strings.ToUpper(strings.TrimSpace(name))
	if k, ok := keyAliases[up]; ok {
		return k, nil
	}
	switch k := Key(up); k {
	case KeyAsync, KeyServer, KeyUserName, KeyNick, KeyChannel, KeyDebug,
		KeyTimeout, KeyEncrypt, KeyPortIn, KeyPortOut, KeyPortHandshake,
		KeyProtocol, KeyMsgFormat, KeyLogDir, KeyMachine, KeyStale, KeyPoll,
		KeyMsgCount, KeyName, KeyType:
		return k, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownSetting, name)
}

// Default values for settings.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultPoll      = 10 * time.Millisecond
	DefaultMsgFormat = 0xFF
)

// Settings is the typed configuration of one channel.
type Settings struct {
	Async         bool
	Server        string
	UserName      string
	Nick          string
	Room          string
	Debug         int
	Timeout       time.Duration
	Encrypt       string
	PortIn        int
	PortOut       int
	PortHandshake int
	Protocol      int
	MsgFormat     byte
	LogDir        string
	Machine       string
	Stale         time.Duration
	Poll          time.Duration

	// encryptPending is set when Encrypt has changed and has not yet been
	// applied to the channel cipher.
	encryptPending bool
}

// DefaultSettings returns the settings of a freshly constructed channel.
func DefaultSettings() Settings {
	return Settings{
		Async:     true,
		Timeout:   DefaultTimeout,
		MsgFormat: DefaultMsgFormat,
		Poll:      DefaultPoll,
	}
}

// Set assigns the named setting from its string representation. Numeric and
// Boolean values that fail to parse fall back to the default for that key.
// Set reports ErrUnknownSetting for names it does not recognize, including
// the read-only keys.
func (s *Settings) Set(name, value string) error {
	key, err := ParseKey(name)
	if err != nil {
		return err
	}
	def := DefaultSettings()
	v := strings.TrimSpace(value)
	switch key {
	case KeyAsync:
		s.Async = parseBool(v, def.Async)
	case KeyServer:
		s.Server = normalizeServer(v)
	case KeyUserName:
		// The user name may not change once set.
		if s.UserName == "" && len(v) > 2 {
			s.UserName = v
			if s.Nick == "" {
				s.Nick = v
			}
		}
	case KeyNick:
		if len(v) > 2 {
			s.Nick = strings.ReplaceAll(v, " ", ".")
		}
	case KeyChannel:
		s.Room = v
	case KeyDebug:
		s.Debug = parseInt(v, def.Debug)
	case KeyTimeout:
		s.Timeout = parseMillis(v, def.Timeout)
	case KeyEncrypt:
		s.Encrypt = v
		s.encryptPending = true
	case KeyPortIn:
		s.PortIn = parseInt(v, def.PortIn)
	case KeyPortOut:
		s.PortOut = parseInt(v, def.PortOut)
	case KeyPortHandshake:
		s.PortHandshake = parseInt(v, def.PortHandshake)
	case KeyProtocol:
		s.Protocol = parseInt(v, def.Protocol)
	case KeyMsgFormat:
		s.MsgFormat = parseByte(v, def.MsgFormat)
	case KeyLogDir:
		s.LogDir = v
	case KeyMachine:
		s.Machine = strings.ReplaceAll(v, " ", "_")
	case KeyStale:
		s.Stale = parseMillis(v, def.Stale)
	case KeyPoll:
		s.Poll = parseMillis(v, def.Poll)
	default:
		return fmt.Errorf("%w %q (read-only)", ErrUnknownSetting, name)
	}
	return nil
}

// Get returns the current value of the named setting for the settings-only
// keys. The read-only keys are answered by Core.Setting.
func (s *Settings) Get(name string) (any, error) {
	key, err := ParseKey(name)
	if err != nil {
		return nil, err
	}
	switch key {
	case KeyAsync:
		return s.Async, nil
	case KeyServer:
		return s.Server, nil
	case KeyUserName:
		return s.UserName, nil
	case KeyNick:
		return s.Nick, nil
	case KeyChannel:
		return s.Room, nil
	case KeyDebug:
		return s.Debug, nil
	case KeyTimeout:
		return s.Timeout.Milliseconds(), nil
	case KeyEncrypt:
		return s.Encrypt != "", nil
	case KeyPortIn:
		return s.PortIn, nil
	case KeyPortOut:
		return s.PortOut, nil
	case KeyPortHandshake:
		return s.PortHandshake, nil
	case KeyProtocol:
		return s.Protocol, nil
	case KeyMsgFormat:
		return fmt.Sprintf("%02X", s.MsgFormat), nil
	case KeyLogDir:
		return s.LogDir, nil
	case KeyMachine:
		return s.Machine, nil
	case KeyStale:
		return s.Stale.Milliseconds(), nil
	case KeyPoll:
		return s.Poll.Milliseconds(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownSetting, name)
}

// parseBool accepts the usual spellings of true (TRUE, T, Y, YES and any
// positive integer) and of false; anything else yields def.
func parseBool(s string, def bool) bool {
	switch strings.ToUpper(s) {
	case "TRUE", "T", "Y", "YES", "ON":
		return true
	case "FALSE", "F", "N", "NO", "OFF":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n > 0
	}
	return def
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseByte(s string, def byte) byte {
	if n, err := strconv.ParseUint(s, 0, 8); err == nil {
		return byte(n)
	}
	return def
}

func parseMillis(s string, def time.Duration) time.Duration {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n >= 0 {
		return time.Duration(n) * time.Millisecond
	}
	return def
}

// normalizeServer cleans up a server path. Drive-letter and UNC paths are
// given a trailing backslash.
func normalizeServer(s string) string {
	if len(s) > 1 && (s[1] == ':' || strings.HasPrefix(s, `\\`)) && !strings.HasSuffix(s, `\`) {
		return s + `\`
	}
	return s
}
