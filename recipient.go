// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"fmt"
	"strings"
	"time"

	"github.com/creachadair/mds/mapset"
	"github.com/samber/lo"
)

// Transport kinds recorded on a Recipient.
const (
	TransportFile   = 0
	TransportIRC    = 1
	TransportEmail  = 2
	TransportChat   = 3
	TransportStream = 4
)

// A Recipient is the identity record of one party to a conversation.
type Recipient struct {
	Name        string    // display (user) name
	NickName    string    // nickname, unique within a directory scope
	Address     string    // unique contact key (instance ID for files)
	Type        string    // "" = To, "C" = CC, "B" = BCC
	Transport   int       // transport kind, see TransportFile etc.
	MachineID   string    // machine the contact is currently on
	IP4Address  string    // IPv4 address of the machine
	IP6Address  string    // IPv6 address of the machine
	MACAddress  string    // hardware address of the machine
	PortIn      int       // negotiated inbound port
	PortOut     int       // negotiated outbound port
	LastContact time.Time // last message received at
	OnLine      time.Time // first noticed at
	MsgCount    int64     // number of messages received from
	OffLine     bool      // current offline flag

	// Key is the name of the presence record this contact was discovered
	// from, if any.
	Key string
}

// NewRecipient returns a recipient with the given name whose timestamps are
// set to the current time.
func NewRecipient(name string) *Recipient {
	now := time.Now()
	return &Recipient{Name: name, NickName: name, LastContact: now, OnLine: now}
}

// SameContact reports whether r and o denote the same contact, meaning their
// addresses match.
func (r *Recipient) SameContact(o *Recipient) bool {
	return r != nil && o != nil && r.Address == o.Address
}

// String returns a human-friendly rendering of r.
func (r *Recipient) String() string {
	if r == nil {
		return "Recipient(nil)"
	}
	return fmt.Sprintf("Recipient(%s|%s@%s <%s>)", r.Name, r.NickName, r.MachineID, r.Address)
}

// Contacts is an ordered collection of recipients. Entries are unique by
// address; when two entries collide, the first one seen is kept.
type Contacts struct {
	list []*Recipient
	seen mapset.Set[string]
}

// Add appends r to c unless a contact with the same address is already
// present. It reports whether r was added.
func (c *Contacts) Add(r *Recipient) bool {
	if c.seen == nil {
		c.seen = mapset.New[string]()
	}
	if c.seen.Has(r.Address) {
		return false
	}
	c.seen.Add(r.Address)
	c.list = append(c.list, r)
	return true
}

// Reset discards all the contacts in c.
func (c *Contacts) Reset() { c.list = nil; c.seen = nil }

// Len reports the number of contacts in c.
func (c *Contacts) Len() int { return len(c.list) }

// List returns the contacts in c in insertion order. The caller must not
// modify the returned slice.
func (c *Contacts) List() []*Recipient { return c.list }

// Find resolves an address to a contact. The address is compared in order to
// the contact address, presence key, "name@machine", and finally the name or
// nickname without regard to case. The first match in insertion order wins.
func (c *Contacts) Find(address string) (*Recipient, bool) {
	if address == "" {
		return nil, false
	}
	if r, ok := lo.Find(c.list, func(r *Recipient) bool { return r.Address == address }); ok {
		return r, true
	}
	if r, ok := lo.Find(c.list, func(r *Recipient) bool { return r.Key != "" && r.Key == address }); ok {
		return r, true
	}
	if name, machine, ok := strings.Cut(address, "@"); ok && machine != "" {
		if r, ok := lo.Find(c.list, func(r *Recipient) bool {
			return strings.EqualFold(r.Name, name) && strings.EqualFold(r.MachineID, machine)
		}); ok {
			return r, true
		}
	}
	return lo.Find(c.list, func(r *Recipient) bool {
		return strings.EqualFold(r.Name, address) || strings.EqualFold(r.NickName, address)
	})
}

// SanitizeName converts a user name into a form safe for use in a file name,
// replacing "@" with "+" and spaces with ".".
func SanitizeName(name string) string {
	return strings.NewReplacer("@", "+", " ", ".").Replace(name)
}
