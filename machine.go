// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"net/netip"
	"os"
	"strings"

	"github.com/shirou/gopsutil/host"
	psnet "github.com/shirou/gopsutil/net"
)

// HostInfo describes the local machine as advertised to other parties.
type HostInfo struct {
	MachineID  string // host name, spaces replaced by "_"
	IP4Address string // first non-loopback IPv4 address, or 127.0.0.1
	IP6Address string // first non-loopback IPv6 address, if any
	MACAddress string // hardware address of the interface supplying IP4Address
}

// LocalHost reports the identity of the local machine. It never fails; any
// detail that cannot be determined is left at a fallback value.
func LocalHost() HostInfo {
	hi := HostInfo{MachineID: "localhost", IP4Address: "127.0.0.1"}
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		hi.MachineID = info.Hostname
	} else if name, err := os.Hostname(); err == nil && name != "" {
		hi.MachineID = name
	}
	hi.MachineID = strings.ReplaceAll(hi.MachineID, " ", "_")

	ifaces, err := psnet.Interfaces()
	if err != nil {
		return hi
	}
	var have4, have6 bool
	for _, ifc := range ifaces {
		for _, a := range ifc.Addrs {
			pfx, err := netip.ParsePrefix(a.Addr)
			if err != nil {
				continue
			}
			ip := pfx.Addr()
			if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			if ip.Is4() && !have4 {
				hi.IP4Address, hi.MACAddress, have4 = ip.String(), ifc.HardwareAddr, true
			} else if ip.Is6() && !have6 {
				hi.IP6Address, have6 = ip.String(), true
			}
		}
	}
	return hi
}
