// Package network lists IPv4 interfaces and their broadcast addresses so an
// Art-Net target can be picked.
package network

import (
	"fmt"
	"net"
	"strings"
)

// Kind classifies an interface.
type Kind string

const (
	KindEthernet  Kind = "ethernet"
	KindWiFi      Kind = "wifi"
	KindOther     Kind = "other"
	KindLocalhost Kind = "localhost"
	KindGlobal    Kind = "global"
)

// GlobalBroadcast is the limited broadcast address.
const GlobalBroadcast = "255.255.255.255"

// Interface is one broadcast target.
type Interface struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Broadcast   string `json:"broadcast"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
}

// KindOf guesses the interface kind from its name.
func KindOf(name string) Kind {
	n := strings.ToLower(name)
	switch {
	case n == "en0":
		// macOS laptops
		return KindWiFi
	case strings.HasPrefix(n, "wlan"), strings.HasPrefix(n, "wl"),
		strings.Contains(n, "wifi"), strings.Contains(n, "wireless"):
		return KindWiFi
	case strings.HasPrefix(n, "eth"), strings.HasPrefix(n, "en"):
		return KindEthernet
	default:
		return KindOther
	}
}

// broadcastAddr ORs the host bits of ip with ones.
func broadcastAddr(ip net.IP, mask net.IPMask) net.IP {
	ip4 := ip.To4()
	if ip4 == nil || mask == nil {
		return nil
	}
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return nil
	}
	out := make(net.IP, net.IPv4len)
	for i := range out {
		out[i] = ip4[i] | ^mask[i]
	}
	return out
}

func describe(name string, kind Kind, broadcast string) string {
	return fmt.Sprintf("%s (%s) broadcast %s", name, kind, broadcast)
}

// fromAddrs builds the options of one interface.
func fromAddrs(name string, addrs []net.Addr) []Interface {
	var out []Interface
	kind := KindOf(name)
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		bcast := broadcastAddr(ip4, ipNet.Mask)
		// Point-to-point links have no broadcast address.
		if bcast == nil || bcast.Equal(ip4) {
			continue
		}
		out = append(out, Interface{
			Name:        name,
			Address:     ip4.String(),
			Broadcast:   bcast.String(),
			Kind:        kind,
			Description: describe(name, kind, bcast.String()),
		})
	}
	return out
}

// List returns the up, non-loopback IPv4 interfaces ordered ethernet, wifi,
// other, followed by localhost and the global broadcast.
func List() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	byKind := map[Kind][]Interface{}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, opt := range fromAddrs(iface.Name, addrs) {
			byKind[opt.Kind] = append(byKind[opt.Kind], opt)
		}
	}

	var out []Interface
	for _, k := range []Kind{KindEthernet, KindWiFi, KindOther} {
		out = append(out, byKind[k]...)
	}
	out = append(out,
		Interface{Name: "localhost", Address: "127.0.0.1", Broadcast: "127.0.0.1", Kind: KindLocalhost, Description: "localhost (testing only)"},
		Interface{Name: "global", Address: "0.0.0.0", Broadcast: GlobalBroadcast, Kind: KindGlobal, Description: "global broadcast " + GlobalBroadcast},
	)
	return out, nil
}

// DefaultBroadcast picks the broadcast address of the first physical
// interface, falling back to the global broadcast.
func DefaultBroadcast() string {
	list, err := List()
	if err != nil {
		return GlobalBroadcast
	}
	return pickBroadcast(list)
}

func pickBroadcast(list []Interface) string {
	for _, opt := range list {
		if opt.Kind == KindEthernet || opt.Kind == KindWiFi {
			return opt.Broadcast
		}
	}
	return GlobalBroadcast
}
