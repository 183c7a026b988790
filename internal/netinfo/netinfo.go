// Package netinfo enumerates local non-internal IPv4 addresses so the
// server can advertise a join URL for the room's host display (§2 Network
// discovery & room URL, §6 GET /api/network). Grounded on stdlib net, the
// one domain concern in the corpus with no third-party candidate (see
// DESIGN.md).
package netinfo

import "net"

// Address is one advertisable interface address.
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// LocalAddresses returns every non-loopback IPv4 address bound to a local
// interface, paired with its interface name.
func LocalAddresses() ([]Address, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []Address
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}
			out = append(out, Address{Name: iface.Name, Address: ip4.String()})
		}
	}

	return out, nil
}
