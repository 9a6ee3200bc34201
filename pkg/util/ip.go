package util

import (
	"fmt"
	"net"
)

// ParsePrefix validates and normalizes a destination prefix in CIDR notation.
// The returned network has its address masked to the network address, so
// "2001:db8::1/64" normalizes to "2001:db8::/64". A bare address without a
// prefix length is rejected.
func ParsePrefix(cidr string) (*net.IPNet, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, cidr)
	}
	return ipNet, nil
}

// IsIPv4Prefix reports whether the network is an IPv4 network.
func IsIPv4Prefix(n *net.IPNet) bool {
	return n.IP.To4() != nil
}
