// Package srv6 normalizes compressed SRv6 micro-segment identifiers into
// canonical IPv6 addresses.
//
// The path service returns uSIDs in compressed notation such as
// "fc00:0:1:2:" — a prefix of an IPv6 address terminated by a group
// separator. Dataplane APIs require full 8-group addresses, so the
// compressed form is right-padded with zero groups before use.
package srv6

import (
	"fmt"
	"net"
	"strings"

	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// ExpandUSID expands a compressed SRv6 uSID to a full IPv6 address string.
// A trailing group separator is stripped, the remaining groups are
// right-padded with zero groups until 8 are present, and the result is
// validated as an IPv6 address. Already-full addresses pass through
// unchanged, so the expansion is idempotent.
func ExpandUSID(usid string) (string, error) {
	if usid == "" {
		return "", fmt.Errorf("%w: empty uSID", util.ErrInvalidSegmentID)
	}

	trimmed := strings.TrimRight(usid, ":")
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", util.ErrInvalidSegmentID, usid)
	}

	groups := strings.Split(trimmed, ":")
	if len(groups) > 8 {
		return "", fmt.Errorf("%w: %q has more than 8 groups", util.ErrInvalidSegmentID, usid)
	}
	for len(groups) < 8 {
		groups = append(groups, "0")
	}

	expanded := strings.Join(groups, ":")
	ip := net.ParseIP(expanded)
	if ip == nil || ip.To4() != nil {
		return "", fmt.Errorf("%w: %q expands to %q which is not a valid IPv6 address", util.ErrInvalidSegmentID, usid, expanded)
	}
	return expanded, nil
}

// ParseSegment expands a uSID and returns it as a net.IP for dataplane use.
func ParseSegment(usid string) (net.IP, error) {
	expanded, err := ExpandUSID(usid)
	if err != nil {
		return nil, err
	}
	return net.ParseIP(expanded), nil
}
