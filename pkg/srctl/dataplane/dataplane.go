// Package dataplane programs SRv6 forwarding state on the local node.
//
// Two backends implement the Programmer contract: a kernel backend driven
// over netlink and a VPP backend driven over the VPP binary API. Every
// Programmer method traps its own failures and reports (false, message)
// instead of returning an error, so the orchestrator can treat all backends
// uniformly. A Programmer owns its backend session exclusively; callers must
// Close it when done and must not share it across platforms or passes.
package dataplane

import (
	"fmt"
	"net"
	"strings"

	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// RouteRequest parameterizes ProgramRoute.
type RouteRequest struct {
	DestinationPrefix string
	SegmentID         string // compressed or full SRv6 uSID
	OutboundInterface string // required by the kernel backend
	BSID              string // required by the VPP backend
	TableID           int
}

// DeleteRequest parameterizes DeleteRoute.
type DeleteRequest struct {
	DestinationPrefix string
	BSID              string
	TableID           int
}

// L3VPNRouteRequest parameterizes ProgramL3VPNRoute.
type L3VPNRouteRequest struct {
	DestinationPrefix string
	SegmentID         string
	VPNLabel          int
	OutboundInterface string
	BSID              string
	TableID           int
}

// VRFRequest parameterizes CreateVRF.
type VRFRequest struct {
	Name      string
	TableID   int
	RD        string
	ImportRTs []string
	ExportRTs []string
}

// Programmer installs and removes SRv6 forwarding state on one node.
type Programmer interface {
	// ProgramRoute installs a route steering the destination prefix over
	// the given segment. Installing twice for the same destination replaces
	// the earlier route.
	ProgramRoute(req RouteRequest) (bool, string)

	// DeleteRoute removes the route for the destination prefix.
	DeleteRoute(req DeleteRequest) (bool, string)

	// ProgramL3VPNRoute installs a route for an L3VPN prefix learned via a
	// route target, carrying the VPN service SID and label.
	ProgramL3VPNRoute(req L3VPNRouteRequest) (bool, string)

	// CreateVRF provisions a VRF bound to the given table id.
	CreateVRF(req VRFRequest) (bool, string)

	// Close releases the backend session. The Programmer must not be used
	// afterwards.
	Close() error
}

// parseDestination validates the destination prefix shared by all backends.
// Malformed input fails fast before any backend call is issued.
func parseDestination(prefix string) (*net.IPNet, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: destination prefix is required", util.ErrInvalidPrefix)
	}
	return util.ParsePrefix(prefix)
}

// failf formats a failure message for the (false, message) contract.
func failf(format string, args ...interface{}) (bool, string) {
	return false, fmt.Sprintf(format, args...)
}

// formatRTs renders route-target lists for log and result messages.
func formatRTs(rts []string) string {
	if len(rts) == 0 {
		return "none"
	}
	return strings.Join(rts, ",")
}
