package dataplane

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"

	"github.com/jalapeno-sdn/srctl/pkg/srctl/srv6"
	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// netlinkOps is the slice of *netlink.Handle the programmer drives.
type netlinkOps interface {
	LinkByName(name string) (netlink.Link, error)
	RouteAdd(route *netlink.Route) error
	RouteDel(route *netlink.Route) error
	LinkAdd(link netlink.Link) error
	LinkSetUp(link netlink.Link) error
	Close()
}

// LinuxProgrammer programs SRv6 routes into the kernel over netlink using
// seg6 encapsulation.
type LinuxProgrammer struct {
	handle netlinkOps
}

// NewLinuxProgrammer opens a netlink handle. Route mutation needs root, so
// the privilege precondition is checked up front rather than surfacing later
// as an opaque netlink error.
func NewLinuxProgrammer() (*LinuxProgrammer, error) {
	if os.Geteuid() != 0 {
		return nil, fmt.Errorf("%w: root privileges required for route programming", util.ErrPermissionDenied)
	}
	handle, err := netlink.NewHandle()
	if err != nil {
		return nil, fmt.Errorf("opening netlink handle: %w", err)
	}
	return &LinuxProgrammer{handle: handle}, nil
}

// ProgramRoute installs a seg6 encap route for the destination prefix.
// Any existing route to the same (table, destination) pair is deleted first,
// which is what makes repeated calls for the same destination idempotent.
func (p *LinuxProgrammer) ProgramRoute(req RouteRequest) (bool, string) {
	dst, err := parseDestination(req.DestinationPrefix)
	if err != nil {
		return failf("%v", err)
	}
	if req.OutboundInterface == "" {
		return failf("outbound_interface is required for linux routes")
	}

	segment, err := srv6.ParseSegment(req.SegmentID)
	if err != nil {
		return failf("%v", err)
	}

	link, err := p.handle.LinkByName(req.OutboundInterface)
	if err != nil {
		return failf("resolving interface %q: %v", req.OutboundInterface, err)
	}

	route := &netlink.Route{
		Dst:       dst,
		LinkIndex: link.Attrs().Index,
		Table:     req.TableID,
		Encap: &netlink.SEG6Encap{
			Mode:     nl.SEG6_IPTUN_MODE_ENCAP,
			Segments: []net.IP{segment},
		},
	}

	p.deleteExisting(dst, req.TableID)

	if err := p.handle.RouteAdd(route); err != nil {
		return failf("adding route to %s: %v", dst, err)
	}

	util.WithPlatform("linux").Infof("Programmed route to %s via %s on %s", dst, segment, req.OutboundInterface)
	return true, fmt.Sprintf("Route to %s via %s programmed successfully", req.DestinationPrefix, segment)
}

// DeleteRoute removes the (table, destination) entry.
func (p *LinuxProgrammer) DeleteRoute(req DeleteRequest) (bool, string) {
	dst, err := parseDestination(req.DestinationPrefix)
	if err != nil {
		return failf("%v", err)
	}

	if err := p.handle.RouteDel(&netlink.Route{Dst: dst, Table: req.TableID}); err != nil {
		return failf("deleting route to %s: %v", dst, err)
	}

	util.WithPlatform("linux").Infof("Deleted route to %s from table %d", dst, req.TableID)
	return true, fmt.Sprintf("Route to %s deleted successfully", req.DestinationPrefix)
}

// ProgramL3VPNRoute installs a seg6 encap route for an L3VPN prefix. The
// kernel carries the forwarding state in the SRv6 service SID; the VPN label
// is reported for observability only.
func (p *LinuxProgrammer) ProgramL3VPNRoute(req L3VPNRouteRequest) (bool, string) {
	ok, msg := p.ProgramRoute(RouteRequest{
		DestinationPrefix: req.DestinationPrefix,
		SegmentID:         req.SegmentID,
		OutboundInterface: req.OutboundInterface,
		TableID:           req.TableID,
	})
	if !ok {
		return ok, msg
	}
	return true, fmt.Sprintf("%s (vpn label %d)", msg, req.VPNLabel)
}

// CreateVRF provisions a VRF link bound to the table id and brings it up.
// An already-existing VRF is treated as success. Route distinguisher and
// route targets have no kernel representation; they are recorded in the
// result message only.
func (p *LinuxProgrammer) CreateVRF(req VRFRequest) (bool, string) {
	if req.Name == "" {
		return failf("vrf name is required")
	}

	vrf := &netlink.Vrf{
		LinkAttrs: netlink.LinkAttrs{Name: req.Name},
		Table:     uint32(req.TableID),
	}

	if err := p.handle.LinkAdd(vrf); err != nil {
		if !errors.Is(err, syscall.EEXIST) {
			return failf("creating vrf %s: %v", req.Name, err)
		}
		util.WithVRF(req.Name).Debug("VRF already exists")
	}

	if err := p.handle.LinkSetUp(vrf); err != nil {
		return failf("bringing up vrf %s: %v", req.Name, err)
	}

	util.WithVRF(req.Name).Infof("Created VRF %s (table %d)", req.Name, req.TableID)
	return true, fmt.Sprintf("VRF %s created with table %d (rd %s, import %s, export %s)",
		req.Name, req.TableID, valueOrNone(req.RD), formatRTs(req.ImportRTs), formatRTs(req.ExportRTs))
}

// Close releases the netlink handle.
func (p *LinuxProgrammer) Close() error {
	if p.handle != nil {
		p.handle.Close()
		p.handle = nil
	}
	return nil
}

// deleteExisting removes any route to the same (table, destination) pair.
// A missing route is the common case and is ignored.
func (p *LinuxProgrammer) deleteExisting(dst *net.IPNet, tableID int) {
	err := p.handle.RouteDel(&netlink.Route{Dst: dst, Table: tableID})
	switch {
	case err == nil:
		util.WithPlatform("linux").Debugf("Deleted existing route to %s", dst)
	case errors.Is(err, syscall.ESRCH) || errors.Is(err, syscall.ENOENT):
		// no existing route
	default:
		util.WithPlatform("linux").Debugf("Pre-delete of route to %s: %v", dst, err)
	}
}

func valueOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
