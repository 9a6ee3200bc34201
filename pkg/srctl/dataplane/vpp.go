package dataplane

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.fd.io/govpp"
	"go.fd.io/govpp/adapter/socketclient"
	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/ip_types"
	"go.fd.io/govpp/binapi/sr"
	"go.fd.io/govpp/binapi/sr_types"
	"go.fd.io/govpp/core"

	"github.com/jalapeno-sdn/srctl/pkg/srctl/srv6"
	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// vppCallTimeout bounds each binary API call.
const vppCallTimeout = 10 * time.Second

// invalidSwIfIndex marks steering rules that match L3 traffic rather than an
// incoming interface.
const invalidSwIfIndex = ^uint32(0)

// VPPProgrammer programs SRv6 routes into VPP over its binary API. A route
// is expressed as an SR policy anchored at a binding SID plus a steering
// rule associating the destination prefix with that policy.
type VPPProgrammer struct {
	conn *core.Connection
	sr   sr.RPCService
}

// NewVPPProgrammer connects to the local VPP instance over its API socket.
// The session is owned by this programmer and torn down by Close.
func NewVPPProgrammer() (*VPPProgrammer, error) {
	conn, err := govpp.Connect(socketclient.DefaultSocketName)
	if err != nil {
		return nil, fmt.Errorf("connecting to VPP: %w", err)
	}
	return &VPPProgrammer{
		conn: conn,
		sr:   sr.NewServiceClient(conn),
	}, nil
}

// ProgramRoute installs an SR policy for the binding SID and a steering rule
// for the destination prefix, both restricted to L3 traffic. The two steps
// are sequential; when the steering step fails the policy installed by the
// first step is left in place and named in the failure message. There is no
// automatic rollback.
func (p *VPPProgrammer) ProgramRoute(req RouteRequest) (bool, string) {
	dst, err := parseDestination(req.DestinationPrefix)
	if err != nil {
		return failf("%v", err)
	}
	if req.BSID == "" {
		return failf("bsid is required for vpp routes")
	}

	bsid, err := parseIPv6(req.BSID)
	if err != nil {
		return failf("invalid bsid %q: %v", req.BSID, err)
	}
	segment, err := srv6.ParseSegment(req.SegmentID)
	if err != nil {
		return failf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), vppCallTimeout)
	defer cancel()

	sidList := sr.Srv6SidList{NumSids: 1, Weight: 1}
	sidList.Sids[0] = toIP6Address(segment)

	if _, err := p.sr.SrPolicyAdd(ctx, &sr.SrPolicyAdd{
		BsidAddr: toIP6Address(bsid),
		IsEncap:  true,
		Sids:     sidList,
	}); err != nil {
		return failf("adding SR policy for bsid %s: %v", req.BSID, err)
	}

	if _, err := p.sr.SrSteeringAddDel(ctx, p.steeringRequest(false, bsid, dst, req.TableID)); err != nil {
		util.WithPlatform("vpp").Warnf("SR policy %s installed but steering for %s failed; policy left in place", req.BSID, dst)
		return failf("adding steering for %s: %v (SR policy %s was installed and remains active)", dst, err, req.BSID)
	}

	util.WithPlatform("vpp").Infof("Programmed route to %s via %s (bsid %s)", dst, segment, req.BSID)
	return true, fmt.Sprintf("Route to %s via %s programmed successfully", req.DestinationPrefix, segment)
}

// DeleteRoute removes the steering rule for the destination prefix and the
// SR policy anchored at the binding SID.
func (p *VPPProgrammer) DeleteRoute(req DeleteRequest) (bool, string) {
	dst, err := parseDestination(req.DestinationPrefix)
	if err != nil {
		return failf("%v", err)
	}
	if req.BSID == "" {
		return failf("bsid is required to delete vpp routes")
	}
	bsid, err := parseIPv6(req.BSID)
	if err != nil {
		return failf("invalid bsid %q: %v", req.BSID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), vppCallTimeout)
	defer cancel()

	if _, err := p.sr.SrSteeringAddDel(ctx, p.steeringRequest(true, bsid, dst, req.TableID)); err != nil {
		return failf("removing steering for %s: %v", dst, err)
	}

	if _, err := p.sr.SrPolicyDel(ctx, &sr.SrPolicyDel{BsidAddr: toIP6Address(bsid)}); err != nil {
		return failf("removing SR policy for bsid %s: %v", req.BSID, err)
	}

	util.WithPlatform("vpp").Infof("Deleted route to %s (bsid %s)", dst, req.BSID)
	return true, fmt.Sprintf("Route to %s deleted successfully", req.DestinationPrefix)
}

// ProgramL3VPNRoute installs an L3VPN prefix the same way as a path route;
// the VPN service SID carries the forwarding semantics and the label is
// reported for observability.
func (p *VPPProgrammer) ProgramL3VPNRoute(req L3VPNRouteRequest) (bool, string) {
	ok, msg := p.ProgramRoute(RouteRequest{
		DestinationPrefix: req.DestinationPrefix,
		SegmentID:         req.SegmentID,
		BSID:              req.BSID,
		TableID:           req.TableID,
	})
	if !ok {
		return ok, msg
	}
	return true, fmt.Sprintf("%s (vpn label %d)", msg, req.VPNLabel)
}

// CreateVRF is not expressible over the SR binary API surface this
// programmer drives; FIB tables are created on demand by steering rules
// that reference them, so the request is acknowledged without side effects.
func (p *VPPProgrammer) CreateVRF(req VRFRequest) (bool, string) {
	if req.Name == "" {
		return failf("vrf name is required")
	}
	util.WithVRF(req.Name).Infof("VRF %s mapped to FIB table %d", req.Name, req.TableID)
	return true, fmt.Sprintf("VRF %s mapped to FIB table %d (rd %s, import %s, export %s)",
		req.Name, req.TableID, valueOrNone(req.RD), formatRTs(req.ImportRTs), formatRTs(req.ExportRTs))
}

// Close tears down the VPP API session.
func (p *VPPProgrammer) Close() error {
	if p.conn != nil {
		p.conn.Disconnect()
		p.conn = nil
	}
	return nil
}

func (p *VPPProgrammer) steeringRequest(del bool, bsid net.IP, dst *net.IPNet, tableID int) *sr.SrSteeringAddDel {
	trafficType := sr_types.SR_STEER_API_IPV6
	if util.IsIPv4Prefix(dst) {
		trafficType = sr_types.SR_STEER_API_IPV4
	}
	return &sr.SrSteeringAddDel{
		IsDel:       del,
		BsidAddr:    toIP6Address(bsid),
		TableID:     uint32(tableID),
		Prefix:      toPrefix(dst),
		SwIfIndex:   interface_types.InterfaceIndex(invalidSwIfIndex),
		TrafficType: trafficType,
	}
}

func parseIPv6(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() != nil {
		return nil, fmt.Errorf("%q is not an IPv6 address", s)
	}
	return ip, nil
}

func toIP6Address(ip net.IP) (addr ip_types.IP6Address) {
	copy(addr[:], ip.To16())
	return addr
}

func toPrefix(n *net.IPNet) ip_types.Prefix {
	ones, _ := n.Mask.Size()
	var addr ip_types.Address
	if v4 := n.IP.To4(); v4 != nil {
		var ip4 ip_types.IP4Address
		copy(ip4[:], v4)
		addr = ip_types.Address{Af: ip_types.ADDRESS_IP4, Un: ip_types.AddressUnionIP4(ip4)}
	} else {
		var ip6 ip_types.IP6Address
		copy(ip6[:], n.IP.To16())
		addr = ip_types.Address{Af: ip_types.ADDRESS_IP6, Un: ip_types.AddressUnionIP6(ip6)}
	}
	return ip_types.Prefix{Address: addr, Len: uint8(ones)}
}
