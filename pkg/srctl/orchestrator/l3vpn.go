package orchestrator

import (
	"context"
	"fmt"

	"github.com/jalapeno-sdn/srctl/pkg/srctl/dataplane"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/jalapeno"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/spec"
	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// applyL3VPNRoute resolves an L3VPN route spec: look up the prefix records
// for its route target and program each one. The lookup or programmer
// failure yields a single route-scoped error result; per-record failures
// during programming affect only their own record.
func (o *Orchestrator) applyL3VPNRoute(ctx context.Context, route *spec.Route, platform, af string, tableID int) []Result {
	collection := route.Collection
	if collection == "" {
		collection = fmt.Sprintf("l3vpn_%s_prefix", af)
	}

	var (
		prefixes *jalapeno.L3VPNPrefixes
		err      error
	)
	if route.Prefix != "" {
		prefixes, err = o.client.L3VPNPrefix(ctx, route.Prefix, route.RouteTarget, collection, route.ExactMatch)
	} else {
		prefixes, err = o.client.L3VPNPrefixesByRT(ctx, route.RouteTarget, collection, defaultL3VPNLimit)
	}
	if err != nil {
		return []Result{errorResult(route.Name, err)}
	}

	prog, err := o.getProgrammer(platform)
	if err != nil {
		return []Result{errorResult(route.Name, err)}
	}
	defer prog.Close()

	return programL3VPNRoutes(prog, prefixes.Prefixes, l3vpnParams{
		Platform:          platform,
		TableID:           tableID,
		OutboundInterface: route.OutboundInterface,
		BSID:              route.BSID,
	})
}

// l3vpnParams carries the table and platform-specific knobs shared by every
// record of one L3VPN batch.
type l3vpnParams struct {
	Platform          string
	TableID           int
	OutboundInterface string
	BSID              string
}

// ApplyL3VPNRoutes programs a set of already-fetched L3VPN prefix records on
// the given platform. It is the entry point used by the CLI's l3vpn
// get-routes --apply flow; one programmer instance is shared by the whole
// batch and released before returning.
func (o *Orchestrator) ApplyL3VPNRoutes(platform string, prefixes []jalapeno.L3VPNPrefix, tableID int, outboundInterface, bsid string) ([]Result, error) {
	prog, err := o.getProgrammer(platform)
	if err != nil {
		return nil, err
	}
	defer prog.Close()

	return programL3VPNRoutes(prog, prefixes, l3vpnParams{
		Platform:          platform,
		TableID:           tableID,
		OutboundInterface: outboundInterface,
		BSID:              bsid,
	}), nil
}

// programL3VPNRoutes programs each prefix record through the shared
// programmer. A record missing a usable SID or label fails only that record.
func programL3VPNRoutes(prog dataplane.Programmer, prefixes []jalapeno.L3VPNPrefix, params l3vpnParams) []Result {
	var results []Result
	for i := range prefixes {
		results = append(results, programL3VPNRecord(prog, &prefixes[i], params))
	}
	return results
}

func programL3VPNRecord(prog dataplane.Programmer, rec *jalapeno.L3VPNPrefix, params l3vpnParams) Result {
	name := "L3VPN-" + rec.DestinationPrefix()

	sid := rec.FirstSID()
	if sid == "" {
		return errorResult(name, fmt.Errorf("no SID found for prefix %s", rec.DestinationPrefix()))
	}
	label, ok := rec.VPNLabel()
	if !ok {
		return errorResult(name, fmt.Errorf("no label found for prefix %s", rec.DestinationPrefix()))
	}

	programmed, msg := prog.ProgramL3VPNRoute(dataplane.L3VPNRouteRequest{
		DestinationPrefix: rec.DestinationPrefix(),
		SegmentID:         sid,
		VPNLabel:          label,
		OutboundInterface: params.OutboundInterface,
		BSID:              params.BSID,
		TableID:           params.TableID,
	})
	if !programmed {
		return errorResult(name, &util.ProgrammingError{
			Platform: params.Platform,
			Resource: rec.DestinationPrefix(),
			Message:  msg,
		})
	}

	util.WithRoute(name).Debugf("Programmed L3VPN prefix via %s (label %d)", sid, label)
	return successResult(name, msg, rec)
}
