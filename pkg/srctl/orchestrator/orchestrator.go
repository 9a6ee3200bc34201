// Package orchestrator turns a PathRequest document into programmed
// forwarding state.
//
// The orchestrator walks the configuration tree (default table, then
// declared VRFs, then address families, then routes) and dispatches each
// route to the path service and the platform's route programmer. Failures
// are isolated at the per-route boundary: a batch of N route specs always
// yields N results, however many individually fail. Only structural
// problems (wrong kind, empty spec, missing platform, missing table id on
// delete) abort a whole pass.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/jalapeno-sdn/srctl/pkg/audit"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/dataplane"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/jalapeno"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/spec"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/srv6"
	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// defaultL3VPNLimit caps by-route-target prefix queries.
const defaultL3VPNLimit = 100

// Result is the per-route unit of observability returned to the caller.
type Result struct {
	Name    string      `yaml:"name" json:"name"`
	Status  string      `yaml:"status" json:"status"`
	Data    interface{} `yaml:"data,omitempty" json:"data,omitempty"`
	Message string      `yaml:"message,omitempty" json:"message,omitempty"`
	Error   string      `yaml:"error,omitempty" json:"error,omitempty"`
}

func successResult(name, message string, data interface{}) Result {
	return Result{Name: name, Status: StatusSuccess, Message: message, Data: data}
}

func errorResult(name string, err error) Result {
	return Result{Name: name, Status: StatusError, Error: fmt.Sprintf("Error: %v", err)}
}

// Orchestrator applies and deletes PathRequest documents.
type Orchestrator struct {
	client        *jalapeno.Client
	newProgrammer func(dataplane.Platform) (dataplane.Programmer, error)
	journal       audit.Logger
}

// New creates an orchestrator that queries the given path service client
// and programs routes through the platform factory.
func New(client *jalapeno.Client) *Orchestrator {
	return &Orchestrator{
		client:        client,
		newProgrammer: dataplane.NewProgrammer,
	}
}

// SetJournal attaches an audit journal; every per-route result of a pass is
// recorded. A nil journal disables recording.
func (o *Orchestrator) SetJournal(j audit.Logger) {
	o.journal = j
}

// Apply programs every route declared in the document. The default VRF
// (table 0) is processed first, ipv4 then ipv6, followed by the declared
// VRFs in declaration order. A VRF without a table id defaults to table 0.
func (o *Orchestrator) Apply(ctx context.Context, pr *spec.PathRequest) ([]Result, error) {
	if err := checkStructural(pr, "apply"); err != nil {
		return nil, err
	}
	platform := pr.Spec.Platform

	var results []Result
	results = append(results, o.applyRoutes(ctx, pr.Spec.DefaultVRF.IPv4.Routes, platform, "ipv4", 0, "")...)
	results = append(results, o.applyRoutes(ctx, pr.Spec.DefaultVRF.IPv6.Routes, platform, "ipv6", 0, "")...)
	for i := range pr.Spec.VRFs {
		results = append(results, o.applyVRF(ctx, &pr.Spec.VRFs[i], platform)...)
	}

	o.record("apply", platform, results)
	return results, nil
}

// Delete removes every route declared in the document. Unlike Apply, a VRF
// without an explicit table id is a structural failure: deleting from the
// wrong table is worse than refusing, so no default is injected.
func (o *Orchestrator) Delete(ctx context.Context, pr *spec.PathRequest) ([]Result, error) {
	if err := checkStructural(pr, "delete"); err != nil {
		return nil, err
	}
	for i := range pr.Spec.VRFs {
		if pr.Spec.VRFs[i].TableID == nil {
			return nil, util.NewPreconditionError("delete", "VRF "+pr.Spec.VRFs[i].Name,
				"tableId must be specified", "")
		}
	}
	platform := pr.Spec.Platform

	var results []Result
	results = append(results, o.deleteRoutes(ctx, pr.Spec.DefaultVRF.IPv4.Routes, platform, 0)...)
	results = append(results, o.deleteRoutes(ctx, pr.Spec.DefaultVRF.IPv6.Routes, platform, 0)...)
	for i := range pr.Spec.VRFs {
		vrf := &pr.Spec.VRFs[i]
		results = append(results, o.deleteRoutes(ctx, vrf.IPv4.Routes, platform, *vrf.TableID)...)
		results = append(results, o.deleteRoutes(ctx, vrf.IPv6.Routes, platform, *vrf.TableID)...)
	}

	o.record("delete", platform, results)
	return results, nil
}

// checkStructural verifies the preconditions that abort a whole pass.
func checkStructural(pr *spec.PathRequest, op string) error {
	if pr == nil {
		return util.NewPreconditionError(op, "configuration", "configuration is required", "")
	}
	if pr.Kind != spec.PathRequestKind {
		return util.NewPreconditionError(op, "configuration",
			"kind must be "+spec.PathRequestKind, fmt.Sprintf("got %q", pr.Kind))
	}
	if isEmptySpec(&pr.Spec) {
		return util.NewPreconditionError(op, "configuration", "no spec found", "")
	}
	if pr.Spec.Platform == "" {
		return util.NewPreconditionError(op, "configuration", "platform must be specified in spec", "")
	}
	return nil
}

func isEmptySpec(s *spec.Spec) bool {
	return s.Platform == "" &&
		len(s.DefaultVRF.IPv4.Routes) == 0 &&
		len(s.DefaultVRF.IPv6.Routes) == 0 &&
		len(s.VRFs) == 0
}

// applyVRF provisions the VRF when requested and processes its address
// families. A VRF provisioning failure is reported as a VRF-scoped error
// result and the VRF's routes are skipped.
func (o *Orchestrator) applyVRF(ctx context.Context, vrf *spec.VRF, platform string) []Result {
	tableID := 0
	if vrf.TableID != nil {
		tableID = *vrf.TableID
	}

	var results []Result
	if vrf.CreateVRF {
		ok, msg := o.createVRF(vrf, platform, tableID)
		if !ok {
			return append(results, Result{
				Name:   "VRF " + vrf.Name,
				Status: StatusError,
				Error:  msg,
			})
		}
		results = append(results, successResult("VRF "+vrf.Name, msg, nil))
	}

	results = append(results, o.applyRoutes(ctx, vrf.IPv4.Routes, platform, "ipv4", tableID, vrf.Name)...)
	results = append(results, o.applyRoutes(ctx, vrf.IPv6.Routes, platform, "ipv6", tableID, vrf.Name)...)
	return results
}

func (o *Orchestrator) createVRF(vrf *spec.VRF, platform string, tableID int) (bool, string) {
	prog, err := o.getProgrammer(platform)
	if err != nil {
		return false, err.Error()
	}
	defer prog.Close()

	return prog.CreateVRF(dataplane.VRFRequest{
		Name:      vrf.Name,
		TableID:   tableID,
		RD:        vrf.RD,
		ImportRTs: vrf.ImportRTs,
		ExportRTs: vrf.ExportRTs,
	})
}

// applyRoutes processes one address family's routes in declaration order and
// returns their results. Each route is its own failure domain.
func (o *Orchestrator) applyRoutes(ctx context.Context, routes []spec.Route, platform, af string, tableID int, vrfName string) []Result {
	var results []Result
	for i := range routes {
		results = append(results, o.applyRoute(ctx, &routes[i], platform, af, tableID)...)
	}
	return results
}

// applyRoute resolves and programs a single route spec. L3VPN routes can fan
// out into one result per prefix record; path routes yield exactly one.
func (o *Orchestrator) applyRoute(ctx context.Context, route *spec.Route, platform, af string, tableID int) []Result {
	if route.IsL3VPN() {
		return o.applyL3VPNRoute(ctx, route, platform, af, tableID)
	}

	result := o.applyPathRoute(ctx, route, platform, tableID)
	return []Result{result}
}

func (o *Orchestrator) applyPathRoute(ctx context.Context, route *spec.Route, platform string, tableID int) Result {
	if route.Graph == "" {
		return errorResult(route.Name, fmt.Errorf("'graph' is required for path-based routes"))
	}

	path, err := o.client.ShortestPath(ctx, jalapeno.ShortestPathRequest{
		Graph:             route.Graph,
		Source:            route.Source,
		Destination:       route.Destination,
		Metric:            route.Metric,
		Direction:         route.DirectionOrDefault(),
		ExcludedCountries: route.ExcludedCountries,
	})
	if err != nil {
		return errorResult(route.Name, err)
	}

	usid := path.SRv6Data.USID
	if usid == "" {
		return errorResult(route.Name, fmt.Errorf("no SRv6 uSID received from path service"))
	}
	segment, err := srv6.ExpandUSID(usid)
	if err != nil {
		return errorResult(route.Name, err)
	}

	prog, err := o.getProgrammer(platform)
	if err != nil {
		return errorResult(route.Name, err)
	}
	defer prog.Close()

	ok, msg := prog.ProgramRoute(dataplane.RouteRequest{
		DestinationPrefix: route.DestinationPrefix,
		SegmentID:         segment,
		OutboundInterface: route.OutboundInterface,
		BSID:              route.BSID,
		TableID:           tableID,
	})
	if !ok {
		return errorResult(route.Name, &util.ProgrammingError{
			Platform: platform,
			Resource: route.DestinationPrefix,
			Message:  msg,
		})
	}

	util.WithRoute(route.Name).Debugf("Programmed %s via %s", route.DestinationPrefix, segment)
	return successResult(route.Name, msg, path)
}

// deleteRoutes removes one address family's routes, isolating failures per
// route.
func (o *Orchestrator) deleteRoutes(ctx context.Context, routes []spec.Route, platform string, tableID int) []Result {
	var results []Result
	for i := range routes {
		results = append(results, o.deleteRoute(&routes[i], platform, tableID))
	}
	return results
}

func (o *Orchestrator) deleteRoute(route *spec.Route, platform string, tableID int) Result {
	prog, err := o.getProgrammer(platform)
	if err != nil {
		return errorResult(route.Name, err)
	}
	defer prog.Close()

	ok, msg := prog.DeleteRoute(dataplane.DeleteRequest{
		DestinationPrefix: route.DestinationPrefix,
		BSID:              route.BSID,
		TableID:           tableID,
	})
	if !ok {
		return errorResult(route.Name, &util.ProgrammingError{
			Platform: platform,
			Resource: route.DestinationPrefix,
			Message:  msg,
		})
	}
	return successResult(route.Name, msg, nil)
}

func (o *Orchestrator) getProgrammer(platform string) (dataplane.Programmer, error) {
	p, err := dataplane.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}
	return o.newProgrammer(p)
}

// record writes the pass results to the audit journal, when one is attached.
func (o *Orchestrator) record(operation, platform string, results []Result) {
	if o.journal == nil {
		return
	}
	for i := range results {
		r := &results[i]
		ev := audit.NewEvent(operation, platform, r.Name)
		ev.Message = r.Message
		if r.Status == StatusSuccess {
			ev.Success = true
		} else {
			ev.Error = r.Error
		}
		if err := o.journal.Log(ev); err != nil {
			util.WithField("journal", "audit").Warnf("recording %s result for %s: %v", operation, r.Name, err)
		}
	}
}
