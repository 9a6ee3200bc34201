package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jalapeno-sdn/srctl/pkg/audit"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/dataplane"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/jalapeno"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/spec"
	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// fakeProgrammer records calls and simulates backend behavior without
// touching a real dataplane.
type fakeProgrammer struct {
	programCalls []dataplane.RouteRequest
	deleteCalls  []dataplane.DeleteRequest
	l3vpnCalls   []dataplane.L3VPNRouteRequest
	vrfCalls     []dataplane.VRFRequest

	failProgram bool
	failDelete  bool
	failVRF     bool
	closed      int
}

func (f *fakeProgrammer) ProgramRoute(req dataplane.RouteRequest) (bool, string) {
	f.programCalls = append(f.programCalls, req)
	if f.failProgram {
		return false, "backend rejected route"
	}
	return true, "programmed " + req.DestinationPrefix
}

func (f *fakeProgrammer) DeleteRoute(req dataplane.DeleteRequest) (bool, string) {
	f.deleteCalls = append(f.deleteCalls, req)
	if f.failDelete {
		return false, "backend rejected deletion"
	}
	return true, "deleted " + req.DestinationPrefix
}

func (f *fakeProgrammer) ProgramL3VPNRoute(req dataplane.L3VPNRouteRequest) (bool, string) {
	f.l3vpnCalls = append(f.l3vpnCalls, req)
	if f.failProgram {
		return false, "backend rejected route"
	}
	return true, "programmed " + req.DestinationPrefix
}

func (f *fakeProgrammer) CreateVRF(req dataplane.VRFRequest) (bool, string) {
	f.vrfCalls = append(f.vrfCalls, req)
	if f.failVRF {
		return false, "vrf creation rejected"
	}
	return true, "created vrf " + req.Name
}

func (f *fakeProgrammer) Close() error {
	f.closed++
	return nil
}

// newTestOrchestrator wires an orchestrator to a stub path service and the
// shared fake programmer, counting programmer constructions.
func newTestOrchestrator(t *testing.T, handler http.Handler) (*Orchestrator, *fakeProgrammer, *int) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fake := &fakeProgrammer{}
	constructions := 0
	o := New(jalapeno.NewClient(srv.URL))
	o.newProgrammer = func(p dataplane.Platform) (dataplane.Programmer, error) {
		constructions++
		return fake, nil
	}
	return o, fake, &constructions
}

// pathServiceStub answers shortest-path queries with a fixed uSID.
func pathServiceStub(usid string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jalapeno.Path{
			SRv6Data: jalapeno.SRv6Data{USID: usid, SIDList: []string{usid}},
			HopCount: 3,
		})
	})
}

func pathRoute(name, prefix string) spec.Route {
	return spec.Route{
		Name:              name,
		Graph:             "ipv6_graph",
		Source:            "A",
		Destination:       "B",
		DestinationPrefix: prefix,
		OutboundInterface: "eth0",
	}
}

func TestApplyStructuralPreconditions(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))

	tests := []struct {
		name string
		pr   *spec.PathRequest
	}{
		{"nil configuration", nil},
		{"wrong kind", &spec.PathRequest{Kind: "RouteRequest", Spec: spec.Spec{Platform: "linux"}}},
		{"empty spec", &spec.PathRequest{Kind: spec.PathRequestKind}},
		{
			"missing platform",
			&spec.PathRequest{Kind: spec.PathRequestKind, Spec: spec.Spec{
				DefaultVRF: spec.AddressFamily{IPv4: spec.RouteList{Routes: []spec.Route{pathRoute("r1", "10.0.0.0/24")}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := o.Apply(context.Background(), tt.pr)
			if err == nil {
				t.Fatalf("Apply should fail, got %d results", len(results))
			}
			if !errors.Is(err, util.ErrPreconditionFailed) {
				t.Errorf("error should unwrap to ErrPreconditionFailed, got %v", err)
			}
			if results != nil {
				t.Errorf("structural failure must not produce results, got %+v", results)
			}
		})
	}
}

func TestApplyEndToEnd(t *testing.T) {
	o, fake, _ := newTestOrchestrator(t, pathServiceStub("2001:db8:1:"))

	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			DefaultVRF: spec.AddressFamily{
				IPv6: spec.RouteList{Routes: []spec.Route{{
					Name:              "lax-to-nyc",
					Graph:             "ipv6_graph",
					Source:            "A",
					Destination:       "B",
					DestinationPrefix: "2001:db8::/64",
					OutboundInterface: "eth0",
				}}},
			},
		},
	}

	results, err := o.Apply(context.Background(), pr)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Status != StatusSuccess {
		t.Fatalf("result = %+v, want success", results[0])
	}
	if len(fake.programCalls) != 1 {
		t.Fatalf("programmer called %d times, want 1", len(fake.programCalls))
	}
	call := fake.programCalls[0]
	if call.SegmentID != "2001:db8:1:0:0:0:0:0" {
		t.Errorf("segment = %q, want expanded uSID 2001:db8:1:0:0:0:0:0", call.SegmentID)
	}
	if call.DestinationPrefix != "2001:db8::/64" || call.OutboundInterface != "eth0" {
		t.Errorf("unexpected program call %+v", call)
	}
	if fake.closed == 0 {
		t.Error("programmer was not released")
	}
}

func TestApplyFailureIsolation(t *testing.T) {
	o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))

	// Three routes; the middle one is invalid (no graph, no route target).
	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			DefaultVRF: spec.AddressFamily{
				IPv4: spec.RouteList{Routes: []spec.Route{
					pathRoute("first", "10.0.1.0/24"),
					{Name: "broken", DestinationPrefix: "10.0.2.0/24"},
					pathRoute("third", "10.0.3.0/24"),
				}},
			},
		},
	}

	results, err := o.Apply(context.Background(), pr)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (one per route spec)", len(results))
	}
	if results[0].Status != StatusSuccess || results[2].Status != StatusSuccess {
		t.Errorf("surrounding routes should succeed: %+v", results)
	}
	if results[1].Status != StatusError || results[1].Name != "broken" {
		t.Errorf("middle route should fail by name: %+v", results[1])
	}
	if !strings.Contains(results[1].Error, "graph") {
		t.Errorf("error should mention the missing graph: %q", results[1].Error)
	}
	if len(fake.programCalls) != 2 {
		t.Errorf("programmer called %d times, want 2", len(fake.programCalls))
	}
}

func TestBackendRejectionReportedAsProgrammingFailure(t *testing.T) {
	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			DefaultVRF: spec.AddressFamily{
				IPv4: spec.RouteList{Routes: []spec.Route{pathRoute("rejected", "10.0.1.0/24")}},
			},
		},
	}

	t.Run("apply", func(t *testing.T) {
		o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))
		fake.failProgram = true

		results, err := o.Apply(context.Background(), pr)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(results) != 1 || results[0].Status != StatusError {
			t.Fatalf("results = %+v, want one error result", results)
		}
		want := (&util.ProgrammingError{
			Platform: "linux",
			Resource: "10.0.1.0/24",
			Message:  "backend rejected route",
		}).Error()
		if !strings.Contains(results[0].Error, want) {
			t.Errorf("error = %q, should carry %q", results[0].Error, want)
		}
	})

	t.Run("delete", func(t *testing.T) {
		o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))
		fake.failDelete = true

		results, err := o.Delete(context.Background(), pr)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if len(results) != 1 || results[0].Status != StatusError {
			t.Fatalf("results = %+v, want one error result", results)
		}
		want := (&util.ProgrammingError{
			Platform: "linux",
			Resource: "10.0.1.0/24",
			Message:  "backend rejected deletion",
		}).Error()
		if !strings.Contains(results[0].Error, want) {
			t.Errorf("error = %q, should carry %q", results[0].Error, want)
		}
	})
}

func TestApplyRemoteFailureIsolated(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "no path found", http.StatusNotFound)
			return
		}
		pathServiceStub("fc00:0:1:").ServeHTTP(w, r)
	})
	o, _, _ := newTestOrchestrator(t, handler)

	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			DefaultVRF: spec.AddressFamily{
				IPv4: spec.RouteList{Routes: []spec.Route{
					pathRoute("unreachable", "10.0.1.0/24"),
					pathRoute("reachable", "10.0.2.0/24"),
				}},
			},
		},
	}

	results, err := o.Apply(context.Background(), pr)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Status != StatusError {
		t.Errorf("first route should carry the remote error: %+v", results[0])
	}
	if results[1].Status != StatusSuccess {
		t.Errorf("second route should still be programmed: %+v", results[1])
	}
}

func TestApplyVRFProvisioning(t *testing.T) {
	tableID := 100
	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			VRFs: []spec.VRF{{
				Name:      "customer-a",
				TableID:   &tableID,
				CreateVRF: true,
				RD:        "100:1",
				ImportRTs: []string{"100:1"},
				ExportRTs: []string{"100:1"},
				IPv4: spec.RouteList{Routes: []spec.Route{
					pathRoute("vrf-route", "10.10.0.0/24"),
				}},
			}},
		},
	}

	t.Run("create succeeds", func(t *testing.T) {
		o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))
		results, err := o.Apply(context.Background(), pr)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want vrf + route", len(results))
		}
		if results[0].Name != "VRF customer-a" || results[0].Status != StatusSuccess {
			t.Errorf("vrf result = %+v", results[0])
		}
		if len(fake.vrfCalls) != 1 || fake.vrfCalls[0].TableID != 100 {
			t.Errorf("vrf calls = %+v", fake.vrfCalls)
		}
		if len(fake.programCalls) != 1 || fake.programCalls[0].TableID != 100 {
			t.Errorf("route should be programmed into table 100: %+v", fake.programCalls)
		}
	})

	t.Run("create fails and routes are skipped", func(t *testing.T) {
		o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))
		fake.failVRF = true
		results, err := o.Apply(context.Background(), pr)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("got %d results, want only the vrf error", len(results))
		}
		if results[0].Status != StatusError || results[0].Name != "VRF customer-a" {
			t.Errorf("vrf error result = %+v", results[0])
		}
		if len(fake.programCalls) != 0 {
			t.Errorf("routes of a failed vrf must be skipped, got %+v", fake.programCalls)
		}
	})
}

func TestApplyVRFTableDefaultsToZero(t *testing.T) {
	o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))

	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			VRFs: []spec.VRF{{
				Name: "no-table",
				IPv4: spec.RouteList{Routes: []spec.Route{pathRoute("r", "10.0.0.0/24")}},
			}},
		},
	}

	if _, err := o.Apply(context.Background(), pr); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(fake.programCalls) != 1 || fake.programCalls[0].TableID != 0 {
		t.Errorf("absent tableId should default to 0: %+v", fake.programCalls)
	}
}

func TestApplyUnsupportedPlatformIsPerRoute(t *testing.T) {
	srv := httptest.NewServer(pathServiceStub("fc00:0:1:"))
	defer srv.Close()

	o := New(jalapeno.NewClient(srv.URL))
	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "sonic",
			DefaultVRF: spec.AddressFamily{
				IPv4: spec.RouteList{Routes: []spec.Route{
					pathRoute("a", "10.0.1.0/24"),
					pathRoute("b", "10.0.2.0/24"),
				}},
			},
		},
	}

	results, err := o.Apply(context.Background(), pr)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Status != StatusError || !strings.Contains(r.Error, "unsupported platform") {
			t.Errorf("result = %+v, want unsupported platform error", r)
		}
	}
}

func TestDeleteRequiresVRFTableID(t *testing.T) {
	o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))

	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			VRFs: []spec.VRF{{
				Name: "customer-a",
				IPv4: spec.RouteList{Routes: []spec.Route{pathRoute("r", "10.0.0.0/24")}},
			}},
		},
	}

	results, err := o.Delete(context.Background(), pr)
	if err == nil {
		t.Fatalf("Delete should fail structurally, got %d results", len(results))
	}
	if !errors.Is(err, util.ErrPreconditionFailed) {
		t.Errorf("error should unwrap to ErrPreconditionFailed, got %v", err)
	}
	if len(fake.deleteCalls) != 0 {
		t.Errorf("no deletions may run on structural failure, got %+v", fake.deleteCalls)
	}
}

func TestDeleteWalksTables(t *testing.T) {
	o, fake, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))

	tableID := 200
	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			DefaultVRF: spec.AddressFamily{
				IPv4: spec.RouteList{Routes: []spec.Route{{Name: "default-r", DestinationPrefix: "10.0.0.0/24"}}},
			},
			VRFs: []spec.VRF{{
				Name:    "customer-a",
				TableID: &tableID,
				IPv6:    spec.RouteList{Routes: []spec.Route{{Name: "vrf-r", DestinationPrefix: "2001:db8::/64", BSID: "fc00:0:9::1"}}},
			}},
		},
	}

	results, err := o.Delete(context.Background(), pr)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if len(fake.deleteCalls) != 2 {
		t.Fatalf("delete calls = %+v, want 2", fake.deleteCalls)
	}
	if fake.deleteCalls[0].TableID != 0 {
		t.Errorf("default table delete should target table 0: %+v", fake.deleteCalls[0])
	}
	if fake.deleteCalls[1].TableID != 200 || fake.deleteCalls[1].BSID != "fc00:0:9::1" {
		t.Errorf("vrf delete should carry the declared table and bsid: %+v", fake.deleteCalls[1])
	}
}

func TestApplyRecordsJournal(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, pathServiceStub("fc00:0:1:"))

	journal, err := audit.NewFileLogger(filepath.Join(t.TempDir(), "journal.jsonl"))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer journal.Close()
	o.SetJournal(journal)

	pr := &spec.PathRequest{
		Kind: spec.PathRequestKind,
		Spec: spec.Spec{
			Platform: "linux",
			DefaultVRF: spec.AddressFamily{
				IPv4: spec.RouteList{Routes: []spec.Route{
					pathRoute("good", "10.0.1.0/24"),
					{Name: "bad", DestinationPrefix: "10.0.2.0/24"},
				}},
			},
		},
	}

	if _, err := o.Apply(context.Background(), pr); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	events, err := journal.Query(audit.Filter{Operation: "apply"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("journal has %d events, want 2", len(events))
	}
	if !events[0].Success || events[1].Success {
		t.Errorf("journal outcomes = %+v", events)
	}
}
