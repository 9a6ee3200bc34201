package spec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jalapeno-sdn/srctl/pkg/util"
)

const sampleDoc = `
kind: PathRequest
spec:
  platform: linux
  defaultVrf:
    ipv4:
      routes:
        - name: west-east
          graph: ipv4_graph
          source: SEA
          destination: NYC
          metric: low-latency
          destination_prefix: 10.1.0.0/24
          outbound_interface: eth0
    ipv6:
      routes:
        - name: west-east-v6
          graph: ipv6_graph
          source: SEA
          destination: NYC
          destination_prefix: "2001:db8::/64"
          outbound_interface: eth0
  vrfs:
    - name: customer-a
      tableId: 100
      createVrf: true
      rd: "100:1"
      importRts: ["100:1"]
      exportRts: ["100:1"]
      ipv4:
        routes:
          - name: customer-a-routes
            route_target: "100:1"
            outbound_interface: eth0
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadPathRequest(t *testing.T) {
	pr, err := Load(writeDoc(t, sampleDoc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if pr.Kind != PathRequestKind {
		t.Errorf("kind = %q", pr.Kind)
	}
	if pr.Spec.Platform != "linux" {
		t.Errorf("platform = %q", pr.Spec.Platform)
	}
	if len(pr.Spec.DefaultVRF.IPv4.Routes) != 1 || len(pr.Spec.DefaultVRF.IPv6.Routes) != 1 {
		t.Fatalf("default vrf routes = %+v", pr.Spec.DefaultVRF)
	}

	r := pr.Spec.DefaultVRF.IPv4.Routes[0]
	if r.Name != "west-east" || r.Metric != "low-latency" || r.DestinationPrefix != "10.1.0.0/24" {
		t.Errorf("route = %+v", r)
	}

	if len(pr.Spec.VRFs) != 1 {
		t.Fatalf("vrfs = %+v", pr.Spec.VRFs)
	}
	vrf := pr.Spec.VRFs[0]
	if vrf.TableID == nil || *vrf.TableID != 100 || !vrf.CreateVRF {
		t.Errorf("vrf = %+v", vrf)
	}
	if !vrf.IPv4.Routes[0].IsL3VPN() {
		t.Error("route_target route should report IsL3VPN")
	}

	if got := len(pr.AllRoutes()); got != 3 {
		t.Errorf("AllRoutes = %d, want 3", got)
	}
}

func TestLoadAbsentTableID(t *testing.T) {
	doc := `
kind: PathRequest
spec:
  platform: vpp
  vrfs:
    - name: no-table
      ipv4:
        routes: []
`
	pr, err := Load(writeDoc(t, doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if pr.Spec.VRFs[0].TableID != nil {
		t.Errorf("absent tableId should stay nil, got %v", *pr.Spec.VRFs[0].TableID)
	}
}

func TestLoadExplicitZeroTableID(t *testing.T) {
	doc := `
kind: PathRequest
spec:
  platform: vpp
  vrfs:
    - name: zero-table
      tableId: 0
`
	pr, err := Load(writeDoc(t, doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if pr.Spec.VRFs[0].TableID == nil || *pr.Spec.VRFs[0].TableID != 0 {
		t.Error("explicit tableId 0 must be distinguishable from absent")
	}
}

func TestParseRejectsWrongKind(t *testing.T) {
	_, err := Parse([]byte("kind: Deployment\nspec:\n  platform: linux\n"))
	if !errors.Is(err, util.ErrValidationFailed) {
		t.Fatalf("want ErrValidationFailed, got %v", err)
	}
}

func TestParseRejectsMutuallyExclusiveFields(t *testing.T) {
	doc := `
kind: PathRequest
spec:
  platform: linux
  defaultVrf:
    ipv4:
      routes:
        - name: both
          graph: ipv4_graph
          route_target: "100:1"
`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, util.ErrValidationFailed) {
		t.Fatalf("want ErrValidationFailed, got %v", err)
	}
}

func TestDirectionOrDefault(t *testing.T) {
	r := Route{}
	if r.DirectionOrDefault() != "outbound" {
		t.Errorf("default direction = %q", r.DirectionOrDefault())
	}
	r.Direction = "inbound"
	if r.DirectionOrDefault() != "inbound" {
		t.Errorf("explicit direction = %q", r.DirectionOrDefault())
	}
}
