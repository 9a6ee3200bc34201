package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// Load reads a PathRequest document from a YAML file.
func Load(path string) (*PathRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals and validates a PathRequest document.
func Parse(data []byte) (*PathRequest, error) {
	var pr PathRequest
	if err := yaml.Unmarshal(data, &pr); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Validate checks document-level constraints that do not depend on the
// operation being performed. Operation-specific structural preconditions
// (platform, table ids) are checked by the orchestrator.
func (pr *PathRequest) Validate() error {
	if pr.Kind != PathRequestKind {
		return util.NewValidationError(fmt.Sprintf("unsupported resource kind: %q", pr.Kind))
	}

	v := &util.ValidationBuilder{}
	for _, vrf := range pr.Spec.VRFs {
		if vrf.Name == "" {
			v.AddError("vrf name is required")
		}
	}
	for _, r := range pr.AllRoutes() {
		if r.Graph != "" && r.RouteTarget != "" {
			v.AddErrorf("route %q: graph and route_target are mutually exclusive", r.Name)
		}
	}
	return v.Build()
}

// AllRoutes returns every declared route across the default VRF and all
// declared VRFs, in declaration order.
func (pr *PathRequest) AllRoutes() []Route {
	var routes []Route
	routes = append(routes, pr.Spec.DefaultVRF.IPv4.Routes...)
	routes = append(routes, pr.Spec.DefaultVRF.IPv6.Routes...)
	for _, vrf := range pr.Spec.VRFs {
		routes = append(routes, vrf.IPv4.Routes...)
		routes = append(routes, vrf.IPv6.Routes...)
	}
	return routes
}
