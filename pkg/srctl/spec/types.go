// Package spec defines the PathRequest configuration document and its loader.
//
// A PathRequest document declares route intent: which prefixes to steer over
// which computed SRv6 paths, per routing table / VRF / address family.
package spec

// PathRequestKind is the only resource kind this tool accepts.
const PathRequestKind = "PathRequest"

// PathRequest is the top-level configuration document.
type PathRequest struct {
	Kind string `yaml:"kind"`
	Spec Spec   `yaml:"spec"`
}

// Spec holds the platform selection and the routing table tree.
type Spec struct {
	Platform   string        `yaml:"platform"`
	DefaultVRF AddressFamily `yaml:"defaultVrf"`
	VRFs       []VRF         `yaml:"vrfs"`
}

// AddressFamily groups routes per address family for one routing table.
type AddressFamily struct {
	IPv4 RouteList `yaml:"ipv4"`
	IPv6 RouteList `yaml:"ipv6"`
}

// RouteList is a declared collection of route specs.
type RouteList struct {
	Routes []Route `yaml:"routes"`
}

// VRF declares an isolated routing table and its route collections.
// TableID is a pointer so "absent" can be told apart from an explicit 0:
// apply defaults an absent table id to 0, delete requires it.
type VRF struct {
	Name      string   `yaml:"name"`
	TableID   *int     `yaml:"tableId"`
	CreateVRF bool     `yaml:"createVrf"`
	RD        string   `yaml:"rd"`
	ImportRTs []string `yaml:"importRts"`
	ExportRTs []string `yaml:"exportRts"`
	IPv4      RouteList `yaml:"ipv4"`
	IPv6      RouteList `yaml:"ipv6"`
}

// Route is one route intent. A route is either path-based (Graph set) or
// L3VPN-based (RouteTarget set); the two are mutually exclusive.
type Route struct {
	Name              string   `yaml:"name"`
	Graph             string   `yaml:"graph"`
	Source            string   `yaml:"source"`
	Destination       string   `yaml:"destination"`
	Metric            string   `yaml:"metric"`
	Direction         string   `yaml:"direction"`
	ExcludedCountries []string `yaml:"excluded_countries"`
	DestinationPrefix string   `yaml:"destination_prefix"`
	OutboundInterface string   `yaml:"outbound_interface"`
	BSID              string   `yaml:"bsid"`

	// L3VPN lookup fields
	RouteTarget string `yaml:"route_target"`
	Prefix      string `yaml:"prefix"`
	Collection  string `yaml:"collection"`
	ExactMatch  bool   `yaml:"exact_match"`
}

// IsL3VPN reports whether the route resolves through an L3VPN prefix lookup
// rather than a path query.
func (r *Route) IsL3VPN() bool {
	return r.RouteTarget != ""
}

// DirectionOrDefault returns the declared direction, defaulting to outbound.
func (r *Route) DirectionOrDefault() string {
	if r.Direction == "" {
		return "outbound"
	}
	return r.Direction
}
