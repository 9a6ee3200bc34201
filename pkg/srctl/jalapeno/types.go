package jalapeno

import (
	"encoding/json"
	"fmt"
)

// SRv6Data carries the segment information of one computed path.
type SRv6Data struct {
	USID    string   `json:"srv6_usid"`
	SIDList []string `json:"srv6_sid_list"`
}

// Path is one computed path returned by the service.
type Path struct {
	SRv6Data           SRv6Data   `json:"srv6_data"`
	HopCount           int        `json:"hopcount"`
	CountriesTraversed [][]string `json:"countries_traversed"`
}

// BestPaths is the response of a best-paths query.
type BestPaths struct {
	Paths           []Path `json:"paths"`
	TotalPathsFound int    `json:"total_paths_found"`
}

// NextBestPath is the response of a next-best-path query: the shortest path
// plus alternates at the same hop count and at one extra hop.
type NextBestPath struct {
	ShortestPath      *Path  `json:"shortest_path"`
	SameHopCountPaths []Path `json:"same_hopcount_paths"`
	PlusOneHopPaths   []Path `json:"plus_one_hopcount_paths"`
}

// L3VPNPrefixes is the response of an L3VPN prefix query.
type L3VPNPrefixes struct {
	TotalPrefixes int           `json:"total_prefixes"`
	Prefixes      []L3VPNPrefix `json:"prefixes"`
}

// L3VPNPrefix is one VPN prefix record. The service emits sid either as a
// string or as a list; the first element is authoritative.
type L3VPNPrefix struct {
	Prefix    string       `json:"prefix"`
	PrefixLen int          `json:"prefix_len"`
	SID       StringOrList `json:"sid"`
	Labels    []int        `json:"labels"`
	NextHop   string       `json:"nexthop"`
}

// DestinationPrefix returns the record's prefix in CIDR notation.
func (p *L3VPNPrefix) DestinationPrefix() string {
	return fmt.Sprintf("%s/%d", p.Prefix, p.PrefixLen)
}

// FirstSID returns the authoritative SID, or "" when the record has none.
func (p *L3VPNPrefix) FirstSID() string {
	return p.SID.First()
}

// VPNLabel returns the VPN label and whether one is present.
func (p *L3VPNPrefix) VPNLabel() (int, bool) {
	if len(p.Labels) == 0 {
		return 0, false
	}
	return p.Labels[0], true
}

// StringOrList unmarshals a JSON value that is either a single string or a
// list of strings.
type StringOrList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
		} else {
			*s = []string{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("sid must be a string or a list of strings: %w", err)
	}
	*s = list
	return nil
}

// First returns the first element, or "" when empty.
func (s StringOrList) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
