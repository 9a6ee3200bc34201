// Package jalapeno is the HTTP client for the Jalapeno path computation and
// L3VPN prefix query service.
package jalapeno

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jalapeno-sdn/srctl/pkg/util"
)

// DefaultTimeout bounds every request so an unresponsive service cannot
// stall an entire batch.
const DefaultTimeout = 15 * time.Second

// Metric names accepted in route specs.
const (
	MetricLowLatency      = "low-latency"
	MetricLeastUtilized   = "least-utilized"
	MetricDataSovereignty = "data-sovereignty"
)

// metricEndpoints maps route-spec metric names to service endpoint names.
// The table is closed: anything else is rejected before a request is sent.
var metricEndpoints = map[string]string{
	MetricLowLatency:      "latency",
	MetricLeastUtilized:   "utilization",
	MetricDataSovereignty: "sovereignty",
}

// Client queries the Jalapeno API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given API server base URL.
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, DefaultTimeout)
}

// NewClientWithTimeout creates a client with an explicit request timeout.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ShortestPathRequest parameterizes a shortest-path query.
type ShortestPathRequest struct {
	Graph             string
	Source            string
	Destination       string
	Metric            string // optional; one of the Metric* constants
	Direction         string
	ExcludedCountries []string // sovereignty metric only
}

// ShortestPath queries the single shortest path between two nodes.
func (c *Client) ShortestPath(ctx context.Context, req ShortestPathRequest) (*Path, error) {
	endpoint := fmt.Sprintf("/api/v1/graphs/%s/shortest_path", url.PathEscape(req.Graph))
	if req.Metric != "" {
		apiMetric, ok := metricEndpoints[req.Metric]
		if !ok {
			return nil, fmt.Errorf("%w: %q", util.ErrUnsupportedMetric, req.Metric)
		}
		endpoint += "/" + apiMetric
	}

	params := url.Values{}
	params.Set("source", req.Source)
	params.Set("destination", req.Destination)
	params.Set("direction", req.Direction)
	if req.Metric == MetricDataSovereignty && len(req.ExcludedCountries) > 0 {
		params.Set("excluded_countries", strings.Join(req.ExcludedCountries, ","))
	}

	var path Path
	if err := c.get(ctx, endpoint, params, &path); err != nil {
		return nil, err
	}
	return &path, nil
}

// BestPaths queries up to limit best paths between two nodes. A limit of 0
// leaves the count to the service.
func (c *Client) BestPaths(ctx context.Context, graph, source, destination, direction string, limit int) (*BestPaths, error) {
	endpoint := fmt.Sprintf("/api/v1/graphs/%s/shortest_path/best-paths", url.PathEscape(graph))
	params := url.Values{}
	params.Set("source", source)
	params.Set("destination", destination)
	params.Set("direction", direction)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var paths BestPaths
	if err := c.get(ctx, endpoint, params, &paths); err != nil {
		return nil, err
	}
	return &paths, nil
}

// NextBestPath queries the shortest path plus alternates at the same hop
// count and at one extra hop. Zero limits leave the counts to the service.
func (c *Client) NextBestPath(ctx context.Context, graph, source, destination, direction string, sameHopLimit, plusOneLimit int) (*NextBestPath, error) {
	endpoint := fmt.Sprintf("/api/v1/graphs/%s/shortest_path/next-best-path", url.PathEscape(graph))
	params := url.Values{}
	params.Set("source", source)
	params.Set("destination", destination)
	params.Set("direction", direction)
	if sameHopLimit > 0 {
		params.Set("same_hop_limit", strconv.Itoa(sameHopLimit))
	}
	if plusOneLimit > 0 {
		params.Set("plus_one_limit", strconv.Itoa(plusOneLimit))
	}

	var nbp NextBestPath
	if err := c.get(ctx, endpoint, params, &nbp); err != nil {
		return nil, err
	}
	return &nbp, nil
}

// L3VPNPrefixesByRT queries all prefixes imported under a route target.
func (c *Client) L3VPNPrefixesByRT(ctx context.Context, routeTarget, collection string, limit int) (*L3VPNPrefixes, error) {
	endpoint := fmt.Sprintf("/api/v1/vpns/%s/prefixes/by-rt", url.PathEscape(collection))
	params := url.Values{}
	params.Set("route_target", routeTarget)
	params.Set("limit", strconv.Itoa(limit))

	var prefixes L3VPNPrefixes
	if err := c.get(ctx, endpoint, params, &prefixes); err != nil {
		return nil, err
	}
	return &prefixes, nil
}

// L3VPNPrefix searches for a specific prefix under a route target.
func (c *Client) L3VPNPrefix(ctx context.Context, prefix, routeTarget, collection string, exactMatch bool) (*L3VPNPrefixes, error) {
	endpoint := fmt.Sprintf("/api/v1/vpns/%s/prefixes/search", url.PathEscape(collection))
	params := url.Values{}
	params.Set("prefix", prefix)
	params.Set("route_target", routeTarget)
	params.Set("prefix_exact", strconv.FormatBool(exactMatch))

	var prefixes L3VPNPrefixes
	if err := c.get(ctx, endpoint, params, &prefixes); err != nil {
		return nil, err
	}
	return &prefixes, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", reqURL, err)
	}

	util.WithField("url", reqURL).Debug("querying path service")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrRemoteService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", reqURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &util.RemoteServiceError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", reqURL, err)
	}
	return nil
}
