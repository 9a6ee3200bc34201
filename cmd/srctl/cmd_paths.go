package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jalapeno-sdn/srctl/pkg/srctl/jalapeno"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/spec"
)

var (
	pathsFile         string
	pathsSource       string
	pathsDestination  string
	pathsGraph        string
	pathsType         string
	pathsDirection    string
	pathsLimit        int
	pathsSameHopLimit int
	pathsPlusOneLimit int
)

var getPathsCmd = &cobra.Command{
	Use:   "get-paths",
	Short: "Get best paths between source and destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if pathsFile != "" {
			return pathsFromFile(ctx)
		}

		if pathsSource == "" || pathsDestination == "" {
			return fmt.Errorf("both --source and --destination are required when not using a config file")
		}
		name := pathsSource + "-to-" + pathsDestination
		return queryPaths(ctx, name, pathsGraph, pathsSource, pathsDestination, pathsDirection)
	},
}

// pathsFromFile runs the path query for every route declared in the default
// table of a PathRequest document. A route's query failure is reported and the
// walk continues.
func pathsFromFile(ctx context.Context) error {
	pr, err := spec.Load(pathsFile)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded configuration from %s\n", pathsFile)

	routes := append([]spec.Route{}, pr.Spec.DefaultVRF.IPv4.Routes...)
	routes = append(routes, pr.Spec.DefaultVRF.IPv6.Routes...)
	for i := range routes {
		route := &routes[i]
		name := route.Name
		if name == "" {
			name = route.Source + "-to-" + route.Destination
		}
		graph := route.Graph
		if graph == "" {
			graph = pathsGraph
		}
		if err := queryPaths(ctx, name, graph, route.Source, route.Destination, route.DirectionOrDefault()); err != nil {
			fmt.Printf("\n%s:\n  Error: %v\n", name, err)
		}
	}
	return nil
}

func queryPaths(ctx context.Context, name, graph, source, destination, direction string) error {
	switch pathsType {
	case "best-paths":
		bp, err := client.BestPaths(ctx, graph, source, destination, direction, pathsLimit)
		if err != nil {
			return err
		}
		printBestPaths(name, bp)
	case "next-best-path":
		nbp, err := client.NextBestPath(ctx, graph, source, destination, direction,
			pathsSameHopLimit, pathsPlusOneLimit)
		if err != nil {
			return err
		}
		printNextBestPath(name, nbp)
	default:
		return fmt.Errorf("unsupported path type %q (best-paths or next-best-path)", pathsType)
	}
	return nil
}

func printBestPaths(name string, bp *jalapeno.BestPaths) {
	if verbose >= 2 {
		out, err := yaml.Marshal(bp)
		if err == nil {
			fmt.Printf("%s:\n%s", name, string(out))
		}
		return
	}

	fmt.Printf("\n%s:\n", name)
	if verbose == 1 {
		fmt.Printf("  Found %d paths:\n", bp.TotalPathsFound)
	}
	for i, path := range bp.Paths {
		printPath(fmt.Sprintf("Path %d", i+1), &path)
	}
}

func printNextBestPath(name string, nbp *jalapeno.NextBestPath) {
	if verbose >= 2 {
		out, err := yaml.Marshal(nbp)
		if err == nil {
			fmt.Printf("%s:\n%s", name, string(out))
		}
		return
	}

	fmt.Printf("\n%s:\n", name)
	if nbp.ShortestPath != nil {
		printPath("Best Path", nbp.ShortestPath)
	}
	for i, path := range nbp.SameHopCountPaths {
		printPath(fmt.Sprintf("Additional Best Path %d", i+1), &path)
	}
	for i, path := range nbp.PlusOneHopPaths {
		printPath(fmt.Sprintf("Next Best Path %d", i+1), &path)
	}
}

func printPath(label string, path *jalapeno.Path) {
	if verbose == 0 {
		fmt.Printf("  %s SRv6 uSID: %s\n", label, orNA(path.SRv6Data.USID))
		return
	}
	fmt.Printf("\n  %s:\n", label)
	fmt.Printf("    SRv6 uSID: %s\n", orNA(path.SRv6Data.USID))
	fmt.Printf("    SID List: %v\n", path.SRv6Data.SIDList)
	fmt.Printf("    Hop Count: %d\n", path.HopCount)
	if countries := flattenCountries(path.CountriesTraversed); len(countries) > 0 {
		fmt.Printf("    Countries Traversed: %s\n", strings.Join(countries, ", "))
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func flattenCountries(traversed [][]string) []string {
	var countries []string
	for _, hop := range traversed {
		countries = append(countries, hop...)
	}
	return countries
}

func init() {
	getPathsCmd.Flags().StringVarP(&pathsFile, "filename", "f", "", "YAML file containing the path request configuration")
	getPathsCmd.Flags().StringVarP(&pathsSource, "source", "s", "", "Source node")
	getPathsCmd.Flags().StringVarP(&pathsDestination, "destination", "d", "", "Destination node")
	getPathsCmd.Flags().StringVarP(&pathsGraph, "graph", "g", "ipv6_graph", "Graph to use")
	getPathsCmd.Flags().StringVarP(&pathsType, "type", "t", "best-paths", "Type of paths (best-paths or next-best-path)")
	getPathsCmd.Flags().StringVar(&pathsDirection, "direction", "outbound", "Direction of paths")
	getPathsCmd.Flags().IntVar(&pathsLimit, "limit", 0, "Limit number of paths (best-paths)")
	getPathsCmd.Flags().IntVar(&pathsSameHopLimit, "same-hop-limit", 0, "Limit same-hop paths (next-best-path)")
	getPathsCmd.Flags().IntVar(&pathsPlusOneLimit, "plus-one-limit", 0, "Limit plus-one-hop paths (next-best-path)")
}
