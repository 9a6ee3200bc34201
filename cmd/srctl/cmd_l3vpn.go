package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jalapeno-sdn/srctl/pkg/srctl/jalapeno"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/orchestrator"
)

var (
	l3vpnRouteTarget string
	l3vpnPrefix      string
	l3vpnExactMatch  bool
	l3vpnCollection  string
	l3vpnPlatform    string
	l3vpnTableID     int
	l3vpnInterface   string
	l3vpnBSID        string
	l3vpnApply       bool
)

var l3vpnCmd = &cobra.Command{
	Use:   "l3vpn",
	Short: "L3VPN operations",
}

var l3vpnGetRoutesCmd = &cobra.Command{
	Use:   "get-routes",
	Short: "Get and optionally apply L3VPN routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if l3vpnApply {
			if l3vpnPlatform == "" {
				return fmt.Errorf("--platform is required when --apply is specified")
			}
			if l3vpnPlatform == "linux" && l3vpnInterface == "" {
				return fmt.Errorf("--outbound-interface is required for linux when --apply is specified")
			}
			if l3vpnPlatform == "vpp" && l3vpnBSID == "" {
				return fmt.Errorf("--bsid is required for vpp when --apply is specified")
			}
		}

		ctx := context.Background()
		var (
			prefixes *jalapeno.L3VPNPrefixes
			err      error
		)
		if l3vpnPrefix != "" {
			fmt.Printf("Querying for prefix %s in route-target %s...\n", l3vpnPrefix, l3vpnRouteTarget)
			prefixes, err = client.L3VPNPrefix(ctx, l3vpnPrefix, l3vpnRouteTarget, l3vpnCollection, l3vpnExactMatch)
		} else {
			fmt.Printf("Querying for all prefixes in route-target %s...\n", l3vpnRouteTarget)
			prefixes, err = client.L3VPNPrefixesByRT(ctx, l3vpnRouteTarget, l3vpnCollection, 100)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Found %d prefixes\n", prefixes.TotalPrefixes)
		printPrefixes(prefixes)

		if !l3vpnApply {
			return nil
		}

		fmt.Printf("\nApplying routes to %s...\n", l3vpnPlatform)
		results, err := orch.ApplyL3VPNRoutes(l3vpnPlatform, prefixes.Prefixes, l3vpnTableID, l3vpnInterface, l3vpnBSID)
		if err != nil {
			return err
		}
		for _, result := range results {
			if result.Status == orchestrator.StatusError {
				fmt.Fprintf(os.Stderr, "Error for %s: %s\n", result.Name, result.Error)
				continue
			}
			fmt.Printf("%s: %s\n", result.Name, result.Message)
		}
		return exitStatus(results)
	},
}

func printPrefixes(prefixes *jalapeno.L3VPNPrefixes) {
	if verbose >= 2 {
		out, err := yaml.Marshal(prefixes)
		if err == nil {
			fmt.Print(string(out))
		}
		return
	}

	for _, p := range prefixes.Prefixes {
		if verbose == 0 {
			fmt.Printf("  %s -> %s\n", p.DestinationPrefix(), orNA(p.FirstSID()))
			continue
		}
		fmt.Printf("\n  Prefix: %s\n", p.DestinationPrefix())
		fmt.Printf("  SID: %s\n", orNA(p.FirstSID()))
		fmt.Printf("  Labels: %v\n", p.Labels)
		fmt.Printf("  Next-hop: %s\n", p.NextHop)
	}
}

func init() {
	l3vpnGetRoutesCmd.Flags().StringVar(&l3vpnRouteTarget, "route-target", "", "Route target to query")
	l3vpnGetRoutesCmd.Flags().StringVar(&l3vpnPrefix, "prefix", "", "Specific prefix to query")
	l3vpnGetRoutesCmd.Flags().BoolVar(&l3vpnExactMatch, "exact-match", false, "Exact match for prefix")
	l3vpnGetRoutesCmd.Flags().StringVar(&l3vpnCollection, "collection", "l3vpn_v4_prefix", "Collection to query")
	l3vpnGetRoutesCmd.Flags().StringVar(&l3vpnPlatform, "platform", "", "Platform to program routes on (linux or vpp)")
	l3vpnGetRoutesCmd.Flags().IntVar(&l3vpnTableID, "table-id", 0, "Table ID to program routes in")
	l3vpnGetRoutesCmd.Flags().StringVar(&l3vpnInterface, "outbound-interface", "", "Outbound interface (required for linux)")
	l3vpnGetRoutesCmd.Flags().StringVar(&l3vpnBSID, "bsid", "", "Binding SID (required for vpp)")
	l3vpnGetRoutesCmd.Flags().BoolVar(&l3vpnApply, "apply", false, "Apply the routes (default: just show them)")
	l3vpnGetRoutesCmd.MarkFlagRequired("route-target")

	l3vpnCmd.AddCommand(l3vpnGetRoutesCmd)
}
