// srctl - Segment Routing Configuration Tool
//
// A CLI for turning declarative PathRequest documents into live SRv6
// forwarding state:
//   - Paths are computed by a Jalapeno API server (shortest path, best
//     paths, L3VPN prefix lookups)
//   - Routes are programmed on the local node, on Linux (kernel seg6
//     routes over netlink) or VPP (SR policies over the binary API)
//   - Every route in a batch reports its own result; one bad route never
//     aborts the rest
//
// Examples:
//
//	srctl apply -f routes.yaml
//	srctl delete -f routes.yaml
//	srctl get-paths -s SEA -d NYC -t best-paths --limit 3
//	srctl l3vpn get-routes --route-target 100:1 --platform linux --outbound-interface eth0 --apply
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jalapeno-sdn/srctl/pkg/audit"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/jalapeno"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/orchestrator"
	"github.com/jalapeno-sdn/srctl/pkg/util"
	"github.com/jalapeno-sdn/srctl/pkg/version"
)

const defaultAPIServer = "http://localhost:8000"

var (
	apiServer  string
	logLevel   string
	verbose    int
	auditPath  string
	auditRedis string

	client   *jalapeno.Client
	orch     *orchestrator.Orchestrator
	journal  audit.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "srctl",
	Short:         "Segment Routing Configuration Tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `srctl programs SRv6 routes from declarative PathRequest documents.

Paths are resolved against a Jalapeno API server and installed on the
local node's dataplane (linux or vpp).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := util.SetLogLevel(logLevel); err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}

		client = jalapeno.NewClient(apiServer)
		orch = orchestrator.New(client)

		var err error
		journal, err = openJournal()
		if err != nil {
			return err
		}
		if journal != nil {
			orch.SetJournal(journal)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if journal != nil {
			journal.Close()
		}
	},
}

func openJournal() (audit.Logger, error) {
	switch {
	case auditRedis != "":
		j, err := audit.NewRedisLogger(auditRedis, "")
		if err != nil {
			return nil, fmt.Errorf("opening audit journal: %w", err)
		}
		return j, nil
	case auditPath != "":
		j, err := audit.NewFileLogger(auditPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit journal: %w", err)
		}
		return j, nil
	default:
		return nil, nil
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("srctl " + version.Info())
	},
}

func init() {
	server := os.Getenv("JALAPENO_API_SERVER")
	if server == "" {
		server = defaultAPIServer
	}

	rootCmd.PersistentFlags().StringVar(&apiServer, "api-server", server,
		"Jalapeno API server address (env JALAPENO_API_SERVER)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning",
		"Log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v",
		"Increase output verbosity (-v detailed, -vv full)")
	rootCmd.PersistentFlags().StringVar(&auditPath, "audit-log", "",
		"Record programming results to a JSON-lines journal file")
	rootCmd.PersistentFlags().StringVar(&auditRedis, "audit-redis", "",
		"Record programming results to a Redis journal at this address")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(getPathsCmd)
	rootCmd.AddCommand(l3vpnCmd)
	rootCmd.AddCommand(versionCmd)
}
