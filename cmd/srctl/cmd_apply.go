package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jalapeno-sdn/srctl/pkg/srctl/jalapeno"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/orchestrator"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/spec"
)

var applyFile string

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a PathRequest configuration from file",
	RunE: func(cmd *cobra.Command, args []string) error {
		pr, err := spec.Load(applyFile)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded configuration from %s\n", applyFile)

		results, err := orch.Apply(context.Background(), pr)
		if err != nil {
			return err
		}

		for _, result := range results {
			printApplyResult(result)
		}
		return exitStatus(results)
	},
}

func printApplyResult(result orchestrator.Result) {
	if result.Status == orchestrator.StatusError {
		fmt.Fprintf(os.Stderr, "Error for %s: %s\n", result.Name, result.Error)
		return
	}

	switch verbose {
	case 0:
		usid := "N/A"
		if path, ok := result.Data.(*jalapeno.Path); ok && path.SRv6Data.USID != "" {
			usid = path.SRv6Data.USID
		}
		fmt.Printf("%s: %s %s\n", result.Name, usid, result.Message)
	case 1:
		fmt.Printf("\n%s:\n", result.Name)
		if path, ok := result.Data.(*jalapeno.Path); ok {
			fmt.Printf("  SRv6 uSID: %s\n", path.SRv6Data.USID)
			fmt.Printf("  SID List: %v\n", path.SRv6Data.SIDList)
		}
		fmt.Printf("  Route Programming: %s\n", result.Message)
	default:
		fmt.Printf("\n%s:\n", result.Name)
		out, err := yaml.Marshal(result)
		if err == nil {
			fmt.Print(string(out))
		}
	}
}

// exitStatus returns an error when any result failed, so the process exit
// code reflects partial failure without hiding per-route output.
func exitStatus(results []orchestrator.Result) error {
	failed := 0
	for _, r := range results {
		if r.Status == orchestrator.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d routes failed", failed, len(results))
	}
	return nil
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "filename", "f", "", "YAML file containing the configuration")
	applyCmd.MarkFlagRequired("filename")
}
