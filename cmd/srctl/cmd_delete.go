package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jalapeno-sdn/srctl/pkg/srctl/orchestrator"
	"github.com/jalapeno-sdn/srctl/pkg/srctl/spec"
)

var deleteFile string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a PathRequest configuration from file",
	RunE: func(cmd *cobra.Command, args []string) error {
		pr, err := spec.Load(deleteFile)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded configuration from %s\n", deleteFile)

		results, err := orch.Delete(context.Background(), pr)
		if err != nil {
			return err
		}

		for _, result := range results {
			printDeleteResult(result)
		}
		return exitStatus(results)
	},
}

func printDeleteResult(result orchestrator.Result) {
	if result.Status == orchestrator.StatusError {
		fmt.Fprintf(os.Stderr, "Error deleting %s: %s\n", result.Name, result.Error)
		return
	}

	switch verbose {
	case 0:
		fmt.Printf("%s: %s\n", result.Name, result.Message)
	case 1:
		fmt.Printf("\n%s:\n  Message: %s\n", result.Name, result.Message)
	default:
		fmt.Printf("\n%s:\n", result.Name)
		out, err := yaml.Marshal(result)
		if err == nil {
			fmt.Print(string(out))
		}
	}
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteFile, "filename", "f", "", "YAML file containing the configuration to delete")
	deleteCmd.MarkFlagRequired("filename")
}
