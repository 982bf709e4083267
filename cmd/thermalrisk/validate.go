package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/thermal-risk-etl/internal/comfort"
	"github.com/couchcryptid/thermal-risk-etl/internal/config"
	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// validateCmd checks a policy file and, optionally, payload files against it
// without running an analysis.
func validateCmd() *cobra.Command {
	var (
		policyFile string
		inputs     []string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an analysis policy and simulation payloads",
		Long: `Validate an analysis policy and print it with every default filled in.
Payloads given with --input are parsed and their zone metadata and matrix
shapes checked against the policy.

Examples:
  # Show the built-in policy
  thermalrisk validate

  # Check a policy and two payloads
  thermalrisk validate --config=policy.yaml --input=a.json --input=b.json --quiet`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := config.LoadAnalysisConfig(policyFile)
			if err != nil {
				return err
			}
			if !quiet {
				if err := config.EncodeAnalysisConfig(cmd.OutOrStdout(), policy); err != nil {
					return err
				}
			}

			analyzer, err := overheating.NewAnalyzer(policy, comfort.NewModel(comfort.Options{}))
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range inputs {
				if err := validatePayload(cmd, analyzer, path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", path, err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d payloads invalid", failed, len(inputs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&policyFile, "config", "c", "", "Analysis policy YAML (default: built-in policy)")
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Payload JSON file to check, or - for stdin (repeatable)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the effective policy")

	return cmd
}

func validatePayload(cmd *cobra.Command, analyzer *overheating.Analyzer, path string) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	payload, err := domain.ParseRawEvent(domain.RawEvent{Value: data})
	if err != nil {
		return err
	}
	if payload.MatrixRef != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "SKIP %s: matrices stored at %s/%s\n", path, payload.MatrixRef.Bucket, payload.MatrixRef.Key)
		return nil
	}
	in, err := payload.Inputs()
	if err != nil {
		return err
	}
	zones, err := analyzer.Zones(in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "OK   %s: %s, %d zones\n", path, payload.SimulationID, zones.Len())
	return nil
}
