package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/thermal-risk-etl/internal/adapter/comfortapi"
	"github.com/couchcryptid/thermal-risk-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/thermal-risk-etl/internal/comfort"
	"github.com/couchcryptid/thermal-risk-etl/internal/config"
	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
	"github.com/couchcryptid/thermal-risk-etl/internal/pipeline"
)

const (
	formatJSON    = "json"
	formatSummary = "summary"
)

// analyzeCmd analyses one simulation payload.
func analyzeCmd(logLevel *string) *cobra.Command {
	var (
		inputFile    string
		policyFile   string
		comfortURL   string
		comfortLimit bool
		outputFile   string
		format       string
		fetch        bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse a simulation payload and print the report",
		Long: `Analyse one simulation payload, as published to the source topic,
and print the analysis report.

Examples:
  # Analyse a payload with the default policy
  thermalrisk analyze --input=sim.json

  # Pipe a generated payload through a custom policy and print a summary
  thermalrisk genmock --seed=7 | thermalrisk analyze -i - --config=policy.yaml --format=summary

  # Resolve matrix_ref payloads from the configured object store
  OBJECT_STORE_ENDPOINT=localhost:9000 thermalrisk analyze -i ref.json --fetch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatJSON && format != formatSummary {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatJSON, formatSummary)
			}
			logger := newLogger(cmd.ErrOrStderr(), *logLevel)
			metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

			policy, err := config.LoadAnalysisConfig(policyFile)
			if err != nil {
				return err
			}

			var model overheating.ComfortModel
			if comfortURL != "" {
				model = comfortapi.NewClient(comfortURL, 2*time.Minute, logger, metrics)
			} else {
				model = comfort.NewModel(comfort.Options{LimitInputs: comfortLimit})
			}
			analyzer, err := overheating.NewAnalyzer(policy, model)
			if err != nil {
				return err
			}

			var store pipeline.MatrixFetcher
			if fetch {
				s, err := storeFromEnv(logger, metrics)
				if err != nil {
					return err
				}
				store = s
			}

			data, err := readInput(cmd, inputFile)
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			payload, err := domain.ParseRawEvent(domain.RawEvent{Value: data})
			if err != nil {
				return err
			}

			transformer := pipeline.NewTransformer(analyzer, store, logger, metrics)
			report, err := transformer.Analyze(cmd.Context(), payload)
			if err != nil {
				return err
			}

			w, closeOutput, err := openOutput(cmd, outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if format == formatSummary {
				err = printSummary(w, report, policy)
			} else {
				err = writeJSON(w, report)
			}
			if cerr := closeOutput(); err == nil {
				err = cerr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Payload JSON file, or - for stdin")
	cmd.Flags().StringVarP(&policyFile, "config", "c", "", "Analysis policy YAML (default: built-in policy)")
	cmd.Flags().StringVar(&comfortURL, "comfort-url", "", "Remote comfort model endpoint (default: in-process model)")
	cmd.Flags().BoolVar(&comfortLimit, "comfort-limit-inputs", false, "Report NaN SET outside the ASHRAE 55 applicability range")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json or summary")
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Resolve matrix_ref from the object store configured by OBJECT_STORE_* variables")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// storeFromEnv builds an object store client from the service environment.
func storeFromEnv(logger *slog.Logger, metrics *observability.Metrics) (*objectstore.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.ObjectStoreEnabled() {
		return nil, fmt.Errorf("OBJECT_STORE_ENDPOINT is not set")
	}
	return objectstore.New(cfg, logger, metrics)
}

// printSummary renders the zone classification as an aligned table.
func printSummary(w io.Writer, report domain.AnalysisReport, policy overheating.Config) error {
	fmt.Fprintf(w, "Simulation: %s\n", report.SimulationID)
	fmt.Fprintf(w, "Report:     %s\n", report.ID)
	fmt.Fprintf(w, "At risk:    %d of %d zones\n\n", len(report.AtRiskZones), len(report.Zones))

	band := policy.ComfortBand
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ZONE\tWEIGHT\tEDH > %g°C\tEDH < %g°C\tAT RISK\tFAILURES\n", band.High, band.Low)
	if report.Results != nil && report.Results.ZoneAtRisk != nil {
		for _, z := range report.Results.ZoneAtRisk.Zones {
			hot, _ := report.Results.ComfortBandEDH.Zone(overheating.Overheat, band.High, z.Zone)
			cold, _ := report.Results.ComfortBandEDH.Zone(overheating.Underheat, band.Low, z.Zone)
			failures := make([]string, len(z.Failures))
			for i, f := range z.Failures {
				failures[i] = f.String()
			}
			atRisk := "no"
			if z.AtRisk {
				atRisk = "yes"
			}
			fmt.Fprintf(tw, "%s\t%.3f\t%.1f\t%.1f\t%s\t%s\n",
				z.Zone, z.Weight, hot, cold, atRisk, strings.Join(failures, "; "))
		}
	}
	return tw.Flush()
}
