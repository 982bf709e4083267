package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/mock"
	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
)

// genmockCmd writes a synthetic simulation payload.
func genmockCmd(logLevel *string) *cobra.Command {
	var (
		simulationID string
		seed         uint64
		noise        float64
		outputFile   string
		uploadKey    string
	)

	cmd := &cobra.Command{
		Use:   "genmock",
		Short: "Generate a synthetic simulation payload",
		Long: `Generate a deterministic three-zone simulation payload (living room,
bedroom, attic) for fixtures and local runs.

With --upload the matrices are stored in the object store configured by the
OBJECT_STORE_* variables and the payload carries a matrix_ref instead.

Examples:
  # Write a payload to a file
  thermalrisk genmock --seed=42 --output=data/mock/simulation.json

  # Upload the matrices and print a claim-check payload
  OBJECT_STORE_ENDPOINT=localhost:9000 thermalrisk genmock --upload=runs/sim-42.json.gz`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if simulationID == "" {
				simulationID = fmt.Sprintf("mock-%d", seed)
			}
			payload := mock.Simulation(mock.Options{
				SimulationID: simulationID,
				Seed:         seed,
				Noise:        noise,
			})

			if uploadKey != "" {
				logger := newLogger(cmd.ErrOrStderr(), *logLevel)
				store, err := storeFromEnv(logger, observability.NewMetricsWithRegistry(prometheus.NewRegistry()))
				if err != nil {
					return err
				}
				ref, err := store.PutMatrices(cmd.Context(), uploadKey, payload.Matrices)
				if err != nil {
					return err
				}
				logger.Info("matrices uploaded", "bucket", ref.Bucket, "key", ref.Key)
				payload.Matrices = domain.Matrices{}
				payload.MatrixRef = &ref
			}

			w, closeOutput, err := openOutput(cmd, outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			err = writeJSON(w, payload)
			if cerr := closeOutput(); err == nil {
				err = cerr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&simulationID, "id", "", "Simulation ID (default: mock-<seed>)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().Float64Var(&noise, "noise", 0.5, "Half-width of uniform hourly dry-bulb noise in °C")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&uploadKey, "upload", "", "Object key to upload the matrices to")

	return cmd
}
