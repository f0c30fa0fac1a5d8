package main

import (
	"context"
	"fmt"

	"github.com/okian/sgengine/internal/config"
	"github.com/okian/sgengine/internal/domain/baseline"
	"github.com/okian/sgengine/pkg/logger"
	"github.com/spf13/cobra"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect and import baseline models",
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the baseline models the service would load",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		svc, err := newService(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.Stop()

		names, err := svc.Models(ctx)
		if err != nil {
			return err
		}
		models := make([]*baseline.Model, 0, len(names))
		for _, name := range names {
			m, err := svc.Model(ctx, name)
			if err != nil {
				return err
			}
			models = append(models, m)
		}
		return printModels(cmd.OutOrStdout(), models)
	},
}

var baselineImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Persist the models of a YAML baseline file to the configured database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := importBaselines(cmd.Context(), cfg, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d models from %s\n", n, args[0])
		return err
	},
}

func init() {
	baselineCmd.AddCommand(baselineListCmd, baselineImportCmd)
}

// importBaselines writes every model in path through a persisting baseline
// store so each curve lands in the database. It returns the model count.
func importBaselines(ctx context.Context, cfg *config.Config, path string) (int, error) {
	models, err := baseline.LoadFile(path)
	if err != nil {
		return 0, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("open %s store: %w", cfg.StorageBackend, err)
	}
	defer func() { _ = store.Close() }()

	persister, ok := store.(baseline.Persister)
	if !ok {
		return 0, fmt.Errorf("%w: storage_backend %q does not persist baselines", config.ErrInvalidConfig, cfg.StorageBackend)
	}
	bs := baseline.NewMemoryStore(
		baseline.WithPersister(persister),
		baseline.WithDefaultParams(baseline.Params{ShortGameYards: cfg.ShortGameYards, ProxyLie: baseline.DefaultProxyLie}),
	)

	log := logger.Get().Named("baseline")
	for _, ms := range models {
		if ms.Params != (baseline.Params{}) {
			if err := bs.SetParams(ctx, ms.Name, ms.Params); err != nil {
				return 0, err
			}
		}
		for kind, points := range map[baseline.Kind][]baseline.Point{baseline.KindPutting: ms.Putting, baseline.KindOffGreen: ms.OffGreen} {
			if len(points) == 0 {
				continue
			}
			if err := bs.ReplaceCurve(ctx, ms.Name, kind, points); err != nil {
				return 0, err
			}
		}
		log.Info(ctx, "baseline model imported",
			logger.String("model", ms.Name),
			logger.Int("putting", len(ms.Putting)),
			logger.Int("offGreen", len(ms.OffGreen)))
	}
	return len(models), nil
}
