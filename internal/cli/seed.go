package cli

import (
	"fmt"
	"strconv"
	"time"

	"travel-rag/internal/corpus"
	"travel-rag/internal/di"
	"travel-rag/internal/infra/config"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Index the curated corpus into the configured vector backend",
		Long: `seed embeds the curated travel documents and upserts them into the
vector backend named by VECTOR_BACKEND, using the same environment as the
server. It runs in-process and does not need a running server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if cfg.Vector.Backend == config.BackendMemory {
				a.printer.Warning("VECTOR_BACKEND=memory: the index is discarded when seed exits")
			}

			docs := corpus.Resolve(ids)
			if len(docs) == 0 {
				return fmt.Errorf("no corpus documents match %v", ids)
			}

			components, err := di.NewApplicationComponents(cmd.Context(), cfg, a.logger)
			if err != nil {
				return err
			}
			defer components.Close()

			a.printer.Info("indexing %d documents into %s (%s)", len(docs), cfg.Vector.Collection, cfg.Vector.Backend)
			report, runErr := components.IndexUsecase.Execute(cmd.Context(), docs)

			rows := make([][]string, len(report.Documents))
			for i, d := range report.Documents {
				rows[i] = []string{d.ID, d.Title, d.Status.String()}
			}
			if err := a.printer.Table([]string{"id", "title", "status"}, rows); err != nil {
				return err
			}
			a.printer.Plain("indexed %s, failed %s, skipped %s in %s",
				strconv.Itoa(report.Indexed), strconv.Itoa(report.Failed), strconv.Itoa(report.Skipped),
				report.Duration.Round(time.Millisecond))

			if runErr != nil {
				return runErr
			}
			a.printer.Success("corpus indexed")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "only index these document ids")
	return cmd
}
