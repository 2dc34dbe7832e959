package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/metrics"
	"github.com/kailas-cloud/crossdex/internal/renderer"
	"github.com/kailas-cloud/crossdex/internal/repository/snapshot"
	indexeruc "github.com/kailas-cloud/crossdex/internal/usecase/indexer"
)

var askFormat string

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Run one query and print the report",
	Long: `Runs a single query through the full pipeline and prints the report.

The index is restored from the file snapshot when one exists, otherwise the
partition roots are scanned. Request state stays in memory; no database is
required. The command exits 0 whenever a report is produced, including
reports that only contain gaps.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askFormat, "format", "markdown", "Output format: markdown or json")
}

func runAsk(cmd *cobra.Command, args []string) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	metrics.RegisterOrchestrationMetrics()

	ctx := cmd.Context()
	indexer := indexeruc.New(c.builder, c.index, snapshot.NewFile(c.cfg.Index.SnapshotPath))
	if err := indexer.Restore(ctx); err != nil {
		if !errors.Is(err, domain.ErrIndexNotReady) {
			return fmt.Errorf("restore index snapshot: %w", err)
		}
		if _, err := indexer.Rebuild(ctx); err != nil {
			return fmt.Errorf("build index: %w", err)
		}
	}

	query := strings.Join(args, " ")
	req, err := c.requests.Submit(ctx, query)
	if err != nil {
		return err
	}

	res, err := c.requests.Aggregate(req)
	if err != nil {
		return err
	}
	c.logger.Info("request finished",
		zap.String("request_id", req.ID),
		zap.String("state", string(req.State)),
		zap.Int("sections", len(res.Sections)),
		zap.Int("gaps", len(res.Gaps)),
	)

	switch askFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		fmt.Println(renderer.NewMarkdown().Render(res))
		return nil
	}
}
