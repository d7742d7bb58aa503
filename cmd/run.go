package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/moverscan/internal/extract"
	"github.com/sells-group/moverscan/internal/fetch"
	"github.com/sells-group/moverscan/internal/model"
	"github.com/sells-group/moverscan/internal/pipeline"
	"github.com/sells-group/moverscan/internal/store"
	anthropicpkg "github.com/sells-group/moverscan/pkg/anthropic"
	"github.com/sells-group/moverscan/pkg/serp"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the acquisition pipeline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p := buildPipeline(st)

		result, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.Int("sources", result.Sources),
			zap.Int("failed_sources", result.FailedSources),
			zap.Int("records", result.Records),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// initStore opens the configured persistence backend and runs migrations
// where the backend has any.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.DSN)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		return st, nil
	case "json", "":
		st, err := store.NewJSON(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "init json store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildPipeline wires fetchers, extractors and the store into a Pipeline
// from the loaded configuration.
func buildPipeline(st store.Store) *pipeline.Pipeline {
	serpClient := serp.NewClient(cfg.SerpAPI.Key,
		serp.WithBaseURL(cfg.SerpAPI.BaseURL),
		serp.WithLocation(cfg.SerpAPI.Location),
	)
	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	pages := fetch.NewHTTPFetcher(time.Duration(cfg.Fetch.TimeoutSecs) * time.Second)
	listings := fetch.NewSerpFetcher(serpClient)

	extractors := map[model.Strategy]extract.Extractor{
		model.StrategyStructural: extract.NewStructural(extract.Selectors{}),
		model.StrategyModel: extract.NewModel(anthropicClient, cfg.Anthropic.Model,
			extract.WithMaxPromptChars(cfg.Pipeline.MaxPromptChars)),
	}

	return pipeline.New(cfg.ExpandSources(), pages, listings, extractors, st, pipeline.Options{
		MaxConcurrent:   cfg.Pipeline.MaxConcurrent,
		PerHostInterval: time.Duration(cfg.Pipeline.PerHostIntervalSecs) * time.Second,
	})
}

func init() {
	rootCmd.AddCommand(runCmd)
}
