package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/resultocr-worker/internal/logging"
	"github.com/adverant/nexus/resultocr-worker/internal/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Write the report, then rewrite it whenever screenshots are added or changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		app, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		w := watch.New(cfg.InputDir, watchDebounce, func(ctx context.Context) error {
			_, err := app.orchestrator.Run(ctx, cfg.InputDir, cfg.OutputPath)
			return err
		}, logging.NewLogger("watch"))

		return w.Watch(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before re-running")
}
