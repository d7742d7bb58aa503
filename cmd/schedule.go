package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/moverscan/internal/sched"
)

var scheduleEvery string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a recurring interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		every := scheduleEvery
		if every == "" {
			every = cfg.Schedule.Every
		}
		interval, err := sched.ParseInterval(every)
		if err != nil {
			return err
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		p := buildPipeline(st)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s := sched.New(interval, func(ctx context.Context) {
			if _, err := p.Run(ctx); err != nil {
				zap.L().Error("scheduled run failed", zap.Error(err))
			}
		})
		if err := s.Start(ctx); err != nil {
			return eris.Wrap(err, "scheduler")
		}
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleEvery, "every", "", "run interval, e.g. 30m, 6h, 2d (default from config)")
	rootCmd.AddCommand(scheduleCmd)
}
