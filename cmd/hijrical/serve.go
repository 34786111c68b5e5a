package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"hijrical/internal/calendar"
	appLog "hijrical/internal/log"
	"hijrical/internal/web"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh scheduler and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.cfg
			// --listen overrides the config file if provided.
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cmd.Context(), rootOpts)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions) error {
	appLog.Info("hijrical starting", "version", version)

	a, err := newApp(opts.cfg)
	if err != nil {
		return err
	}

	// The first load runs in the background so the API comes up at once;
	// handlers answer 503 until a calendar is published.
	go func() {
		if _, err := a.service.Refresh(ctx, true); err != nil {
			appLog.Error("initial refresh failed", err)
		}
	}()

	sched, err := calendar.NewScheduler(ctx, a.service, opts.cfg.RefreshCron, opts.cfg.Location())
	if err != nil {
		return err
	}
	sched.Start()
	appLog.Info("refresh scheduled", "spec", opts.cfg.RefreshCron, "next", sched.Next().Format(time.RFC3339))

	srv := web.NewServer(opts.cfg, web.Deps{
		Service:   a.service,
		Overrides: a.overrides,
		Reminders: a.reminders,
		Metrics:   a.metrics,
	})
	serveErr := srv.Serve(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(stopCtx)

	appLog.Info("hijrical exiting")
	return serveErr
}
