package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/abhisek/mcqflow/internal/metrics"
	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the topic form, the runs API and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Address
		}

		logger := log.New(os.Stderr, "[HTTP] ", log.LstdFlags)
		m := metrics.New()
		orch := d.orchestrator(pipeline.Observers{
			m,
			pipeline.LogObserver(log.New(os.Stderr, "[RUN] ", log.LstdFlags)),
		})

		srv, err := web.New(web.Options{
			Runner:  orch,
			Runs:    d.store.RunRepo(),
			Metrics: m.Handler(),
			Logger:  logger,
		})
		if err != nil {
			return err
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.Start(addr) }()

		select {
		case err := <-errc:
			return err
		case <-cmd.Context().Done():
		}

		logger.Printf("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errc
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.address)")
}
