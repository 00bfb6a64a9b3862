package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/riskboard/core"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/web"
	"github.com/spf13/cobra"
)

// serveCmd builds the datasets once and serves them over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve [input.json]",
	Short: "Serve the dashboard datasets over HTTP",
	Long: `Build the datasets for an export, then serve a dashboard page, a JSON API
and the written artifacts until interrupted.

Endpoints:
  /                    dashboard page
  /api/summary         run summary
  /api/state-counts    daily counts by device state
  /api/risk-counts     daily counts by risk category
  /api/region-risk     mean risk per region (accepts ?min_support=N)
  /api/country-risk    mean risk per country (accepts ?min_support=N)
  /artifacts/          files written to --output-dir
  /metrics             Prometheus metrics

Send SIGHUP to rebuild from the input file without restarting.

Examples:
  # Serve on the default address
  riskboard serve accounts.json

  # Write csv artifacts and listen on all interfaces
  riskboard serve accounts.json --output csv --addr 0.0.0.0:5000`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args, setupOptions{})
	},
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := core.ExecuteBuild(core.WithSuppressHeader(ctx), cfg, os.Stdout)
		if err != nil {
			contract.LogFatal("Cannot build datasets", err)
		}
		server := web.NewServer(cfg, result)
		go reloadOnHangup(ctx, server)
		if err := server.Serve(ctx); err != nil {
			contract.LogFatal("Dashboard server failed", err)
		}
	},
}

// reloadOnHangup rebuilds the served datasets on every SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, server *web.Server) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := server.Rebuild(ctx); err != nil {
				contract.LogWarn("Cannot reload datasets", err)
			}
		}
	}
}
