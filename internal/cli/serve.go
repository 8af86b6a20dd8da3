package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stock-forecaster/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the forecasting dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			srv := server.New(app.Dashboard, server.Config{
				Addr:         addr,
				ReadTimeout:  app.Config.Server.ReadTimeout,
				WriteTimeout: app.Config.Server.WriteTimeout,
				Title:        app.Config.UI.Title,
				Version:      Version,
				Checks:       app.healthChecks(),
			}, app.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output.Info("Dashboard on http://localhost%s", displayAddr(addr))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// healthChecks collects the dependency checks reported by /health.
func (a *App) healthChecks() map[string]server.HealthCheck {
	checks := make(map[string]server.HealthCheck)
	if a.Store != nil {
		checks["store"] = a.Store.Ping
	}
	if a.Breaker != nil {
		checks["provider"] = func(context.Context) error { return a.Breaker.Check() }
	}
	return checks
}

// displayAddr turns "0.0.0.0:8501" or ":8501" into ":8501".
func displayAddr(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ":" + addr
}
