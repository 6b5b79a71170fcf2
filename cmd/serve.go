package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pable/courtvision/internal/api"
	"github.com/pable/courtvision/internal/metrics"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored plays over a read-only JSON API",
	Long: `Serve the play store over HTTP:

  GET /health
  GET /metrics
  GET /api/v1/games
  GET /api/v1/games/{prefix}
  GET /api/v1/games/{prefix}/windows[?filtered=true]
  GET /api/v1/games/{prefix}/players
  GET /api/v1/players[?name=First+Last...]`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default *)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	h := api.NewRouter(db, api.Options{
		Logger:      logger,
		Gatherer:    metrics.Runtime(),
		CORSOrigins: serveOrigins,
	})
	return api.Serve(ctx, addr, h, logger)
}
