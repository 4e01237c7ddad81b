package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codevanta/propgate/internal/learning"
	"github.com/codevanta/propgate/internal/review"
	"github.com/codevanta/propgate/internal/server"
	"github.com/codevanta/propgate/internal/stream"
)

var serveAllowAll bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proposal pipeline API server",
	Long: `Starts the HTTP server that accepts agent proposals, runs checks,
serves review reports, and streams check progress over WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		svc, database, err := buildService(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		hub := stream.NewHub()
		svc.Runner.Events = hub

		renderer, err := review.NewRenderer()
		if err != nil {
			return fmt.Errorf("creating report renderer: %w", err)
		}

		srv := server.New(server.Config{
			Host:     cfg.Server.Host,
			Port:     cfg.Server.Port,
			AllowAll: serveAllowAll,
		}, database, svc, learning.NewStore(database), hub, renderer)

		// Graceful shutdown on interrupt.
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-done
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
