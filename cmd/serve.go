package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/catalog"
	"mspro-labs/bean-scout/internal/db"
	"mspro-labs/bean-scout/internal/metrics"
	"mspro-labs/bean-scout/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction and catalog API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Setup
	database, err := db.Connect(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	// 2. Pipeline
	m := metrics.New()
	dispatcher, closeModel := newDispatcher(ctx, cfg, m)
	defer closeModel()

	// 3. Serve
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}
	srv := server.New(dispatcher, catalog.NewService(database), m, server.Options{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	zap.L().Info("starting bean-scout", zap.Int("port", port), zap.String("db", cfg.DBPath), zap.String("provider", cfg.Model.Provider))
	return srv.Run(ctx, fmt.Sprintf(":%d", port))
}
