package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/differo/differo/examples/queryserver"
	"github.com/differo/differo/pkg/config"
	"github.com/differo/differo/pkg/observability"
	"github.com/differo/differo/pkg/persist"
)

// serveReadHeaderTimeout bounds slow-header clients the way the pprof
// server in main.go does, rather than relying on http.Server's zero value.
const serveReadHeaderTimeout = 10 * time.Second

// serveShutdownGrace is how long Serve waits for in-flight requests to
// finish once an interrupt arrives.
const serveShutdownGrace = 5 * time.Second

// NewServeCommand starts the live query server example: a long-running
// HTTP process accepting point updates and lookups against one arrangement,
// with optional warm-restart from a snapshot directory. Listen and snapshot
// settings come from the engine config file; the flags override it.
func NewServeCommand() *cobra.Command {
	var (
		addr        string
		snapshotDir string
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve point lookups and updates over a live arrangement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr, snapshotDir, configPath)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on (overrides the config file's server host/port)")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "directory to warm-restart from and persist snapshots to (overrides the config file)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to an engine config file")

	return cmd
}

func runServe(cmd *cobra.Command, addr, snapshotDir, configPath string) error {
	verbose, quiet, logFormat := commandVerbosity(cmd)

	providers, err := initObservability(verbose, quiet, logFormat)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer shutdownProviders(providers)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cmd.Flags().Changed("addr") && cfg.Server.Enabled {
		addr = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	}

	if snapshotDir == "" && cfg.Snapshot.Enabled {
		snapshotDir = cfg.Snapshot.Directory
	}

	var opts []queryserver.Option
	if snapshotDir != "" {
		opts = append(opts,
			queryserver.WithSnapshotDir(snapshotDir),
			queryserver.WithSnapshotCodec(snapshotCodec(cfg.Snapshot)),
			queryserver.WithSnapshotRetention(cfg.Snapshot.MaxAge, cfg.Snapshot.MaxSize),
		)
	}

	s, err := queryserver.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("start query server: %w", err)
	}

	handler := observability.HTTPMiddleware(providers.Tracer, providers.Logger, queryserver.Handler(s))

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: serveReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		providers.Logger.Info("serving", "addr", addr, "snapshot_dir", snapshotDir)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err

			return
		}

		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		providers.Logger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), serveShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	if snapshotDir != "" {
		if err := s.Save(); err != nil {
			return fmt.Errorf("save final snapshot: %w", err)
		}
	}

	return <-errCh
}

// snapshotCodec maps the config file's codec name onto a persist.Codec,
// optionally wrapped in lz4 compression.
func snapshotCodec(cfg config.SnapshotConfig) persist.Codec {
	var codec persist.Codec
	switch cfg.Codec {
	case "gob":
		codec = persist.NewGobCodec()
	default:
		codec = persist.NewJSONCodec()
	}

	if cfg.Compress {
		return persist.NewCompressingCodec(codec)
	}

	return codec
}
