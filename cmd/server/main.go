package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/me/phenogen/internal/compiler"
	"github.com/me/phenogen/internal/config"
	"github.com/me/phenogen/internal/logging"
	"github.com/me/phenogen/internal/server"
	"github.com/me/phenogen/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to a phenogen.yaml config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	dbPath := flag.String("db", "", "Database path (default ~/.phenogen/phenogen.db)")
	noStore := flag.Bool("no-store", false, "Serve /generate only, without a compilation store")
	maxDepth := flag.Int("max-depth", 0, "Maximum nesting depth of step trees")
	allowUnknown := flag.Bool("allow-unknown-languages", false, "Emit empty tools for unsupported languages instead of failing")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over the config file and env.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "log-level":
			cfg.Server.LogLevel = *logLevel
		case "log-format":
			cfg.Server.LogFormat = *logFormat
		case "db":
			cfg.Server.DBPath = *dbPath
		case "max-depth":
			cfg.Compiler.MaxDepth = *maxDepth
		case "allow-unknown-languages":
			cfg.Compiler.AllowUnknownLanguages = *allowUnknown
		}
	})
	if *debug {
		cfg.Server.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.Server.LogLevel), cfg.Server.LogFormat)

	var st store.Store
	if !*noStore {
		path := cfg.Server.DBPath
		if path == "" {
			path = config.DefaultDBPath()
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", filepath.Dir(path), err)
				os.Exit(1)
			}
		}

		sqlStore, err := store.NewSQLiteStore(path, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		defer sqlStore.Close()

		if err := sqlStore.Migrate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
			os.Exit(1)
		}
		logger.Info("database ready", "path", path)
		st = sqlStore
	} else {
		logger.Info("compilation store disabled")
	}

	comp := compiler.New(cfg.Compiler, logger)
	srv := server.New(cfg.Server, st, logger, server.WithCompiler(comp))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "max_depth", cfg.Compiler.MaxDepth)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
