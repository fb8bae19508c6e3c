// Command studyhub-server runs the StudyHub REST and WebSocket API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/studyhub/studyhub-server/internal/app"
	"github.com/studyhub/studyhub-server/pkg/logger"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:])
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	default:
		fmt.Fprintln(os.Stderr, "studyhub-server:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("studyhub-server", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration directory, or a config.yaml inside one")
	envFile := fs.String("env-file", ".env", "dotenv file exported before configuration is read")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := loadEnvFile(*envFile); err != nil {
		return err
	}
	cfg, err := loadApplicationConfig(*configPath)
	if err != nil {
		return err
	}
	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	log := logger.WithModule("bootstrap")
	for _, key := range generated {
		log.Warn("generated runtime secret; issued tokens stop verifying after a restart", zap.String("key", key))
	}

	stack, err := bootstrapRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Shutdown(context.Background(), log)

	return serve(ctx, &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}, log)
}

// serve runs srv until ctx is cancelled or the listener fails, then drains
// in-flight requests for up to shutdownTimeout.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// loadEnvFile exports a dotenv file into the process environment so viper's
// STUDYHUB_ overrides can live in it. A missing file is ignored.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %q: %w", path, err)
}

func loadApplicationConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	case err != nil:
		return nil, fmt.Errorf("stat config path: %w", err)
	case info.IsDir():
		return app.LoadConfig(path)
	default:
		return app.LoadConfig(filepath.Dir(path))
	}
}
