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

	"github.com/marmos91/quark/internal/logger"
	"github.com/marmos91/quark/pkg/accesslog"
	"github.com/marmos91/quark/pkg/adapter/httpd"
	"github.com/marmos91/quark/pkg/config"
	qprometheus "github.com/marmos91/quark/pkg/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	flagHost       string
	flagPort       int
	flagUnixSocket string
	flagServeDir   string
	flagListDirs   bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the quark server",
	Long: `Start the quark server with the specified configuration.

The server changes into serve_dir and exposes that tree read-only over
HTTP/1.x until interrupted. Run it unprivileged, ideally inside a
restricted filesystem view (chroot, container, or mount namespace);
quark itself never escapes serve_dir but does not drop privileges.

Examples:
  # Start with the default config location
  quark start

  # Start with a custom config file
  quark start --config /etc/quark/config.yaml

  # Serve a tree on a one-off port
  quark start --dir /srv/www --port 8080

  # Listen on a Unix stream socket instead of TCP
  quark start --unix-socket /run/quark.sock

  # Environment variable overrides
  QUARK_LOGGING_LEVEL=DEBUG quark start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVarP(&flagHost, "host", "H", "", "Bind address (overrides config)")
	startCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "TCP port (overrides config)")
	startCmd.Flags().StringVarP(&flagUnixSocket, "unix-socket", "U", "", "Unix stream socket path (overrides config)")
	startCmd.Flags().StringVarP(&flagServeDir, "dir", "d", "", "Directory tree to serve (overrides config)")
	startCmd.Flags().BoolVarP(&flagListDirs, "list-dirs", "l", false, "Enable directory listings (overrides config)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadStartConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	access, err := accesslog.New(cfg.AccessLog.Output)
	if err != nil {
		return err
	}
	defer access.Close()

	// The working directory is the served root; every request path is
	// resolved beneath it from here on.
	if err := os.Chdir(cfg.ServeDir); err != nil {
		return fmt.Errorf("failed to enter serve_dir %s: %w", cfg.ServeDir, err)
	}

	adapter := httpd.New(cfg.HTTPD(), cfg.ListenAdapter(), access)
	recorder := qprometheus.HTTPRecorder{}
	adapter.Metrics = recorder
	adapter.SetConnectionMetrics(recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics)
	}

	logger.Info("Starting quark",
		"version", Version,
		logger.KeyListenAddr, cfg.ListenAdapter().Addr(),
		logger.KeyPath, cfg.ServeDir,
		"list_dirs", cfg.ListDirs)

	if err := adapter.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("quark stopped")
	return nil
}

// loadStartConfig loads the configuration and applies CLI flag overrides.
func loadStartConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// An explicit --config must exist; otherwise a missing file just means
	// defaults, since the essential settings can all come from flags.
	if GetConfigFile() != "" {
		cfg, err = config.MustLoad(GetConfigFile())
	} else {
		cfg, err = config.Load("")
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Listen.BindAddress = flagHost
	}
	if flags.Changed("port") {
		cfg.Listen.Port = flagPort
	}
	if flags.Changed("unix-socket") {
		cfg.Listen.UnixSocket = flagUnixSocket
	}
	if flags.Changed("dir") {
		cfg.ServeDir = flagServeDir
	}
	if flags.Changed("list-dirs") {
		cfg.ListDirs = flagListDirs
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startMetricsServer exposes the Prometheus registry on its own listener.
// Failures are logged, not fatal: metrics are advisory.
func startMetricsServer(ctx context.Context, cfg config.MetricsConfig) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", logger.KeyListenAddr, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server failed", logger.KeyError, err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
