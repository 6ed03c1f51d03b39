package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/connectcheck/internal/config"
	"github.com/hamed0406/connectcheck/internal/connectivity"
	"github.com/hamed0406/connectcheck/internal/httpapi"
	"github.com/hamed0406/connectcheck/internal/logging"
	"github.com/hamed0406/connectcheck/internal/notify"
	"github.com/hamed0406/connectcheck/internal/report"
)

var (
	version = "dev"
	commit  = "none"
)

type flags struct {
	envFile string
	logDir  string
	timeout time.Duration
	retries int
	backoff time.Duration
	noColor bool
	debug   bool
	addr    string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	exitCode := connectivity.ExitOK
	var f flags

	root := &cobra.Command{
		Use:   "connectcheck",
		Short: "Check that a Supabase project is reachable with the configured key",
		Long: `connectcheck reads SUPABASE_URL and SUPABASE_KEY (from the environment
or a .env file), creates a client, asks the auth service for the current
session and reports whether the project is ready to use.

Exit status is 0 on success and 1 on missing configuration or any failure.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.LogDir, f.debug)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			rep := report.New(stdout, stderr, !f.noColor && !color.NoColor)
			chk := connectivity.NewChecker(cfg, nil, logger, notify.FromConfig(cfg.SlackWebhook))
			exitCode = chk.Run(cmd.Context(), rep)
			return nil
		},
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&f.logDir, "log-dir", "", "directory for the JSON log file (overrides LOG_DIR)")
	pf.DurationVar(&f.timeout, "timeout", 0, "per-attempt timeout (overrides CHECK_TIMEOUT_MS)")
	pf.IntVar(&f.retries, "retries", 0, "total attempts before giving up (overrides RETRY_ATTEMPTS)")
	pf.DurationVar(&f.backoff, "backoff", 0, "wait between attempts (overrides RETRY_BACKOFF_MS)")
	pf.BoolVar(&f.debug, "debug", false, "log at debug level")
	root.Flags().BoolVar(&f.noColor, "no-color", false, "disable coloured output")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Expose the check over HTTP (/healthz, /api/check)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if f.addr != "" {
				cfg.Addr = f.addr
			}
			logger, err := logging.NewLogger(cfg.LogDir, f.debug)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			chk := connectivity.NewChecker(cfg, nil, logger, notify.FromConfig(cfg.SlackWebhook))
			return listen(cmd.Context(), cfg.Addr, httpapi.NewServer(logger, chk).Router(), logger)
		},
	}
	serve.Flags().StringVar(&f.addr, "addr", "", "bind address (overrides API_ADDR)")
	root.AddCommand(serve)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "connectcheck %s\n", root.Version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "✖", err)
		return connectivity.ExitFailure
	}
	return exitCode
}

// loadConfig reads the env file and environment, then applies flags that
// were set explicitly.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return config.Config{}, err
	}
	cfg := config.FromEnv()
	fs := cmd.Flags()
	if fs.Changed("log-dir") {
		cfg.LogDir = f.logDir
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("retries") && f.retries > 0 {
		cfg.RetryAttempts = f.retries
	}
	if fs.Changed("backoff") {
		cfg.RetryBackoff = f.backoff
	}
	return cfg, nil
}

func listen(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("api_shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
