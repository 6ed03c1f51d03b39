// Package connectivity runs the one-shot reachability check against the
// configured backend.
package connectivity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/connectcheck/internal/backend"
	"github.com/hamed0406/connectcheck/internal/config"
	"github.com/hamed0406/connectcheck/internal/notify"
	"github.com/hamed0406/connectcheck/internal/probe"
	"github.com/hamed0406/connectcheck/internal/report"
)

const (
	ExitOK      = 0
	ExitFailure = 1
)

// ClientFactory builds a client bound to url and key.
type ClientFactory func(url, key string) (probe.SessionClient, error)

// BackendFactory returns a ClientFactory for the Supabase auth service.
func BackendFactory(timeout time.Duration) ClientFactory {
	return func(url, key string) (probe.SessionClient, error) {
		return backend.NewClient(url, key, backend.WithTimeout(timeout))
	}
}

// Checker holds everything one check needs. It has no global state.
type Checker struct {
	Config    config.Config
	NewClient ClientFactory
	Logger    *zap.Logger
	Notifier  notify.Notifier // optional
}

func NewChecker(cfg config.Config, newClient ClientFactory, logger *zap.Logger, n notify.Notifier) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if newClient == nil {
		newClient = BackendFactory(cfg.Timeout)
	}
	return &Checker{Config: cfg, NewClient: newClient, Logger: logger, Notifier: n}
}

// Connect builds the client and the probe that will run against it.
func (c *Checker) Connect() (probe.Checker, error) {
	cl, err := c.NewClient(c.Config.ServiceURL, c.Config.ServiceKey)
	if err != nil {
		return nil, err
	}
	return probe.WithRetry(probe.NewSessionChecker(cl), c.Config.RetryAttempts, c.Config.RetryBackoff), nil
}

// Probe runs pc under a deadline covering every attempt and the waits
// between them.
func (c *Checker) Probe(ctx context.Context, pc probe.Checker) probe.CheckResult {
	if d := c.deadline(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return pc.Check(ctx, c.Config.ServiceURL)
}

func (c *Checker) deadline() time.Duration {
	if c.Config.Timeout <= 0 {
		return 0
	}
	n := c.Config.RetryAttempts
	if n < 1 {
		n = 1
	}
	return time.Duration(n)*c.Config.Timeout + time.Duration(n-1)*c.Config.RetryBackoff
}

// Check validates the config, connects and probes, without printing.
func (c *Checker) Check(ctx context.Context) probe.CheckResult {
	if err := c.Config.Validate(); err != nil {
		return probe.CheckResult{Name: "config", Message: err.Error(), Err: err}
	}
	pc, err := c.Connect()
	if err != nil {
		return c.record(ctx, constructFailure(c.Config.ServiceURL, err))
	}
	return c.record(ctx, c.Probe(ctx, pc))
}

// Run performs the check, reports each step to rep, and returns the
// process exit code.
func (c *Checker) Run(ctx context.Context, rep *report.Reporter) int {
	rep.Header()
	if err := c.Config.Validate(); err != nil {
		c.Logger.Warn("config_invalid", zap.Error(err))
		rep.ConfigError(config.EnvURL, config.EnvKey)
		return ExitFailure
	}

	rep.Target(c.Config.ServiceURL)
	c.Logger.Info("check_started", zap.String("url", c.Config.ServiceURL))

	pc, err := c.Connect()
	if err != nil {
		res := c.record(ctx, constructFailure(c.Config.ServiceURL, err))
		rep.Failed(res.Message)
		return ExitFailure
	}
	rep.ClientCreated()

	rep.Testing()
	res := c.record(ctx, c.Probe(ctx, pc))
	if !res.Success {
		rep.Failed(res.Message)
		return ExitFailure
	}

	rep.Reachable()
	rep.Passed()
	return ExitOK
}

func constructFailure(target string, err error) probe.CheckResult {
	return probe.CheckResult{Name: "client", Target: target, Message: err.Error(), Err: err}
}

// record logs res and, on failure, notifies. Notification errors are logged
// and never change the result.
func (c *Checker) record(ctx context.Context, res probe.CheckResult) probe.CheckResult {
	fields := []zap.Field{
		zap.String("url", res.Target),
		zap.String("stage", res.Name),
		zap.Bool("success", res.Success),
		zap.Float64("latency_ms", res.LatencyMS),
		zap.Int("attempts", res.Attempts),
		zap.String("message", res.Message),
	}
	if res.Success {
		c.Logger.Info("check_passed", fields...)
		return res
	}
	c.Logger.Warn("check_failed", append(fields, zap.Error(res.Err))...)

	if c.Notifier != nil {
		title := "🔴 Supabase connectivity check failed"
		text := fmt.Sprintf("URL: %s\nStage: %s\nReason: %s\nChecked: %s",
			res.Target, res.Name, res.Message, time.Now().UTC().Format(time.RFC3339))
		if err := c.Notifier.Send(ctx, title, text); err != nil {
			c.Logger.Warn("notify_failed", zap.Error(err))
		}
	}
	return res
}
