package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/internal/logging"
	"github.com/MrEthical07/goAuthClient/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app is the per-invocation state shared by subcommands.
type app struct {
	v          *viper.Viper
	configFile string

	cfg    cliConfig
	engine *goAuthClient.Engine
	logger *zap.Logger
	out    io.Writer

	cleanup func()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:   "authctl",
		Short: "OTP signup and login against the auth module",
		Long: `authctl runs the client-side auth flows and keeps the local session in Redis.

Examples:
  authctl otp request ada@example.com --purpose signup
  authctl signup individual --email ada@example.com --first-name Ada --last-name Lovelace --code 123456 --password ...
  authctl login ada@example.com --password ...
  authctl verify ada@example.com 123456
  authctl status
  authctl logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["engine"] == "none" {
				return nil
			}
			return a.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.engine != nil && a.cfg.Metrics {
				fmt.Fprint(cmd.ErrOrStderr(), prometheus.NewPrometheusExporter(a.engine).Render())
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./authctl.yaml)")
	flags.String("base-url", "", "auth module base URL")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.String("redis-addr", "", "redis address")
	flags.Int("redis-db", 0, "redis database")
	flags.Bool("memory", false, "use an in-process redis (state is lost on exit)")
	flags.String("prefix", "", "redis key prefix")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("env", "", "logging environment (production or development)")
	flags.Bool("json", false, "print JSON output")
	flags.Bool("audit", false, "log audit events")
	flags.Bool("metrics", false, "print engine metrics to stderr after the command")
	for _, name := range []string{"base-url", "timeout", "redis-addr", "redis-db", "memory", "prefix", "log-level", "env", "json", "audit", "metrics"} {
		_ = a.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	root.AddCommand(
		newOTPCmd(a),
		newSignupCmd(a),
		newLoginCmd(a),
		newVerifyCmd(a),
		newStatusCmd(a),
		newWhoamiCmd(a),
		newWelcomeCmd(a),
		newLanguageCmd(a),
		newLogoutCmd(a),
		newClearCmd(a),
		newWatchCmd(a),
		newBenchCmd(a),
	)
	return root, a
}

// run executes authctl with args and releases the engine afterwards,
// including when the command fails.
func run(args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer a.close()
	return root.Execute()
}

// open resolves configuration and builds the engine.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.logger = logger

	client, cleanup, err := openRedis(cfg)
	if err != nil {
		return err
	}

	engine, err := goAuthClient.New().
		WithConfig(cfg.engineConfig()).
		WithRedis(client).
		WithLogger(logger).
		Build()
	if err != nil {
		cleanup()
		return err
	}
	a.engine = engine
	a.cleanup = cleanup
	return nil
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
	}
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func openRedis(cfg cliConfig) (redis.UniversalClient, func(), error) {
	if cfg.Memory {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start in-memory redis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{cfg.RedisAddr},
		DB:    cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }, nil
}

// context returns a signal-aware context tagged with a fresh request id.
func (a *app) context() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	id := uuid.NewString()
	ctx = goAuthClient.WithRequestID(ctx, id)
	logging.FromContext(ctx, a.logger).Debug("command started")
	return ctx, cancel
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail prints the user-facing message of err and returns err for the exit code.
func (a *app) fail(err error) error {
	if a.cfg.JSON {
		_ = a.printJSON(map[string]string{
			"error": goAuthClient.Message(err),
			"code":  goAuthClient.Code(err),
		})
	}
	return err
}
