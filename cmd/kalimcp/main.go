package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kalimcp/internal/config"
	"kalimcp/internal/logging"
	"kalimcp/internal/mcp"
	"kalimcp/internal/tactile"
	"kalimcp/internal/tools"
)

// options holds flag values for one command tree.
type options struct {
	verbose     bool
	stdio       bool
	configPath  string
	catalogPath string
	timeout     time.Duration
}

// app is everything built once at startup.
type app struct {
	cfg      *config.Config
	loggers  *logging.Loggers
	registry *tools.Registry
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "kalimcp",
		Short: "Kali MCP Server - exposes installed security tools over MCP",
		Long: `kalimcp discovers which Kali Linux tools are installed on this host and
offers them to an MCP client over stdin/stdout. Each tools/call runs the
underlying command line under a timeout and returns its captured output.

Run with --stdio to start the protocol loop:
  kalimcp --stdio
  kalimcp --stdio --timeout 10m --catalog ./catalog.yaml`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Path to a YAML tool catalog (default: built-in)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Per-command timeout (default: from config, 5m)")
	rootCmd.Flags().BoolVar(&opts.stdio, "stdio", false, "Serve MCP over stdin/stdout")

	rootCmd.AddCommand(newToolsCmd(opts))
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, opts *options) error {
	a, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.loggers.Sync() }()

	if !opts.stdio {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Kali MCP Server with %d tools available\n", a.registry.Count())
		fmt.Fprintln(out, "Use --stdio flag for MCP mode")
		return nil
	}

	return serveStdio(cmd, a)
}

func serveStdio(cmd *cobra.Command, a *app) error {
	boot := a.loggers.Get(logging.CategoryBoot)

	executor := tactile.NewDirectExecutor(tactile.ExecutorConfig{
		Shell:           a.cfg.Execution.Shell,
		DefaultTimeout:  a.cfg.GetExecutionTimeout(),
		KillGrace:       a.cfg.GetKillGrace(),
		MaxCaptureBytes: a.cfg.Execution.MaxCaptureBytes,
	}, a.loggers.Get(logging.CategoryTactile))
	executor.SetAuditCallback(auditLogger(a.loggers.Get(logging.CategoryTactile)))

	server := mcp.NewServer(a.registry, executor, mcp.ServerOptions{
		Info:    a.cfg.Server,
		Mode:    a.cfg.Execution.Mode,
		Timeout: a.cfg.GetExecutionTimeout(),
		Limits: mcp.OutputLimits{
			MaxStdoutChars: a.cfg.Execution.MaxStdoutChars,
			MaxStderrChars: a.cfg.Execution.MaxStderrChars,
		},
	}, a.loggers)

	boot.Info("Starting MCP server",
		zap.String("name", a.cfg.Server.Name),
		zap.String("protocol_version", a.cfg.Server.ProtocolVersion),
		zap.String("mode", string(a.cfg.Execution.Mode)),
		zap.Int("tools", a.registry.Count()))

	return server.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}

// bootstrap loads configuration, builds loggers and runs discovery.
func bootstrap(ctx context.Context, opts *options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	loggers, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	boot := loggers.Get(logging.CategoryBoot)

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	timer := logging.StartTimer(boot, "tool discovery")
	registry, err := tools.Discover(ctx, catalog, tools.PathProbe{}, loggers.Get(logging.CategoryTools))
	timer.Stop()
	if err != nil {
		return nil, fmt.Errorf("tool discovery failed: %w", err)
	}

	boot.Info("Discovery complete",
		zap.Int("catalog", len(catalog.Tools)),
		zap.Int("available", registry.Count()))

	return &app{cfg: cfg, loggers: loggers, registry: registry}, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	if opts.catalogPath != "" {
		cfg.CatalogPath = opts.catalogPath
	}
	if opts.timeout > 0 {
		cfg.Execution.DefaultTimeout = opts.timeout.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadCatalog(path string) (*tools.Catalog, error) {
	if path == "" {
		return tools.DefaultCatalog()
	}
	return tools.LoadCatalog(path)
}

func auditLogger(logger *zap.Logger) func(tactile.AuditEvent) {
	return func(ev tactile.AuditEvent) {
		fields := []zap.Field{
			zap.String("event", string(ev.Type)),
			zap.String("exec_id", ev.Command.ID),
		}
		if ev.Outcome != nil {
			fields = append(fields,
				zap.Bool("success", ev.Outcome.Success),
				zap.Bool("timed_out", ev.Outcome.TimedOut),
				zap.Duration("duration", ev.Outcome.Duration))
			if ev.Outcome.ExitCode != nil {
				fields = append(fields, zap.Int("exit_code", *ev.Outcome.ExitCode))
			}
		}
		logger.Debug("Audit", fields...)
	}
}
