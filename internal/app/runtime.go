package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"salarycli/internal/config"
	"salarycli/internal/infrastructure"
	"salarycli/internal/operations"
)

const telemetryFlushTimeout = 5 * time.Second

// Runtime is what every command starts with: resolved paths, the run logger
// and the telemetry providers
type Runtime struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Providers *infrastructure.OTelProviders
	RunID     string
}

// BindPathFlags registers the path overrides shared by all commands. Flag
// defaults are the configured values, so a flag only wins when it is given.
func BindPathFlags(fs *flag.FlagSet, p *config.PathsConfig) {
	fs.StringVar(&p.BaseDir, "base-dir", p.BaseDir, "directory relative paths resolve against")
	fs.StringVar(&p.RawFile, "raw", p.RawFile, "raw survey export (CSV or XLSX)")
	fs.StringVar(&p.CleanedFile, "cleaned", p.CleanedFile, "cleaned dataset CSV")
	fs.StringVar(&p.TablesDir, "tables", p.TablesDir, "directory for result tables")
	fs.StringVar(&p.FiguresDir, "figures", p.FiguresDir, "directory for chart PNGs")
	fs.StringVar(&p.ModelsDir, "models", p.ModelsDir, "directory for trained models")
	fs.StringVar(&p.ReportsDir, "reports", p.ReportsDir, "directory for the LaTeX report")
}

// ParseFlags loads the configuration, lets extra register command flags and
// parses args with the path overrides applied on top of the config
func ParseFlags(name string, args []string, extra func(*flag.FlagSet)) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	BindPathFlags(fs, &cfg.Paths)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Start resolves paths, creates the output directories and initialises
// logging and telemetry. The returned context carries the run ID.
func Start(ctx context.Context, component string, cfg *config.Config) (context.Context, *Runtime, error) {
	paths, err := cfg.Resolve()
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return ctx, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	if cfg.Logging.Output != "console" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.LogPath(filepath.Base(cfg.Logging.FilePath))
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, runID := infrastructure.NewRunContext(ctx)
	logger = infrastructure.WithComponent(logger, component)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	logger.InfoContext(ctx, "starting",
		slog.String("app", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("run_id", runID))
	paths.LogPathResolution(logger)

	return ctx, &Runtime{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		Providers: providers,
		RunID:     runID,
	}, nil
}

// Env returns the stage environment of this runtime
func (rt *Runtime) Env() *operations.Env {
	return &operations.Env{
		Config: rt.Config,
		Paths:  rt.Paths,
		Logger: rt.Logger,
	}
}

// RunStages executes the given pipeline stages, all of them when ids is empty
func (rt *Runtime) RunStages(ctx context.Context, ids ...string) (*operations.State, error) {
	registry, err := operations.DefaultRegistry(rt.Env())
	if err != nil {
		return nil, err
	}
	manager, err := operations.NewManager(registry, rt.Providers, rt.Logger)
	if err != nil {
		return nil, err
	}
	return manager.Run(ctx, rt.RunID, ids...)
}

// Close flushes telemetry and closes the log file
func (rt *Runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
	defer cancel()
	if err := rt.Providers.Shutdown(ctx); err != nil {
		rt.Logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		rt.Logger.Error("closing log file failed", slog.String("error", err.Error()))
	}
}

// Main parses flags, starts the runtime and calls run. It returns the process
// exit status.
func Main(name string, args []string, extra func(*flag.FlagSet), run func(context.Context, *Runtime) error) int {
	cfg, err := ParseFlags(name, args, extra)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		slog.Error("configuration failed", slog.String("command", name), slog.String("error", err.Error()))
		return 1
	}
	ctx, rt, err := Start(context.Background(), name, cfg)
	if err != nil {
		slog.Error("startup failed", slog.String("command", name), slog.String("error", err.Error()))
		return 1
	}
	defer rt.Close()

	if err := run(ctx, rt); err != nil {
		rt.Logger.ErrorContext(ctx, "command failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// RunAndReport runs the stages and writes their outcome table to w, also when
// a stage fails
func (rt *Runtime) RunAndReport(ctx context.Context, w io.Writer, ids ...string) error {
	state, err := rt.RunStages(ctx, ids...)
	if state != nil {
		WriteSummary(w, state)
	}
	return err
}

// WriteSummary prints one line per stage
func WriteSummary(w io.Writer, state *operations.State) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tSTATUS\tROWS\tDURATION\tOUTPUTS\tMESSAGE")
	for _, st := range state.Stages() {
		msg := st.Message
		if st.Error != "" {
			msg = st.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
			st.ID, st.Status, st.Rows, st.Duration.Round(time.Millisecond), len(st.Outputs), strings.TrimSpace(msg))
	}
	tw.Flush()
}
