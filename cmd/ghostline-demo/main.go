// Command ghostline-demo renders a page of editable fields in the terminal
// and shows ghost-text suggestions while you type.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/iw2rmb/ghostline"
	"github.com/iw2rmb/ghostline/config"
	"github.com/iw2rmb/ghostline/internal/logging"
	"github.com/iw2rmb/ghostline/internal/metrics"
	"github.com/iw2rmb/ghostline/internal/tracing"
)

type options struct {
	configPath  string
	logFile     string
	logLevel    string
	traceFile   string
	metricsAddr string
	noColor     bool
	printConfig bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "ghostline-demo",
		Short:         "Type into a terminal page and accept ghost-text suggestions with Tab",
		Version:       ghostline.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file (overrides log.file)")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	f.StringVar(&opts.traceFile, "trace", "", "write provider spans to this file")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9464")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colors")
	f.BoolVar(&opts.printConfig, "print-config", false, "print the effective config and exit")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ghostline-demo:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if opts.printConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if opts.traceFile != "" {
		stop, err := startTracing(opts.traceFile)
		if err != nil {
			return err
		}
		defer stop()
	}
	if opts.metricsAddr != "" {
		stop := serveMetrics(opts.metricsAddr, log)
		defer stop()
	}
	if opts.noColor || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	gw, closeGateway, err := buildGateway(cfg, log)
	if err != nil {
		return err
	}
	defer closeGateway()

	doc, lay, err := newPage(cfg)
	if err != nil {
		return err
	}
	coord := newCoordinator(cfg, doc, gw, log)
	defer coord.Close()

	p := tea.NewProgram(newModel(doc, coord, lay), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openLog writes to the configured file. Without one, logs are dropped
// because the terminal belongs to the UI.
func openLog(cfg *config.Config) (*logging.Logger, func(), error) {
	if cfg.Log.File == "" {
		return logging.Discard(), func() {}, nil
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	log, closer, err := logging.NewFile(cfg.Log.File, "ghostline", level)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = closer.Close() }, nil
}

func startTracing(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tp, err := tracing.NewStdout(f, "ghostline-demo")
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
		_ = f.Close()
	}, nil
}

func serveMetrics(addr string, log *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
