package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/config"
	"github.com/arnab-maity007/Advanced-Valo/internal/pipeline"
	"github.com/arnab-maity007/Advanced-Valo/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const defaultConfigPath = "valo-commentary.yaml"

func main() {
	// Handle --version and --help flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("valo-commentary %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage(os.Stdout)
			return
		}
	}

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(args)
	case "run":
		err = run(args)
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("valo-commentary failed", "error", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "valo-commentary - live Valorant commentary from HUD text")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  valo-commentary serve [-config FILE]               MCP server over stdin/stdout")
	fmt.Fprintln(w, "  valo-commentary run -frames DIR [-config FILE]     Comment on a directory of frames")
	fmt.Fprintln(w, "  valo-commentary version                            Print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  VALO_LOG_LEVEL=debug         Override the configured log level")
	fmt.Fprintln(w, "  ELEVENLABS_API_KEY=...       API key used when speech is enabled")
}

// setup loads the configuration, installs the logger and returns a
// context cancelled on SIGINT or SIGTERM.
func setup(configPath string) (*config.Config, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.Logging.Level
	if env := os.Getenv("VALO_LOG_LEVEL"); env != "" {
		level = env
	}
	slog.SetDefault(newLogger(os.Stderr, level, cfg.Logging.Format))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return cfg, ctx, cancel, nil
}

// newLogger writes to w, which is stderr: stdout carries the MCP protocol.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	fs.Parse(args)

	cfg, ctx, cancel, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer cancel()

	slog.Info("starting valo-commentary server", "version", Version, "config", *configPath, "detector", cfg.Detector.Backend)

	p, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	return server.New(p).Run(ctx)
}

func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	frames := fs.String("frames", "", "Directory of captured frames, replayed in name order")
	interval := fs.Duration("interval", 0, "Poll interval (default from config)")
	fs.Parse(args)

	if *frames == "" {
		return errors.New("run needs -frames DIR")
	}

	cfg, ctx, cancel, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer cancel()

	src, err := pipeline.NewDirectorySource(*frames)
	if err != nil {
		return err
	}
	p, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	every := cfg.PollInterval
	if *interval > 0 {
		every = *interval
	}

	session := p.NewSession()
	slog.Info("replaying frames", "dir", *frames, "frames", src.Len(), "interval", every, "session", session.ID())

	poller := pipeline.NewPoller(session, src, every)
	start := time.Now()
	runErr := poller.Run(ctx)

	if err := session.Close(context.Background()); err != nil {
		slog.Warn("failed to write session log", "error", err)
	}
	st, ps := session.Stats(), poller.Stats()
	slog.Info("replay finished",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"cycles", ps.Cycles,
		"skipped_ticks", ps.Skipped,
		"lines", st.Lines,
		"duplicates", st.Duplicates,
		"session_log", st.LogPath,
	)
	return runErr
}
