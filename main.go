package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"lineking/config"
	"lineking/logger"
	"lineking/stream"
	"lineking/text"
	"lineking/transform"

	"github.com/jessevdk/go-flags"
)

// Options are the command line flags. With no flags and no command the
// binary is the relay client the editor spawns.
type Options struct {
	Daemon   bool     `long:"daemon" description:"Run the daemon in the foreground"`
	Config   string   `short:"c" long:"config" description:"Config file (.toml, .yaml, .yml or .json)"`
	LogLevel string   `long:"log-level" description:"Override log_level (trace, debug, info, warn, error)"`
	Apply    ApplyCmd `command:"apply" description:"Run one operation over stdin and write the result to stdout"`
}

// ApplyCmd runs a catalog operation outside the editor
type ApplyCmd struct {
	Arg  string `short:"a" long:"arg" description:"Operation argument (separator or CSS strategy); defaults to the prompt default"`
	List bool   `short:"l" long:"list" description:"List operation names"`
	Args struct {
		Op string `positional-arg-name:"op"`
	} `positional-args:"yes"`
}

// runtimePath returns name next to the executable. The socket, pid file
// and log live there so every editor shares one daemon per install.
func runtimePath(name string) string {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("error getting executable path: %v", err)
	}
	return filepath.Join(filepath.Dir(execPath), name)
}

func getSocketPath() string { return runtimePath("lineking.sock") }

func getPidPath() string { return runtimePath("lineking.pid") }

// Setup logger to log to a file in the same directory as the executable
// Caller must defer logger.Close()
func setupLogger(logLevel string) *logger.LimitedLogger {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("error getting executable path: %v", err)
	}
	limitedLogger, err := logger.Open(filepath.Dir(execPath), "lineking.log", logger.ParseLogLevel(logLevel))
	if err != nil {
		log.Fatalf("error opening log: %v", err)
	}
	log.SetOutput(limitedLogger)
	return limitedLogger
}

func isDaemonRunning() (bool, int) {
	data, err := os.ReadFile(getPidPath())
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// On Unix, Signal(0) checks if process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil, pid
}

func logLevel(opts *Options, cfg config.Config) string {
	if opts.LogLevel != "" {
		return opts.LogLevel
	}
	return cfg.LogLevel
}

func runDaemon(opts *Options) {
	store, err := config.NewStore(opts.Config, os.Getenv(config.EnvVar))
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	cfg := store.Get()

	limitedLogger := setupLogger(logLevel(opts, cfg))
	defer limitedLogger.Close()
	log.Printf("config: %+v", cfg)

	if opts.LogLevel == "" {
		store.OnChange(func(c config.Config) {
			logger.SetGlobalLevel(logger.ParseLogLevel(c.LogLevel))
		})
	}

	daemon := NewDaemon(store)
	if err := daemon.Start(); err != nil {
		log.Fatalf("error starting daemon: %v", err)
	}
}

func runClient(opts *Options) {
	client := NewClient(opts)

	if err := client.EnsureDaemonRunning(); err != nil {
		log.Fatalf("error ensuring daemon is running: %v", err)
	}

	if err := client.Connect(); err != nil {
		log.Fatalf("error connecting to daemon: %v", err)
	}
}

// runApply is the stdin to stdout form of a command. It goes through the
// same strategy selection as the daemon, so large inputs stream.
func runApply(ctx context.Context, opts *Options, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(opts.Config, os.Getenv(config.EnvVar))
	if err != nil {
		return err
	}
	logger.SetGlobalLevel(logger.ParseLogLevel(logLevel(opts, cfg)))

	cat := transform.NewCatalog(transform.Options{
		Collation:     cfg.Collation(),
		JoinSeparator: cfg.JoinSeparator,
		CSSStrategy:   cfg.SortStrategy(),
	})

	cmd := &opts.Apply
	if cmd.List {
		for _, name := range cat.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}
	op, ok := cat.Lookup(cmd.Args.Op)
	if !ok {
		return fmt.Errorf("unknown operation %q (see apply --list)", cmd.Args.Op)
	}
	arg := cmd.Arg
	if arg == "" && op.Prompt != nil {
		arg = op.Prompt.Default
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	src := string(data)
	eol := text.DetectEOL(src)

	// A final line break terminates the last line rather than starting an
	// empty one, so it is kept out of the transform
	trailing := strings.HasSuffix(src, string(eol))
	src = strings.TrimSuffix(src, string(eol))

	result, strategy, err := stream.Run(ctx, src, op, arg, eol, cfg.Thresholds())
	if err != nil {
		return err
	}
	logger.Debug("apply %s: %d bytes (%s)", op.Name, len(data), strategy)

	if trailing {
		result += string(eol)
	}
	_, err = io.WriteString(out, result)
	return err
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.SubcommandsOptional = true
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch {
	case parser.Active != nil && parser.Active.Name == "apply":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runApply(ctx, &opts, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "lineking:", err)
			stop()
			os.Exit(1)
		}
	case opts.Daemon:
		runDaemon(&opts)
	default:
		runClient(&opts)
	}
}
