package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"kidcode/internal/console"
	"kidcode/internal/engine"
	"kidcode/internal/event"
	"kidcode/internal/lexer"
	"kidcode/internal/log"
	"kidcode/internal/parser"
	"kidcode/internal/store"
	"kidcode/internal/trace"
	"kidcode/internal/util"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	// Version is set at build time with -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath  string
	breakLines  string
	debugMode   bool
	traceOut    string
	storeDSN    string
	timeout     time.Duration
	debugAST    bool
	debugTxtAST bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", util.DefaultConfigFile, "Configuration file")
	// run config
	flag.StringVar(&breakLines, "break", "", "Comma separated lines to pause before, implies -debug")
	flag.BoolVar(&debugMode, "debug", false, "Run with the interactive debugger console")
	flag.DurationVar(&timeout, "timeout", 0, "Terminate the program after this long (0 means never)")
	flag.StringVar(&traceOut, "trace-out", "", "Write the event trace to a .json or .cbor file")
	flag.StringVar(&storeDSN, "store", "", "Save the run to a database, e.g. sqlite3:runs.db")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Write the AST as JSON next to the source file")
	flag.BoolVar(&debugTxtAST, "debug-txt-ast", false, "Print the AST as an outline and exit")
	// log config
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if version {
		printVersion()
		return 0
	}
	if help {
		printHelp()
		return 0
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kidcode: %v\n", err)
		return 2
	}

	logger, closer, err := log.New(config.Log.Level, config.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kidcode: %v\n", err)
		return 2
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		printHelp()
		return 2
	}
	fileName := flag.Arg(0)
	data, err := os.ReadFile(fileName)
	if err != nil {
		slog.Error("failed to read program", slog.String("file", fileName), slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "kidcode: %v\n", err)
		return 1
	}
	source := string(data)

	if config.DebugJsonAST || config.DebugTxtAST {
		if err := dumpAST(config, fileName, source); err != nil {
			fmt.Fprintf(os.Stderr, "kidcode: %v\n", err)
			return 1
		}
		if config.DebugTxtAST {
			return 0
		}
	}

	breakpoints, err := parseBreakpoints(breakLines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kidcode: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	eng := engine.New(engine.Options{
		OriginX:      config.Turtle.OriginX,
		OriginY:      config.Turtle.OriginY,
		Color:        config.Turtle.Color,
		MaxCallDepth: config.Eval.MaxCallDepth,
		Listener:     printEvent(os.Stdout),
		Logger:       logger,
	})
	for _, line := range breakpoints {
		eng.Debugger().AddBreakpoint(line)
	}

	var result *engine.Result
	if debugMode || len(breakpoints) > 0 {
		result = runWithConsole(ctx, eng, source)
	} else {
		result = eng.Run(ctx, source)
	}

	if result.Status == engine.StatusParseError {
		for _, msg := range result.ParseErrors {
			fmt.Fprint(os.Stderr, util.GetContextLines(source, util.ErrorLine(msg)))
		}
	}
	if result.Status == engine.StatusTerminated {
		fmt.Fprintln(os.Stderr, "program terminated")
	}

	code := 0
	if err := persist(config, result); err != nil {
		slog.Error("failed to persist run", slog.String("run-id", result.RunID), slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "kidcode: %v\n", err)
		code = 1
	}
	if result.Status == engine.StatusParseError {
		code = 1
	}
	return code
}

// loadConfiguration merges the config file and environment with flags given on the
// command line. An explicit -config must exist; the default file is optional.
func loadConfiguration() (util.Configuration, error) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	config, err := util.LoadConfiguration(configPath, set["config"])
	if err != nil {
		return config, err
	}
	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit
	config.DebugJsonAST = debugAST
	config.DebugTxtAST = debugTxtAST

	if set["log-level"] {
		config.Log.Level = logLevel
	}
	if set["log-file"] {
		config.Log.File = logFile
	}
	if set["store"] {
		config.Store.DSN = storeDSN
	}
	if set["trace-out"] {
		config.Trace.Out = traceOut
	}
	return config, config.Validate()
}

func parseBreakpoints(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var lines []int
	for _, part := range strings.Split(s, ",") {
		line, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || line < 1 {
			return nil, fmt.Errorf("invalid breakpoint %q", part)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func printEvent(out io.Writer) func(event.Event) {
	return func(ev event.Event) {
		if ev.Kind() == event.CLEAR {
			return
		}
		fmt.Fprintln(out, ev.String())
	}
}

// runWithConsole runs the program on its own goroutine while the console reads
// commands on another. The console outlives the run so its final state can be
// inspected, and liner is only closed once the prompt has returned.
func runWithConsole(ctx context.Context, eng *engine.Engine, source string) *engine.Result {
	con := console.NewInteractive(eng.Debugger(), eng.Environment())
	defer con.Close()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go con.WatchPauses(watchCtx)

	done := make(chan *engine.Result, 1)
	go func() { done <- eng.Run(ctx, source) }()

	prompted := make(chan error, 1)
	go func() { prompted <- con.Run() }()

	return awaitRunAndConsole(done, prompted, os.Stdout)
}

// awaitRunAndConsole returns the run's result once both the run and the console
// prompt have ended.
func awaitRunAndConsole(done <-chan *engine.Result, prompted <-chan error, out io.Writer) *engine.Result {
	result := <-done
	select {
	case err := <-prompted:
		logConsoleError(err)
		return result
	default:
	}

	fmt.Fprintf(out, "program %s, type 'quit' to exit\n", result.Status)
	logConsoleError(<-prompted)
	return result
}

func logConsoleError(err error) {
	if err != nil {
		slog.Error("console failed", slog.Any("error", err))
	}
}

func dumpAST(config util.Configuration, fileName, source string) error {
	p := parser.New(lexer.Tokenize(source))
	program := p.ParseProgram()

	if config.DebugTxtAST {
		fmt.Println(parser.RenderASTAsText(program, 0))
	}
	if config.DebugJsonAST {
		out, err := parser.RenderASTAsJSON(program)
		if err != nil {
			return fmt.Errorf("render ast: %w", err)
		}
		astFile := fileName + ".ast.json"
		if err := os.WriteFile(astFile, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write ast: %w", err)
		}
		slog.Info("ast written", slog.String("file", astFile))
	}
	return nil
}

func persist(config util.Configuration, result *engine.Result) error {
	var errs []error
	if config.Trace.Out != "" {
		if err := trace.WriteFile(config.Trace.Out, result.Events); err != nil {
			errs = append(errs, err)
		}
	}
	if config.Store.DSN != "" {
		ctx := context.Background()
		s, err := store.Open(ctx, config.Store.DSN, slog.Default())
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		defer s.Close()
		if err := s.SaveRun(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func printVersion() {
	fmt.Printf("kidcode version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: kidcode [options] filename

Options:
  -config <path>      Configuration file. Default is 'kidcode.toml' if present.
  -break <lines>      Pause before these lines, e.g. -break 3,7. Implies -debug.
  -debug              Run with the interactive debugger console.
  -timeout <d>        Terminate the program after this long, e.g. 5s.
  -trace-out <path>   Write the event trace as JSON (.json) or CBOR (.cbor).
  -store <dsn>        Save the run, e.g. sqlite3:runs.db or mysql:user:pw@tcp(host)/db.
  -debug-ast          Write the AST as JSON next to the source file.
  -debug-txt-ast      Print the AST as an outline and exit.
  -log-level <level>  Set the log level: debug, info, warn, error, none. Default is 'none'.
  -log-file <path>    Specify a log file to write logs. Default is stderr.
  -help               Display this help information and exit.
  -version            Display version information and exit.

Environment:
  KIDCODE_LOG_LEVEL, KIDCODE_STORE and KIDCODE_MAX_CALL_DEPTH override the
  configuration file. Flags override both.

Examples:
  kidcode square.kc                     Run a program
  kidcode -break 4 square.kc            Pause before line 4 and open the console
  kidcode -trace-out run.cbor square.kc Save the drawing events

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
