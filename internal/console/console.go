// Package console is the interactive debugger front end used by `kidcode -debug`. It
// reads commands while a program runs on another goroutine and drives that run's
// execution context.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"kidcode/internal/debugger"
	"kidcode/internal/evaluator"
	"kidcode/internal/lexer"
	"kidcode/internal/object"
	"kidcode/internal/parser"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

const (
	PROMPT      = "(kidcode) "
	historyFile = ".kidcode_history"
)

const helpText = `Commands:
  pause               stop before the next statement
  resume, continue    run until the next breakpoint
  step                run exactly one statement
  terminate, quit     end the program
  break N             pause before line N
  clear [N]           remove the breakpoint on line N, or all of them
  breakpoints         list breakpoints
  state               show the run state and paused line
  vars                show variables
  print EXPR          evaluate an expression against the current variables
  turtle              show the turtle
  help                show this text
`

type Console struct {
	dbg  *debugger.ExecutionContext
	env  *object.Environment
	eval *evaluator.Evaluator
	out  io.Writer
}

// New builds a console for one run. Expressions typed at `print` are evaluated by a
// separate evaluator so they never wait on the paused run's breakpoints.
func New(dbg *debugger.ExecutionContext, env *object.Environment, out io.Writer) *Console {
	return &Console{dbg: dbg, env: env, eval: evaluator.New(), out: out}
}

// Exec runs one command line and reports whether the console should keep reading.
func (c *Console) Exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "pause":
		c.dbg.Pause()
	case "resume", "continue", "c":
		c.dbg.Resume()
	case "step", "s":
		c.dbg.Step()
	case "terminate", "quit", "q":
		c.dbg.Terminate()
		fmt.Fprintln(c.out, "terminated")
		return false
	case "break", "b":
		line, ok := c.lineArg(cmd, args)
		if ok {
			c.dbg.AddBreakpoint(line)
			fmt.Fprintf(c.out, "breakpoint set on line %d\n", line)
		}
	case "clear":
		if len(args) == 0 {
			c.dbg.ClearBreakpoints()
			fmt.Fprintln(c.out, "all breakpoints cleared")
			break
		}
		line, ok := c.lineArg(cmd, args)
		if ok {
			c.dbg.RemoveBreakpoint(line)
			fmt.Fprintf(c.out, "breakpoint on line %d cleared\n", line)
		}
	case "breakpoints":
		c.printBreakpoints()
	case "state":
		c.printState()
	case "vars":
		c.printVariables()
	case "print", "p":
		c.printExpression(strings.TrimSpace(strings.TrimSpace(line)[len(fields[0]):]))
	case "turtle":
		t := c.env.Snapshot()
		pen := "up"
		if t.PenDown {
			pen = "down"
		}
		fmt.Fprintf(c.out, "turtle at (%d,%d) heading %s pen %s color %s\n",
			t.X, t.Y, strconv.FormatFloat(t.Heading, 'f', -1, 64), pen, t.Color)
	case "help", "?":
		io.WriteString(c.out, helpText)
	default:
		fmt.Fprintf(c.out, "unknown command '%s', type 'help' for a list\n", fields[0])
	}
	return true
}

func (c *Console) lineArg(cmd string, args []string) (int, bool) {
	if len(args) != 1 {
		fmt.Fprintf(c.out, "usage: %s N\n", cmd)
		return 0, false
	}
	line, err := strconv.Atoi(args[0])
	if err != nil || line < 1 {
		fmt.Fprintf(c.out, "'%s' is not a line number\n", args[0])
		return 0, false
	}
	return line, true
}

func (c *Console) printBreakpoints() {
	lines := c.dbg.Breakpoints()
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "no breakpoints")
		return
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strconv.Itoa(l)
	}
	fmt.Fprintf(c.out, "breakpoints: %s\n", strings.Join(parts, ", "))
}

func (c *Console) printState() {
	state := c.dbg.State()
	if line := c.dbg.PausedLine(); line > 0 {
		fmt.Fprintf(c.out, "%s before line %d\n", state, line)
		return
	}
	fmt.Fprintln(c.out, state)
}

func (c *Console) printVariables() {
	names := c.env.Variables()
	if len(names) == 0 {
		fmt.Fprintln(c.out, "no variables")
		return
	}
	for _, name := range names {
		val, _ := c.env.Get(name)
		fmt.Fprintf(c.out, "%s = %s\n", name, val.Inspect())
	}
}

func (c *Console) printExpression(src string) {
	if src == "" {
		fmt.Fprintln(c.out, "usage: print EXPR")
		return
	}
	expr, errs := parser.ParseExpression(lexer.Tokenize(src))
	if len(errs) > 0 {
		for _, msg := range errs {
			fmt.Fprintln(c.out, msg)
		}
		return
	}
	fmt.Fprintln(c.out, c.eval.EvaluateExpression(expr, c.env).Inspect())
}

// WatchPauses prints a line each time the run suspends until the run ends or ctx is
// done.
func (c *Console) WatchPauses(ctx context.Context) {
	var seen uint64
	for {
		line, n, err := c.dbg.AwaitNextPause(ctx, seen)
		if err != nil {
			return
		}
		seen = n
		fmt.Fprintf(c.out, "paused before line %d\n", line)
	}
}

// Start reads commands from in until it is exhausted or a command ends the run.
func (c *Console) Start(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !c.Exec(scanner.Text()) {
			return
		}
	}
}

// Interactive is a line-edited console on the terminal with history kept in the user's
// home directory.
type Interactive struct {
	*Console
	ln       *liner.State
	histPath string
}

func NewInteractive(dbg *debugger.ExecutionContext, env *object.Environment) *Interactive {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(complete)

	histPath := historyFile
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	return &Interactive{Console: New(dbg, env, os.Stdout), ln: ln, histPath: histPath}
}

// Run prompts for commands until the user quits, closes input or aborts with Ctrl+C,
// which terminates the program.
func (i *Interactive) Run() error {
	fmt.Fprintln(i.out, "kidcode debugger, type 'help' for commands")
	for {
		line, err := i.ln.Prompt(PROMPT)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			i.dbg.Terminate()
			return nil
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("console: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			i.ln.AppendHistory(line)
		}
		if !i.Exec(line) {
			return nil
		}
	}
}

// Close saves history and restores the terminal.
func (i *Interactive) Close() error {
	if f, err := os.Create(i.histPath); err == nil {
		_, _ = i.ln.WriteHistory(f)
		_ = f.Close()
	}
	return i.ln.Close()
}

var commands = []string{
	"pause", "resume", "continue", "step", "terminate", "quit",
	"break", "clear", "breakpoints", "state", "vars", "print", "turtle", "help",
}

func complete(line string) []string {
	var out []string
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, strings.ToLower(line)) {
			out = append(out, cmd)
		}
	}
	return out
}
