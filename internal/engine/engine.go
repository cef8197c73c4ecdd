// Package engine is the entry point hosts use to run a program: it lexes, parses and
// evaluates source text and owns the controls that stop a run from outside.
package engine

import (
	"context"
	"kidcode/internal/debugger"
	"kidcode/internal/evaluator"
	"kidcode/internal/event"
	"kidcode/internal/lexer"
	"kidcode/internal/object"
	"kidcode/internal/parser"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusTerminated Status = "terminated"
	StatusParseError Status = "parse_error"
)

type Result struct {
	RunID       string
	Source      string
	Status      Status
	Events      []event.Event
	ParseErrors []string
	StartedAt   time.Time
	FinishedAt  time.Time
}

type Options struct {
	OriginX      int
	OriginY      int
	Color        string
	MaxCallDepth int
	Listener     func(event.Event)
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		OriginX:      object.DefaultOriginX,
		OriginY:      object.DefaultOriginY,
		Color:        object.DefaultColor,
		MaxCallDepth: evaluator.DefaultMaxCallDepth,
	}
}

// Engine runs one program. Its debugger context exists before the run starts so a
// control goroutine can set breakpoints and pause first.
type Engine struct {
	opts    Options
	ctx     *debugger.ExecutionContext
	env     *object.Environment
	stopped atomic.Bool
	logger  *slog.Logger
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	env := object.NewEnvironment(
		object.WithOrigin(opts.OriginX, opts.OriginY),
		object.WithColor(opts.Color),
	)
	return &Engine{
		opts:   opts,
		ctx:    debugger.NewExecutionContext(logger),
		env:    env,
		logger: logger,
	}
}

// Execute runs source with default settings and returns its events. Parse errors come
// back as error events and nothing is executed.
func Execute(source string) []event.Event {
	return New(DefaultOptions()).Execute(source)
}

func (e *Engine) Execute(source string) []event.Event {
	return e.Run(context.Background(), source).Events
}

func (e *Engine) Debugger() *debugger.ExecutionContext {
	return e.ctx
}

// Environment is the state the run mutates. Read it only while the run is paused or
// after it finished.
func (e *Engine) Environment() *object.Environment {
	return e.env
}

// Stop ends the run at the next statement boundary, releasing it if it is paused.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.ctx.Terminate()
}

// Run executes source until it finishes, is terminated or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, source string) *Result {
	result := &Result{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
	logger := e.logger.With(slog.String("run-id", result.RunID))
	defer e.ctx.Finish()

	statements, errors := parser.Parse(lexer.Tokenize(source))
	if len(errors) > 0 {
		result.Status = StatusParseError
		result.ParseErrors = errors
		result.Events = make([]event.Event, 0, len(errors))
		for _, msg := range errors {
			ev := event.ErrorEvent{Message: msg}
			result.Events = append(result.Events, ev)
			if e.opts.Listener != nil {
				e.opts.Listener(ev)
			}
		}
		result.FinishedAt = time.Now().UTC()
		logger.Info("program rejected", slog.Int("parse-errors", len(errors)))
		return result
	}

	stop := context.AfterFunc(ctx, e.Stop)
	defer stop()

	ev := evaluator.New(
		evaluator.WithExecutionContext(e.ctx),
		evaluator.WithStopSignal(e.stopped.Load),
		evaluator.WithListener(e.opts.Listener),
		evaluator.WithLogger(logger),
		evaluator.WithMaxCallDepth(e.opts.MaxCallDepth),
	)

	logger.Info("run started", slog.Int("statements", len(statements)))
	result.Events = ev.Evaluate(statements, e.env)
	result.FinishedAt = time.Now().UTC()

	result.Status = StatusCompleted
	if e.ctx.IsTerminated() || e.stopped.Load() {
		result.Status = StatusTerminated
	}
	logger.Info("run finished",
		slog.String("status", string(result.Status)),
		slog.Int("events", len(result.Events)),
		slog.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result
}
