// Package debugger implements the run-state machine that lets a control goroutine
// pause, single-step, resume and terminate a running program.
package debugger

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
)

type State int

const (
	Running State = iota
	Paused
	Stepping
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stepping:
		return "stepping"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

var (
	ErrTerminated = errors.New("debugger: run terminated")
	ErrFinished   = errors.New("debugger: run finished")
)

// ExecutionContext is shared by the evaluation goroutine, which only calls Checkpoint,
// and any number of control goroutines. Every state change closes the current changed
// channel and installs a fresh one, waking everyone blocked on the old one.
type ExecutionContext struct {
	mu          sync.Mutex
	state       State
	breakpoints map[int]struct{}
	stepTaken   bool
	waiting     bool
	pausedLine  int
	pauses      uint64
	finished    bool
	changed     chan struct{}
	logger      *slog.Logger
}

func NewExecutionContext(logger *slog.Logger) *ExecutionContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecutionContext{
		state:       Running,
		breakpoints: make(map[int]struct{}),
		changed:     make(chan struct{}),
		logger:      logger,
	}
}

// broadcast must be called with mu held.
func (c *ExecutionContext) broadcast() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// setState must be called with mu held. Leaving Paused releases a suspended evaluator,
// so it no longer counts as waiting even before it wakes up.
func (c *ExecutionContext) setState(to State) {
	c.logger.Debug("debugger state change",
		slog.String("from", c.state.String()),
		slog.String("to", to.String()),
	)
	c.state = to
	if to != Paused {
		c.waiting = false
	}
	c.broadcast()
}

// transition must be called with mu held.
func (c *ExecutionContext) transition(to State) {
	if c.state == Terminated || c.state == to {
		return
	}
	c.setState(to)
}

func (c *ExecutionContext) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ExecutionContext) IsTerminated() bool {
	return c.State() == Terminated
}

// Pause asks the run to stop before its next statement.
func (c *ExecutionContext) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition(Paused)
}

// Resume lets a paused or stepping run continue freely.
func (c *ExecutionContext) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition(Running)
}

// Step lets exactly one more statement execute, then pauses again.
func (c *ExecutionContext) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Terminated {
		return
	}
	c.stepTaken = false
	c.setState(Stepping)
}

// Terminate ends the run. It is final: no later call changes the state again.
func (c *ExecutionContext) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Terminated {
		return
	}
	c.setState(Terminated)
}

// Finish records that the evaluation goroutine has returned so nobody waits for a pause
// that can no longer happen.
func (c *ExecutionContext) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	c.broadcast()
}

func (c *ExecutionContext) AddBreakpoint(line int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakpoints[line] = struct{}{}
}

func (c *ExecutionContext) RemoveBreakpoint(line int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.breakpoints, line)
}

func (c *ExecutionContext) ClearBreakpoints() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakpoints = make(map[int]struct{})
}

func (c *ExecutionContext) HasBreakpoint(line int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.breakpoints[line]
	return ok
}

// Breakpoints returns the breakpoint lines in ascending order.
func (c *ExecutionContext) Breakpoints() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]int, 0, len(c.breakpoints))
	for line := range c.breakpoints {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// PausedLine returns the line the run is blocked on, or 0 when it is not blocked.
func (c *ExecutionContext) PausedLine() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.waiting {
		return 0
	}
	return c.pausedLine
}

// Checkpoint is called by the evaluator before every statement. It blocks while the run
// is paused and reports whether the statement on line may execute.
func (c *ExecutionContext) Checkpoint(line int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == Stepping && c.stepTaken:
		c.logger.Debug("step complete", slog.Int("line", line))
		c.setState(Paused)
	case c.state == Running && c.hasBreakpoint(line):
		c.logger.Debug("breakpoint hit", slog.Int("line", line))
		c.setState(Paused)
	}

	for c.state == Paused {
		if !c.waiting {
			c.waiting = true
			c.pausedLine = line
			c.pauses++
			c.broadcast()
		}
		ch := c.changed
		c.mu.Unlock()
		<-ch
		c.mu.Lock()
	}
	c.waiting = false

	if c.state == Terminated {
		return false
	}
	if c.state == Stepping {
		c.stepTaken = true
	}
	return true
}

func (c *ExecutionContext) hasBreakpoint(line int) bool {
	_, ok := c.breakpoints[line]
	return ok
}

// AwaitPaused blocks until the evaluation goroutine is actually suspended in Checkpoint
// and returns the line it stopped before.
func (c *ExecutionContext) AwaitPaused(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		switch {
		case c.waiting:
			return c.pausedLine, nil
		case c.state == Terminated:
			return 0, ErrTerminated
		case c.finished:
			return 0, ErrFinished
		}

		ch := c.changed
		c.mu.Unlock()
		select {
		case <-ch:
			c.mu.Lock()
		case <-ctx.Done():
			c.mu.Lock()
			return 0, ctx.Err()
		}
	}
}

// AwaitNextPause is AwaitPaused for a watcher: it waits for a suspension numbered after
// seen and returns its line and number. Pass 0 to wait for the first one.
func (c *ExecutionContext) AwaitNextPause(ctx context.Context, seen uint64) (int, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		switch {
		case c.waiting && c.pauses > seen:
			return c.pausedLine, c.pauses, nil
		case c.state == Terminated:
			return 0, c.pauses, ErrTerminated
		case c.finished:
			return 0, c.pauses, ErrFinished
		}

		ch := c.changed
		c.mu.Unlock()
		select {
		case <-ch:
			c.mu.Lock()
		case <-ctx.Done():
			c.mu.Lock()
			return 0, c.pauses, ctx.Err()
		}
	}
}
