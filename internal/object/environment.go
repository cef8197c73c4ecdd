package object

import (
	"kidcode/internal/ast"
	"log/slog"
	"math"
	"sort"
	"sync"
)

const (
	DefaultOriginX = 250
	DefaultOriginY = 250
	DefaultColor   = "blue"
)

// Function is a user-defined procedure registered by `define`.
type Function struct {
	Name       string
	Parameters []string
	Body       []ast.Statement
}

// Turtle is the drawing state. Heading is in degrees, 0 points up and the value grows
// clockwise.
type Turtle struct {
	X       int
	Y       int
	Heading float64
	PenDown bool
	Color   string
}

type Point struct {
	X int
	Y int
}

// Environment holds everything a single run mutates: the one global variable scope,
// the function table and the turtle. The evaluation goroutine is its only writer; the
// lock lets a debugger read it while the run is paused.
type Environment struct {
	variables map[string]Object
	functions map[string]*Function

	turtle  Turtle
	originX int
	originY int
	color   string

	mu sync.RWMutex
}

type Option func(*Environment)

func WithOrigin(x, y int) Option {
	return func(e *Environment) {
		e.originX = x
		e.originY = y
	}
}

func WithColor(color string) Option {
	return func(e *Environment) {
		if color != "" {
			e.color = color
		}
	}
}

func NewEnvironment(opts ...Option) *Environment {
	env := &Environment{
		variables: make(map[string]Object),
		functions: make(map[string]*Function),
		originX:   DefaultOriginX,
		originY:   DefaultOriginY,
		color:     DefaultColor,
	}
	for _, opt := range opts {
		opt(env)
	}
	env.turtle = Turtle{X: env.originX, Y: env.originY, PenDown: true, Color: env.color}

	slog.Debug("new environment",
		slog.Int("origin-x", env.originX),
		slog.Int("origin-y", env.originY),
		slog.String("color", env.color),
	)
	return env
}

func (e *Environment) Get(name string) (Object, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	obj, ok := e.variables[name]
	return obj, ok
}

func (e *Environment) Set(name string, val Object) Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variables[name] = val
	return val
}

// Variables returns the variable names in sorted order.
func (e *Environment) Variables() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.variables))
	for name := range e.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Environment) DefineFunction(fn *Function) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.functions[fn.Name] = fn
}

func (e *Environment) GetFunction(name string) (*Function, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.functions[name]
	return fn, ok
}

func (e *Environment) Origin() Point {
	return Point{X: e.originX, Y: e.originY}
}

func (e *Environment) Snapshot() Turtle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.turtle
}

func (e *Environment) Position() Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Point{X: e.turtle.X, Y: e.turtle.Y}
}

func (e *Environment) SetPosition(p Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turtle.X = p.X
	e.turtle.Y = p.Y
}

func (e *Environment) SetHeading(deg float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turtle.Heading = normalize(deg)
}

func (e *Environment) SetPen(down bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turtle.PenDown = down
}

func (e *Environment) SetColor(color string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turtle.Color = color
}

// Forward moves the turtle along its heading. Coordinates are screen coordinates, so
// moving at heading 0 decreases Y.
func (e *Environment) Forward(steps float64) (from, to Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	from = Point{X: e.turtle.X, Y: e.turtle.Y}
	rad := e.turtle.Heading * math.Pi / 180
	e.turtle.X += int(math.Round(steps * math.Sin(rad)))
	e.turtle.Y -= int(math.Round(steps * math.Cos(rad)))
	to = Point{X: e.turtle.X, Y: e.turtle.Y}
	return from, to
}

// Turn rotates the turtle clockwise by deg (negative turns left) and returns the new
// heading in [0, 360).
func (e *Environment) Turn(deg float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turtle.Heading = normalize(e.turtle.Heading + deg)
	return e.turtle.Heading
}

// Home puts the turtle back on the origin facing up with the pen lifted.
func (e *Environment) Home() (from, to Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	from = Point{X: e.turtle.X, Y: e.turtle.Y}
	e.turtle.X = e.originX
	e.turtle.Y = e.originY
	e.turtle.Heading = 0
	e.turtle.PenDown = false
	to = Point{X: e.turtle.X, Y: e.turtle.Y}
	return from, to
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
