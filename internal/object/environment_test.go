package object

import "testing"

func TestNewEnvironmentDefaults(t *testing.T) {
	env := NewEnvironment()
	turtle := env.Snapshot()

	if turtle.X != 250 || turtle.Y != 250 {
		t.Fatalf("expected turtle at 250,250, got %d,%d", turtle.X, turtle.Y)
	}
	if turtle.Heading != 0 || !turtle.PenDown || turtle.Color != "blue" {
		t.Fatalf("unexpected initial turtle %+v", turtle)
	}
}

func TestEnvironmentOptions(t *testing.T) {
	env := NewEnvironment(WithOrigin(10, 20), WithColor("red"))
	turtle := env.Snapshot()
	if turtle.X != 10 || turtle.Y != 20 || turtle.Color != "red" {
		t.Fatalf("options not applied: %+v", turtle)
	}
	if env.Origin() != (Point{X: 10, Y: 20}) {
		t.Fatalf("unexpected origin %+v", env.Origin())
	}
}

func TestForward(t *testing.T) {
	tests := []struct {
		heading float64
		steps   float64
		to      Point
	}{
		{0, 10, Point{250, 240}},
		{90, 10, Point{260, 250}},
		{180, 10, Point{250, 260}},
		{270, 10, Point{240, 250}},
		{0, -10, Point{250, 260}},
		{45, 100, Point{321, 179}},
	}

	for _, tt := range tests {
		env := NewEnvironment()
		env.SetHeading(tt.heading)
		from, to := env.Forward(tt.steps)
		if from != (Point{250, 250}) {
			t.Errorf("heading %v: unexpected from %+v", tt.heading, from)
		}
		if to != tt.to {
			t.Errorf("heading %v steps %v: expected %+v, got %+v", tt.heading, tt.steps, tt.to, to)
		}
		if env.Position() != tt.to {
			t.Errorf("heading %v: position not updated", tt.heading)
		}
	}
}

func TestTurnNormalizes(t *testing.T) {
	env := NewEnvironment()
	if h := env.Turn(-90); h != 270 {
		t.Errorf("expected 270, got %v", h)
	}
	if h := env.Turn(450); h != 0 {
		t.Errorf("expected 0, got %v", h)
	}
	if h := env.Turn(30); h != 30 {
		t.Errorf("expected 30, got %v", h)
	}
}

func TestHome(t *testing.T) {
	env := NewEnvironment()
	env.SetPosition(Point{100, 150})
	env.SetHeading(123)

	from, to := env.Home()
	if from != (Point{100, 150}) || to != (Point{250, 250}) {
		t.Fatalf("unexpected home move %+v -> %+v", from, to)
	}
	turtle := env.Snapshot()
	if turtle.Heading != 0 || turtle.PenDown {
		t.Fatalf("home should face up with the pen lifted, got %+v", turtle)
	}
}

func TestVariablesAndFunctions(t *testing.T) {
	env := NewEnvironment()
	env.Set("b", &Integer{Value: 2})
	env.Set("a", &String{Value: "x"})

	if v, ok := env.Get("a"); !ok || v.Inspect() != "x" {
		t.Fatalf("expected a=x, got %v %v", v, ok)
	}
	if _, ok := env.Get("missing"); ok {
		t.Fatalf("expected missing variable")
	}
	if names := env.Variables(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected sorted names [a b], got %v", names)
	}

	env.DefineFunction(&Function{Name: "square", Parameters: []string{"size"}})
	fn, ok := env.GetFunction("square")
	if !ok || len(fn.Parameters) != 1 {
		t.Fatalf("expected square to be defined, got %+v", fn)
	}
}
