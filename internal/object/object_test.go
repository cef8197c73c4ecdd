package object

import "testing"

func TestInspect(t *testing.T) {
	tests := []struct {
		obj      Object
		expected string
	}{
		{&Integer{Value: 42}, "42"},
		{&Integer{Value: -7}, "-7"},
		{&Float{Value: 2}, "2.0"},
		{&Float{Value: 123.45}, "123.45"},
		{&Float{Value: -0.5}, "-0.5"},
		{&String{Value: "hello"}, "hello"},
		{TRUE, "true"},
		{FALSE, "false"},
		{NULL, "null"},
		{&List{Elements: []Object{&Integer{Value: 1}, &String{Value: "two"}, TRUE}}, "[1, two, true]"},
		{&List{Elements: []Object{}}, "[]"},
		{&List{Elements: []Object{&List{Elements: []Object{&Float{Value: 1}}}}}, "[[1.0]]"},
		{NewError(TypeMismatch, "cannot add %s to %s", "1", "x"), "Error: cannot add 1 to x"},
	}

	for _, tt := range tests {
		if got := tt.obj.Inspect(); got != tt.expected {
			t.Errorf("%T Inspect() wrong. expected=%q, got=%q", tt.obj, tt.expected, got)
		}
	}
}

func TestEqual(t *testing.T) {
	one := &Integer{Value: 1}
	oneFloat := &Float{Value: 1}
	list := func(els ...Object) *List { return &List{Elements: els} }

	tests := []struct {
		name     string
		a, b     Object
		expected bool
	}{
		{"same integers", one, &Integer{Value: 1}, true},
		{"different integers", one, &Integer{Value: 2}, false},
		{"integer and float", one, oneFloat, true},
		{"strings", &String{Value: "a"}, &String{Value: "a"}, true},
		{"string and number", &String{Value: "1"}, one, false},
		{"booleans", TRUE, &Boolean{Value: true}, true},
		{"nulls", NULL, &Null{}, true},
		{"nested lists", list(one, list(TRUE)), list(oneFloat, list(TRUE)), true},
		{"lists of different length", list(one), list(one, one), false},
		{"list and null", list(), NULL, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.expected {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a.Inspect(), tt.b.Inspect(), got, tt.expected)
			}
		})
	}
}

func TestSameKind(t *testing.T) {
	if !SameKind(&Integer{Value: 1}, &Float{Value: 2}) {
		t.Errorf("integers and floats should compare as one kind")
	}
	if SameKind(&String{Value: "1"}, &Integer{Value: 1}) {
		t.Errorf("strings and integers should not compare")
	}
	if !SameKind(NULL, NULL) {
		t.Errorf("null should compare with null")
	}
}

func TestIsError(t *testing.T) {
	if IsError(nil) {
		t.Errorf("nil is not an error")
	}
	if IsError(&String{Value: "Error: looks like one"}) {
		t.Errorf("a string that starts with Error: is still a string")
	}
	if !IsError(NewError(DivisionByZero, "Division by zero")) {
		t.Errorf("expected error value to be recognised")
	}
}
