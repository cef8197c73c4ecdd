package object

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	NULL_OBJ    = "NULL"
	BOOLEAN_OBJ = "BOOLEAN"
	INTEGER_OBJ = "INTEGER"
	FLOAT_OBJ   = "FLOAT"
	STRING_OBJ  = "STRING"
	LIST_OBJ    = "LIST"
	ERROR_OBJ   = "ERROR"
)

var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type ObjectType string

// Object is a runtime value. The set of implementations is closed to this package.
type Object interface {
	Type() ObjectType
	Inspect() string
	object()
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) object()          {}

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return FormatFloat(f.Value) }
func (f *Float) object()          {}

// FormatFloat renders a float the way learners expect to read it back: whole values keep
// a trailing ".0" so 2.0 never prints as 2.
func FormatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "Infinity"
	}
	if math.IsInf(v, -1) {
		return "-Infinity"
	}
	if math.IsNaN(v) {
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }
func (s *String) object()          {}

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) object()          {}

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l *List) object() {}

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }
func (n *Null) object()          {}

// ErrorKind classifies a language-level error so callers can react without parsing the
// message text.
type ErrorKind string

const (
	TypeMismatch    ErrorKind = "type mismatch"
	DivisionByZero  ErrorKind = "division by zero"
	IndexOutOfRange ErrorKind = "index out of range"
	UndefinedName   ErrorKind = "undefined name"
	WrongArity      ErrorKind = "wrong number of arguments"
	InvalidArgument ErrorKind = "invalid argument"
	CallDepth       ErrorKind = "call depth"
)

// Error is a language-level error value. It flows through expressions like any other
// value and is turned into an error event when it reaches a statement.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return "Error: " + e.Message }
func (e *Error) object()          {}

func NewError(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func IsError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// IsNumber reports whether obj is an Integer or a Float.
func IsNumber(obj Object) bool {
	switch obj.(type) {
	case *Integer, *Float:
		return true
	}
	return false
}

// ToFloat widens a numeric value. The second result is false for non-numbers.
func ToFloat(obj Object) (float64, bool) {
	switch n := obj.(type) {
	case *Integer:
		return float64(n.Value), true
	case *Float:
		return n.Value, true
	}
	return 0, false
}

// SameKind reports whether two values may be compared with == and !=. Integers and
// floats count as one numeric kind.
func SameKind(a, b Object) bool {
	if IsNumber(a) && IsNumber(b) {
		return true
	}
	return a.Type() == b.Type()
}

// Equal is structural value equality: numbers compare by numeric value across Integer
// and Float, lists compare element by element. Values of different kinds are unequal.
func Equal(a, b Object) bool {
	if IsNumber(a) && IsNumber(b) {
		if ai, ok := a.(*Integer); ok {
			if bi, ok := b.(*Integer); ok {
				return ai.Value == bi.Value
			}
		}
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		return af == bf
	}

	switch av := a.(type) {
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value == bv.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Error:
		bv, ok := b.(*Error)
		return ok && av.Kind == bv.Kind && av.Message == bv.Message
	}
	return false
}
