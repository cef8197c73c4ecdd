// Package builtins holds the fixed table of functions every program can call without
// defining them. Each one checks its own arguments and reports misuse as an error value.
package builtins

import (
	"kidcode/internal/object"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

type BuiltinFunction func(args ...object.Object) object.Object

type Builtin struct {
	Name  string
	Arity int
	Fn    BuiltinFunction
}

var builtins = map[string]*Builtin{
	"count":   funcCount(),
	"whisper": funcWhisper(),
	"solve":   funcSolve(),

	// backpack (list) functions
	"pack":  funcPack(),
	"front": funcFront(),
	"back":  funcBack(),
	"after": funcAfter(),
	"find":  funcFind(),
}

// Lookup returns the builtin registered under name.
func Lookup(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Names returns the builtin names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply calls the named builtin after checking the argument count.
func Apply(name string, args []object.Object) object.Object {
	b, ok := Lookup(name)
	if !ok {
		return object.NewError(object.UndefinedName, "Unknown built-in function '%s'.", name)
	}
	if len(args) != b.Arity {
		return arityError(b, len(args))
	}
	return b.Fn(args...)
}

func arityError(b *Builtin, got int) *object.Error {
	plural := "s"
	if b.Arity == 1 {
		plural = ""
	}
	return object.NewError(object.WrongArity, "%s() expects exactly %d argument%s, but got %d",
		b.Name, b.Arity, plural, got)
}

func funcCount() *Builtin {
	return &Builtin{
		Name:  "count",
		Arity: 1,
		Fn: func(args ...object.Object) object.Object {
			switch target := args[0].(type) {
			case *object.String:
				return &object.Integer{Value: int64(utf8.RuneCountInString(target.Value))}
			case *object.List:
				return &object.Integer{Value: int64(len(target.Elements))}
			}
			return object.NewError(object.TypeMismatch, "count() can only be used on a list or a string.")
		},
	}
}

func funcWhisper() *Builtin {
	return &Builtin{
		Name:  "whisper",
		Arity: 1,
		Fn: func(args ...object.Object) object.Object {
			return &object.String{Value: args[0].Inspect()}
		},
	}
}

// funcSolve turns text that looks like a number into that number. Whole numbers become
// integers, everything else that parses becomes a float.
func funcSolve() *Builtin {
	return &Builtin{
		Name:  "solve",
		Arity: 1,
		Fn: func(args ...object.Object) object.Object {
			s, ok := args[0].(*object.String)
			if !ok {
				return object.NewError(object.TypeMismatch, "solve() expects a string input.")
			}

			text := strings.TrimSpace(s.Value)
			if i, err := strconv.ParseInt(text, 10, 64); err == nil {
				return &object.Integer{Value: i}
			}
			f, err := strconv.ParseFloat(text, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return object.NewError(object.InvalidArgument, "solve() cannot convert input to a number.")
			}
			return &object.Float{Value: f}
		},
	}
}

// funcPack returns a new list with the item appended. A null backpack counts as empty.
func funcPack() *Builtin {
	return &Builtin{
		Name:  "pack",
		Arity: 2,
		Fn: func(args ...object.Object) object.Object {
			var elements []object.Object
			switch backpack := args[0].(type) {
			case *object.Null:
			case *object.List:
				elements = backpack.Elements
			default:
				return object.NewError(object.TypeMismatch, "pack() expects the first argument to be a list.")
			}

			newElements := make([]object.Object, len(elements), len(elements)+1)
			copy(newElements, elements)
			newElements = append(newElements, args[1])
			return &object.List{Elements: newElements}
		},
	}
}

func funcFront() *Builtin {
	return &Builtin{
		Name:  "front",
		Arity: 1,
		Fn: func(args ...object.Object) object.Object {
			list, err := nonEmptyList("front", args[0])
			if err != nil {
				return err
			}
			return list.Elements[0]
		},
	}
}

func funcBack() *Builtin {
	return &Builtin{
		Name:  "back",
		Arity: 1,
		Fn: func(args ...object.Object) object.Object {
			list, err := nonEmptyList("back", args[0])
			if err != nil {
				return err
			}
			return list.Elements[len(list.Elements)-1]
		},
	}
}

// funcAfter returns everything but the first element; an empty list stays empty.
func funcAfter() *Builtin {
	return &Builtin{
		Name:  "after",
		Arity: 1,
		Fn: func(args ...object.Object) object.Object {
			list, ok := args[0].(*object.List)
			if !ok {
				return object.NewError(object.TypeMismatch, "after() expects a list.")
			}
			if len(list.Elements) == 0 {
				return &object.List{Elements: []object.Object{}}
			}
			rest := make([]object.Object, len(list.Elements)-1)
			copy(rest, list.Elements[1:])
			return &object.List{Elements: rest}
		},
	}
}

func funcFind() *Builtin {
	return &Builtin{
		Name:  "find",
		Arity: 2,
		Fn: func(args ...object.Object) object.Object {
			list, ok := args[0].(*object.List)
			if !ok {
				return object.NewError(object.TypeMismatch, "find() expects the first argument to be a list.")
			}
			for _, el := range list.Elements {
				if object.Equal(el, args[1]) {
					return object.TRUE
				}
			}
			return object.FALSE
		},
	}
}

func nonEmptyList(name string, arg object.Object) (*object.List, *object.Error) {
	list, ok := arg.(*object.List)
	if !ok {
		return nil, object.NewError(object.TypeMismatch, "%s() expects a list.", name)
	}
	if len(list.Elements) == 0 {
		return nil, object.NewError(object.InvalidArgument, "%s() cannot be used on an empty list.", name)
	}
	return list, nil
}
