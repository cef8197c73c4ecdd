package evaluator

import (
	"fmt"
	"kidcode/internal/ast"
	"kidcode/internal/builtins"
	"kidcode/internal/debugger"
	"kidcode/internal/event"
	"kidcode/internal/object"
	"log/slog"
	"unicode/utf8"
)

const DefaultMaxCallDepth = 1000

// InvariantError is raised with panic when the evaluator is handed a tree the parser
// can never produce.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string { return "evaluator invariant violated: " + e.Message }

func invariant(format string, a ...interface{}) {
	panic(&InvariantError{Message: fmt.Sprintf(format, a...)})
}

type Evaluator struct {
	ctx      *debugger.ExecutionContext
	stop     func() bool
	listener func(event.Event)
	logger   *slog.Logger
	maxDepth int

	env    *object.Environment
	events []event.Event
	line   int
	depth  int
}

type Option func(*Evaluator)

// WithExecutionContext attaches the debugger state machine consulted before every
// statement.
func WithExecutionContext(ctx *debugger.ExecutionContext) Option {
	return func(e *Evaluator) { e.ctx = ctx }
}

// WithStopSignal installs a check polled before every statement. Returning true ends
// the run.
func WithStopSignal(stop func() bool) Option {
	return func(e *Evaluator) { e.stop = stop }
}

// WithListener receives every event as soon as it is produced.
func WithListener(listener func(event.Event)) Option {
	return func(e *Evaluator) { e.listener = listener }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

func WithMaxCallDepth(depth int) Option {
	return func(e *Evaluator) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		stop:     func() bool { return false },
		logger:   slog.Default(),
		maxDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ctx == nil {
		e.ctx = debugger.NewExecutionContext(e.logger)
	}
	return e
}

// Evaluate runs statements against env and returns the events in the order they were
// produced. The first event is always a ClearEvent.
func (e *Evaluator) Evaluate(statements []ast.Statement, env *object.Environment) []event.Event {
	e.env = env
	e.events = []event.Event{}
	e.line = 0
	e.depth = 0

	e.emit(event.ClearEvent{})
	e.evalBlock(statements)

	e.logger.Debug("evaluation finished",
		slog.Int("events", len(e.events)),
		slog.String("state", e.ctx.State().String()),
	)
	return e.events
}

// EvaluateExpression computes a single expression without producing events.
func (e *Evaluator) EvaluateExpression(expr ast.Expression, env *object.Environment) object.Object {
	e.env = env
	return e.eval(expr)
}

func (e *Evaluator) halted() bool {
	return e.ctx.IsTerminated() || e.stop()
}

func (e *Evaluator) emit(ev event.Event) {
	e.events = append(e.events, ev)
	if e.listener != nil {
		e.listener(ev)
	}
}

func (e *Evaluator) reportError(message string) {
	if e.line > 0 {
		message = fmt.Sprintf("Error line %d: %s", e.line, message)
	} else {
		message = "Error: " + message
	}
	e.logger.Debug("runtime error", slog.String("message", message))
	e.emit(event.ErrorEvent{Message: message})
}

func (e *Evaluator) emitMove(from, to object.Point) {
	turtle := e.env.Snapshot()
	e.emit(event.MoveEvent{
		FromX:   from.X,
		FromY:   from.Y,
		ToX:     to.X,
		ToY:     to.Y,
		PenDown: turtle.PenDown,
		Color:   turtle.Color,
		Heading: turtle.Heading,
	})
}

// evalBlock runs statements in order and reports false once the run has been halted.
func (e *Evaluator) evalBlock(statements []ast.Statement) bool {
	for _, stmt := range statements {
		if e.halted() {
			return false
		}
		e.evalStatement(stmt)
	}
	return !e.halted()
}

func (e *Evaluator) evalStatement(stmt ast.Statement) {
	switch node := stmt.(type) {
	case nil:
		invariant("nil statement")

	case *ast.LocatedStatement:
		if !e.ctx.Checkpoint(node.Line) {
			return
		}
		outer := e.line
		e.line = node.Line
		e.logger.Debug("executing statement",
			slog.Int("line", node.Line),
			slog.String("statement", node.TokenLiteral()),
		)
		e.evalStatement(node.Statement)
		e.line = outer

	case *ast.MoveStatement:
		steps, ok := e.evalNumber(node.Steps, "move forward")
		if !ok {
			return
		}
		from, to := e.env.Forward(steps)
		e.emitMove(from, to)

	case *ast.TurnStatement:
		degrees, ok := e.evalNumber(node.Degrees, "turn "+node.Direction)
		if !ok {
			return
		}
		if node.Direction == "left" {
			degrees = -degrees
		}
		e.env.Turn(degrees)
		pos := e.env.Position()
		e.emitMove(pos, pos)

	case *ast.SayStatement:
		val := e.eval(node.Message)
		if errObj, ok := val.(*object.Error); ok {
			e.reportError(errObj.Message)
			return
		}
		e.emit(event.SayEvent{Message: val.Inspect()})

	case *ast.HomeStatement:
		from, to := e.env.Home()
		e.emitMove(from, to)

	case *ast.SetStatement:
		val := e.eval(node.Value)
		if errObj, ok := val.(*object.Error); ok {
			e.reportError(errObj.Message)
			return
		}
		e.env.Set(node.Name.Value, val)

	case *ast.PenStatement:
		e.env.SetPen(node.State == "down")

	case *ast.SetColorStatement:
		val := e.eval(node.Color)
		switch c := val.(type) {
		case *object.Error:
			e.reportError(c.Message)
		case *object.String:
			e.env.SetColor(c.Value)
		default:
			e.reportError(fmt.Sprintf("color needs a string like \"red\", got %s", describe(val)))
		}

	case *ast.RepeatStatement:
		e.evalRepeatStatement(node)

	case *ast.IfStatement:
		e.evalIfStatement(node)

	case *ast.DefineStatement:
		e.evalDefineStatement(node)

	case *ast.FunctionCallStatement:
		result := e.callFunction(node.Function.Value, node.Arguments)
		if errObj, ok := result.(*object.Error); ok {
			e.reportError(errObj.Message)
		}

	default:
		invariant("unknown statement type %T", stmt)
	}
}

// evalNumber evaluates expr and widens it to a float, reporting an error event when
// the value is not a number.
func (e *Evaluator) evalNumber(expr ast.Expression, command string) (float64, bool) {
	val := e.eval(expr)
	if errObj, ok := val.(*object.Error); ok {
		e.reportError(errObj.Message)
		return 0, false
	}
	n, ok := object.ToFloat(val)
	if !ok {
		e.reportError(fmt.Sprintf("%s needs a number, got %s", command, describe(val)))
		return 0, false
	}
	return n, true
}

func (e *Evaluator) evalRepeatStatement(node *ast.RepeatStatement) {
	val := e.eval(node.Times)
	if errObj, ok := val.(*object.Error); ok {
		e.reportError(errObj.Message)
		return
	}
	times, ok := val.(*object.Integer)
	if !ok {
		e.reportError(fmt.Sprintf("repeat needs a whole number, got %s", describe(val)))
		return
	}

	for i := int64(0); i < times.Value; i++ {
		if !e.evalBlock(node.Body) {
			return
		}
	}
}

func (e *Evaluator) evalIfStatement(node *ast.IfStatement) {
	val := e.eval(node.Condition)
	if errObj, ok := val.(*object.Error); ok {
		e.reportError(errObj.Message)
		return
	}
	condition, ok := val.(*object.Boolean)
	if !ok {
		e.reportError(fmt.Sprintf("if needs true or false, got %s", describe(val)))
		return
	}

	if condition.Value {
		e.evalBlock(node.Consequence)
	} else if node.Alternative != nil {
		e.evalBlock(node.Alternative)
	}
}

func (e *Evaluator) evalDefineStatement(node *ast.DefineStatement) {
	name := node.Name.Value
	if builtins.IsBuiltin(name) {
		e.reportError(fmt.Sprintf("'%s' is a built-in function and cannot be redefined", name))
		return
	}

	params := make([]string, len(node.Parameters))
	for i, p := range node.Parameters {
		params[i] = p.Value
	}
	e.env.DefineFunction(&object.Function{Name: name, Parameters: params, Body: node.Body})
}

// callFunction resolves name against the builtins first, then the user functions. User
// functions bind their parameters in the one global scope and produce null.
func (e *Evaluator) callFunction(name string, argExprs []ast.Expression) object.Object {
	if builtins.IsBuiltin(name) {
		args, errObj := e.evalExpressions(argExprs)
		if errObj != nil {
			return errObj
		}
		return builtins.Apply(name, args)
	}

	fn, ok := e.env.GetFunction(name)
	if !ok {
		return object.NewError(object.UndefinedName, "I don't know how to '%s'", name)
	}
	if len(argExprs) != len(fn.Parameters) {
		return object.NewError(object.WrongArity, "'%s' expects %d argument(s), but got %d",
			name, len(fn.Parameters), len(argExprs))
	}
	if e.depth >= e.maxDepth {
		return object.NewError(object.CallDepth, "maximum call depth exceeded")
	}

	args, errObj := e.evalExpressions(argExprs)
	if errObj != nil {
		return errObj
	}
	for i, param := range fn.Parameters {
		e.env.Set(param, args[i])
	}

	e.depth++
	e.evalBlock(fn.Body)
	e.depth--

	return object.NULL
}

func (e *Evaluator) evalExpressions(exps []ast.Expression) ([]object.Object, *object.Error) {
	result := make([]object.Object, 0, len(exps))
	for _, exp := range exps {
		evaluated := e.eval(exp)
		if errObj, ok := evaluated.(*object.Error); ok {
			return nil, errObj
		}
		result = append(result, evaluated)
	}
	return result, nil
}

func (e *Evaluator) eval(expr ast.Expression) object.Object {
	switch node := expr.(type) {
	case nil:
		invariant("nil expression")

	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}

	case *ast.FloatLiteral:
		return &object.Float{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.BooleanLiteral:
		return object.NativeBoolToBooleanObject(node.Value)

	case *ast.Identifier:
		if val, ok := e.env.Get(node.Value); ok {
			return val
		}
		return object.NewError(object.UndefinedName, "'%s' has not been set yet", node.Value)

	case *ast.ListLiteral:
		elements, errObj := e.evalExpressions(node.Elements)
		if errObj != nil {
			return errObj
		}
		return &object.List{Elements: elements}

	case *ast.PrefixExpression:
		right := e.eval(node.Right)
		if object.IsError(right) {
			return right
		}
		return e.evalPrefixExpression(node.Operator, right)

	case *ast.InfixExpression:
		left := e.eval(node.Left)
		if object.IsError(left) {
			return left
		}
		right := e.eval(node.Right)
		if object.IsError(right) {
			return right
		}
		return e.evalInfixExpression(node.Operator, left, right)

	case *ast.IndexExpression:
		left := e.eval(node.Left)
		if object.IsError(left) {
			return left
		}
		index := e.eval(node.Index)
		if object.IsError(index) {
			return index
		}
		return e.evalIndexExpression(left, index)

	case *ast.FunctionCallExpression:
		return e.callFunction(node.Function.Value, node.Arguments)

	default:
		invariant("unknown expression type %T", expr)
	}
	return nil
}

func (e *Evaluator) evalPrefixExpression(operator string, right object.Object) object.Object {
	if operator != "-" {
		invariant("unknown prefix operator %q", operator)
	}

	switch r := right.(type) {
	case *object.Integer:
		return &object.Integer{Value: -r.Value}
	case *object.Float:
		return &object.Float{Value: -r.Value}
	}
	return object.NewError(object.TypeMismatch, "cannot negate %s", describe(right))
}

func (e *Evaluator) evalInfixExpression(
	operator string,
	left, right object.Object,
) object.Object {
	switch {
	case operator == "==" || operator == "!=":
		if !object.SameKind(left, right) {
			return object.NewError(object.TypeMismatch, "cannot compare %s with %s",
				describe(left), describe(right))
		}
		equal := object.Equal(left, right)
		if operator == "!=" {
			equal = !equal
		}
		return object.NativeBoolToBooleanObject(equal)
	case left.Type() == object.INTEGER_OBJ && right.Type() == object.INTEGER_OBJ:
		return e.evalIntegerInfixExpression(operator, left, right)
	case object.IsNumber(left) && object.IsNumber(right):
		return e.evalFloatInfixExpression(operator, left, right)
	case left.Type() == object.STRING_OBJ && right.Type() == object.STRING_OBJ:
		return e.evalStringInfixExpression(operator, left, right)
	case operator == "+" && (left.Type() == object.STRING_OBJ || right.Type() == object.STRING_OBJ):
		return object.NewError(object.TypeMismatch, "can only join text with text, got %s + %s",
			describe(left), describe(right))
	default:
		return object.NewError(object.TypeMismatch, "cannot use '%s' with %s and %s",
			operator, describe(left), describe(right))
	}
}

func (e *Evaluator) evalIntegerInfixExpression(
	operator string,
	left, right object.Object,
) object.Object {
	leftVal := left.(*object.Integer).Value
	rightVal := right.(*object.Integer).Value

	switch operator {
	case "+":
		return &object.Integer{Value: leftVal + rightVal}
	case "-":
		return &object.Integer{Value: leftVal - rightVal}
	case "*":
		return &object.Integer{Value: leftVal * rightVal}
	case "/":
		if rightVal == 0 {
			return object.NewError(object.DivisionByZero, "Division by zero")
		}
		return &object.Integer{Value: leftVal / rightVal}
	case "<":
		return object.NativeBoolToBooleanObject(leftVal < rightVal)
	case "<=":
		return object.NativeBoolToBooleanObject(leftVal <= rightVal)
	case ">":
		return object.NativeBoolToBooleanObject(leftVal > rightVal)
	case ">=":
		return object.NativeBoolToBooleanObject(leftVal >= rightVal)
	}
	invariant("unknown infix operator %q", operator)
	return nil
}

func (e *Evaluator) evalFloatInfixExpression(
	operator string,
	left, right object.Object,
) object.Object {
	leftVal, _ := object.ToFloat(left)
	rightVal, _ := object.ToFloat(right)

	switch operator {
	case "+":
		return &object.Float{Value: leftVal + rightVal}
	case "-":
		return &object.Float{Value: leftVal - rightVal}
	case "*":
		return &object.Float{Value: leftVal * rightVal}
	case "/":
		if rightVal == 0 {
			return object.NewError(object.DivisionByZero, "Division by zero")
		}
		return &object.Float{Value: leftVal / rightVal}
	case "<":
		return object.NativeBoolToBooleanObject(leftVal < rightVal)
	case "<=":
		return object.NativeBoolToBooleanObject(leftVal <= rightVal)
	case ">":
		return object.NativeBoolToBooleanObject(leftVal > rightVal)
	case ">=":
		return object.NativeBoolToBooleanObject(leftVal >= rightVal)
	}
	invariant("unknown infix operator %q", operator)
	return nil
}

func (e *Evaluator) evalStringInfixExpression(
	operator string,
	left, right object.Object,
) object.Object {
	if operator == "+" {
		return &object.String{Value: left.(*object.String).Value + right.(*object.String).Value}
	}
	return object.NewError(object.TypeMismatch, "cannot use '%s' with text", operator)
}

func (e *Evaluator) evalIndexExpression(left, index object.Object) object.Object {
	idx, ok := index.(*object.Integer)
	if !ok {
		return object.NewError(object.TypeMismatch, "an index must be a whole number, got %s", describe(index))
	}

	switch l := left.(type) {
	case *object.List:
		if idx.Value < 0 || idx.Value >= int64(len(l.Elements)) {
			return object.NewError(object.IndexOutOfRange, "index %d is outside the list of %d item(s)",
				idx.Value, len(l.Elements))
		}
		return l.Elements[idx.Value]
	case *object.String:
		runes := []rune(l.Value)
		if idx.Value < 0 || idx.Value >= int64(len(runes)) {
			return object.NewError(object.IndexOutOfRange, "index %d is outside the text of %d letter(s)",
				idx.Value, utf8.RuneCountInString(l.Value))
		}
		return &object.String{Value: string(runes[idx.Value])}
	}
	return object.NewError(object.TypeMismatch, "cannot index into %s", describe(left))
}

// describe names a value for error messages: its kind and what it looks like.
func describe(obj object.Object) string {
	switch obj.(type) {
	case *object.Integer, *object.Float:
		return "the number " + obj.Inspect()
	case *object.String:
		return fmt.Sprintf("the text %q", obj.Inspect())
	case *object.Boolean:
		return obj.Inspect()
	case *object.List:
		return "the list " + obj.Inspect()
	case *object.Null:
		return "nothing"
	}
	return string(obj.Type())
}
