// Package expr defines the expression-evaluation capability the
// Configurator consumes. The engine never walks an expression AST itself;
// it hands a property string to an Evaluator and inserts the returned
// Value back into the property tree. DefaultEvaluator implements just
// enough of the grammar (parameters/variables/reference lookups, literal
// passthrough) to exercise the engine end to end; a full expression
// language is out of scope.
package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// Value is a dynamic JSON-like value: string, float64, bool, nil,
// map[string]any, or []any.
type Value = interface{}

// Context is the read surface an Evaluator needs: parameter/variable
// bindings and resolved resource references. configure.Context implements
// this so the evaluator never depends on the configurator package.
type Context interface {
	Parameter(name string) (Value, bool)
	Variable(name string) (Value, bool)
	Reference(key string) (Value, bool)
}

// Evaluator parses and executes one expression string against a Context.
type Evaluator interface {
	ParseAndExecute(text string, ctx Context) (Value, error)
}

var callPattern = regexp.MustCompile(`^\[\s*(\w+)\(\s*'([^']*)'\s*\)\s*\]$`)

// DefaultEvaluator recognizes `[parameters('name')]`, `[variables('name')]`,
// and `[reference('type/name')]`; any text not wrapped in a single
// bracketed call is returned unchanged as a string literal.
type DefaultEvaluator struct{}

// ParseAndExecute implements Evaluator.
func (DefaultEvaluator) ParseAndExecute(text string, ctx Context) (Value, error) {
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return text, nil
	}
	m := callPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, dscerror.Parser(fmt.Sprintf("unsupported expression: %s", text))
	}
	fn, arg := m[1], m[2]
	switch fn {
	case "parameters":
		v, ok := ctx.Parameter(arg)
		if !ok {
			return nil, dscerror.Parser(fmt.Sprintf("undefined parameter %q", arg))
		}
		return v, nil
	case "variables":
		v, ok := ctx.Variable(arg)
		if !ok {
			return nil, dscerror.Parser(fmt.Sprintf("undefined variable %q", arg))
		}
		return v, nil
	case "reference":
		// 'Namespace/Type/name' -> "namespace/type::name", the Resource.Key form.
		key := strings.ToLower(arg)
		if i := strings.LastIndex(key, "/"); i >= 0 {
			key = key[:i] + "::" + key[i+1:]
		}
		v, ok := ctx.Reference(key)
		if !ok {
			return nil, dscerror.Parser(fmt.Sprintf("unresolved reference %q", arg))
		}
		return v, nil
	default:
		return nil, dscerror.Parser(fmt.Sprintf("unsupported expression function %q", fn))
	}
}

// ReferencedParameters returns every parameter name a `[parameters('x')]`
// expression names, used by the Configurator's iterative default-value
// resolution to decide which bindings a default still depends on.
func ReferencedParameters(text string) []string {
	return referencedCalls(text, "parameters")
}

func referencedCalls(text, fn string) []string {
	m := callPattern.FindStringSubmatch(text)
	if m == nil || m[1] != fn {
		return nil
	}
	return []string{m[2]}
}
