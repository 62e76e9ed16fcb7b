package configure

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/expr"
	"github.com/open-dsc/dsc/pkg/dsclib/logger"
	"github.com/open-dsc/dsc/pkg/dsclib/redact"
)

// Context is the Configurator's exclusively-owned mutable state: bound
// parameters, evaluated variables, resolved resource references keyed by
// "type::name", registered user functions, and the accumulators threaded
// through the per-operation loop. It implements expr.Context directly so
// the expression evaluator never depends on this package.
type Context struct {
	evaluator expr.Evaluator

	parameters map[string]expr.Value
	variables  map[string]expr.Value
	references map[string]expr.Value
	functions  map[string]string

	restartRequired []string
	startTime       time.Time
}

func newContext(evaluator expr.Evaluator) *Context {
	return &Context{
		evaluator:  evaluator,
		parameters: map[string]expr.Value{},
		variables:  map[string]expr.Value{},
		references: map[string]expr.Value{},
		functions:  map[string]string{},
		startTime:  time.Now(),
	}
}

// Parameter implements expr.Context.
func (c *Context) Parameter(name string) (expr.Value, bool) {
	v, ok := c.parameters[name]
	return v, ok
}

// Variable implements expr.Context.
func (c *Context) Variable(name string) (expr.Value, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// Reference implements expr.Context. key is the lowercased "type::name"
// form produced by configdoc.Resource.Key.
func (c *Context) Reference(key string) (expr.Value, bool) {
	v, ok := c.references[key]
	return v, ok
}

// setReference records a resource's actual/after-state so downstream
// reference() expressions resolve. Called once per invoked resource,
// after its result is known.
func (c *Context) setReference(key string, state expr.Value) {
	c.references[key] = state
}

// addRestartRequired accumulates a per-result restart-required entry into
// the global context, per §4.4's per-operation loop.
func (c *Context) addRestartRequired(entries ...string) {
	c.restartRequired = append(c.restartRequired, entries...)
}

// bind implements set_context: validate/coerce external parameter values,
// resolve defaults iteratively, evaluate variables, and register user
// functions. Variables are evaluated in a single pass in Go map iteration
// order, not declaration order; a variable whose value refers to another
// variable fails unless that one happened to be evaluated first.
func (c *Context) bind(doc *configdoc.Document, external map[string]interface{}) error {
	if err := c.bindParameters(doc, external); err != nil {
		return err
	}
	if err := c.resolveDefaults(doc); err != nil {
		return err
	}
	if err := c.evaluateVariables(doc); err != nil {
		return err
	}
	return c.registerFunctions(doc)
}

func (c *Context) bindParameters(doc *configdoc.Document, external map[string]interface{}) error {
	for name, decl := range doc.Parameters {
		v, supplied := external[name]
		if !supplied {
			continue
		}
		coerced, err := coerceParameter(name, decl, v)
		if err != nil {
			return err
		}
		if decl.Type.IsSecure() {
			logger.Infof("configure: parameter %q bound to %s", name, redact.Placeholder)
		}
		c.parameters[name] = coerced
	}
	return nil
}

// coerceParameter validates v against decl's declared type and
// constraints, returning the bound value (or an error) per set_context
// step 1.
func coerceParameter(name string, decl configdoc.Parameter, v interface{}) (interface{}, error) {
	switch decl.Type {
	case configdoc.ParameterTypeString, configdoc.ParameterTypeSecureString:
		s, ok := v.(string)
		if !ok {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q must be a string", name))
		}
		if decl.MinLength != nil && len(s) < *decl.MinLength {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q is shorter than minLength %d", name, *decl.MinLength))
		}
		if decl.MaxLength != nil && len(s) > *decl.MaxLength {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q is longer than maxLength %d", name, *decl.MaxLength))
		}
		if err := checkAllowedValues(name, decl, s); err != nil {
			return nil, err
		}
		return s, nil
	case configdoc.ParameterTypeInt:
		f, ok := v.(float64)
		if !ok {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q must be a number", name))
		}
		if decl.MinValue != nil && f < *decl.MinValue {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q is less than minValue %g", name, *decl.MinValue))
		}
		if decl.MaxValue != nil && f > *decl.MaxValue {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q is greater than maxValue %g", name, *decl.MaxValue))
		}
		if err := checkAllowedValues(name, decl, f); err != nil {
			return nil, err
		}
		return f, nil
	case configdoc.ParameterTypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q must be a bool", name))
		}
		return b, nil
	case configdoc.ParameterTypeArray:
		a, ok := v.([]interface{})
		if !ok {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q must be an array", name))
		}
		if decl.MinLength != nil && len(a) < *decl.MinLength {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q has fewer than minLength %d elements", name, *decl.MinLength))
		}
		if decl.MaxLength != nil && len(a) > *decl.MaxLength {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q has more than maxLength %d elements", name, *decl.MaxLength))
		}
		return a, nil
	case configdoc.ParameterTypeObject, configdoc.ParameterTypeSecureObject:
		if _, ok := v.(map[string]interface{}); !ok {
			return nil, dscerror.Validation(fmt.Sprintf("parameter %q must be an object", name))
		}
		return v, nil
	default:
		return v, nil
	}
}

func checkAllowedValues(name string, decl configdoc.Parameter, v interface{}) error {
	if len(decl.AllowedValues) == 0 {
		return nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return dscerror.Validation(fmt.Sprintf("parameter %q: %s", name, err))
	}
	for _, allowed := range decl.AllowedValues {
		if string(allowed) == string(encoded) {
			return nil
		}
		// Fall back to comparing the printed forms of the decoded values, so
		// an entry encoded differently from the bound value (1.0 vs 1) matches.
		var a, b interface{}
		if json.Unmarshal(allowed, &a) == nil && json.Unmarshal(encoded, &b) == nil && fmt.Sprint(a) == fmt.Sprint(b) {
			return nil
		}
	}
	return dscerror.Validation(fmt.Sprintf("parameter %q: value is not one of allowedValues", name))
}

// resolveDefaults evaluates default-value expressions for every declared
// parameter not already bound, iterating passes until every parameter
// resolves. A pass that makes no progress indicates a circular default
// dependency.
func (c *Context) resolveDefaults(doc *configdoc.Document) error {
	pending := map[string]configdoc.Parameter{}
	for name, decl := range doc.Parameters {
		if _, ok := c.parameters[name]; ok {
			continue
		}
		if decl.DefaultValue == nil {
			continue
		}
		pending[name] = decl
	}

	for len(pending) > 0 {
		progressed := false
		for name, decl := range pending {
			var raw interface{}
			if err := json.Unmarshal(*decl.DefaultValue, &raw); err != nil {
				return dscerror.Validation(fmt.Sprintf("parameter %q default value is not valid JSON: %s", name, err))
			}
			if !defaultReady(raw, c.parameters) {
				continue
			}
			v, err := c.evaluateValue(raw)
			if err != nil {
				return err
			}
			c.parameters[name] = v
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			return dscerror.Validation(fmt.Sprintf("circular dependency among parameters: %s", strings.Join(names, ", ")))
		}
	}
	return nil
}

// defaultReady reports whether every parameter referenced by raw (a
// decoded default-value expression) is already bound.
func defaultReady(raw interface{}, bound map[string]expr.Value) bool {
	s, ok := raw.(string)
	if !ok {
		return true
	}
	for _, name := range expr.ReferencedParameters(s) {
		if _, ok := bound[name]; !ok {
			return false
		}
	}
	return true
}

func (c *Context) evaluateVariables(doc *configdoc.Document) error {
	for name, raw := range doc.Variables {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return dscerror.Validation(fmt.Sprintf("variable %q is not valid JSON: %s", name, err))
		}
		resolved, err := c.evaluateValue(v)
		if err != nil {
			return err
		}
		c.variables[name] = resolved
	}
	return nil
}

func (c *Context) registerFunctions(doc *configdoc.Document) error {
	for key, body := range doc.Functions {
		if !strings.Contains(key, ".") {
			return dscerror.Validation(fmt.Sprintf("function %q must be named <namespace>.<name>", key))
		}
		if _, dup := c.functions[key]; dup {
			return dscerror.Validation(fmt.Sprintf("duplicate function definition %q", key))
		}
		c.functions[key] = body
	}
	return nil
}

// SetCopyBinding pushes a copy-loop's current index into the variable
// scope under the loop's name, per §4.4's resource-ordering rule.
func (c *Context) SetCopyBinding(name string, index int) {
	c.variables[name] = float64(index)
}

// RestartRequired returns the accumulated restart-required entries.
func (c *Context) RestartRequired() []string {
	return append([]string(nil), c.restartRequired...)
}

// StartTime returns when this Context (and therefore the Configurator run
// it backs) began.
func (c *Context) StartTime() time.Time { return c.startTime }
