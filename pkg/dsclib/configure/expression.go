package configure

import (
	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// evaluateValue recursively walks a decoded JSON value, handing every
// string leaf to the evaluator and replacing it with the result (string
// results stay strings; non-string results - object/number/bool - are
// inserted verbatim). Objects are walked key by key; arrays are walked
// element by element, but an array containing another array is rejected
// per §4.4's "nested arrays raise Parser(nestedArraysNotSupported)" rule.
func (c *Context) evaluateValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return c.evaluator.ParseAndExecute(val, c)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			resolved, err := c.evaluateValue(child)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			if _, isArray := child.([]interface{}); isArray {
				return nil, dscerror.Parser("nestedArraysNotSupported")
			}
			resolved, err := c.evaluateValue(child)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return val, nil
	}
}

// evaluateProperties evaluates an entire resource properties map, honoring
// ProcessModeNoExpressionEval by returning it unchanged.
func (c *Configurator) evaluateProperties(properties map[string]interface{}) (map[string]interface{}, error) {
	if c.processMode == ProcessModeNoExpressionEval || properties == nil {
		return properties, nil
	}
	resolved, err := c.ctx.evaluateValue(map[string]interface{}(properties))
	if err != nil {
		return nil, err
	}
	out, _ := resolved.(map[string]interface{})
	return out, nil
}

// evaluateCondition evaluates a resource/output's condition string,
// returning true when absent (no condition means "always run").
func (c *Configurator) evaluateCondition(condition string) (bool, error) {
	if condition == "" {
		return true, nil
	}
	v, err := c.ctx.evaluator.ParseAndExecute(condition, c.ctx)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	return ok && b, nil
}
