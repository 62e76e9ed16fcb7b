package invoke

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/manifest"
	"github.com/open-dsc/dsc/pkg/dsclib/types"
)

// ArgContext carries the runtime values an argv template may splice in.
type ArgContext struct {
	TypeName     types.FullyQualifiedTypeName
	Input        json.RawMessage
	ManifestPath string
	WhatIf       bool
}

// BuildGetArgs builds the argv for get/test/validate/export/resolve, which
// share the same template-walking rule (no WhatIf splicing).
func BuildGetArgs(template []manifest.ArgKind, ctx ArgContext) ([]string, error) {
	return buildArgs(template, ctx, false)
}

// BuildSetDeleteArgs builds the argv for set/delete, additionally tracking
// whether the provider is what-if aware (its template carries a WhatIf
// arg). The caller uses the returned bool to decide whether a synthetic
// what-if fallback is needed.
func BuildSetDeleteArgs(template []manifest.ArgKind, ctx ArgContext) ([]string, bool, error) {
	whatIfAware := false
	for _, a := range template {
		if a.Kind == manifest.ArgWhatIf {
			whatIfAware = true
		}
	}
	args, err := buildArgs(template, ctx, true)
	return args, whatIfAware, err
}

func buildArgs(template []manifest.ArgKind, ctx ArgContext, allowWhatIf bool) ([]string, error) {
	var args []string
	for _, a := range template {
		switch a.Kind {
		case manifest.ArgLiteral:
			args = append(args, a.Literal)
		case manifest.ArgJSON:
			if len(ctx.Input) == 0 && !a.Mandatory {
				continue
			}
			args = append(args, a.Flag, string(ctx.Input))
		case manifest.ArgResourceType:
			args = append(args, a.Flag, ctx.TypeName.String())
		case manifest.ArgResourcePath:
			if ctx.ManifestPath == "" {
				continue
			}
			args = append(args, a.Flag, ctx.ManifestPath)
		case manifest.ArgWhatIf:
			if !allowWhatIf {
				return nil, dscerror.Validation("WhatIf arg is only valid on set/delete operations")
			}
			if ctx.WhatIf {
				args = append(args, a.Flag)
			}
		default:
			return nil, dscerror.Validation(fmt.Sprintf("unrecognized ArgKind %q", a.Kind))
		}
	}
	return args, nil
}

// MarshalEnv flattens a JSON object into string->string environment
// entries. Scalars print directly; arrays of scalars join on ",";
// nested objects are rejected.
func MarshalEnv(input json.RawMessage) (map[string]string, error) {
	if len(input) == 0 {
		return nil, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(input, &obj); err != nil {
		return nil, dscerror.Validation(fmt.Sprintf("env input marshalling requires a JSON object: %s", err))
	}

	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, err := scalarOrJoinedArray(v)
		if err != nil {
			return nil, dscerror.Validation(fmt.Sprintf("env input property %q: %s", k, err))
		}
		out[k] = s
	}
	return out, nil
}

func scalarOrJoinedArray(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return fmt.Sprintf("%t", val), nil
	case float64:
		return formatNumber(val), nil
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			if _, isObj := item.(map[string]interface{}); isObj {
				return "", fmt.Errorf("nested objects are not supported in env input")
			}
			s, err := scalarOrJoinedArray(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	case map[string]interface{}:
		return "", fmt.Errorf("nested objects are not supported in env input")
	default:
		return fmt.Sprintf("%v", val), nil
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
