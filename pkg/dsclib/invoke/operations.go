// Package invoke implements the Provider Invocation Protocol: running a
// provider executable for one operation, demultiplexing its stdout/stderr,
// mapping exit codes to errors, and gating input/output against the
// provider's JSON Schema.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/manifest"
)

// Invoker runs provider operations against a manifest.Resource.
type Invoker struct {
	Validator SchemaValidator
}

// NewInvoker constructs an Invoker. A nil validator defaults to
// GoJSONSchemaValidator.
func NewInvoker(v SchemaValidator) *Invoker {
	if v == nil {
		v = GoJSONSchemaValidator{}
	}
	return &Invoker{Validator: v}
}

func manifestDir(r manifest.Resource) string {
	if r.Path == "" {
		return ""
	}
	return filepath.Dir(r.Path)
}

func (inv *Invoker) schema(ctx context.Context, r manifest.Resource) (json.RawMessage, error) {
	if r.Schema == nil {
		return nil, nil
	}
	if len(r.Schema.Embedded) > 0 {
		return r.Schema.Embedded, nil
	}
	if r.Schema.Command == nil {
		return nil, nil
	}
	args, err := BuildGetArgs(r.Schema.Command.Args, ArgContext{TypeName: r.Type})
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.Schema.Command.Executable, manifestDir(r), args, ProcessInput{}, r.ExitCodes)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res.Stdout), nil
}

func buildInput(op manifest.OperationDef, body json.RawMessage) (ProcessInput, error) {
	switch op.Input {
	case manifest.InputStdin:
		return ProcessInput{Stdin: body}, nil
	case manifest.InputEnv:
		env, err := MarshalEnv(body)
		if err != nil {
			return ProcessInput{}, err
		}
		return ProcessInput{Env: env}, nil
	default:
		return ProcessInput{}, nil
	}
}

func (inv *Invoker) validateInput(ctx context.Context, r manifest.Resource, body json.RawMessage) error {
	if len(body) == 0 {
		return nil
	}
	schema, err := inv.schema(ctx, r)
	if err != nil || len(schema) == 0 {
		return err
	}
	return inv.Validator.ValidateJSON(schema, body)
}

func (inv *Invoker) validateOutput(ctx context.Context, r manifest.Resource, body json.RawMessage) error {
	if r.EffectiveKind() != manifest.KindResource || len(body) == 0 {
		return nil
	}
	schema, err := inv.schema(ctx, r)
	if err != nil || len(schema) == 0 {
		return err
	}
	return inv.Validator.ValidateJSON(schema, body)
}

// Get invokes the provider's `get` operation with filter as the input.
func (inv *Invoker) Get(ctx context.Context, r manifest.Resource, filter json.RawMessage) (*GetResult, error) {
	if r.Get == nil {
		return nil, dscerror.NotImplemented("get")
	}
	start := time.Now()
	if err := inv.validateInput(ctx, r, filter); err != nil {
		return nil, err
	}

	args, err := BuildGetArgs(r.Get.Args, ArgContext{TypeName: r.Type, Input: filter})
	if err != nil {
		return nil, err
	}
	input, err := buildInput(*r.Get, filter)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.Get.Executable, manifestDir(r), args, input, r.ExitCodes)
	if err != nil {
		return nil, err
	}

	if err := inv.validateOutput(ctx, r, res.Stdout); err != nil {
		return nil, err
	}

	result, err := parseGetOutput(res.Stdout)
	if err != nil {
		return nil, err
	}
	result.Info = ExecutionInformation{StartTime: start, EndTime: time.Now(), Operation: "get", ExecutionType: ExecutionActual}
	return result, nil
}

func parseGetOutput(stdout []byte) (*GetResult, error) {
	var group []json.RawMessage
	if err := json.Unmarshal(stdout, &group); err == nil {
		members := make([]GetResult, 0, len(group))
		for _, m := range group {
			members = append(members, GetResult{ActualState: m})
		}
		return &GetResult{IsGroup: true, Group: members}, nil
	}

	var obj json.RawMessage
	if err := json.Unmarshal(stdout, &obj); err != nil {
		return nil, dscerror.Validation(fmt.Sprintf("get output did not parse as JSON: %s", err))
	}
	return &GetResult{ActualState: obj}, nil
}

// hasExistFalse reports whether desired carries `"_exist": false`.
func hasExistFalse(desired json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(desired, &obj); err != nil {
		return false
	}
	raw, ok := obj["_exist"]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return true
	}
	return !b
}

// Set invokes the provider's `set` operation, dispatching to the
// exist-false/delete-capability fallback, pre-test short-circuit, and
// what-if handling the spec's §4.2 Set semantics describe.
func (inv *Invoker) Set(ctx context.Context, r manifest.Resource, desired json.RawMessage, execKind ExecutionKind, skipTest bool) (*SetResult, error) {
	start := time.Now()

	if hasExistFalse(desired) && !r.HasCapability(manifest.CapabilitySetHandlesExist) {
		if r.Delete == nil {
			return nil, dscerror.NotImplemented("delete")
		}
		return inv.setViaDelete(ctx, r, desired, start)
	}
	if r.Set == nil {
		return nil, dscerror.NotImplemented("set")
	}

	var beforeState json.RawMessage
	if !r.Set.PreTest && !skipTest {
		test, err := inv.Test(ctx, r, desired)
		if err == nil {
			beforeState = test.ActualState
			if test.InDesiredState && execKind == ExecutionActual {
				return &SetResult{
					BeforeState: test.ActualState,
					AfterState:  test.ActualState,
					Info:        ExecutionInformation{StartTime: start, EndTime: time.Now(), Operation: "set", ExecutionType: execKind},
				}, nil
			}
		}
	}

	whatIf := execKind == ExecutionWhatIf
	args, whatIfAware, err := BuildSetDeleteArgs(r.Set.Args, ArgContext{TypeName: r.Type, Input: desired, WhatIf: whatIf})
	if err != nil {
		return nil, err
	}

	if whatIf && !whatIfAware {
		if r.WhatIf != nil {
			return inv.runWhatIfOperation(ctx, r, desired, start)
		}
		test, err := inv.Test(ctx, r, desired)
		if err != nil {
			return nil, err
		}
		return &SetResult{AfterState: test.ActualState, Info: execInfo(start, "set", execKind)}, nil
	}

	if err := inv.validateInput(ctx, r, desired); err != nil {
		return nil, err
	}
	input, err := buildInput(*r.Set, desired)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.Set.Executable, manifestDir(r), args, input, r.ExitCodes)
	if err != nil {
		return nil, err
	}

	result, err := inv.parseSetOutput(ctx, r, desired, beforeState, res.Stdout)
	if err != nil {
		return nil, err
	}
	result.BeforeState = beforeState
	result.Info = execInfo(start, "set", execKind)
	return result, nil
}

func execInfo(start time.Time, op string, kind ExecutionKind) ExecutionInformation {
	return ExecutionInformation{StartTime: start, EndTime: time.Now(), Operation: op, ExecutionType: kind, WhatIf: kind == ExecutionWhatIf}
}

func (inv *Invoker) runWhatIfOperation(ctx context.Context, r manifest.Resource, desired json.RawMessage, start time.Time) (*SetResult, error) {
	args, err := BuildGetArgs(r.WhatIf.Args, ArgContext{TypeName: r.Type, Input: desired})
	if err != nil {
		return nil, err
	}
	input, err := buildInput(*r.WhatIf, desired)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.WhatIf.Executable, manifestDir(r), args, input, r.ExitCodes)
	if err != nil {
		return nil, err
	}
	return &SetResult{AfterState: res.Stdout, Info: execInfo(start, "set", ExecutionWhatIf)}, nil
}

func (inv *Invoker) setViaDelete(ctx context.Context, r manifest.Resource, desired json.RawMessage, start time.Time) (*SetResult, error) {
	before, err := inv.Get(ctx, r, desired)
	if err != nil {
		return nil, err
	}
	if _, err := inv.Delete(ctx, r, desired, ExecutionActual); err != nil {
		return nil, err
	}
	after, err := inv.Get(ctx, r, desired)
	if err != nil {
		return nil, err
	}
	return &SetResult{
		BeforeState:       before.ActualState,
		AfterState:        after.ActualState,
		ChangedProperties: diffPropertyNames(before.ActualState, after.ActualState),
		Info:              execInfo(start, "set", ExecutionActual),
	}, nil
}

func (inv *Invoker) parseSetOutput(ctx context.Context, r manifest.Resource, desired, before, stdout json.RawMessage) (*SetResult, error) {
	switch r.Set.Returns {
	case manifest.ReturnsState:
		var after json.RawMessage
		if err := json.Unmarshal(stdout, &after); err != nil {
			return nil, dscerror.Validation(fmt.Sprintf("set output did not parse as JSON: %s", err))
		}
		if err := inv.validateOutput(ctx, r, after); err != nil {
			return nil, err
		}
		return &SetResult{AfterState: after, ChangedProperties: diffPropertyNames(before, after)}, nil
	case manifest.ReturnsStateAndDiff:
		lines := splitLines(stdout)
		if len(lines) < 2 {
			return nil, dscerror.Validation("set with returns=StateAndDiff requires two stdout lines")
		}
		var after json.RawMessage
		if err := json.Unmarshal(lines[0], &after); err != nil {
			return nil, dscerror.Validation(fmt.Sprintf("set after-state did not parse as JSON: %s", err))
		}
		var changed []string
		if err := json.Unmarshal(lines[1], &changed); err != nil {
			return nil, dscerror.Validation(fmt.Sprintf("set diff line did not parse as a string array: %s", err))
		}
		if err := inv.validateOutput(ctx, r, after); err != nil {
			return nil, err
		}
		return &SetResult{AfterState: after, ChangedProperties: changed}, nil
	default:
		after, err := inv.Get(ctx, r, desired)
		if err != nil {
			return nil, err
		}
		return &SetResult{AfterState: after.ActualState, ChangedProperties: diffPropertyNames(before, after.ActualState)}, nil
	}
}

// Test invokes the provider's `test`, or synthesizes one from `get` when
// the manifest declares none.
func (inv *Invoker) Test(ctx context.Context, r manifest.Resource, desired json.RawMessage) (*TestResult, error) {
	start := time.Now()
	if r.Test == nil {
		actual, err := inv.Get(ctx, r, desired)
		if err != nil {
			return nil, err
		}
		diff := diffPropertyNames(desired, actual.ActualState)
		inDesiredState, overridden := extractInDesiredState(actual.ActualState)
		if !overridden {
			inDesiredState = len(diff) == 0
		}
		return &TestResult{
			DesiredState:   desired,
			ActualState:    actual.ActualState,
			InDesiredState: inDesiredState,
			DiffProperties: diff,
			Info:           ExecutionInformation{StartTime: start, EndTime: time.Now(), Operation: "test", ExecutionType: ExecutionActual},
		}, nil
	}

	if err := inv.validateInput(ctx, r, desired); err != nil {
		return nil, err
	}
	args, err := BuildGetArgs(r.Test.Args, ArgContext{TypeName: r.Type, Input: desired})
	if err != nil {
		return nil, err
	}
	input, err := buildInput(*r.Test, desired)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.Test.Executable, manifestDir(r), args, input, r.ExitCodes)
	if err != nil {
		return nil, err
	}
	if err := inv.validateOutput(ctx, r, res.Stdout); err != nil {
		return nil, err
	}

	diff := diffPropertyNames(desired, res.Stdout)
	inDesiredState, overridden := extractInDesiredState(res.Stdout)
	if !overridden {
		inDesiredState = len(diff) == 0
	}
	return &TestResult{
		DesiredState:   desired,
		ActualState:    res.Stdout,
		InDesiredState: inDesiredState,
		DiffProperties: diff,
		Info:           ExecutionInformation{StartTime: start, EndTime: time.Now(), Operation: "test", ExecutionType: ExecutionActual},
	}, nil
}

func extractInDesiredState(state json.RawMessage) (bool, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(state, &obj); err != nil {
		return false, false
	}
	raw, ok := obj["_inDesiredState"]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// Delete invokes the provider's `delete`, falling back to a synthetic
// what-if test when the provider lacks native what-if support.
func (inv *Invoker) Delete(ctx context.Context, r manifest.Resource, desired json.RawMessage, execKind ExecutionKind) (*DeleteResult, error) {
	if r.Delete == nil {
		return nil, dscerror.NotImplemented("delete")
	}
	start := time.Now()
	whatIf := execKind == ExecutionWhatIf

	args, whatIfAware, err := BuildSetDeleteArgs(r.Delete.Args, ArgContext{TypeName: r.Type, Input: desired, WhatIf: whatIf})
	if err != nil {
		return nil, err
	}

	if whatIf && !whatIfAware {
		test, err := inv.Test(ctx, r, desired)
		if err != nil {
			return nil, err
		}
		return &DeleteResult{Kind: DeleteSyntheticWhatIf, SyntheticTest: test, Info: execInfo(start, "delete", execKind)}, nil
	}

	if err := inv.validateInput(ctx, r, desired); err != nil {
		return nil, err
	}
	input, err := buildInput(*r.Delete, desired)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.Delete.Executable, manifestDir(r), args, input, r.ExitCodes)
	if err != nil {
		return nil, err
	}

	kind := DeleteActualPerformed
	var whatIfMeta json.RawMessage
	if whatIf {
		kind = DeleteWhatIf
		whatIfMeta = res.Stdout
	}
	return &DeleteResult{Kind: kind, WhatIfMetadata: whatIfMeta, Info: execInfo(start, "delete", execKind)}, nil
}

// Export invokes the provider's `export`, falling back to a single-shot
// get when the manifest declares no export operation.
func (inv *Invoker) Export(ctx context.Context, r manifest.Resource, filter json.RawMessage) (*ExportResult, error) {
	start := time.Now()
	if r.Export == nil {
		get, err := inv.Get(ctx, r, filter)
		if err != nil {
			return nil, err
		}
		return &ExportResult{ActualState: []json.RawMessage{get.ActualState}, Info: execInfo(start, "export", ExecutionActual)}, nil
	}

	if err := inv.validateInput(ctx, r, filter); err != nil {
		return nil, err
	}
	args, err := BuildGetArgs(r.Export.Args, ArgContext{TypeName: r.Type, Input: filter})
	if err != nil {
		return nil, err
	}
	input, err := buildInput(*r.Export, filter)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.Export.Executable, manifestDir(r), args, input, r.ExitCodes)
	if err != nil {
		return nil, err
	}

	var lines []json.RawMessage
	for _, l := range splitLines(res.Stdout) {
		if err := inv.validateOutput(ctx, r, l); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return &ExportResult{ActualState: lines, Info: execInfo(start, "export", ExecutionActual)}, nil
}

// Validate invokes the provider's `validate`, or falls back to schema
// validation of the input.
func (inv *Invoker) Validate(ctx context.Context, r manifest.Resource, input json.RawMessage) (*ValidateResult, error) {
	if r.Validate != nil {
		args, err := BuildGetArgs(r.Validate.Args, ArgContext{TypeName: r.Type, Input: input})
		if err != nil {
			return nil, err
		}
		processInput, err := buildInput(*r.Validate, input)
		if err != nil {
			return nil, err
		}
		res, err := Run(ctx, r.Type.String(), r.Validate.Executable, manifestDir(r), args, processInput, r.ExitCodes)
		if err != nil {
			return nil, err
		}
		var result ValidateResult
		if err := json.Unmarshal(res.Stdout, &result); err != nil {
			return nil, dscerror.Validation(fmt.Sprintf("validate output did not parse: %s", err))
		}
		return &result, nil
	}

	if err := inv.validateInput(ctx, r, input); err != nil {
		return &ValidateResult{Valid: false, Reason: err.Error()}, nil
	}
	return &ValidateResult{Valid: true}, nil
}

// Resolve invokes the provider's `resolve`.
func (inv *Invoker) Resolve(ctx context.Context, r manifest.Resource, input json.RawMessage) (*ResolveResult, error) {
	if r.Resolve == nil {
		return nil, dscerror.NotImplemented("resolve")
	}
	args, err := BuildGetArgs(r.Resolve.Args, ArgContext{TypeName: r.Type, Input: input})
	if err != nil {
		return nil, err
	}
	processInput, err := buildInput(*r.Resolve, input)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, r.Type.String(), r.Resolve.Executable, manifestDir(r), args, processInput, r.ExitCodes)
	if err != nil {
		return nil, err
	}
	var result ResolveResult
	if err := json.Unmarshal(res.Stdout, &result); err != nil {
		return nil, dscerror.Validation(fmt.Sprintf("resolve output did not parse: %s", err))
	}
	return &result, nil
}
