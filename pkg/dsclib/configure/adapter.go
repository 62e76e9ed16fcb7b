package configure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/invoke"
	"github.com/open-dsc/dsc/pkg/dsclib/manifest"
	"github.com/open-dsc/dsc/pkg/dsclib/types"
)

// adapterResult carries whatever the bridged invocation produced, in the
// same shape the direct-invocation path would have returned, so
// invokeResource can treat both uniformly.
type adapterResult struct {
	get    *invoke.GetResult
	set    *invoke.SetResult
	test   *invoke.TestResult
	delete *invoke.DeleteResult
	export *invoke.ExportResult
}

// invokeViaAdapter implements §4.3: a resource declaring requireAdapter is
// never invoked directly. Instead the engine builds a synthetic
// one-resource Configuration whose sole resource is the adapter, with
// properties.resources = [{name, type, properties}], and dispatches it
// per the adapter's declared AdapterInputKind.
func (c *Configurator) invokeViaAdapter(ctx context.Context, adapterName string, r configdoc.Resource, properties map[string]interface{}, op Op) (adapterResult, error) {
	adapterType, err := types.ParseFullyQualifiedTypeName(adapterName)
	if err != nil {
		return adapterResult{}, err
	}
	adapterManifest, err := c.index.FindAdapter(adapterType)
	if err != nil {
		return adapterResult{}, err
	}

	inputKind := manifest.AdapterInputFull
	if adapterManifest.Adapter != nil && adapterManifest.Adapter.InputKind != "" {
		inputKind = adapterManifest.Adapter.InputKind
	}

	if inputKind == manifest.AdapterInputSingle {
		return c.invokeAdapterSingle(ctx, *adapterManifest, r, properties, op)
	}
	return c.invokeAdapterFull(ctx, *adapterManifest, r, properties, op)
}

// invokeAdapterFull runs the adapter via a nested Configurator whose sole
// resource is the adapter itself, carrying the target resource under
// properties.resources. It parses the adapter's top-level "result" array
// and extracts properties from its sole entry.
func (c *Configurator) invokeAdapterFull(ctx context.Context, adapterManifest manifest.Resource, r configdoc.Resource, properties map[string]interface{}, op Op) (adapterResult, error) {
	adapterProps := map[string]interface{}{
		"resources": []interface{}{
			map[string]interface{}{
				"name":       r.Name,
				"type":       r.Type.String(),
				"properties": properties,
			},
		},
	}

	syntheticName := "adapter-" + r.Name
	doc := &configdoc.Document{
		Resources: []configdoc.Resource{{
			Name:       syntheticName,
			Type:       adapterManifest.Type,
			Properties: adapterProps,
		}},
	}

	nested, err := newFromDocument(doc, Options{
		Index:     c.index,
		Invoker:   c.invoker,
		Evaluator: c.evaluator,
		Validator: c.validator,
		Progress:  c.progress,
		ProcessMode: ProcessModeNoExpressionEval,
	}, false)
	if err != nil {
		return adapterResult{}, err
	}

	var raw json.RawMessage
	switch op {
	case OpGet:
		res, err := nested.Get(ctx)
		if err != nil {
			return adapterResult{}, err
		}
		raw = firstResultState(res)
	case OpSet:
		res, err := nested.Set(ctx, false, false)
		if err != nil {
			return adapterResult{}, err
		}
		raw = firstResultState(res)
	case OpTest:
		res, err := nested.Test(ctx)
		if err != nil {
			return adapterResult{}, err
		}
		raw = firstResultState(res)
	default:
		return adapterResult{}, dscerror.NotSupported(fmt.Sprintf("adapter bridging does not support operation %q", op))
	}

	childProps, err := extractAdapterResultProperties(raw)
	if err != nil {
		return adapterResult{}, err
	}

	switch op {
	case OpGet:
		return adapterResult{get: &invoke.GetResult{ActualState: childProps}}, nil
	case OpSet:
		return adapterResult{set: &invoke.SetResult{AfterState: childProps}}, nil
	case OpTest:
		diff := diffJSONPropertyNames(properties, childProps)
		return adapterResult{test: &invoke.TestResult{ActualState: childProps, InDesiredState: len(diff) == 0, DiffProperties: diff}}, nil
	}
	// unreachable: the switch above already filtered to OpGet/OpSet/OpTest
	return adapterResult{}, dscerror.NotSupported(fmt.Sprintf("adapter bridging does not support operation %q", op))
}

// invokeAdapterSingle attaches the target resource to the adapter's
// target_resource slot and invokes the adapter directly through the adapter
// manifest's own ArgKind template. The target's type reaches the adapter
// only inside target_resource: a ResourceType arg in that template carries
// the adapter's own type name, and a ResourcePath arg is omitted.
func (c *Configurator) invokeAdapterSingle(ctx context.Context, adapterManifest manifest.Resource, r configdoc.Resource, properties map[string]interface{}, op Op) (adapterResult, error) {
	desired, err := json.Marshal(map[string]interface{}{
		"target_resource": map[string]interface{}{
			"name":       r.Name,
			"type":       r.Type.String(),
			"properties": properties,
		},
	})
	if err != nil {
		return adapterResult{}, dscerror.Validation(fmt.Sprintf("marshalling adapter target_resource: %s", err))
	}
	adapterManifest.Path = withResourcePathArg(adapterManifest)

	switch op {
	case OpGet:
		res, err := c.invoker.Get(ctx, adapterManifest, desired)
		return adapterResult{get: res}, err
	case OpSet:
		res, err := c.invoker.Set(ctx, adapterManifest, desired, invoke.ExecutionActual, false)
		return adapterResult{set: res}, err
	case OpTest:
		res, err := c.invoker.Test(ctx, adapterManifest, desired)
		return adapterResult{test: res}, err
	case OpExport:
		res, err := c.invoker.Export(ctx, adapterManifest, desired)
		return adapterResult{export: res}, err
	default:
		return adapterResult{}, dscerror.NotSupported(fmt.Sprintf("adapter bridging does not support operation %q", op))
	}
}

// withResourcePathArg returns the adapter manifest's Path unchanged. The
// invoke package's BuildGetArgs/BuildSetDeleteArgs are called with the
// adapter's own type and no ManifestPath, so a ResourceType arg carries the
// adapter's type name and a ResourcePath arg is omitted.
func withResourcePathArg(m manifest.Resource) string {
	return m.Path
}

func firstResultState(res *ConfigurationResult) json.RawMessage {
	if res == nil || len(res.Results) == 0 {
		return nil
	}
	first := res.Results[0]
	switch {
	case first.Get != nil:
		return first.Get.ActualState
	case first.Set != nil:
		return first.Set.AfterState
	case first.Test != nil:
		return first.Test.ActualState
	}
	return nil
}

// extractAdapterResultProperties parses the adapter's {"result": [...]}
// wrapper and returns the sole entry's "properties" field.
func extractAdapterResultProperties(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, dscerror.Validation("adapter returned no result")
	}
	var wrapper struct {
		Result []struct {
			Properties json.RawMessage `json:"properties"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, dscerror.Validation(fmt.Sprintf("adapter result did not parse: %s", err))
	}
	if len(wrapper.Result) == 0 {
		return nil, dscerror.Validation("adapter result array was empty")
	}
	return wrapper.Result[0].Properties, nil
}

// diffJSONPropertyNames compares the desired properties the outer pass sent
// down against the adapter-reported actual properties, returning the names
// that differ. It mirrors invoke.diffPropertyNames's shallow-key comparison
// but operates on an already-decoded desired map rather than raw JSON.
func diffJSONPropertyNames(desired map[string]interface{}, actual json.RawMessage) []string {
	desiredRaw, err := json.Marshal(desired)
	if err != nil {
		return nil
	}
	var desiredMap, actualMap map[string]interface{}
	if err := json.Unmarshal(desiredRaw, &desiredMap); err != nil {
		return nil
	}
	if len(actual) > 0 {
		if err := json.Unmarshal(actual, &actualMap); err != nil {
			return nil
		}
	}

	var diff []string
	for k, dv := range desiredMap {
		av, ok := actualMap[k]
		if !ok {
			diff = append(diff, k)
			continue
		}
		dvBytes, _ := json.Marshal(dv)
		avBytes, _ := json.Marshal(av)
		if string(dvBytes) != string(avBytes) {
			diff = append(diff, k)
		}
	}
	return diff
}
