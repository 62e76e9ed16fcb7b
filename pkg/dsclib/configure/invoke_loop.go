package configure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
	"github.com/open-dsc/dsc/pkg/dsclib/discovery"
	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/invoke"
)

// Get runs the get operation across every ordered resource.
func (c *Configurator) Get(ctx context.Context) (*ConfigurationResult, error) {
	start := time.Now()
	results, err := c.runLoop(ctx, OpGet, invoke.ExecutionActual, false, false)
	if err != nil {
		return nil, err
	}
	return c.aggregate(OpGet, invoke.ExecutionActual, results, start)
}

// Set runs the set operation across every ordered resource. whatIf runs a
// what-if pass instead of making changes; skipTest bypasses the test that
// invoke.Invoker.Set otherwise runs before set for a provider whose set
// operation does not declare preTest.
func (c *Configurator) Set(ctx context.Context, whatIf bool, skipTest bool) (*ConfigurationResult, error) {
	start := time.Now()
	execKind := invoke.ExecutionActual
	if whatIf {
		execKind = invoke.ExecutionWhatIf
	}
	results, err := c.runLoop(ctx, OpSet, execKind, skipTest, false)
	if err != nil {
		return nil, err
	}
	return c.aggregate(OpSet, execKind, results, start)
}

// Test runs the test operation across every ordered resource.
func (c *Configurator) Test(ctx context.Context) (*ConfigurationResult, error) {
	start := time.Now()
	results, err := c.runLoop(ctx, OpTest, invoke.ExecutionActual, false, false)
	if err != nil {
		return nil, err
	}
	return c.aggregate(OpTest, invoke.ExecutionActual, results, start)
}

// Export runs the export operation across every ordered resource, returning
// every instance each resource's provider reports. Two resources of the same
// type are exported once each.
func (c *Configurator) Export(ctx context.Context) (*ConfigurationResult, error) {
	start := time.Now()
	results, err := c.runLoop(ctx, OpExport, invoke.ExecutionActual, false, true)
	if err != nil {
		return nil, err
	}
	return c.aggregate(OpExport, invoke.ExecutionActual, results, start)
}

// runLoop implements §4.4's per-operation loop: walk the ordered resource
// list, skip resources whose condition is false, resolve security context,
// evaluate properties, attach metadata, dispatch through the adapter bridge
// or directly, fold restartRequired/_metadata into the global context, and
// record the after/actual state for downstream reference() resolution.
func (c *Configurator) runLoop(ctx context.Context, op Op, execKind invoke.ExecutionKind, skipTest bool, exportAll bool) ([]ResourceResult, error) {
	ordered, err := c.order()
	if err != nil {
		return nil, err
	}

	var results []ResourceResult
	for _, o := range ordered {
		r := o.resource

		ok, err := c.evaluateCondition(r.Condition)
		if err != nil {
			return nil, err
		}
		if !ok {
			results = append(results, ResourceResult{Name: r.Name, Type: r.Type.String(), Skipped: true})
			continue
		}

		res, err := c.invokeResource(ctx, r, op, execKind, skipTest, exportAll)
		if err != nil {
			results = append(results, ResourceResult{Name: r.Name, Type: r.Type.String(), Error: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// invokeResource dispatches a single resource through the invocation
// protocol, bridging through an adapter when the resource's effective
// discovery filter requires one.
func (c *Configurator) invokeResource(ctx context.Context, r configdoc.Resource, op Op, execKind invoke.ExecutionKind, skipTest bool, exportAll bool) (*ResourceResult, error) {
	start := time.Now()

	sc, err := resolveSecurityContext(r)
	if err != nil {
		return nil, err
	}
	if err := enforceSecurityContext(sc); err != nil {
		return nil, err
	}

	properties, err := c.evaluateProperties(r.Properties)
	if err != nil {
		return nil, err
	}

	requireAdapter := ""
	if r.Directives != nil {
		requireAdapter = r.Directives.RequireAdapter
	}

	if requireAdapter != "" {
		return c.invokeResourceViaAdapter(ctx, requireAdapter, r, properties, op, start)
	}

	filter := discovery.Filter{ResourceType: r.Type}
	if req, ok, err := r.ParsedRequireVersion(); err != nil {
		return nil, err
	} else if ok {
		filter.Version = &req
	}
	m, err := c.index.Find(filter)
	if err != nil {
		return nil, err
	}

	withMetadata := attachMetadata(r, properties, false)
	result := &ResourceResult{Name: r.Name, Type: r.Type.String()}

	switch op {
	case OpGet:
		res, err := c.invoker.Get(ctx, *m, marshalOrNil(withMetadata))
		if err != nil {
			return nil, err
		}
		cleaned, meta := stripMetadata(res.ActualState)
		res.ActualState = cleaned
		c.ctx.addRestartRequired(restartRequiredFrom(meta)...)
		c.ctx.setReference(r.Key(), jsonToValue(res.ActualState))
		result.Get = res
		result.Info = res.Info
	case OpSet:
		desired := marshalOrNil(withMetadata)
		res, err := c.invoker.Set(ctx, *m, desired, execKind, skipTest)
		if err != nil {
			return nil, err
		}
		cleaned, meta := stripMetadata(res.AfterState)
		res.AfterState = cleaned
		c.ctx.addRestartRequired(restartRequiredFrom(meta)...)
		c.ctx.setReference(r.Key(), jsonToValue(res.AfterState))
		result.Set = res
		result.Info = res.Info
	case OpTest:
		res, err := c.invoker.Test(ctx, *m, marshalOrNil(withMetadata))
		if err != nil {
			return nil, err
		}
		cleaned, meta := stripMetadata(res.ActualState)
		res.ActualState = cleaned
		c.ctx.addRestartRequired(restartRequiredFrom(meta)...)
		c.ctx.setReference(r.Key(), jsonToValue(res.ActualState))
		result.Test = res
		result.Info = res.Info
	case OpExport:
		res, err := c.invoker.Export(ctx, *m, marshalOrNil(withMetadata))
		if err != nil {
			return nil, err
		}
		result.Export = res
		result.Info = res.Info
		_ = exportAll
	default:
		return nil, dscerror.NotSupported("configure: unknown operation")
	}

	return result, nil
}

func (c *Configurator) invokeResourceViaAdapter(ctx context.Context, adapterName string, r configdoc.Resource, properties map[string]interface{}, op Op, start time.Time) (*ResourceResult, error) {
	bridged, err := c.invokeViaAdapter(ctx, adapterName, r, properties, op)
	if err != nil {
		return nil, err
	}

	result := &ResourceResult{Name: r.Name, Type: r.Type.String()}
	switch op {
	case OpGet:
		result.Get = bridged.get
		c.ctx.setReference(r.Key(), jsonToValue(bridged.get.ActualState))
		result.Info = bridged.get.Info
	case OpSet:
		result.Set = bridged.set
		c.ctx.setReference(r.Key(), jsonToValue(bridged.set.AfterState))
		result.Info = bridged.set.Info
	case OpTest:
		result.Test = bridged.test
		c.ctx.setReference(r.Key(), jsonToValue(bridged.test.ActualState))
		result.Info = bridged.test.Info
	case OpExport:
		result.Export = bridged.export
		result.Info = bridged.export.Info
	default:
		return nil, dscerror.NotSupported("configure: unknown operation")
	}
	return result, nil
}

// marshalOrNil re-encodes an already-decoded properties map back to JSON
// for the invoke package's wire-format calls; a nil map marshals to "null",
// so an empty map is substituted to keep invocation args well-formed.
func marshalOrNil(properties map[string]interface{}) json.RawMessage {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	raw, err := json.Marshal(properties)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

// jsonToValue decodes a provider's raw JSON state into a plain Go value for
// reference() resolution, tolerating an empty/invalid payload.
func jsonToValue(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
