// Package configure implements the Configurator: the orchestrator that
// walks a Configuration Document's resource graph in dependency order,
// evaluates expression strings in property values, enforces security
// context requirements, dispatches each resource through the invocation
// protocol (bridging through an adapter when required), and composes the
// per-resource results into a single aggregated result.
package configure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
	"github.com/open-dsc/dsc/pkg/dsclib/discovery"
	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/expr"
	"github.com/open-dsc/dsc/pkg/dsclib/invoke"
	"github.com/open-dsc/dsc/pkg/dsclib/logger"
	"github.com/open-dsc/dsc/pkg/dsclib/manifest"
	"github.com/open-dsc/dsc/pkg/dsclib/progress"
	"github.com/open-dsc/dsc/pkg/dsclib/versions"
)

// ProcessMode selects whether the Configurator re-evaluates expression
// strings in resource properties. A nested Configurator spun up by an
// adapter bridge (§4.3) uses NoExpressionEvaluation because the outer pass
// already resolved every expression in the properties it hands down.
type ProcessMode string

const (
	ProcessModeNormal           ProcessMode = "Normal"
	ProcessModeNoExpressionEval ProcessMode = "NoExpressionEvaluation"
)

// Options carries every collaborator a Configurator needs. Callers
// typically construct one Index/Invoker per process and pass them to every
// Configurator built during that run.
type Options struct {
	Index     *discovery.Index
	Invoker   *invoke.Invoker
	Evaluator expr.Evaluator
	Progress  progress.Sink

	// DocumentSchema, when non-nil, gates the parsed document against a
	// JSON Schema before anything else runs. Loading and compiling that
	// schema is the caller's concern (§4.4 step 2); a nil schema skips
	// the check, since the engine itself never ships a canonical document
	// schema (see SPEC_FULL.md Non-goals).
	DocumentSchema []byte
	Validator      invoke.SchemaValidator

	ProcessMode ProcessMode
}

// Configurator orchestrates one configuration document against a fixed set
// of discovered providers. It is built once per document invocation and
// discarded afterward; it owns no state the caller needs across calls
// beyond the Context exposed via Ctx().
type Configurator struct {
	doc        *configdoc.Document
	extensions []manifest.Extension
	index      *discovery.Index
	invoker    *invoke.Invoker
	evaluator  expr.Evaluator
	validator  invoke.SchemaValidator
	progress   progress.Sink

	filters     []discovery.Filter
	ctx         *Context
	processMode ProcessMode
	corrID      string
}

// New constructs a Configurator from document text (JSON or YAML),
// performing every construction-time check the spec requires before a
// single provider is invoked:
//  1. parse the document;
//  2. validate it against the document schema, if one was supplied;
//  3. enforce directives.version against the host engine version;
//  4. choose the discovery mode, re-refreshing the index when the document
//     requests DuringDeployment;
//  5. build per-resource discovery filters and validate they all resolve;
//  6. cache the document and the current extensions snapshot.
func New(text []byte, opts Options) (*Configurator, error) {
	doc, err := configdoc.Parse(text)
	if err != nil {
		return nil, err
	}
	return newFromDocument(doc, opts, len(text) > 0)
}

// newFromDocument builds a Configurator from an already-parsed document,
// skipping the text-parsing step. It backs both New (parses caller text)
// and the adapter bridge (which constructs a synthetic in-memory document,
// §4.3), so both paths share construction steps 2-6. validateSchema is
// false for synthetic adapter documents, which were never user-submitted
// text and so have nothing to validate against the document schema.
func newFromDocument(doc *configdoc.Document, opts Options, validateSchema bool) (*Configurator, error) {
	if opts.Index == nil {
		return nil, dscerror.Validation("configure.New requires a discovery.Index")
	}
	if opts.Invoker == nil {
		return nil, dscerror.Validation("configure.New requires an invoke.Invoker")
	}

	validator := opts.Validator
	if validator == nil {
		validator = invoke.GoJSONSchemaValidator{}
	}

	if validateSchema && len(opts.DocumentSchema) > 0 {
		instance, err := json.Marshal(doc)
		if err != nil {
			return nil, dscerror.Validation(fmt.Sprintf("re-marshalling document for schema validation: %s", err))
		}
		if err := validator.ValidateJSON(opts.DocumentSchema, instance); err != nil {
			return nil, err
		}
	}

	if err := versions.CheckDirectiveVersion(doc.Directives.Version); err != nil {
		return nil, err
	}

	mode := doc.Directives.ResourceDiscovery
	if mode == "" {
		mode = configdoc.DiscoveryModePreDeployment
	}

	// §4.4 construction step 4 / §5's cache-clearing guarantee: a document
	// requesting DuringDeployment gets a fresh index rebuild scoped to this
	// Configurator's construction, instead of reusing whatever an earlier
	// PreDeployment scan already cached.
	if mode == configdoc.DiscoveryModeDuringDeployment {
		if err := opts.Index.Refresh(opts.Index.SearchPaths(), discovery.ModeDuringDeployment); err != nil {
			return nil, err
		}
	}

	filters, err := buildFilters(doc)
	if err != nil {
		return nil, err
	}
	if err := opts.Index.Validate(filters); err != nil {
		return nil, err
	}

	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = expr.DefaultEvaluator{}
	}
	prog := opts.Progress
	if prog == nil {
		prog = progress.NoOp{}
	}
	processMode := opts.ProcessMode
	if processMode == "" {
		processMode = ProcessModeNormal
	}

	corrID := uuid.New().String()
	c := &Configurator{
		doc:         doc,
		extensions:  opts.Index.Extensions(),
		index:       opts.Index,
		invoker:     opts.Invoker,
		evaluator:   evaluator,
		validator:   validator,
		progress:    prog,
		filters:     filters,
		ctx:         newContext(evaluator),
		processMode: processMode,
		corrID:      corrID,
	}

	logger.Debugf("configure: corr=%s resourceDiscovery=%s resources=%d", corrID, mode, len(doc.Resources))
	return c, nil
}

// buildFilters builds a deduplicated discovery.Filter for every resource's
// type/requireVersion/directives.requireAdapter.
func buildFilters(doc *configdoc.Document) ([]discovery.Filter, error) {
	seen := map[string]bool{}
	var out []discovery.Filter
	for _, r := range doc.Resources {
		req, ok, err := r.ParsedRequireVersion()
		if err != nil {
			return nil, err
		}
		f := discovery.Filter{ResourceType: r.Type}
		if ok {
			f.Version = &req
		}
		if r.Directives != nil {
			f.RequireAdapter = r.Directives.RequireAdapter
		}
		key := fmt.Sprintf("%s|%s|%s", f.ResourceType.Lowercased(), filterVersionKey(f), f.RequireAdapter)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out, nil
}

func filterVersionKey(f discovery.Filter) string {
	if f.Version == nil {
		return ""
	}
	return f.Version.String()
}

// Ctx exposes the Configurator's Context for callers that need to inspect
// bound parameters/variables/outputs after a run (e.g. tests).
func (c *Configurator) Ctx() *Context { return c.ctx }

// Document returns the parsed configuration document.
func (c *Configurator) Document() *configdoc.Document { return c.doc }

// SetContext validates/coerces external parameter values, resolves
// defaults, evaluates variables, and registers user functions. It must be
// called before Get/Set/Test/Export.
func (c *Configurator) SetContext(_ context.Context, external map[string]interface{}) error {
	return c.ctx.bind(c.doc, external)
}
