package configure

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
	"github.com/open-dsc/dsc/pkg/dsclib/invoke"
	"github.com/open-dsc/dsc/pkg/dsclib/types"
)

// Op is the document-level operation a Configurator runs.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpTest   Op = "test"
	OpExport Op = "export"
)

// ResourceResult is one resource's outcome within an aggregated run.
type ResourceResult struct {
	Name    string                     `json:"name"`
	Type    string                     `json:"type"`
	Skipped bool                       `json:"skipped,omitempty"`
	Error   string                     `json:"error,omitempty"`
	Get     *invoke.GetResult          `json:"-"`
	Set     *invoke.SetResult          `json:"-"`
	Test    *invoke.TestResult         `json:"-"`
	Export  *invoke.ExportResult       `json:"-"`
	Info    invoke.ExecutionInformation `json:"executionInformation"`
}

// MicrosoftDscMetadata is the run-level metadata block attached to every
// aggregated ConfigurationResult.
type MicrosoftDscMetadata struct {
	Duration        time.Duration          `json:"duration"`
	StartTime       time.Time              `json:"startDatetime"`
	EndTime         time.Time              `json:"endDatetime"`
	ExecutionType   invoke.ExecutionKind   `json:"executionType"`
	Operation       Op                     `json:"operation"`
	RestartRequired []string               `json:"restartRequired,omitempty"`
	SecurityContext configdoc.SecurityContext `json:"securityContext"`
	Version         string                 `json:"version,omitempty"`
}

// ConfigurationResult is the top-level aggregated result of one
// Configurator run.
type ConfigurationResult struct {
	Results   []ResourceResult       `json:"results"`
	Metadata  MicrosoftDscMetadata   `json:"metadata"`
	Outputs   map[string]interface{} `json:"outputs,omitempty"`
	HadErrors bool                   `json:"hadErrors"`
}

func (c *Configurator) aggregate(op Op, execKind invoke.ExecutionKind, results []ResourceResult, start time.Time) (*ConfigurationResult, error) {
	hadErrors := false
	for _, r := range results {
		if r.Error != "" {
			hadErrors = true
			break
		}
	}

	outputs, err := c.evaluateOutputs()
	if err != nil {
		return nil, err
	}

	return &ConfigurationResult{
		Results: results,
		Metadata: MicrosoftDscMetadata{
			Duration:        time.Since(start),
			StartTime:       start,
			EndTime:         time.Now(),
			ExecutionType:   execKind,
			Operation:       op,
			RestartRequired: c.ctx.RestartRequired(),
			SecurityContext: configdoc.SecurityContextCurrent,
		},
		Outputs:   outputs,
		HadErrors: hadErrors,
	}, nil
}

// evaluateOutputs evaluates each declared output's condition and value
// expression, skipping outputs whose condition is false and eliding
// secure-typed outputs entirely.
func (c *Configurator) evaluateOutputs() (map[string]interface{}, error) {
	if len(c.doc.Outputs) == 0 {
		return nil, nil
	}
	out := map[string]interface{}{}
	for name, decl := range c.doc.Outputs {
		ok, err := c.evaluateCondition(decl.Condition)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if decl.Type.IsSecure() {
			continue
		}
		v, err := c.ctx.evaluator.ParseAndExecute(decl.Value, c.ctx)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// escapeExportProperty implements the export-escaping rule: a string value
// beginning with "[" and ending with "]" is prefixed with an extra "[" so
// a later re-application never misreads it as an expression.
func escapeExportProperty(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case string:
		if len(val) >= 2 && val[0] == '[' && val[len(val)-1] == ']' {
			return "[" + val, nil
		}
		return val, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			escaped, err := escapeExportProperty(child)
			if err != nil {
				return nil, err
			}
			out[k] = escaped
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			escaped, err := escapeExportProperty(child)
			if err != nil {
				return nil, err
			}
			out[i] = escaped
		}
		return out, nil
	default:
		return val, nil
	}
}

// MergeExportToDocument folds a set of exported resource instances back
// into a synthesized Configuration Document, the same shape
// add_resource_export_results_to_configuration produces in the original
// implementation, so export output can feed directly into a subsequent
// set.
func MergeExportToDocument(typeName string, instances []json.RawMessage) (*configdoc.Document, error) {
	doc := &configdoc.Document{Resources: make([]configdoc.Resource, 0, len(instances))}
	for i, instance := range instances {
		var props map[string]interface{}
		if err := json.Unmarshal(instance, &props); err != nil {
			return nil, err
		}
		escaped, err := escapeExportProperty(props)
		if err != nil {
			return nil, err
		}
		escapedProps, _ := escaped.(map[string]interface{})
		tn, err := types.ParseFullyQualifiedTypeName(typeName)
		if err != nil {
			return nil, err
		}
		doc.Resources = append(doc.Resources, configdoc.Resource{
			Name:       fmt.Sprintf("%s-%d", tn.Name, i),
			Type:       tn,
			Properties: escapedProps,
		})
	}
	return doc, nil
}
