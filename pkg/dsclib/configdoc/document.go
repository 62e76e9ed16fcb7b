// Package configdoc defines the Configuration Document data model: the
// parsed, immutable representation of a user-submitted JSON/YAML document
// naming resources, parameters, variables, and outputs.
package configdoc

import (
	"encoding/json"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/types"
)

// SecurityContext is the privilege level a resource (or the whole document)
// may require.
type SecurityContext string

const (
	SecurityContextElevated   SecurityContext = "Elevated"
	SecurityContextRestricted SecurityContext = "Restricted"
	SecurityContextCurrent    SecurityContext = "Current"
)

// DiscoveryMode selects how aggressively the discovery caches are refreshed.
type DiscoveryMode string

const (
	DiscoveryModePreDeployment    DiscoveryMode = "PreDeployment"
	DiscoveryModeDuringDeployment DiscoveryMode = "DuringDeployment"
)

// Directives is the document-level `directives` block.
type Directives struct {
	Version          string        `json:"version,omitempty"`
	ResourceDiscovery DiscoveryMode `json:"resourceDiscovery,omitempty"`
}

// ParsedVersionReq parses Directives.Version, if set.
func (d Directives) ParsedVersionReq() (types.SemanticVersionReq, bool, error) {
	if d.Version == "" {
		return types.SemanticVersionReq{}, false, nil
	}
	req, err := types.ParseSemanticVersionReq(d.Version)
	if err != nil {
		return types.SemanticVersionReq{}, false, err
	}
	return req, true, nil
}

// ParameterType is the declared scalar/composite type of a Parameter.
type ParameterType string

const (
	ParameterTypeString  ParameterType = "string"
	ParameterTypeInt     ParameterType = "int"
	ParameterTypeBool    ParameterType = "bool"
	ParameterTypeObject  ParameterType = "object"
	ParameterTypeArray   ParameterType = "array"
	ParameterTypeSecureString ParameterType = "secureString"
	ParameterTypeSecureObject ParameterType = "secureObject"
)

// IsSecure reports whether values of this type must be redacted.
func (t ParameterType) IsSecure() bool {
	return t == ParameterTypeSecureString || t == ParameterTypeSecureObject
}

// Parameter declares one document parameter, with optional default and
// validation constraints.
type Parameter struct {
	Type          ParameterType     `json:"type"`
	DefaultValue  *json.RawMessage  `json:"defaultValue,omitempty"`
	AllowedValues []json.RawMessage `json:"allowedValues,omitempty"`
	MinLength     *int              `json:"minLength,omitempty"`
	MaxLength     *int              `json:"maxLength,omitempty"`
	MinValue      *float64          `json:"minValue,omitempty"`
	MaxValue      *float64          `json:"maxValue,omitempty"`
}

// Output declares one document output.
type Output struct {
	Type      ParameterType `json:"type"`
	Value     string        `json:"value"`
	Condition string        `json:"condition,omitempty"`
}

// Copy describes the copy-loop on a Resource.
type Copy struct {
	Name      string `json:"name"`
	Count     string `json:"count"`
	Mode      string `json:"mode,omitempty"`
	BatchSize *int   `json:"batchSize,omitempty"`
}

// ResourceDirectives is the per-resource `directives` block.
type ResourceDirectives struct {
	RequireAdapter  string          `json:"requireAdapter,omitempty"`
	SecurityContext SecurityContext `json:"securityContext,omitempty"`
}

// Metadata carries the microsoft-reserved block plus arbitrary other keys.
type Metadata struct {
	Microsoft *MicrosoftMetadata     `json:"Microsoft.DSC,omitempty"`
	Other     map[string]interface{} `json:"-"`
}

// MicrosoftMetadata is the reserved `Microsoft.DSC` metadata block.
type MicrosoftMetadata struct {
	Context         string          `json:"context,omitempty"`
	SecurityContext SecurityContext `json:"securityContext,omitempty"`
}

// MarshalJSON flattens Other alongside the reserved key, mirroring the
// wire format's "reserved key plus free-form siblings" shape.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for k, v := range m.Other {
		out[k] = v
	}
	if m.Microsoft != nil {
		out["Microsoft.DSC"] = m.Microsoft
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the reserved key out of the free-form object.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Other = map[string]interface{}{}
	for k, v := range raw {
		if k == "Microsoft.DSC" {
			var ms MicrosoftMetadata
			if err := json.Unmarshal(v, &ms); err != nil {
				return err
			}
			m.Microsoft = &ms
			continue
		}
		var val interface{}
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		m.Other[k] = val
	}
	return nil
}

// Resource is one entry in the document's `resources` list.
type Resource struct {
	Name           string                 `json:"name"`
	Type           types.FullyQualifiedTypeName `json:"type"`
	Properties     map[string]interface{} `json:"properties,omitempty"`
	RequireVersion string                 `json:"requireVersion,omitempty"`
	DependsOn      []string               `json:"dependsOn,omitempty"`
	Condition      string                 `json:"condition,omitempty"`
	Metadata       *Metadata              `json:"metadata,omitempty"`
	Copy           *Copy                  `json:"copy,omitempty"`
	Directives     *ResourceDirectives    `json:"directives,omitempty"`
}

// ParsedRequireVersion parses RequireVersion, if set.
func (r Resource) ParsedRequireVersion() (types.SemanticVersionReq, bool, error) {
	if r.RequireVersion == "" {
		return types.SemanticVersionReq{}, false, nil
	}
	req, err := types.ParseSemanticVersionReq(r.RequireVersion)
	if err != nil {
		return types.SemanticVersionReq{}, false, err
	}
	return req, true, nil
}

// Key returns the "type+name" reference key used by dependsOn resolution
// and context.references.
func (r Resource) Key() string {
	return r.Type.Lowercased() + "::" + strings.ToLower(r.Name)
}

// Document is the fully parsed Configuration Document. It is immutable once
// built: callers never mutate it in place after Parse returns.
type Document struct {
	Schema     string               `json:"$schema,omitempty"`
	Parameters map[string]Parameter `json:"parameters,omitempty"`
	Variables  map[string]json.RawMessage `json:"variables,omitempty"`
	Functions  map[string]string   `json:"functions,omitempty"`
	Resources  []Resource          `json:"resources"`
	Outputs    map[string]Output   `json:"outputs,omitempty"`
	Metadata   *Metadata           `json:"metadata,omitempty"`
	Directives Directives          `json:"directives,omitempty"`
}

// Parse parses a configuration document from either JSON or YAML text
// (detected by leaning on sigs.k8s.io/yaml, which accepts both), then
// validates the structural invariants this package owns: unique resource
// names, well-formed requireVersion strings.
func Parse(text []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, dscerror.Validation(fmt.Sprintf("configuration document failed to parse: %s", err))
	}
	if err := doc.validateStatic(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validateStatic() error {
	seen := make(map[string]bool, len(d.Resources))
	for _, r := range d.Resources {
		if _, _, err := r.ParsedRequireVersion(); err != nil {
			return err
		}
		if r.Copy != nil && (r.Copy.Mode != "" || r.Copy.BatchSize != nil) {
			return dscerror.Validation(fmt.Sprintf("resource %q: copy.mode and copy.batchSize are not supported", r.Name))
		}
		if r.Copy != nil {
			// Names under a copy loop are only unique after expansion; skip
			// the static uniqueness check for them here.
			continue
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return dscerror.Validation(fmt.Sprintf("duplicate resource name %q", r.Name))
		}
		seen[key] = true
	}
	if _, _, err := d.Directives.ParsedVersionReq(); err != nil {
		return err
	}
	return nil
}
