// Package manifest defines the on-disk provider contract: resource and
// extension manifests, operation definitions, and the argument/input
// marshalling vocabulary the invocation protocol walks.
package manifest

import (
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/types"
)

// Kind is the manifest's provider kind.
type Kind string

const (
	KindResource Kind = "Resource"
	KindAdapter  Kind = "Adapter"
	KindGroup    Kind = "Group"
	KindImporter Kind = "Importer"
	KindExporter Kind = "Exporter"
)

// AdapterInputKind selects how a required adapter receives its target
// resource.
type AdapterInputKind string

const (
	AdapterInputFull   AdapterInputKind = "Full"
	AdapterInputSingle AdapterInputKind = "Single"
)

// ReturnsKind tells the invocation layer how to parse stdout for set/delete.
type ReturnsKind string

const (
	ReturnsState        ReturnsKind = "State"
	ReturnsStateAndDiff ReturnsKind = "StateAndDiff"
)

// ArgKindTag discriminates the externally-tagged ArgKind sum.
type ArgKindTag string

const (
	ArgLiteral      ArgKindTag = "Literal"
	ArgJSON         ArgKindTag = "Json"
	ArgResourceType ArgKindTag = "ResourceType"
	ArgResourcePath ArgKindTag = "ResourcePath"
	ArgWhatIf       ArgKindTag = "WhatIf"
)

// ArgKind is one element of an operation's argv template.
type ArgKind struct {
	Kind      ArgKindTag `json:"-"`
	Literal   string     `json:"-"`
	Flag      string     `json:"-"`
	Mandatory bool       `json:"-"`
}

type argKindWire struct {
	Literal *string `json:"Literal,omitempty"`
	Json    *struct {
		Flag      string `json:"flag"`
		Mandatory bool   `json:"mandatory,omitempty"`
	} `json:"Json,omitempty"`
	ResourceType *struct {
		Flag string `json:"flag"`
	} `json:"ResourceType,omitempty"`
	ResourcePath *struct {
		Flag string `json:"flag"`
	} `json:"ResourcePath,omitempty"`
	WhatIf *struct {
		Flag string `json:"flag"`
	} `json:"WhatIf,omitempty"`
}

// UnmarshalJSON decodes the externally-tagged ArgKind wire shape.
func (a *ArgKind) UnmarshalJSON(data []byte) error {
	var w argKindWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Literal != nil:
		a.Kind, a.Literal = ArgLiteral, *w.Literal
	case w.Json != nil:
		a.Kind, a.Flag, a.Mandatory = ArgJSON, w.Json.Flag, w.Json.Mandatory
	case w.ResourceType != nil:
		a.Kind, a.Flag = ArgResourceType, w.ResourceType.Flag
	case w.ResourcePath != nil:
		a.Kind, a.Flag = ArgResourcePath, w.ResourcePath.Flag
	case w.WhatIf != nil:
		a.Kind, a.Flag = ArgWhatIf, w.WhatIf.Flag
	default:
		return dscerror.InvalidManifest("", "unrecognized ArgKind variant")
	}
	return nil
}

// MarshalJSON encodes the externally-tagged ArgKind wire shape.
func (a ArgKind) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ArgLiteral:
		return json.Marshal(map[string]string{"Literal": a.Literal})
	case ArgJSON:
		return json.Marshal(map[string]interface{}{"Json": map[string]interface{}{"flag": a.Flag, "mandatory": a.Mandatory}})
	case ArgResourceType:
		return json.Marshal(map[string]interface{}{"ResourceType": map[string]string{"flag": a.Flag}})
	case ArgResourcePath:
		return json.Marshal(map[string]interface{}{"ResourcePath": map[string]string{"flag": a.Flag}})
	case ArgWhatIf:
		return json.Marshal(map[string]interface{}{"WhatIf": map[string]string{"flag": a.Flag}})
	default:
		return nil, fmt.Errorf("unrecognized ArgKind %q", a.Kind)
	}
}

// InputKind selects how the invocation supplies input to the child process.
type InputKind string

const (
	InputStdin InputKind = "stdin"
	InputEnv   InputKind = "env"
	InputNone  InputKind = ""
)

// OperationDef is one `get`/`set`/`test`/… block.
type OperationDef struct {
	Executable string      `json:"executable"`
	Args       []ArgKind   `json:"args,omitempty"`
	Input      InputKind   `json:"input,omitempty"`
	Returns    ReturnsKind `json:"returns,omitempty"`
	PreTest    bool        `json:"preTest,omitempty"`
}

// SchemaSource is either an embedded schema or a command that prints one.
type SchemaSource struct {
	Embedded json.RawMessage `json:"embedded,omitempty"`
	Command  *OperationDef   `json:"command,omitempty"`
}

// AdapterDef declares the adapter's hosted-resource discovery operation and
// input mode. List, when present, is invoked by discovery's adapted-resource
// scan (spec §4.1) to enumerate the resources this adapter currently hosts;
// its stdout is parsed one JSON record per line.
type AdapterDef struct {
	List      *OperationDef    `json:"list,omitempty"`
	InputKind AdapterInputKind `json:"inputKind,omitempty"`
}

// ResourceCapability is one of the closed set of optional capabilities a
// resource manifest can declare to change how the invocation protocol
// dispatches an operation.
type ResourceCapability string

// CapabilitySetHandlesExist declares that the provider's own `set`
// operation handles `_exist: false` itself, so the Set dispatch rule
// should invoke `set` directly instead of falling back to the
// pre-get/delete/post-get sequence (spec §4.2).
const CapabilitySetHandlesExist ResourceCapability = "SetHandlesExist"

// Resource is a manifest on disk describing one provider (or adapter).
type Resource struct {
	Type         types.FullyQualifiedTypeName `json:"type"`
	Version      string                       `json:"version"`
	Kind         Kind                         `json:"kind,omitempty"`
	Description  string                       `json:"description,omitempty"`
	Tags         []string                     `json:"tags,omitempty"`
	Get          *OperationDef                `json:"get,omitempty"`
	Set          *OperationDef                `json:"set,omitempty"`
	Test         *OperationDef                `json:"test,omitempty"`
	Delete       *OperationDef                `json:"delete,omitempty"`
	Export       *OperationDef                `json:"export,omitempty"`
	Validate     *OperationDef                `json:"validate,omitempty"`
	Resolve      *OperationDef                `json:"resolve,omitempty"`
	WhatIf       *OperationDef                `json:"whatIf,omitempty"`
	Schema       *SchemaSource                `json:"schema,omitempty"`
	ExitCodes    map[string]string            `json:"exitCodes,omitempty"`
	Adapter      *AdapterDef                  `json:"adapter,omitempty"`
	Condition    string                       `json:"condition,omitempty"`
	Capabilities []ResourceCapability         `json:"capabilities,omitempty"`

	// RequireAdapter names the adapter hosting this resource. Absent for
	// manifests scanned directly off the search path; populated on records
	// yielded by an adapter's `adapter.list` discovery subcommand (spec
	// §4.1 Adapted-resource discovery) and by `.dsc.adaptedresource.*`
	// files.
	RequireAdapter string `json:"requireAdapter,omitempty"`

	// Path is the path of the manifest file this record was loaded from;
	// not part of the wire format, filled in by ParseResource/ParseBundle.
	Path string `json:"-"`
}

// HasCapability reports whether the manifest declares the given resource
// capability.
func (r Resource) HasCapability(c ResourceCapability) bool {
	for _, got := range r.Capabilities {
		if got == c {
			return true
		}
	}
	return false
}

// EffectiveKind returns Kind, defaulting to KindResource when the manifest
// omits it but declares no adapter block, or KindAdapter when it does.
func (r Resource) EffectiveKind() Kind {
	if r.Kind != "" {
		return r.Kind
	}
	if r.Adapter != nil {
		return KindAdapter
	}
	return KindResource
}

// IsAdapter reports whether this manifest hosts child resources.
func (r Resource) IsAdapter() bool {
	return r.EffectiveKind() == KindAdapter || r.Adapter != nil
}

// IsGroup reports whether this manifest's single invocation yields a
// sequence of per-child results.
func (r Resource) IsGroup() bool {
	return r.EffectiveKind() == KindGroup
}

// ParsedVersion resolves Version through ParseResourceVersion, falling back
// to an arbitrary string — never an error, per the discovery boundary-case
// rule that a bad semver string only warns.
func (r Resource) ParsedVersion() types.ResourceVersion {
	return types.ParseResourceVersion(r.Version)
}

// ExitCodeReason looks up a non-zero exit code's manifest-provided
// description, if any.
func (r Resource) ExitCodeReason(code int) (string, bool) {
	reason, ok := r.ExitCodes[fmt.Sprintf("%d", code)]
	return reason, ok
}

// ExtensionCapability is one of the capabilities an Extension offers.
type ExtensionCapability string

const (
	CapabilityDiscover ExtensionCapability = "Discover"
	CapabilitySecret   ExtensionCapability = "Secret"
	CapabilityImport   ExtensionCapability = "Import"
)

// Extension is a manifest on disk describing a discover/secret/import
// sidecar.
type Extension struct {
	Type         types.FullyQualifiedTypeName `json:"type"`
	Version      string                       `json:"version"`
	Capabilities []ExtensionCapability        `json:"capabilities,omitempty"`
	Discover     *OperationDef                `json:"discover,omitempty"`
	Secret       *OperationDef                `json:"secret,omitempty"`
	Import       *struct {
		FileExtensions []string `json:"fileExtensions"`
	} `json:"import,omitempty"`

	Path string `json:"-"`
}

// HasCapability reports whether the extension declares the given
// capability.
func (e Extension) HasCapability(c ExtensionCapability) bool {
	for _, got := range e.Capabilities {
		if got == c {
			return true
		}
	}
	return false
}

// Bundle is the `*.dsc.manifests.*` aggregate form: several manifest kinds
// in one file.
type Bundle struct {
	AdaptedResources []Resource  `json:"adaptedResources,omitempty"`
	Resources        []Resource  `json:"resources,omitempty"`
	Extensions       []Extension `json:"extensions,omitempty"`
}

// ParseResource parses a single resource/adapted-resource manifest file.
func ParseResource(path string, text []byte) (*Resource, error) {
	var r Resource
	if err := yaml.Unmarshal(text, &r); err != nil {
		return nil, dscerror.InvalidManifest(path, err.Error())
	}
	if r.Type.Namespace == "" || r.Type.Name == "" {
		return nil, dscerror.InvalidManifest(path, "missing or empty \"type\"")
	}
	r.Path = path
	return &r, nil
}

// ParseExtension parses a single extension manifest file.
func ParseExtension(path string, text []byte) (*Extension, error) {
	var e Extension
	if err := yaml.Unmarshal(text, &e); err != nil {
		return nil, dscerror.InvalidManifest(path, err.Error())
	}
	if e.Type.Namespace == "" || e.Type.Name == "" {
		return nil, dscerror.InvalidManifest(path, "missing or empty \"type\"")
	}
	e.Path = path
	return &e, nil
}

// ParseBundle parses a `*.dsc.manifests.*` file.
func ParseBundle(path string, text []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(text, &b); err != nil {
		return nil, dscerror.InvalidManifest(path, err.Error())
	}
	for i := range b.AdaptedResources {
		b.AdaptedResources[i].Path = path
	}
	for i := range b.Resources {
		b.Resources[i].Path = path
	}
	for i := range b.Extensions {
		b.Extensions[i].Path = path
	}
	return &b, nil
}
