// Package dscerror defines the closed error taxonomy shared by every layer
// of the engine: discovery, the invocation protocol, and the configurator.
package dscerror

import "fmt"

// Kind is one of the closed set of error categories the engine can surface.
type Kind string

// The full taxonomy from the error handling design.
const (
	KindResourceNotFound          Kind = "resource_not_found"
	KindAdapterNotFound            Kind = "adapter_not_found"
	KindInvalidManifest            Kind = "invalid_manifest"
	KindMissingManifest            Kind = "missing_manifest"
	KindCommand                    Kind = "command"
	KindCommandExit                Kind = "command_exit"
	KindCommandExitFromManifest    Kind = "command_exit_from_manifest"
	KindCommandOperation           Kind = "command_operation"
	KindSchema                     Kind = "schema"
	KindValidation                 Kind = "validation"
	KindParser                     Kind = "parser"
	KindSecurityContext            Kind = "security_context"
	KindNotImplemented             Kind = "not_implemented"
	KindNotSupported               Kind = "not_supported"
	KindSemVer                     Kind = "semver"
	KindSemVerReqWithBuildMetadata Kind = "semver_req_with_build_metadata"
	KindSetting                    Kind = "setting"
)

// Error is the single error type returned across package boundaries. It
// carries the closed Kind plus a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New constructs an Error. Most callers should prefer one of the typed
// constructors below, which fill in Kind and format Message consistently.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Error implements the error interface as "<kind>: <message>[: <cause>]".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ResourceNotFound reports that discovery found no provider matching the
// given type and version requirement.
func ResourceNotFound(typeName, version string) *Error {
	msg := typeName
	if version != "" {
		msg = fmt.Sprintf("%s (version %s)", typeName, version)
	}
	return New(KindResourceNotFound, msg, nil)
}

// AdapterNotFound reports that a resource required an adapter that was
// never discovered.
func AdapterNotFound(name string) *Error {
	return New(KindAdapterNotFound, name, nil)
}

// InvalidManifest reports that a manifest file on disk failed to parse.
func InvalidManifest(path, reason string) *Error {
	return New(KindInvalidManifest, fmt.Sprintf("%s: %s", path, reason), nil)
}

// MissingManifest reports a resource reference with no manifest body.
func MissingManifest(typeName string) *Error {
	return New(KindMissingManifest, typeName, nil)
}

// Command reports a non-zero child exit with no manifest-supplied
// description.
func Command(typeName string, code int, stderr string) *Error {
	return New(KindCommand, fmt.Sprintf("%s exited with code %d", typeName, code), fmt.Errorf("%s", stderr))
}

// CommandExit reports a non-zero child exit whose reason came from the
// manifest's exitCodes table.
func CommandExit(typeName string, code int, reason string) *Error {
	return New(KindCommandExit, fmt.Sprintf("%s exited with code %d: %s", typeName, code, reason), nil)
}

// CommandExitFromManifest is CommandExit with the distinction preserved for
// callers that need to know the description was manifest-sourced.
func CommandExitFromManifest(typeName string, code int, reason string) *Error {
	return New(KindCommandExitFromManifest, fmt.Sprintf("%s exited with code %d: %s", typeName, code, reason), nil)
}

// CommandOperation reports a process lifecycle failure: spawn, pipe setup,
// or termination without an exit code.
func CommandOperation(reason, executable string) *Error {
	return New(KindCommandOperation, fmt.Sprintf("%s: %s", reason, executable), nil)
}

// Schema reports that JSON Schema validation rejected an input or output.
func Schema(reason string) *Error {
	return New(KindSchema, reason, nil)
}

// Validation reports a document-level constraint violation.
func Validation(reason string) *Error {
	return New(KindValidation, reason, nil)
}

// Parser reports an expression or property parse failure.
func Parser(reason string) *Error {
	return New(KindParser, reason, nil)
}

// SecurityContext reports that an elevated/restricted requirement was not
// met by the current process.
func SecurityContext(reason string) *Error {
	return New(KindSecurityContext, reason, nil)
}

// NotImplemented reports that a provider does not support the requested
// operation.
func NotImplemented(op string) *Error {
	return New(KindNotImplemented, op, nil)
}

// NotSupported reports that an attempted combination of features is
// unsupported.
func NotSupported(reason string) *Error {
	return New(KindNotSupported, reason, nil)
}

// SemVer reports a semantic version parse failure.
func SemVer(reason string) *Error {
	return New(KindSemVer, reason, nil)
}

// SemVerReqWithBuildMetadata reports that a version requirement comparator
// illegally included build metadata.
func SemVerReqWithBuildMetadata(reason string) *Error {
	return New(KindSemVerReqWithBuildMetadata, reason, nil)
}

// Setting reports a malformed settings file.
func Setting(reason string) *Error {
	return New(KindSetting, reason, nil)
}

// String returns the kind's wire name. Kind itself isn't an error; callers
// use errors.As(err, &dscErr) and compare dscErr.Kind directly.
func (k Kind) String() string {
	return string(k)
}
