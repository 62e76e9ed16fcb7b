package configure

import (
	"fmt"
	"os"
	"runtime"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// resolveSecurityContext reads a resource's security context requirement
// from the deprecated metadata.microsoft.securityContext path and the
// current directives.securityContext path. If both are present and
// disagree, that is itself a SecurityContext error.
func resolveSecurityContext(r configdoc.Resource) (configdoc.SecurityContext, error) {
	var fromMetadata, fromDirectives configdoc.SecurityContext
	if r.Metadata != nil && r.Metadata.Microsoft != nil {
		fromMetadata = r.Metadata.Microsoft.SecurityContext
	}
	if r.Directives != nil {
		fromDirectives = r.Directives.SecurityContext
	}

	switch {
	case fromMetadata != "" && fromDirectives != "" && fromMetadata != fromDirectives:
		return "", dscerror.SecurityContext(fmt.Sprintf(
			"resource %q declares conflicting security contexts: metadata=%s directives=%s",
			r.Name, fromMetadata, fromDirectives))
	case fromDirectives != "":
		return fromDirectives, nil
	case fromMetadata != "":
		return fromMetadata, nil
	default:
		return configdoc.SecurityContextCurrent, nil
	}
}

// enforceSecurityContext compares a resolved requirement to the process's
// effective privilege. Elevated requires admin; Restricted requires
// non-admin; Current performs no check.
func enforceSecurityContext(sc configdoc.SecurityContext) error {
	switch sc {
	case configdoc.SecurityContextElevated:
		if !isElevatedProcess() {
			return dscerror.SecurityContext("resource requires an elevated process, but the current process is not elevated")
		}
	case configdoc.SecurityContextRestricted:
		if isElevatedProcess() {
			return dscerror.SecurityContext("resource requires a non-elevated process, but the current process is elevated")
		}
	}
	return nil
}

// isElevatedProcess reports whether the current process runs with admin
// privilege. On Windows (no POSIX euid), this is a best-effort "assume
// non-elevated" default; an accurate check would shell out to the token
// APIs, which is out of scope for this engine's process-privilege model.
func isElevatedProcess() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	return os.Geteuid() == 0
}
