package app

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/open-dsc/dsc/pkg/dsclib/discovery"
	"github.com/open-dsc/dsc/pkg/dsclib/invoke"
	"github.com/open-dsc/dsc/pkg/dsclib/settings"
)

// buildIndex loads settings, resolves search paths, and performs the
// initial pre-deployment discovery refresh every operation starts from.
func buildIndex() (*discovery.Index, error) {
	s, err := settings.Load(viper.GetString("settings"))
	if err != nil {
		return nil, err
	}

	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}

	idx := discovery.NewIndex("")
	paths := discovery.ResolveSearchPaths(s.ResourcePath, exeDir)
	if err := idx.Refresh(paths, discovery.ModePreDeployment); err != nil {
		return nil, err
	}
	return idx, nil
}

func buildInvoker() *invoke.Invoker {
	return invoke.NewInvoker(invoke.GoJSONSchemaValidator{})
}

func readDocument(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
