// Package settings loads the engine's on-disk configuration: today, just
// the resource-path search setting that governs discovery. Loading goes
// through viper, the same way the CLI layer binds its persistent flags.
package settings

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// ResourcePathSetting controls how discovery's search path is built.
type ResourcePathSetting struct {
	AllowEnvOverride bool     `mapstructure:"allowEnvOverride"`
	AppendEnvPath    bool     `mapstructure:"appendEnvPath"`
	Directories      []string `mapstructure:"directories"`
}

// DefaultResourcePathSetting matches the original implementation's
// out-of-the-box behavior: no configured directories, but PATH is honored
// and DSC_RESOURCE_PATH can override it.
func DefaultResourcePathSetting() ResourcePathSetting {
	return ResourcePathSetting{AllowEnvOverride: true, AppendEnvPath: true}
}

// Settings is the top-level settings document.
type Settings struct {
	ResourcePath ResourcePathSetting `mapstructure:"resourcePath"`
}

// Load reads settings from path (if it exists) via viper, falling back to
// DefaultResourcePathSetting when no file is present. Environment variables
// are not consulted.
func Load(path string) (Settings, error) {
	s := Settings{ResourcePath: DefaultResourcePathSetting()}

	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType(path))
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, dscerror.Setting(err.Error())
	}
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, dscerror.Setting(err.Error())
	}
	return s, nil
}

func configType(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
