package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd_RegistersEverySubcommand(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()

	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"get", "set", "test", "export", "resource"}, names)
}

func TestNewRootCmd_BindsSettingsFlag(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()

	flag := rootCmd.PersistentFlags().Lookup("settings")
	assert.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestNewResourceCmd_RegistersListSubcommand(t *testing.T) {
	t.Parallel()

	resourceCmd := newResourceCmd()

	var names []string
	for _, cmd := range resourceCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "list")
}
