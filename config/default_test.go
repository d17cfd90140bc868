package config

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"ramret/ram"
)

func TestGenerateDefaultConfigFile(t *testing.T) {
	generatedCfg := GenerateDefaultConfigFile()
	cfg, err := ReadConfig(bytes.NewReader(generatedCfg))
	require.NoError(t, err)
	require.EqualValues(t, DefaultConfig, *cfg)
}

func TestRAMConfigRoundTrip(t *testing.T) {
	geo := ram.DefaultGeometry()
	require.Equal(t, geo, NewRAMConfig(geo).Geometry())
	require.NoError(t, DefaultConfig.RAM.Geometry().Validate())
}

func TestInitHomeDir(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, InitHomeDir(home))

	cfg, err := ReadConfigFile(home)
	require.NoError(t, err)
	require.EqualValues(t, DefaultConfig, *cfg)

	info, err := os.Stat(ExpandDBPath(home))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
