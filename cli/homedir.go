package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"ramret/config"
)

func GetHomeDir(cmd *cobra.Command) string {
	homeDirUnexp, err := cmd.Flags().GetString(FlagHome)
	if err != nil {
		panic(err)
	}
	homeDir := config.ExpandHomePath(homeDirUnexp)
	return homeDir
}

func InitHomeDir(cmd *cobra.Command) (string, error) {
	homeDir := GetHomeDir(cmd)
	exists, err := config.HomeDirExists(homeDir)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.New("home directory is already initialized")
	}
	if err := config.InitHomeDir(homeDir); err != nil {
		return "", err
	}
	return homeDir, nil
}

// OpenHome resolves an initialized home directory and its config,
// the common preamble of every command inspecting daemon state.
func OpenHome(cmd *cobra.Command) (string, *config.Config, error) {
	homeDir := GetHomeDir(cmd)
	if err := config.EnsureHomeDir(homeDir); err != nil {
		return "", nil, err
	}
	cfg, err := config.ReadConfigFile(homeDir)
	if err != nil {
		return "", nil, err
	}
	return homeDir, cfg, nil
}
