package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ramret/cli"
	"ramret/cmd/ramret-cli/cmd/records"
	"ramret/cmd/ramret-cli/cmd/unsafe"
)

var rootCmd = &cobra.Command{
	Use:   "ramret-cli",
	Short: "Command-line inspection interface for ramretd. Operates on the daemon's home directory, so stop the daemon first.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String(cli.FlagHome, "~/.ramretd", "Home directory of the daemon to inspect.")
	records.AddCmd(rootCmd)
	unsafe.AddCmd(rootCmd)
}
