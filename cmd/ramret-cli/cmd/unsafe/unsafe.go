package unsafe

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var cmd = &cobra.Command{
	Use:   "unsafe",
	Short: "Commands that have dangerous side-effects. Used during development or debugging.",
}

func AddCmd(parent *cobra.Command) {
	parent.AddCommand(cmd)
}

// confirm requires an explicit yes before a destructive command
// proceeds. On a terminal it prompts; in a pipe it reads the answer
// without one.
func confirm(warning string) bool {
	fmt.Println(warning)
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Print("Type yes to continue: ")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}
