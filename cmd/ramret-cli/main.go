package main

import (
	"ramret/cmd/ramret-cli/cmd"
)

func main() {
	cmd.Execute()
}
