package main

import (
	"ramret/cmd/ramretd/cmd"
)

func main() {
	cmd.Execute()
}
