package main

import (
	"os"

	"github.com/sentinelgraph/sentinelgraph/cmd"
)

func main() {
	err := cmd.Execute()
	os.Exit(cmd.ExitCode(err))
}
