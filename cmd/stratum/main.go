// Command stratum is the CLI for the stratum record store.
package main

import (
	"fmt"
	"os"

	"github.com/leitmotif-dev/stratum/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
