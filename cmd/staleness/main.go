// Command staleness replays heap-instrumentation traces and reports object
// staleness.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/staleness/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "staleness:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
