// ABOUTME: Entry point for the synchro server, MCP server and CLI
// ABOUTME: Runs the command tree and maps errors to exit codes
package main

import (
	"errors"
	"fmt"
	"os"

	urfave "github.com/urfave/cli/v2"

	"github.com/harperreed/synchro/cli"
)

// version is set via -ldflags at build time.
var version = "0.1.0-dev"

func main() {
	app := cli.NewApp(version)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		code := 1
		var exit urfave.ExitCoder
		if errors.As(err, &exit) {
			code = exit.ExitCode()
		}
		os.Exit(code)
	}
}
