// Command cable checks, inspects and runs reactive graph documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/cable/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and maps its error to an exit code. Exit errors
// have already been reported by the command that returned them.
func run(args []string) int {
	root := cli.NewRootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.GetExitCode(err)
}
