// Command sitetag checks FPGA cell placements against site-local tag-state
// constraints.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/sitetag/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit code.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// Flag parsing and global option errors.
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCommandError
	}
	if exitErr.Code == cli.ExitCommandError {
		fmt.Fprintln(os.Stderr, exitErr.Error())
	}
	return exitErr.Code
}
