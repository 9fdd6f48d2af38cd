package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/synthsweep/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return cli.ExitSuccess
	}
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		fmt.Fprintln(os.Stderr, "synthsweep:", err)
	}
	code := cli.GetExitCode(err)
	if !errors.As(err, &exitErr) {
		// cobra argument and flag errors
		code = cli.ExitCommandError
	}
	return code
}
