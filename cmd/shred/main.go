// Command shred overwrites files to hide their contents, and optionally
// deletes them.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/coreutils/goshred/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, os.Environ(), sigCh)

	os.Exit(exitCode)
}
