// Package main provides diskcachectl, a command-line inspector for a
// diskcache directory.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pbardea/diskcache/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh)

	os.Exit(exitCode)
}
