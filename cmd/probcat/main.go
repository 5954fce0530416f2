// Package main provides probcat, a personal catalog of problems.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/calvinalkan/probcat/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	code := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, cli.EnvMap(os.Environ()), sigCh)

	signal.Stop(sigCh)
	os.Exit(code)
}
