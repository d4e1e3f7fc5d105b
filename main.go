// adbconn - run Android Debug Bridge commands with probed capabilities.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"adbconn/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "adbconn: %v\n", err)
		os.Exit(1)
	}
}
