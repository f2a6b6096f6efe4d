package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"browser_agent/presentation/terminal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := terminal.NewTerminalInterface(terminal.WithIO(os.Stdin, os.Stdout, os.Stderr)).Command()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
