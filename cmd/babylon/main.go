package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hironow/babylon/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCommand()

	// `babylon [flags] [project-dir]` is shorthand for export.
	args := os.Args[1:]
	if cmd.NeedsDefaultExport(rootCmd, args) {
		args = append([]string{"export"}, args...)
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
