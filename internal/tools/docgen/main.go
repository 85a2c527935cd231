// Command docgen writes the babylon CLI reference as markdown.
package main

import (
	"fmt"
	"os"

	"github.com/hironow/babylon/internal/cmd"
	"github.com/spf13/cobra/doc"
)

func main() {
	dir := "docs/cli"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", dir, err)
		os.Exit(1)
	}

	rootCmd := cmd.NewRootCommand()
	rootCmd.DisableAutoGenTag = true

	// Front matter keeps the pages usable as a static site section.
	prepender := func(filename string) string {
		return fmt.Sprintf("---\ntitle: %q\n---\n\n", cmdTitle(filename))
	}
	linkHandler := func(name string) string { return name }

	if err := doc.GenMarkdownTreeCustom(rootCmd, dir, prepender, linkHandler); err != nil {
		fmt.Fprintf(os.Stderr, "docgen: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Generated CLI docs in %s/\n", dir)
}
