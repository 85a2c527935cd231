package main

import (
	"path/filepath"
	"strings"
)

// cmdTitle turns "docs/cli/babylon_export.md" into "babylon export".
func cmdTitle(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return strings.ReplaceAll(base, "_", " ")
}
