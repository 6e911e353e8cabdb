// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     main
// Description: aichat entry point
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package main

import (
	"os"

	"github.com/msto63/aichat/cmd/aichat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
