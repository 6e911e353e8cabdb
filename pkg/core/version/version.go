// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     version
// Description: Build and release version information
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package version

import "fmt"

// App is the release version
const App = "0.4.0"

// Set via -ldflags "-X github.com/msto63/aichat/pkg/core/version.GitCommit=..."
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns the full version line
func String() string {
	return fmt.Sprintf("aichat %s (commit %s, built %s)", App, GitCommit, BuildDate)
}

// UserAgent is sent with every provider request
func UserAgent() string {
	return "aichat/" + App
}
