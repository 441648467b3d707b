package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "1.0.0"
	GitCommit = "abc123"
	BuildDate = "2026-08-01T12:00:00Z"

	buf := new(bytes.Buffer)
	versionCmd.SetOut(buf)
	versionCmd.Run(versionCmd, nil)

	output := buf.String()
	require.Contains(t, output, "Web3 Events Server")
	require.Contains(t, output, "Version:    1.0.0")
	require.Contains(t, output, "Git commit: abc123")
	require.Contains(t, output, "Build date: 2026-08-01T12:00:00Z")
	require.Contains(t, output, "Go version:")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, expected := range []string{"serve", "version", "healthcheck", "migrate", "seed"} {
		require.True(t, names[expected], "missing subcommand %s", expected)
	}
}
