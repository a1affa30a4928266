package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should see `shouldExit=true` and return a nil error.
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should propagate the error from cli.Parse.
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_InvalidDocument(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An HCL document with a syntax error must fail the load phase cleanly.
	invalidHCL := `
		graph "broken" {
			node "a" {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{"-log-level", "error", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should return an error for a malformed document")
	require.Contains(t, runErr.Error(), "failed to parse", "The error should name the parse failure")
}

func TestRun_CompilesManifestToStdout(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A single-node pipeline compiled end to end: load, validate, flatten,
	// resolve, compile, render.
	pipelineHCL := `
graph "wordcount" {
  input "corpus" {
    type = "DIRECTORY"
  }

  node "count" {
    entrypoint {
      version = "v1"
      handler = "wordcount:count"
      runtime = "python:3.10"
    }

    input "docs" {
      type   = "DIRECTORY"
      source = input.corpus
    }

    output "freqs" {
      type = "FILE"
    }
  }

  output "freqs" {
    type   = "FILE"
    source = node.count.freqs
  }
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "wordcount.hcl")
	err := os.WriteFile(filePath, []byte(pipelineHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{
		"-input", "corpus=/data/corpus",
		"-volume", "exchange",
		"-log-level", "error",
		filePath,
	}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.NoError(t, runErr, "run() should compile a valid pipeline")
	manifest := out.String()
	require.Contains(t, manifest, "services:", "Expected a compose document on stdout")
	require.Contains(t, manifest, "count:", "Expected one service per flat node")
	require.Contains(t, manifest, "outputs:", "Expected the synthesis service")
	require.Contains(t, manifest, "/data/corpus:/pipegraph/inputs/corpus:ro", "Expected the input binding on the consuming service")
	require.Contains(t, manifest, "exchange:/pipegraph/exchange", "Expected the shared exchange mount")
}
