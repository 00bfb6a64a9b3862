//go:build basic || database

// Package integration contains end-to-end tests that drive the riskboard binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Database tests need Docker: go test -tags database ./integration
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// fixturePath is the sample export, relative to the project root.
const fixturePath = "core/testdata/accounts_basic.json"

var (
	// sharedBinaryPath holds the path to a riskboard binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the riskboard binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "riskboard-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "riskboard")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from project root
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build riskboard: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// runCommand runs the binary from the project root and returns its combined output.
func runCommand(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = ".."
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}
