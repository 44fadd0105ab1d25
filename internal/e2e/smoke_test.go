package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	program, stderr, err := runDrawloop(t, binaryPath, home, "synth", "--seed", "3")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.True(t, strings.HasPrefix(program, "set_background("))

	programFile := filepath.Join(home, "program.dsl")
	require.NoError(t, os.WriteFile(programFile, []byte(program), 0o644))

	out := filepath.Join(home, "smoke.png")
	stdout, stderr, err := runDrawloop(t, binaryPath, home, "render", "--file", programFile, "--out", out)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, out, strings.TrimSpace(stdout))
	assert.FileExists(t, out)

	stdout, stderr, err = runDrawloop(t, binaryPath, home, "corpus", "stats")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "No examples stored.")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "drawloop-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/drawloop")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build drawloop binary: %s", string(output))
	return binaryPath
}

func runDrawloop(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "DRAWLOOP_CONFIG=", "DRAWLOOP_CANVAS_WIDTH=96", "DRAWLOOP_CANVAS_HEIGHT=96")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
