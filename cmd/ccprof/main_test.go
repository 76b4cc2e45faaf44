package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ccprof/internal/rlog"
)

func TestVerbosityFlagBareSelectsDebug(t *testing.T) {
	var f verbosityFlag
	require.NoError(t, f.Set(""))
	assert.Equal(t, rlog.LevelDebug, f.level)
}

func TestVerbosityFlagNumericLevels(t *testing.T) {
	cases := []struct {
		in   string
		want rlog.Level
	}{
		{"0", rlog.LevelWarn},
		{"1", rlog.LevelInfo},
		{"2", rlog.LevelDebug},
		{"5", rlog.LevelDebug},
	}
	for _, c := range cases {
		var f verbosityFlag
		require.NoError(t, f.Set(c.in))
		assert.Equal(t, c.want, f.level, "Set(%q)", c.in)
	}
}

func TestStructureFileModuleNameStripsKnownSuffixes(t *testing.T) {
	cases := map[string]string{
		"/tmp/a.out.hpcstruct":  "a.out",
		"/tmp/a.out.struct.xml": "a.out",
		"/tmp/foo.xml":          "foo",
		"/tmp/noext":            "noext",
	}
	for path, want := range cases {
		assert.Equal(t, want, structureFileModuleName(path), "structureFileModuleName(%q)", path)
	}
}

func TestResolveOutputDirRetriesWithPIDSuffixOnCollision(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "experiment-db")

	got, err := resolveOutputDir(base)
	require.NoError(t, err)
	assert.Equal(t, base, got, "expected fresh path to be used as-is")

	got2, err := resolveOutputDir(base)
	require.NoError(t, err)
	assert.NotEqual(t, base, got2, "expected a PID-suffixed alternate path")
	_, statErr := os.Stat(got2)
	assert.NoError(t, statErr, "expected %q to have been created", got2)
}

func TestRunCorrelatorReturnsUsageErrorForMissingExecutable(t *testing.T) {
	cfg := config{
		executable:   filepath.Join(t.TempDir(), "does-not-exist"),
		profilePaths: []string{filepath.Join(t.TempDir(), "does-not-exist.prof")},
		outDir:       filepath.Join(t.TempDir(), "out"),
		logger:       rlog.Default(),
	}
	var stdout, stderr bytes.Buffer
	code := runCorrelator(context.Background(), cfg, &stdout, &stderr)
	assert.Equal(t, exitUsage, code, "stderr: %s", stderr.String())
	assert.NotZero(t, stderr.Len(), "expected a diagnostic on stderr")
}

func TestRootCmdRequiresTwoPositionalArgs(t *testing.T) {
	rc := newRootCmd()
	code := rc.run([]string{"onlyonearg"})
	assert.Equal(t, exitUsage, code, "expected exitUsage for missing profile argument")
}

func TestRootCmdVersionFlagPrintsAndExitsClean(t *testing.T) {
	rc := newRootCmd()
	var out bytes.Buffer
	rc.cmd.SetOut(&out)
	code := rc.run([]string{"-V"})
	assert.Equal(t, exitOK, code)
	assert.NotZero(t, out.Len(), "expected version string on stdout")
}
