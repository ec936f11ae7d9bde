//go:build integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIntegration_Catalog runs the built-in scenarios against real build
// inputs. REPOHARNESS_INPUTS must point at a directory or archive holding
// global.json and eng/common.
func TestIntegration_Catalog(t *testing.T) {
	inputs := os.Getenv("REPOHARNESS_INPUTS")
	if inputs == "" {
		t.Skip("REPOHARNESS_INPUTS not set")
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "settings:\n" +
		"  inputs_dir: " + inputs + "\n" +
		"  temp_root: " + filepath.Join(dir, "repos") + "\n" +
		"  snapshot_dir: " + filepath.Join(dir, "snapshots") + "\n" +
		"  share_roots: true\n" +
		"  build_timeout: 20m\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	out, err := execute(t, cfgPath, "run", "--all")
	require.NoError(t, err, out)
}
