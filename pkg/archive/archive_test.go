package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestArchiveManager_CreateAndExtractAll(t *testing.T) {
	tempDir := t.TempDir()
	testFiles := map[string]string{
		"global.json":           `{"tools":{"dotnet":"8.0.100"}}`,
		"eng/common/build.sh":   "#!/usr/bin/env bash\n",
		"eng/common/tools.sh":   "# tools\n",
		"src/FooPackage/Foo.cs": "class Foo {}",
	}
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, testFiles)

	am := NewManager()
	ctx := context.Background()
	archivePath := filepath.Join(tempDir, "out", "inputs.tar.gz")
	require.NoError(t, am.Create(ctx, sourceDir, archivePath))
	assert.FileExists(t, archivePath)

	extractDir := filepath.Join(tempDir, "extracted")
	require.NoError(t, am.ExtractAll(ctx, archivePath, extractDir))

	for rel, expected := range testFiles {
		content, err := os.ReadFile(filepath.Join(extractDir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, expected, string(content), rel)
	}
}

func TestArchiveManager_CreateExcludesTopLevel(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "repo")
	writeTree(t, sourceDir, map[string]string{
		"global.json":                "{}",
		".dotnet/dotnet":             "binary",
		".packages/foo/1.0/x.nupkg":  "pkg",
		"artifacts/log/build.binlog": "log",
	})

	am := NewManager()
	ctx := context.Background()
	archivePath := filepath.Join(tempDir, "snapshot.tar.gz")
	require.NoError(t, am.Create(ctx, sourceDir, archivePath, ".dotnet", ".packages"))

	extractDir := filepath.Join(tempDir, "extracted")
	require.NoError(t, am.ExtractAll(ctx, archivePath, extractDir))

	assert.FileExists(t, filepath.Join(extractDir, "global.json"))
	assert.FileExists(t, filepath.Join(extractDir, "artifacts", "log", "build.binlog"))
	assert.NoDirExists(t, filepath.Join(extractDir, ".dotnet"))
	assert.NoDirExists(t, filepath.Join(extractDir, ".packages"))
}

func TestArchiveManager_IsArchive(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{"a.txt": "a"})

	am := NewManager()
	ctx := context.Background()
	archivePath := filepath.Join(tempDir, "inputs.tar.gz")
	require.NoError(t, am.Create(ctx, sourceDir, archivePath))

	ok, err := am.IsArchive(ctx, archivePath)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = am.IsArchive(ctx, sourceDir)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = am.IsArchive(ctx, filepath.Join(tempDir, "missing.tar.gz"))
	assert.Error(t, err)
}

func TestArchiveManager_ExtractAllMissingArchive(t *testing.T) {
	err := NewManager().ExtractAll(context.Background(), filepath.Join(t.TempDir(), "nope.tar.gz"), t.TempDir())
	assert.Error(t, err)
}
