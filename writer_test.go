package warden

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeTime(t *testing.T, unix int64) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return time.Unix(unix, 0) }
	t.Cleanup(func() { nowFunc = prev })
}

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readTestFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestWriteFiles_BackupBeforeOverwrite(t *testing.T) {
	root := t.TempDir()
	freezeTime(t, 1700000000)
	writeTestFile(t, root, "f.txt", "old")

	s, err := WriteFiles(Manifest{{Path: "f.txt"}}, extracted("f.txt", "new"), root)
	require.NoError(t, err)

	assert.True(t, s.BackedUp)
	assert.Equal(t, []string{"f.txt"}, s.Written)
	assert.Equal(t, "new", readTestFile(t, root, "f.txt"))
	assert.Equal(t, "old", readTestFile(t, root, BackupDir+"/1700000000/f.txt"))
}

func TestWriteFiles_SnapshotsAreNeverReused(t *testing.T) {
	root := t.TempDir()
	freezeTime(t, 1700000000)
	writeTestFile(t, root, "f.txt", "v0")

	_, err := WriteFiles(Manifest{{Path: "f.txt"}}, extracted("f.txt", "v1"), root)
	require.NoError(t, err)
	_, err = WriteFiles(Manifest{{Path: "f.txt"}}, extracted("f.txt", "v2"), root)
	require.NoError(t, err)

	assert.Equal(t, "v2", readTestFile(t, root, "f.txt"))
	assert.Equal(t, "v0", readTestFile(t, root, BackupDir+"/1700000000/f.txt"))
	assert.Equal(t, "v1", readTestFile(t, root, BackupDir+"/1700000001/f.txt"))
}

func TestWriteFiles_NewFilesNeedNoBackup(t *testing.T) {
	root := t.TempDir()

	s, err := WriteFiles(Manifest{{Path: "src/deep/a.rs", Op: OpNew}}, extracted("src/deep/a.rs", "fn a() {}"), root)
	require.NoError(t, err)

	assert.False(t, s.BackedUp)
	assert.Equal(t, "fn a() {}", readTestFile(t, root, "src/deep/a.rs"))
	assert.NoDirExists(t, filepath.Join(root, BackupDir))
}

func TestWriteFiles_DeleteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	freezeTime(t, 42)
	writeTestFile(t, root, "keep.go", "package keep")
	writeTestFile(t, root, "old.go", "package old")

	m := Manifest{
		{Path: "ghost.go", Op: OpDelete},
		{Path: "old.go", Op: OpDelete},
		{Path: "keep.go"},
	}
	s, err := WriteFiles(m, extracted("keep.go", "package keep // v2"), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"old.go"}, s.Deleted)
	assert.NoFileExists(t, filepath.Join(root, "old.go"))
	assert.NoFileExists(t, filepath.Join(root, BackupDir, "42", "ghost.go"))
	assert.Equal(t, "package old", readTestFile(t, root, BackupDir+"/42/old.go"))
}

func TestWriteFiles_SkipsEntriesWithoutContent(t *testing.T) {
	root := t.TempDir()

	s, err := WriteFiles(Manifest{{Path: "a.go"}, {Path: "b.go"}}, extracted("a.go", "package a"), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, s.Written)
	assert.NoFileExists(t, filepath.Join(root, "b.go"))
}

func TestWriteFiles_PreservesMode(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "run.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))

	_, err := WriteFiles(Manifest{{Path: "run.sh"}}, extracted("run.sh", "#!/bin/sh\necho hi\n"), root)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestWriteFiles_ErrorsPropagate(t *testing.T) {
	root := t.TempDir()
	// A regular file where a directory is needed.
	writeTestFile(t, root, "blocker", "x")

	_, err := WriteFiles(Manifest{{Path: "blocker/a.go"}}, extracted("blocker/a.go", "package a"), root)
	require.Error(t, err)
}

func TestPruneBackups(t *testing.T) {
	root := t.TempDir()
	for _, ts := range []int64{100, 300, 200, 400} {
		writeTestFile(t, root, BackupDir+"/"+strconv.FormatInt(ts, 10)+"/a.go", "x")
	}
	writeTestFile(t, root, BackupDir+"/not-a-snapshot/a.go", "x")

	removed, err := PruneBackups(root, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"100", "200"}, removed)

	assert.DirExists(t, filepath.Join(root, BackupDir, "300"))
	assert.DirExists(t, filepath.Join(root, BackupDir, "400"))
	assert.DirExists(t, filepath.Join(root, BackupDir, "not-a-snapshot"))
}

func TestPruneBackups_KeepAllAndMissingDir(t *testing.T) {
	root := t.TempDir()

	removed, err := PruneBackups(root, 3)
	require.NoError(t, err)
	assert.Empty(t, removed)

	writeTestFile(t, root, BackupDir+"/1/a.go", "x")
	removed, err = PruneBackups(root, 0)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.DirExists(t, filepath.Join(root, BackupDir, "1"))
}
