package warden

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

var nowFunc = time.Now

// WriteFiles backs up every manifest target that currently exists, then
// applies the manifest in order. root == "" means the working directory.
// Only paths that were actually mutated are reported.
func WriteFiles(m Manifest, files ExtractedFiles, root string) (Success, error) {
	backupPath, err := createBackup(m, root)
	if err != nil {
		return Success{}, err
	}

	var written, deleted []string
	for _, e := range m {
		switch e.Op {
		case OpDelete:
			removed, err := deleteFile(resolvePath(e.Path, root))
			if err != nil {
				return Success{}, err
			}
			if removed {
				deleted = append(deleted, e.Path)
			}
		case OpUpdate, OpNew:
			file, ok := files[e.Path]
			if !ok {
				continue
			}
			if err := writeFile(resolvePath(e.Path, root), file.Content); err != nil {
				return Success{}, err
			}
			written = append(written, e.Path)
		}
	}

	return Success{
		Written:  written,
		Deleted:  deleted,
		BackedUp: backupPath != "",
	}, nil
}

func resolvePath(rel, root string) string {
	if root == "" {
		return filepath.FromSlash(rel)
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

func deleteFile(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return true, nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func backupRoot(root string) string {
	if root == "" {
		return BackupDir
	}
	return filepath.Join(root, BackupDir)
}

// createBackup returns the snapshot directory, or "" when no manifest
// target exists yet and nothing needed saving.
func createBackup(m Manifest, root string) (string, error) {
	var targets []string
	seen := make(map[string]struct{})
	for _, e := range m {
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}
		if info, err := os.Stat(resolvePath(e.Path, root)); err == nil && info.Mode().IsRegular() {
			targets = append(targets, e.Path)
		}
	}
	if len(targets) == 0 {
		return "", nil
	}

	dir, err := newSnapshotDir(backupRoot(root))
	if err != nil {
		return "", err
	}

	for _, p := range targets {
		dest := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return "", fmt.Errorf("failed to backup %s: %w", p, err)
		}
		if err := copyFile(resolvePath(p, root), dest); err != nil {
			return "", fmt.Errorf("failed to backup %s: %w", p, err)
		}
	}
	return dir, nil
}

// newSnapshotDir creates a fresh directory named by the current second.
// An existing snapshot is never reused; the name moves forward until
// os.Mkdir succeeds.
func newSnapshotDir(parent string) (string, error) {
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	for ts := nowFunc().Unix(); ; ts++ {
		dir := filepath.Join(parent, strconv.FormatInt(ts, 10))
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
}

func copyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, in.Close()) }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	_, err = io.Copy(out, in)
	return err
}

// PruneBackups keeps the newest keep snapshots under root's backup
// directory. keep <= 0 keeps everything.
func PruneBackups(root string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(backupRoot(root))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	type snapshot struct {
		name string
		ts   int64
	}
	var snapshots []snapshot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ts, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snapshot{name: e.Name(), ts: ts})
	}
	if len(snapshots) <= keep {
		return nil, nil
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].ts > snapshots[j].ts })

	var removed []string
	for _, s := range snapshots[keep:] {
		if err := os.RemoveAll(filepath.Join(backupRoot(root), s.name)); err != nil {
			return removed, fmt.Errorf("failed to remove backup %s: %w", s.name, err)
		}
		removed = append(removed, s.name)
	}
	return removed, nil
}
