package warden

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// PreviewChanges renders the unified diff the manifest would produce
// against the files currently on disk, without modifying anything.
func PreviewChanges(m Manifest, files ExtractedFiles, root string) (string, error) {
	var b strings.Builder
	for _, e := range m {
		before, err := readExisting(resolvePath(e.Path, root))
		if err != nil {
			return "", err
		}

		var after string
		switch e.Op {
		case OpDelete:
			if before == nil {
				continue
			}
		default:
			file, ok := files[e.Path]
			if !ok {
				continue
			}
			after = file.Content
		}

		fromFile := "a/" + e.Path
		if before == nil {
			fromFile = "/dev/null"
		}
		toFile := "b/" + e.Path
		if e.Op == OpDelete {
			toFile = "/dev/null"
		}

		var old string
		if before != nil {
			old = *before
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(old),
			B:        difflib.SplitLines(after),
			FromFile: fromFile,
			ToFile:   toFile,
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("failed to diff %s: %w", e.Path, err)
		}
		b.WriteString(diff)
	}
	return b.String(), nil
}

func readExisting(path string) (*string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	s := string(data)
	return &s, nil
}
