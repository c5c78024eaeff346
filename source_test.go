package warden

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceProvider_ReadsPipedStdin(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	_, err = w.WriteString("payload from pipe")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	sp := &SourceProvider{Stdin: r}
	text, err := sp.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, "payload from pipe", text)
	assert.False(t, IsTerminal(r))
}

func TestFileSource(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "payload.txt", "hello")

	text, err := FileSource{Path: filepath.Join(root, "payload.txt")}.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = FileSource{Path: filepath.Join(root, "missing.txt")}.ReadPayload()
	require.Error(t, err)
}

func TestStringSource(t *testing.T) {
	text, err := StringSource("").ReadPayload()
	require.NoError(t, err)
	assert.Empty(t, text)
}
