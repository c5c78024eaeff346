package warden

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsRoadmapBlock(t *testing.T) {
	assert.True(t, ContainsRoadmapBlock("intro\n===ROADMAP===\nCHECK 1.2\n"))
	assert.True(t, ContainsRoadmapBlock("  "+RoadmapMarker+"  \r\n"))
	assert.False(t, ContainsRoadmapBlock("see ===ROADMAP=== inline"))
	assert.False(t, ContainsRoadmapBlock(block("a.go", "package a")))
}

func TestCommandRoadmap(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	r := &CommandRoadmap{Command: `grep CHECK; echo "path=$WARDEN_ROADMAP"`, Dir: t.TempDir()}

	results, err := r.HandleInput("ROADMAP.md", "===ROADMAP===\nCHECK parser\n\nnoise\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"CHECK parser", "path=ROADMAP.md"}, results)
}

func TestCommandRoadmap_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	r := &CommandRoadmap{Command: "echo bad roadmap >&2; exit 3"}

	_, err := r.HandleInput("ROADMAP.md", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad roadmap")
}
