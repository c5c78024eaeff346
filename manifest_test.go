package warden

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Manifest
	}{
		{
			name: "marker block with list styles and tags",
			text: ManifestOpen + "\n- src/a.rs\n* src/b.rs [NEW]\n3. src/old.rs [delete]\nsrc/c.rs\n" + BlockClose + "\n",
			want: Manifest{
				{Path: "src/a.rs", Op: OpUpdate},
				{Path: "src/b.rs", Op: OpNew},
				{Path: "src/old.rs", Op: OpDelete},
				{Path: "src/c.rs", Op: OpUpdate},
			},
		},
		{
			name: "tag before path and trailing description",
			text: ManifestOpen + "\n- [NEW] pkg/x.go - new helper\n" + BlockClose,
			want: Manifest{{Path: "pkg/x.go", Op: OpNew}},
		},
		{
			name: "legacy delivery block",
			text: "<Delivery>\n1. main.go\n2. util.go [New]\n</DELIVERY>",
			want: Manifest{
				{Path: "main.go", Op: OpUpdate},
				{Path: "util.go", Op: OpNew},
			},
		},
		{
			name: "blank lines skipped",
			text: ManifestOpen + "\n\n   \n- a.go\n\n" + BlockClose,
			want: Manifest{{Path: "a.go", Op: OpUpdate}},
		},
		{
			name: "dotted names are not list markers",
			text: ManifestOpen + "\n1.go\n" + BlockClose,
			want: Manifest{{Path: "1.go", Op: OpUpdate}},
		},
		{
			name: "empty block",
			text: ManifestOpen + "\n" + BlockClose,
			want: Manifest{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseManifest(tt.text)
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseManifest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseManifest_Absent(t *testing.T) {
	m, ok := ParseManifest(block("a.go", "package a"))
	assert.False(t, ok)
	assert.Empty(t, m)

	_, ok = ParseManifest(ManifestOpen + "\n- a.go\n")
	assert.False(t, ok, "unterminated manifest is not a manifest")
}

func TestManifestPaths(t *testing.T) {
	m := Manifest{{Path: "b"}, {Path: "a", Op: OpDelete}}
	assert.Equal(t, []string{"b", "a"}, m.Paths())
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "update", OpUpdate.String())
	assert.Equal(t, "new", OpNew.String())
	assert.Equal(t, "delete", OpDelete.String())
}
