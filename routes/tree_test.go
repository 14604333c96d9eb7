package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTree_NodeKinds(t *testing.T) {
	root, err := ParseTree(parseYAML(t, `
_base_directory: /data
dir:
  leaf:
  leaf_with_settings:
    _read_token: abc
`))
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "dir", root.Children[0].Name)

	dir, ok := root.Children[0].Node.(*DirectoryNode)
	require.True(t, ok)
	require.Len(t, dir.Children, 2)

	_, ok = dir.Children[0].Node.(*LeafNode)
	assert.True(t, ok)

	leaf, ok := dir.Children[1].Node.(*LeafNode)
	require.True(t, ok)
	require.NotNil(t, leaf.Settings.Values.ReadToken)
	assert.Equal(t, "abc", *leaf.Settings.Values.ReadToken)
}

func TestParseTree_RootWithoutChildrenIsDirectory(t *testing.T) {
	root, err := ParseTree(parseYAML(t, `_base_directory: /data`))
	require.NoError(t, err)
	assert.Empty(t, root.Children)
	require.NotNil(t, root.Settings.Values.BaseDirectory)
}

func TestParseTree_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"scalar child", "a: 5"},
		{"sequence child", "a: [1, 2]"},
		{"non-scalar setting", "_read_token: [x]"},
		{"router metacharacter", "'{id}':"},
		{"wildcard", "'*':"},
		{"dot segment", "'..':"},
		{"empty segment", "'a//b':"},
		{"root sequence", "- a"},
		{"duplicate key", "a:\na:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTree(parseYAML(t, tt.src))
			require.ErrorIs(t, err, ErrInvalidTree)
		})
	}
}
