package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFolderTree(t *testing.T) {
	root := BuildFolderTree([]string{"a/b", "a/c", "a/b/d"})

	require.NotNil(t, root)
	assert.True(t, root.IsRoot())
	require.Len(t, root.Children, 1, "no duplicate top-level nodes")

	a := root.Child("a")
	require.NotNil(t, a)
	assert.Equal(t, root, a.Parent)
	require.Len(t, a.Children, 2)

	b := a.Child("b")
	require.NotNil(t, b)
	require.NotNil(t, a.Child("c"))

	require.Len(t, b.Children, 1)
	d := b.Child("d")
	require.NotNil(t, d)
	assert.Equal(t, b, d.Parent)
	assert.Empty(t, d.Children)
}

func TestBuildFolderTreePaths(t *testing.T) {
	root := BuildFolderTree([]string{"photos/2024/summer"})

	summer := root.Child("photos").Child("2024").Child("summer")
	require.NotNil(t, summer)
	assert.Equal(t, "photos/2024/summer", summer.Path())
	assert.Equal(t, "", root.Path())
}

func TestBuildFolderTreeIgnoresEmptySegments(t *testing.T) {
	root := BuildFolderTree([]string{"/a//b/"})

	a := root.Child("a")
	require.NotNil(t, a)
	require.NotNil(t, a.Child("b"))
	assert.Len(t, root.Children, 1)
}

func TestBuildFolderTreeEmptyInput(t *testing.T) {
	root := BuildFolderTree(nil)
	require.NotNil(t, root)
	assert.True(t, root.IsRoot())
	assert.Empty(t, root.Children)
}
