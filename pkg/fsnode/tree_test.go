package fsnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootIsEmptyDirectory(t *testing.T) {
	root := NewRoot(1000)
	assert.Equal(t, TypeDirectory, root.Entry.Type)
	assert.True(t, root.IsEmpty())
}

func TestHasChildOrFileDetectsBoth(t *testing.T) {
	root := NewRoot(1000)
	root.Children["a"] = NewDirectory("a", "root", 1000)
	root.Files["b"] = NewFileEntry("b", 0, 1000)

	assert.True(t, root.HasChildOrFile("a"))
	assert.True(t, root.HasChildOrFile("b"))
	assert.False(t, root.HasChildOrFile("c"))
}

func TestListEntriesSuffixesDirectories(t *testing.T) {
	root := NewRoot(1000)
	root.Children["docs"] = NewDirectory("docs", "root", 1000)
	root.Files["readme"] = NewFileEntry("readme", 0, 1000)

	entries := root.ListEntries()
	assert.Contains(t, entries, "docs/")
	assert.Contains(t, entries, "readme")
	assert.Len(t, entries, 2)
}

func TestWalkVisitsDescendantsInPreOrder(t *testing.T) {
	root := NewRoot(1000)
	a := NewDirectory("a", "root", 1000)
	root.Children["a"] = a
	a.Files["f"] = NewFileEntry("f", 0, 1000)

	var paths []string
	Walk(root, func(path string, _ *Directory) {
		paths = append(paths, path)
	})

	assert.Equal(t, []string{"/", "/a"}, paths)
}

func TestCountAll(t *testing.T) {
	root := NewRoot(1000)
	a := NewDirectory("a", "root", 1000)
	root.Children["a"] = a
	a.Files["f1"] = NewFileEntry("f1", 0, 1000)
	root.Files["f2"] = NewFileEntry("f2", 1, 1000)

	dirs, files := CountAll(root)
	assert.Equal(t, 2, dirs)
	assert.Equal(t, 2, files)
}

func TestFileEntryCloneIsIndependent(t *testing.T) {
	e := NewFileEntry("f", 0, 1000)
	e.Content = []byte("hello")

	clone := e.Clone()
	clone.Content[0] = 'X'

	assert.Equal(t, byte('h'), e.Content[0])
}
