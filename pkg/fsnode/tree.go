package fsnode

// Directory is an owned tree node: its own entry, an owned map of child
// directories, and a map of file entries living directly inside it.
type Directory struct {
	Entry    FileEntry
	Children map[string]*Directory
	Files    map[string]*FileEntry
}

// NewDirectory builds a directory node with permissions 0755 and owner
// "root", matching dir_create's defaults.
func NewDirectory(name, owner string, now uint64) *Directory {
	return &Directory{
		Entry: FileEntry{
			Name:         truncateName(name),
			Type:         TypeDirectory,
			Permissions:  0755,
			CreatedTime:  now,
			ModifiedTime: now,
			Owner:        owner,
		},
		Children: make(map[string]*Directory),
		Files:    make(map[string]*FileEntry),
	}
}

// NewRoot builds the root directory node, created at startup by the
// formatter or in-process.
func NewRoot(now uint64) *Directory {
	return NewDirectory("/", "root", now)
}

// HasChildOrFile reports whether name collides with either a child
// directory or a file entry in this directory — used by dir_create and
// file_rename to enforce disjoint create-time namespaces (see design notes
// on missing collision checks).
func (d *Directory) HasChildOrFile(name string) bool {
	if _, ok := d.Children[name]; ok {
		return true
	}
	if _, ok := d.Files[name]; ok {
		return true
	}
	return false
}

// IsEmpty reports whether the directory has no children and no files,
// the precondition for dir_delete.
func (d *Directory) IsEmpty() bool {
	return len(d.Children) == 0 && len(d.Files) == 0
}

// ListEntries returns directory names (suffixed with "/") and file names in
// implementation-defined (map iteration) order, matching the reference's
// documented lack of ordering guarantee.
func (d *Directory) ListEntries() []string {
	entries := make([]string, 0, len(d.Children)+len(d.Files))
	for name := range d.Children {
		entries = append(entries, name+"/")
	}
	for name := range d.Files {
		entries = append(entries, name)
	}
	return entries
}

// Walk visits this directory and every descendant in DFS pre-order,
// calling fn with the directory and its full path from the root.
func Walk(root *Directory, fn func(path string, dir *Directory)) {
	var visit func(path string, dir *Directory)
	visit = func(path string, dir *Directory) {
		fn(path, dir)
		for name, child := range dir.Children {
			childPath := path
			if childPath != "/" {
				childPath += "/"
			}
			childPath += name
			visit(childPath, child)
		}
	}
	visit("/", root)
}

// CountAll returns the total number of directories (including root) and
// files reachable from root.
func CountAll(root *Directory) (dirs int, files int) {
	Walk(root, func(_ string, dir *Directory) {
		dirs++
		files += len(dir.Files)
	})
	return dirs, files
}
