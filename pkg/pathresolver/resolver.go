// Package pathresolver splits and walks absolute paths against a directory
// tree rooted at fsnode.Directory. All functions are pure, taking the root
// as an explicit argument, since path resolution carries no state of its
// own.
package pathresolver

import "github.com/omnifs/omnifs/pkg/fsnode"

// Validate reports whether path is non-empty and starts with "/".
func Validate(path string) bool {
	return len(path) > 0 && path[0] == '/'
}

// Split splits path on "/", discarding empty components.
func Split(path string) []string {
	segments := make([]string, 0)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	return segments
}

// LocateDir walks from root using child-name lookups, returning the
// directory node at path or nil if any segment is missing. "/" resolves to
// root.
func LocateDir(root *fsnode.Directory, path string) *fsnode.Directory {
	if !Validate(path) {
		return nil
	}
	dir := root
	for _, segment := range Split(path) {
		next, ok := dir.Children[segment]
		if !ok {
			return nil
		}
		dir = next
	}
	return dir
}

// LocateParent splits path, pops the last component as name, and walks the
// prefix. It returns (nil, "") if path is invalid, empty (i.e. "/"), or any
// prefix segment is missing.
func LocateParent(root *fsnode.Directory, path string) (*fsnode.Directory, string) {
	if !Validate(path) {
		return nil, ""
	}
	segments := Split(path)
	if len(segments) == 0 {
		return nil, ""
	}
	name := segments[len(segments)-1]
	dir := root
	for _, segment := range segments[:len(segments)-1] {
		next, ok := dir.Children[segment]
		if !ok {
			return nil, ""
		}
		dir = next
	}
	return dir, name
}
