package domain

import "strings"

// Folder is a node in the derived directory tree. The root exclusively owns
// the tree through Children; Parent is a non-owning back-reference used for
// lookup only (nil for the root).
type Folder struct {
	Name     string
	Children []*Folder
	Parent   *Folder
}

// Child returns the direct child with the given name, or nil
func (f *Folder) Child(name string) *Folder {
	for _, c := range f.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Path returns the "/"-joined path from the root to this folder.
// The root itself has an empty path.
func (f *Folder) Path() string {
	if f.Parent == nil {
		return ""
	}
	parent := f.Parent.Path()
	if parent == "" {
		return f.Name
	}
	return parent + "/" + f.Name
}

// IsRoot reports whether the folder is the tree root
func (f *Folder) IsRoot() bool {
	return f.Parent == nil
}

// BuildFolderTree converts a flat list of "/"-delimited path strings into a
// rooted tree. Paths sharing a prefix share nodes: no two children of the
// same parent carry the same name. The tree is built bottom-up from path
// segments, so it is acyclic by construction.
func BuildFolderTree(paths []string) *Folder {
	root := &Folder{}
	for _, path := range paths {
		node := root
		for _, segment := range strings.Split(path, "/") {
			if segment == "" {
				continue
			}
			child := node.Child(segment)
			if child == nil {
				child = &Folder{Name: segment, Parent: node}
				node.Children = append(node.Children, child)
			}
			node = child
		}
	}
	return root
}
