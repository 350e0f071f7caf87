// Package vtree describes the virtual tree the filesystem copier
// builds before it ever touches sector numbers: the shape the image
// will have, independent of whether it came from a host directory or
// another XDVDFS image.
package vtree

import "github.com/xdvdfs-go/xdvdfs/internal/blockdev"

// FileContent abstracts a file's bytes, whatever backs them: a host
// file on disk, or a byte range inside a source XDVDFS image.
type FileContent interface {
	blockdev.Reader
	Size() uint32
}

// Node is one entry of the virtual tree: a directory with children, or
// a file with content. The root node is always a directory named "".
type Node struct {
	Name       string
	IsDir      bool
	Attributes byte
	Children   []*Node
	Content    FileContent
}

// NewDir returns an empty directory node.
func NewDir(name string) *Node {
	return &Node{Name: name, IsDir: true}
}

// NewFile returns a file node backed by content.
func NewFile(name string, attrs byte, content FileContent) *Node {
	return &Node{Name: name, Attributes: attrs, Content: content}
}

// AddChild appends a child to a directory node.
func (n *Node) AddChild(c *Node) { n.Children = append(n.Children, c) }

// EnsureDir returns the child directory named name, creating it (and
// marking n as having gained a new child) if absent.
func (n *Node) EnsureDir(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name && c.IsDir {
			return c
		}
	}
	child := NewDir(name)
	n.AddChild(child)
	return child
}
