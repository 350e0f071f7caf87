// Package treebuild drives the directory-table builder (spec §4.E)
// bottom-up over a virtual tree, producing one SerializedTable per
// directory with every entry's data_sector left as a 0 placeholder —
// the first half of the two-pass size-then-address layout the
// planner and packer complete (xdvdfs.PatchDataSectors is the second
// half).
package treebuild

import (
	"github.com/xdvdfs-go/xdvdfs/internal/vtree"
	"github.com/xdvdfs-go/xdvdfs/xdvdfs"
)

// BuildAll recursively serializes every directory in the tree rooted
// at root, returning a table for every directory node (including
// root) keyed by node identity.
func BuildAll(root *vtree.Node) (map[*vtree.Node]*xdvdfs.SerializedTable, error) {
	tables := map[*vtree.Node]*xdvdfs.SerializedTable{}
	if _, err := buildDir(root, tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// buildDir returns node's directory size in bytes once serialized
// (tbl.SectorCount * xdvdfs.SectorSize), so a parent can use it as the
// size_bytes field of node's own dirent.
func buildDir(node *vtree.Node, tables map[*vtree.Node]*xdvdfs.SerializedTable) (uint32, error) {
	var entries []xdvdfs.BuildEntry
	for _, child := range node.Children {
		if child.IsDir {
			sizeBytes, err := buildDir(child, tables)
			if err != nil {
				return 0, err
			}
			entries = append(entries, xdvdfs.BuildEntry{
				Name:       child.Name,
				Attributes: child.Attributes | xdvdfs.AttrDirectory,
				DataSector: 0,
				DataSize:   sizeBytes,
			})
		} else {
			entries = append(entries, xdvdfs.BuildEntry{
				Name:       child.Name,
				Attributes: child.Attributes,
				DataSector: 0,
				DataSize:   child.Content.Size(),
			})
		}
	}

	tbl, err := xdvdfs.BuildDirectoryTable(entries)
	if err != nil {
		return 0, err
	}
	tables[node] = tbl
	return tbl.SectorCount * xdvdfs.SectorSize, nil
}
