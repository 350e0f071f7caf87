// Package planner implements the sector allocator (spec §4.F):
// assigning every directory table and file a deterministic, disjoint
// run of sectors, given a virtual tree and each directory's
// already-serialized table bytes.
package planner

import (
	"path"

	"github.com/xdvdfs-go/xdvdfs/internal/vtree"
	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
	"github.com/xdvdfs-go/xdvdfs/xdvdfs"
)

// ExtentKind distinguishes a directory table extent from a file
// payload extent.
type ExtentKind int

const (
	DirTable ExtentKind = iota
	File
)

// Extent is one allocated, sector-aligned run in the produced image.
type Extent struct {
	VirtualPath string
	StartSector uint32
	SizeBytes   uint32
	Kind        ExtentKind
	Node        *vtree.Node
}

// SectorPlan is the ordered allocation the copier will emit.
type SectorPlan struct {
	Extents      []Extent
	SectorOf     map[*vtree.Node]uint32 // every node (dir or file) to its allocated start sector
	TablesByNode map[*vtree.Node]*xdvdfs.SerializedTable
	RootSector   uint32
	TotalSectors uint32
}

const maxSector = 0xFFFFFFFF

// Plan assigns sectors to root and every descendant, given the
// pre-built serialized directory table for every directory node
// (keyed by node identity; see treebuild.BuildAll). Allocation order
// follows spec §4.F exactly: the volume descriptor's sector is
// reserved implicitly by starting at firstContentSector, then the
// root table, then breadth-first over directories in case-folded
// order, reserving each level's subdirectory tables before its files.
func Plan(root *vtree.Node, tables map[*vtree.Node]*xdvdfs.SerializedTable) (*SectorPlan, error) {
	cursor := uint32(xdvdfs.FirstContentSector)
	plan := &SectorPlan{
		SectorOf:     map[*vtree.Node]uint32{},
		TablesByNode: tables,
	}

	rootTbl := tables[root]
	plan.RootSector = cursor
	plan.SectorOf[root] = cursor
	if rootTbl.SectorCount > 0 {
		plan.Extents = append(plan.Extents, Extent{
			VirtualPath: "/", StartSector: cursor, SizeBytes: rootTbl.SectorCount * xdvdfs.SectorSize, Kind: DirTable, Node: root,
		})
	}
	cursor += rootTbl.SectorCount

	type queued struct {
		node *vtree.Node
		path string
	}
	queue := []queued{{root, "/"}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		node := item.node
		tbl := tables[node]

		sortedNames, err := xdvdfs.EnumerateBytes(tbl)
		if err != nil {
			return nil, err
		}
		byName := map[string]*vtree.Node{}
		for _, c := range node.Children {
			byName[c.Name] = c
		}

		var subdirs, files []*vtree.Node
		for _, d := range sortedNames {
			child, ok := byName[d.Name]
			if !ok {
				return nil, xdvdfserr.NewCorrupt("planner: table entry %q has no matching virtual node", d.Name)
			}
			if child.IsDir {
				subdirs = append(subdirs, child)
			} else {
				files = append(files, child)
			}
		}

		for _, child := range subdirs {
			childTbl := tables[child]
			childPath := path.Join(item.path, child.Name)
			plan.SectorOf[child] = cursor
			if childTbl.SectorCount > 0 {
				plan.Extents = append(plan.Extents, Extent{
					VirtualPath: childPath, StartSector: cursor, SizeBytes: childTbl.SectorCount * xdvdfs.SectorSize, Kind: DirTable, Node: child,
				})
			}
			cursor += childTbl.SectorCount
			queue = append(queue, queued{child, childPath})
		}

		for _, child := range files {
			size := child.Content.Size()
			sectors := uint32(1)
			if size > 0 {
				sectors = (size + xdvdfs.SectorSize - 1) / xdvdfs.SectorSize
			}
			childPath := path.Join(item.path, child.Name)
			plan.SectorOf[child] = cursor
			plan.Extents = append(plan.Extents, Extent{
				VirtualPath: childPath, StartSector: cursor, SizeBytes: size, Kind: File, Node: child,
			})
			if uint64(cursor)+uint64(sectors) > maxSector {
				return nil, xdvdfserr.ErrTooManySectors
			}
			cursor += sectors
		}
	}

	plan.TotalSectors = cursor
	return plan, nil
}
