package packer

import (
	"context"
	"path"
	"time"

	"github.com/xdvdfs-go/xdvdfs/internal/blockdev"
	"github.com/xdvdfs-go/xdvdfs/internal/planner"
	"github.com/xdvdfs-go/xdvdfs/internal/treebuild"
	"github.com/xdvdfs-go/xdvdfs/internal/vtree"
	"github.com/xdvdfs-go/xdvdfs/internal/xlog"
	"github.com/xdvdfs-go/xdvdfs/xdvdfs"
)

// Options configures one Copy run.
type Options struct {
	// CreationTime is stamped into the volume descriptor. Using the
	// wall clock breaks byte-exact reproducibility (spec §9), so
	// callers that need property 3 (idempotent packing) must supply a
	// fixed value.
	CreationTime time.Time
}

// Copy runs the full pack pipeline (spec §4.G): build the virtual tree
// from src, serialize every directory table, assign sectors, and emit
// the image to sink in strictly increasing sector order.
func Copy(ctx context.Context, src Source, sink blockdev.Writer, opts Options, progress ProgressSink) error {
	if progress == nil {
		progress = NoopProgressSink{}
	}

	tree, closers, err := src.Tree(ctx)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	walkAll(tree, "/", func(p string, n *vtree.Node) {
		if !n.IsDir {
			progress.OnEvent(ProgressEvent{Kind: Discovered, Path: p})
		}
	})

	tables, err := treebuild.BuildAll(tree)
	if err != nil {
		return err
	}

	plan, err := planner.Plan(tree, tables)
	if err != nil {
		return err
	}
	xlog.L().Debug("sector plan computed", "extents", len(plan.Extents), "total_sectors", plan.TotalSectors)
	progress.OnEvent(ProgressEvent{Kind: Planned, TotalBytes: plan.TotalSectors * xdvdfs.SectorSize})

	rootRef := xdvdfs.RootTableRef{
		Sector:    plan.SectorOf[tree],
		SizeBytes: tables[tree].SectorCount * xdvdfs.SectorSize,
	}
	if rootRef.SizeBytes == 0 {
		// An empty directory is recorded as sector 0, size 0.
		rootRef.Sector = 0
	}
	desc := xdvdfs.VolumeDescriptor{
		RootTable:    rootRef,
		CreationTime: xdvdfs.ToFileTime(opts.CreationTime),
	}
	if err := sink.WriteAt(ctx, desc.MarshalBinary(), xdvdfs.VolumeDescriptorSector*xdvdfs.SectorSize); err != nil {
		return err
	}

	for _, ext := range plan.Extents {
		switch ext.Kind {
		case planner.DirTable:
			if err := writeDirTableExtent(ctx, sink, tables[ext.Node], ext, plan); err != nil {
				return err
			}
		case planner.File:
			if err := writeFileExtent(ctx, sink, ext); err != nil {
				return err
			}
		}
		progress.OnEvent(ProgressEvent{Kind: Wrote, Path: ext.VirtualPath, BytesWritten: ext.SizeBytes})
	}

	// The image always extends at least one sector past
	// FirstContentSector (spec §8 scenario S1), even when nothing was
	// allocated there (an all-empty root directory).
	floor := uint32(xdvdfs.FirstContentSector + 1)
	if plan.TotalSectors < floor {
		padStart := int64(plan.TotalSectors) * xdvdfs.SectorSize
		padLen := int64(floor-plan.TotalSectors) * xdvdfs.SectorSize
		if err := sink.WriteAt(ctx, make([]byte, padLen), padStart); err != nil {
			return err
		}
	}

	xlog.L().Info("pack finished", "total_sectors", plan.TotalSectors)
	progress.OnEvent(ProgressEvent{Kind: Finished})
	return nil
}

func writeDirTableExtent(ctx context.Context, sink blockdev.Writer, tbl *xdvdfs.SerializedTable, ext planner.Extent, plan *planner.SectorPlan) error {
	childSectors := map[string]uint32{}
	for _, c := range ext.Node.Children {
		if c.IsDir && plan.TablesByNode[c].SectorCount == 0 {
			childSectors[c.Name] = 0
			continue
		}
		childSectors[c.Name] = plan.SectorOf[c]
	}
	patched, err := xdvdfs.PatchDataSectors(tbl, childSectors)
	if err != nil {
		return err
	}
	return sink.WriteAt(ctx, patched, int64(ext.StartSector)*xdvdfs.SectorSize)
}

func writeFileExtent(ctx context.Context, sink blockdev.Writer, ext planner.Extent) error {
	size := ext.SizeBytes
	sectors := uint32(1)
	if size > 0 {
		sectors = (size + xdvdfs.SectorSize - 1) / xdvdfs.SectorSize
	}
	buf := make([]byte, int64(sectors)*xdvdfs.SectorSize)
	if size > 0 {
		if err := ext.Node.Content.ReadAt(ctx, buf[:size], 0); err != nil {
			return err
		}
	}
	return sink.WriteAt(ctx, buf, int64(ext.StartSector)*xdvdfs.SectorSize)
}

func walkAll(n *vtree.Node, p string, fn func(string, *vtree.Node)) {
	fn(p, n)
	for _, c := range n.Children {
		fn2 := path.Join(p, c.Name)
		walkAll(c, fn2, fn)
	}
}
