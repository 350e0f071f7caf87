// Package packer implements the filesystem copier (spec §4.G): it
// coordinates discovery, directory-table building, sector planning,
// and sector-ordered emission into a single pack operation, from
// either a host directory or another XDVDFS image.
package packer

import (
	"context"
	"io"

	"github.com/xdvdfs-go/xdvdfs/internal/blockdev"
	"github.com/xdvdfs-go/xdvdfs/internal/rewrite"
	"github.com/xdvdfs-go/xdvdfs/internal/vtree"
	"github.com/xdvdfs-go/xdvdfs/xdvdfs"
)

// Source produces the virtual tree a pack operation will serialize,
// plus any handles it opened that the caller must close once done.
type Source interface {
	Tree(ctx context.Context) (*vtree.Node, []io.Closer, error)
}

// HostSource discovers files under Root and rewrites their paths
// through Engine (spec §4.H/§4.G step 1).
type HostSource struct {
	Root   string
	Engine *rewrite.Engine
}

func (s HostSource) Tree(ctx context.Context) (*vtree.Node, []io.Closer, error) {
	mapped, err := s.Engine.Apply(s.Root)
	if err != nil {
		return nil, nil, err
	}
	var closers []io.Closer
	root, err := rewrite.BuildTree(mapped, func(hostPath string, size uint32) (vtree.FileContent, error) {
		c, err := rewrite.NewHostFileContent(hostPath, size)
		if err != nil {
			return nil, err
		}
		closers = append(closers, c)
		return c, nil
	})
	if err != nil {
		closeAll(closers)
		return nil, nil, err
	}
	return root, closers, nil
}

// ImageSource reads a virtual tree out of an already-open XDVDFS
// volume, for repacking (spec §4.G: "When the source is itself an
// XDVDFS image, file bytes are read sector-by-sector from the
// source's block device ... the copier never re-decodes them").
type ImageSource struct {
	Volume *xdvdfs.Volume
}

func (s ImageSource) Tree(ctx context.Context) (*vtree.Node, []io.Closer, error) {
	root := vtree.NewDir("")
	if err := copyImageDir(ctx, s.Volume, s.Volume.RootTable(), root); err != nil {
		return nil, nil, err
	}
	return root, nil, nil
}

func copyImageDir(ctx context.Context, vol *xdvdfs.Volume, table xdvdfs.DirectoryTable, dst *vtree.Node) error {
	it := table.Enumerate(ctx)
	for {
		ent, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if ent.IsDirectory() {
			childDir := vtree.NewDir(ent.Name)
			childDir.Attributes = ent.Attributes &^ xdvdfs.AttrDirectory
			dst.AddChild(childDir)
			if err := copyImageDir(ctx, vol, table.SubTable(ent), childDir); err != nil {
				return err
			}
			continue
		}
		content := &imageFileContent{dev: vol.Device(), sector: ent.DataSector, size: ent.DataSize}
		dst.AddChild(vtree.NewFile(ent.Name, ent.Attributes, content))
	}
	return nil
}

// imageFileContent is a vtree.FileContent reading directly from a
// source image's own volume-relative section device, at the entry's
// recorded sector, without ever decoding it as a directory table.
type imageFileContent struct {
	dev    *blockdev.SectionDevice
	sector uint32
	size   uint32
}

func (c *imageFileContent) Size() uint32 { return c.size }

func (c *imageFileContent) ReadAt(ctx context.Context, p []byte, off int64) error {
	return c.dev.ReadAt(ctx, p, int64(c.sector)*xdvdfs.SectorSize+off)
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
