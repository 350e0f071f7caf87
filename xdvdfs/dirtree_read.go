package xdvdfs

import (
	"context"
	"strings"

	"github.com/xdvdfs-go/xdvdfs/internal/blockdev"
	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// DirectoryTable is a read handle onto one directory's on-disk table:
// the volume-relative section device it lives on, plus the sector and
// byte size recorded for it (spec §4.D). Its zero value is not usable;
// obtain one from Volume.RootTable or by descending from a Dirent.
type DirectoryTable struct {
	dev *blockdev.SectionDevice
	ref RootTableRef
}

// SubTable returns the DirectoryTable a directory entry points at. It
// does not check d.IsDirectory(); callers that care should check first.
func (t DirectoryTable) SubTable(d Dirent) DirectoryTable {
	return DirectoryTable{dev: t.dev, ref: RootTableRef{Sector: d.DataSector, SizeBytes: d.DataSize}}
}

func (t DirectoryTable) numPages() int {
	if t.ref.SizeBytes == 0 {
		return 0
	}
	return int((t.ref.SizeBytes + SectorSize - 1) / SectorSize)
}

func (t DirectoryTable) readPage(ctx context.Context, pageIdx int) ([]byte, error) {
	buf := make([]byte, SectorSize)
	offset := int64(t.ref.Sector+uint32(pageIdx)) * SectorSize
	if err := t.dev.ReadAt(ctx, buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// Lookup searches the table's root page for name under XDVDFS case
// folding, following BST edges from offset 0 (spec §4.D). It never
// crosses a page boundary: entries reachable only via a later page's
// linear scan (see BuildDirectoryTable) are invisible to Lookup by
// construction and are reported as xdvdfserr.ErrNotFound.
func (t DirectoryTable) Lookup(ctx context.Context, name string) (Dirent, error) {
	if t.ref.SizeBytes == 0 {
		return Dirent{}, xdvdfserr.ErrNotFound
	}
	queryBytes, err := encodeWindows1252(name)
	if err != nil {
		return Dirent{}, err
	}
	page, err := t.readPage(ctx, 0)
	if err != nil {
		return Dirent{}, err
	}

	offset := 0
	for {
		ent, _, err := UnmarshalDirent(page, offset)
		if err != nil {
			return Dirent{}, err
		}
		if ent.LeftOffset == endOfPageSentinel {
			return Dirent{}, xdvdfserr.ErrNotFound
		}
		entBytes, err := encodeWindows1252(ent.Name)
		if err != nil {
			return Dirent{}, err
		}
		switch cmp := compareFolded(queryBytes, entBytes); {
		case cmp == 0:
			return ent, nil
		case cmp < 0:
			if !ent.hasLeftChild() {
				return Dirent{}, xdvdfserr.ErrNotFound
			}
			offset = int(ent.LeftOffset) * direntAlignment
		default:
			if !ent.hasRightChild() {
				return Dirent{}, xdvdfserr.ErrNotFound
			}
			offset = int(ent.RightOffset) * direntAlignment
		}
	}
}

// WalkPath resolves a "/"-separated path from t, descending into a
// child DirectoryTable at every non-terminal directory segment (spec
// §4.D). An empty or "/"-only path resolves to a synthetic entry
// describing t itself.
func (t DirectoryTable) WalkPath(ctx context.Context, path string) (Dirent, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return Dirent{
			Attributes: AttrDirectory,
			DataSector: t.ref.Sector,
			DataSize:   t.ref.SizeBytes,
		}, nil
	}

	cur := t
	for i, seg := range segments {
		ent, err := cur.Lookup(ctx, seg)
		if err != nil {
			return Dirent{}, err
		}
		if i == len(segments)-1 {
			return ent, nil
		}
		if !ent.IsDirectory() {
			return Dirent{}, xdvdfserr.ErrNotADirectory
		}
		cur = cur.SubTable(ent)
	}
	panic("unreachable")
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReadDataAll reads a file entry's full, contiguous byte range (spec
// §4.D). It reads whole sectors and trims the result to d.DataSize.
func (t DirectoryTable) ReadDataAll(ctx context.Context, d Dirent) ([]byte, error) {
	if d.DataSize == 0 {
		return nil, nil
	}
	sectors := int((d.DataSize + SectorSize - 1) / SectorSize)
	buf := make([]byte, sectors*SectorSize)
	if err := t.dev.ReadAt(ctx, buf, int64(d.DataSector)*SectorSize); err != nil {
		return nil, err
	}
	return buf[:d.DataSize], nil
}

// EntryIterator produces a directory table's entries in ascending
// name order via lazy, restartable in-order traversal across every
// page of the table (spec §4.D). Obtain one with DirectoryTable.Enumerate.
type EntryIterator struct {
	ctx        context.Context
	table      DirectoryTable
	nextPage   int
	totalPages int
	pending    []Dirent
	err        error
}

// Enumerate returns an iterator over every entry in t, across every
// page, in ascending case-folded order.
func (t DirectoryTable) Enumerate(ctx context.Context) *EntryIterator {
	return &EntryIterator{ctx: ctx, table: t, totalPages: t.numPages()}
}

// Next returns the next entry, or ok == false once exhausted (with err
// set if exhaustion was caused by a read/decode failure rather than
// reaching the end of the table).
func (it *EntryIterator) Next() (entry Dirent, ok bool, err error) {
	for len(it.pending) == 0 {
		if it.err != nil {
			return Dirent{}, false, it.err
		}
		if it.nextPage >= it.totalPages {
			return Dirent{}, false, nil
		}
		page, err := it.table.readPage(it.ctx, it.nextPage)
		if err != nil {
			it.err = err
			return Dirent{}, false, err
		}
		entries, err := inOrderPage(page)
		if err != nil {
			it.err = err
			return Dirent{}, false, err
		}
		it.nextPage++
		it.pending = entries
	}
	entry = it.pending[0]
	it.pending = it.pending[1:]
	return entry, true, nil
}

// inOrderPage decodes one page's self-contained BST (root always at
// offset 0) and returns its entries via a standard left-root-right
// in-order walk. A page ending in the 0xFFFF sentinel or whose bytes
// are otherwise exhausted simply yields no further entries (spec §4.D).
func inOrderPage(page []byte) ([]Dirent, error) {
	var out []Dirent
	var visit func(offset int) error
	visit = func(offset int) error {
		ent, _, err := UnmarshalDirent(page, offset)
		if err != nil {
			return err
		}
		if ent.LeftOffset == endOfPageSentinel {
			return nil
		}
		if ent.hasLeftChild() {
			if err := visit(int(ent.LeftOffset) * direntAlignment); err != nil {
				return err
			}
		}
		out = append(out, ent)
		if ent.hasRightChild() {
			if err := visit(int(ent.RightOffset) * direntAlignment); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(0); err != nil {
		return nil, err
	}
	return out, nil
}
