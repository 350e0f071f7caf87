package xdvdfs

import (
	"bytes"
	"context"
	"testing"

	"github.com/xdvdfs-go/xdvdfs/internal/blockdev"
	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// buildFixtureVolume assembles a tiny in-memory image with
// /dir/sub/file (spec §8 scenario S4: 4096 bytes of 0xAA), returning a
// DirectoryTable rooted at the volume's root directory.
func buildFixtureVolume(t *testing.T) (context.Context, DirectoryTable) {
	t.Helper()
	ctx := context.Background()

	subTbl0, err := BuildDirectoryTable([]BuildEntry{{Name: "file", DataSize: 4096}})
	if err != nil {
		t.Fatalf("building sub table: %v", err)
	}
	dirTbl0, err := BuildDirectoryTable([]BuildEntry{
		{Name: "sub", Attributes: AttrDirectory, DataSize: subTbl0.SectorCount * SectorSize},
	})
	if err != nil {
		t.Fatalf("building dir table: %v", err)
	}
	rootTbl0, err := BuildDirectoryTable([]BuildEntry{
		{Name: "dir", Attributes: AttrDirectory, DataSize: dirTbl0.SectorCount * SectorSize},
	})
	if err != nil {
		t.Fatalf("building root table: %v", err)
	}

	rootSector := uint32(0)
	dirSector := rootSector + rootTbl0.SectorCount
	subSector := dirSector + dirTbl0.SectorCount
	fileSector := subSector + subTbl0.SectorCount

	rootBytes, err := PatchDataSectors(rootTbl0, map[string]uint32{"dir": dirSector})
	if err != nil {
		t.Fatalf("patching root: %v", err)
	}
	dirBytes, err := PatchDataSectors(dirTbl0, map[string]uint32{"sub": subSector})
	if err != nil {
		t.Fatalf("patching dir: %v", err)
	}
	subBytes, err := PatchDataSectors(subTbl0, map[string]uint32{"file": fileSector})
	if err != nil {
		t.Fatalf("patching sub: %v", err)
	}

	dev := blockdev.NewMemDevice(nil)
	mustWrite(t, ctx, dev, rootBytes, int64(rootSector)*SectorSize)
	mustWrite(t, ctx, dev, dirBytes, int64(dirSector)*SectorSize)
	mustWrite(t, ctx, dev, subBytes, int64(subSector)*SectorSize)
	mustWrite(t, ctx, dev, bytes.Repeat([]byte{0xAA}, 4096), int64(fileSector)*SectorSize)

	root := DirectoryTable{
		dev: blockdev.NewSectionDevice(dev, 0),
		ref: RootTableRef{Sector: rootSector, SizeBytes: rootTbl0.SectorCount * SectorSize},
	}
	return ctx, root
}

func mustWrite(t *testing.T, ctx context.Context, dev *blockdev.MemDevice, p []byte, off int64) {
	t.Helper()
	if err := dev.WriteAt(ctx, p, off); err != nil {
		t.Fatalf("WriteAt(%d): %v", off, err)
	}
}

// TestWalkPathReadDataAllS4 is spec §8 scenario S4.
func TestWalkPathReadDataAllS4(t *testing.T) {
	ctx, root := buildFixtureVolume(t)

	ent, err := root.WalkPath(ctx, "/dir/sub/file")
	if err != nil {
		t.Fatalf("WalkPath: %v", err)
	}
	data, err := root.ReadDataAll(ctx, ent)
	if err != nil {
		t.Fatalf("ReadDataAll: %v", err)
	}
	if len(data) != 4096 {
		t.Fatalf("got %d bytes, want 4096", len(data))
	}
	for i, b := range data {
		if b != 0xAA {
			t.Fatalf("byte %d = %#x, want 0xAA", i, b)
		}
	}
}

func TestWalkPathNotFound(t *testing.T) {
	ctx, root := buildFixtureVolume(t)
	if _, err := root.WalkPath(ctx, "/dir/nope"); err != xdvdfserr.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWalkPathThroughFile(t *testing.T) {
	ctx, root := buildFixtureVolume(t)
	// "dir/sub/file" is a file; descending further through it must fail.
	if _, err := root.WalkPath(ctx, "/dir/sub/file/nope"); err != xdvdfserr.ErrNotADirectory {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

func TestWalkPathEmptyIsRoot(t *testing.T) {
	ctx, root := buildFixtureVolume(t)
	ent, err := root.WalkPath(ctx, "/")
	if err != nil {
		t.Fatalf("WalkPath(\"/\"): %v", err)
	}
	if !ent.IsDirectory() {
		t.Fatal("root synthetic entry should report as a directory")
	}
}

func TestEnumerateRootAndSubdirs(t *testing.T) {
	ctx, root := buildFixtureVolume(t)

	it := root.Enumerate(ctx)
	ent, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if ent.Name != "dir" || !ent.IsDirectory() {
		t.Fatalf("unexpected root entry: %+v", ent)
	}
	_, ok, err = it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ok {
		t.Fatal("expected exactly one root entry")
	}

	dirTable := root.SubTable(ent)
	it2 := dirTable.Enumerate(ctx)
	sub, ok, err := it2.Next()
	if err != nil || !ok || sub.Name != "sub" {
		t.Fatalf("unexpected dir entry: ok=%v err=%v ent=%+v", ok, err, sub)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	ctx, root := buildFixtureVolume(t)
	ent, err := root.Lookup(ctx, "DIR")
	if err != nil {
		t.Fatalf("Lookup(\"DIR\"): %v", err)
	}
	if ent.Name != "dir" {
		t.Fatalf("got %q, want \"dir\"", ent.Name)
	}
}

func TestLookupEmptyTable(t *testing.T) {
	empty := DirectoryTable{ref: RootTableRef{Sector: 0, SizeBytes: 0}}
	if _, err := empty.Lookup(context.Background(), "anything"); err != xdvdfserr.ErrNotFound {
		t.Fatalf("expected ErrNotFound on empty table, got %v", err)
	}
}
