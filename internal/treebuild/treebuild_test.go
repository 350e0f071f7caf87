package treebuild

import (
	"context"
	"testing"

	"github.com/xdvdfs-go/xdvdfs/internal/vtree"
	"github.com/xdvdfs-go/xdvdfs/xdvdfs"
)

type fakeContent struct {
	size uint32
}

func (f fakeContent) Size() uint32 { return f.size }
func (f fakeContent) ReadAt(ctx context.Context, p []byte, off int64) error {
	for i := range p {
		p[i] = 0
	}
	return nil
}

func TestBuildAllProducesTableForEveryDir(t *testing.T) {
	root := vtree.NewDir("")
	sub := root.EnsureDir("dir")
	sub.AddChild(vtree.NewFile("file.txt", 0, fakeContent{size: 10}))
	root.AddChild(vtree.NewFile("top.txt", 0, fakeContent{size: 5}))

	tables, err := BuildAll(root)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if _, ok := tables[root]; !ok {
		t.Fatal("missing table for root")
	}
	if _, ok := tables[sub]; !ok {
		t.Fatal("missing table for sub")
	}
	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2 (root and one subdirectory)", len(tables))
	}
}

func TestBuildAllPlaceholderDataSectorsAreZero(t *testing.T) {
	root := vtree.NewDir("")
	root.AddChild(vtree.NewFile("a.txt", 0, fakeContent{size: 1}))

	tables, err := BuildAll(root)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	entries, err := xdvdfs.EnumerateBytes(tables[root])
	if err != nil {
		t.Fatalf("EnumerateBytes: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].DataSector != 0 {
		t.Fatalf("expected placeholder data_sector 0, got %d", entries[0].DataSector)
	}
}

func TestBuildAllNestedDirectorySize(t *testing.T) {
	root := vtree.NewDir("")
	sub := root.EnsureDir("sub")
	sub.AddChild(vtree.NewFile("x.bin", 0, fakeContent{size: 100}))

	tables, err := BuildAll(root)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	rootEntries, err := xdvdfs.EnumerateBytes(tables[root])
	if err != nil {
		t.Fatalf("EnumerateBytes(root): %v", err)
	}
	if len(rootEntries) != 1 {
		t.Fatalf("got %d root entries, want 1", len(rootEntries))
	}
	subSizeBytes := tables[sub].SectorCount * xdvdfs.SectorSize
	if rootEntries[0].DataSize != subSizeBytes {
		t.Fatalf("root's subdir entry records size %d, want %d", rootEntries[0].DataSize, subSizeBytes)
	}
	if rootEntries[0].Attributes&xdvdfs.AttrDirectory == 0 {
		t.Fatal("subdirectory entry missing AttrDirectory")
	}
}
