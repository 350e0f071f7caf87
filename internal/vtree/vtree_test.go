package vtree

import (
	"context"
	"testing"
)

type fakeContent struct{ size uint32 }

func (f fakeContent) Size() uint32                                        { return f.size }
func (f fakeContent) ReadAt(ctx context.Context, p []byte, off int64) error { return nil }

func TestEnsureDirReturnsExistingChild(t *testing.T) {
	root := NewDir("")
	a := root.EnsureDir("dir")
	a.AddChild(NewFile("x.txt", 0, fakeContent{size: 1}))

	b := root.EnsureDir("dir")
	if a != b {
		t.Fatal("EnsureDir should return the same node on a repeat call")
	}
	if len(root.Children) != 1 {
		t.Fatalf("got %d children, want 1 (no duplicate directory node)", len(root.Children))
	}
	if len(b.Children) != 1 {
		t.Fatalf("expected the existing child's file to survive, got %d children", len(b.Children))
	}
}

func TestEnsureDirDoesNotMatchFileOfSameName(t *testing.T) {
	root := NewDir("")
	root.AddChild(NewFile("dir", 0, fakeContent{size: 1}))

	dir := root.EnsureDir("dir")
	if !dir.IsDir {
		t.Fatal("EnsureDir must return a directory node")
	}
	if len(root.Children) != 2 {
		t.Fatalf("got %d children, want 2 (file and newly created directory coexist by name)", len(root.Children))
	}
}

func TestNewDirAndNewFile(t *testing.T) {
	d := NewDir("sub")
	if !d.IsDir || d.Name != "sub" {
		t.Fatalf("got %+v", d)
	}
	f := NewFile("a.bin", AttrBitForTest, fakeContent{size: 42})
	if f.IsDir {
		t.Fatal("NewFile should not produce a directory node")
	}
	if f.Content.Size() != 42 {
		t.Fatalf("got size %d, want 42", f.Content.Size())
	}
}

const AttrBitForTest = 1 << 5
