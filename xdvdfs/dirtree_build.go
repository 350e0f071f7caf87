package xdvdfs

import (
	"sort"

	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// BuildEntry is one input record to the directory tree builder: a name
// plus the attributes and content location it should carry on disk.
type BuildEntry struct {
	Name       string
	Attributes byte
	DataSector uint32
	DataSize   uint32
}

// SerializedTable is the serialized form of one directory's table,
// ready to be handed to the planner (for sector assignment) and the
// copier (for emission). It is immutable once built.
type SerializedTable struct {
	Bytes       []byte
	SectorCount uint32
}

// bstNode is one node of a run's binary search tree, built purely by
// midpoint recursion over that run's sorted slice (spec §4.E step 2).
type bstNode struct {
	entry       BuildEntry
	nameBytes   []byte
	left, right *bstNode
}

// BuildDirectoryTable builds a balanced BST from entries under the
// XDVDFS case-folding ordering relation and serializes it into one or
// more 2048-byte pages (spec §4.E). The input need not be pre-sorted;
// BuildDirectoryTable sorts and de-duplicates it, failing with a
// DuplicateNameError on a case-folded collision.
//
// The sorted entries are split into contiguous, page-sized runs (spec
// §4.E step 3, spec §9): each run is built as its own self-contained
// BST (root at page-local offset 0) and written to its own page, runs
// in ascending order. Because every run is a contiguous slice of the
// globally sorted sequence, page index order is rank order, so
// Enumerate's plain page-by-page concatenation (and EnumerateBytes'
// equivalent) yields entries in strictly increasing order even across
// many pages. Lookup still only walks page 0's BST edges, so a name
// outside the first run is reachable only via the linear page scan
// Enumerate performs — this is the resolution recorded for spec §9's
// open question, documented in DESIGN.md.
func BuildDirectoryTable(entries []BuildEntry) (*SerializedTable, error) {
	if len(entries) == 0 {
		return &SerializedTable{}, nil
	}

	nodes := make([]*bstNode, len(entries))
	for i, e := range entries {
		nb, err := encodeWindows1252(e.Name)
		if err != nil {
			return nil, err
		}
		if len(nb) == 0 || len(nb) > 255 {
			return nil, xdvdfserr.ErrNameTooLong
		}
		nodes[i] = &bstNode{entry: e, nameBytes: nb}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return compareFolded(nodes[i].nameBytes, nodes[j].nameBytes) < 0
	})
	for i := 1; i < len(nodes); i++ {
		if equalFolded(nodes[i-1].nameBytes, nodes[i].nameBytes) {
			return nil, &xdvdfserr.DuplicateNameError{Name: nodes[i].entry.Name}
		}
	}

	b := &tableBuilder{}
	for start := 0; start < len(nodes); {
		end := runEnd(nodes, start)
		run := nodes[start:end]
		root := buildMidpoint(run)
		b.placeOnFreshPage(root)
		start = end
	}
	b.finalizeCurrentPage()

	out := make([]byte, 0, len(b.pages)*SectorSize)
	for _, p := range b.pages {
		out = append(out, p...)
	}
	return &SerializedTable{Bytes: out, SectorCount: uint32(len(b.pages))}, nil
}

// runEnd returns the exclusive end index of the longest contiguous run
// of nodes, starting at start, whose on-disk entries (plus the
// trailing end-of-page sentinel) fit in one page. It always advances
// by at least one entry: a single dirent (name capped at 255 bytes)
// never exceeds SectorSize on its own, so a run can never be empty.
func runEnd(nodes []*bstNode, start int) int {
	used := 0
	i := start
	for i < len(nodes) {
		sz := direntOnDiskLen(len(nodes[i].nameBytes))
		if i > start && used+sz+2 > SectorSize {
			break
		}
		used += sz
		i++
	}
	return i
}

// buildMidpoint implements the classic midpoint recursion: root is the
// middle element, left/right children are built from the halves on
// either side.
func buildMidpoint(sorted []*bstNode) *bstNode {
	if len(sorted) == 0 {
		return nil
	}
	mid := len(sorted) / 2
	node := sorted[mid]
	node.left = buildMidpoint(sorted[:mid])
	node.right = buildMidpoint(sorted[mid+1:])
	return node
}

// tableBuilder accumulates pages as the placement algorithm runs.
type tableBuilder struct {
	pages  [][]byte
	cur    []byte // the page currently being filled, or nil
	cursor int
}

// placeOnFreshPage starts a new page and lays node's subtree into it
// depth-first. The caller (BuildDirectoryTable) guarantees node's
// whole subtree fits in one page via runEnd's byte accounting, so
// place never needs to split it further.
func (b *tableBuilder) placeOnFreshPage(node *bstNode) {
	b.finalizeCurrentPage()
	b.cur = newBlankPage()
	b.cursor = 0
	b.place(node)
}

// place writes node and its whole subtree into the current page
// depth-first, returning node's byte offset from the start of the
// page. Left/right offsets only ever reference a sibling within the
// same page, so a page-local offset is all Lookup/inOrderPage ever
// need to resolve one against the single page buffer they hold.
func (b *tableBuilder) place(node *bstNode) int {
	hdrPos := b.cursor
	required := direntOnDiskLen(len(node.nameBytes))
	b.cursor += required

	var leftOff, rightOff uint16
	if node.left != nil {
		childAbs := b.place(node.left)
		leftOff = uint16(childAbs / direntAlignment)
	}
	if node.right != nil {
		childAbs := b.place(node.right)
		rightOff = uint16(childAbs / direntAlignment)
	}

	d := Dirent{
		LeftOffset:  leftOff,
		RightOffset: rightOff,
		DataSector:  node.entry.DataSector,
		DataSize:    node.entry.DataSize,
		Attributes:  node.entry.Attributes,
		Name:        node.entry.Name,
	}
	encoded, _ := d.MarshalBinary() // name/attrs already validated above
	copy(b.cur[hdrPos:hdrPos+len(encoded)], encoded)

	return hdrPos
}

// finalizeCurrentPage writes the end-of-page sentinel (if there is
// room) after the last entry written, then commits the page. The rest
// of the page's bytes are already 0xFF from newBlankPage.
func (b *tableBuilder) finalizeCurrentPage() {
	if b.cur == nil {
		return
	}
	if b.cursor+2 <= SectorSize {
		b.cur[b.cursor] = 0xFF
		b.cur[b.cursor+1] = 0xFF
	}
	b.pages = append(b.pages, b.cur)
	b.cur = nil
	b.cursor = 0
}

func newBlankPage() []byte {
	p := make([]byte, SectorSize)
	for i := range p {
		p[i] = padFillByte
	}
	return p
}
