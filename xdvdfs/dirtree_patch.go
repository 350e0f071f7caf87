package xdvdfs

import "encoding/binary"

// EnumerateBytes performs the same in-order, all-pages traversal as
// DirectoryTable.Enumerate directly over an in-memory SerializedTable,
// for callers (the planner, the builder pipeline) that need a
// directory's sorted entry list before any sectors have been assigned
// to it and so have no blockdev.Device to read from yet.
func EnumerateBytes(tbl *SerializedTable) ([]Dirent, error) {
	var out []Dirent
	for p := 0; p < int(tbl.SectorCount); p++ {
		page := tbl.Bytes[p*SectorSize : (p+1)*SectorSize]
		entries, err := inOrderPage(page)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// physicalEntry is one dirent as it was physically written, at the
// byte offset within its page where it starts.
type physicalEntry struct {
	pageOffset int
	entry      Dirent
}

// scanPagePhysical decodes every dirent actually present in a page by
// scanning sequentially from offset 0, independent of BST reachability.
// This is safe because the builder always writes a page's entries in
// strictly increasing cursor order (spec §4.E, §9): a subtree is
// placed depth-first, node before its children, so physical layout
// order is a valid decode order even though it is not the in-order
// (sorted) traversal order.
func scanPagePhysical(page []byte) ([]physicalEntry, error) {
	var out []physicalEntry
	offset := 0
	for offset+2 <= len(page) {
		if binary.LittleEndian.Uint16(page[offset:offset+2]) == endOfPageSentinel {
			break
		}
		ent, consumed, err := UnmarshalDirent(page, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, physicalEntry{pageOffset: offset, entry: ent})
		offset += consumed
	}
	return out, nil
}

// PatchDataSectors returns a copy of tbl's bytes with every entry's
// data_sector field rewritten to the value named for it in sectors,
// keyed by entry name. It is the second pass of the two-pass
// size-then-address layout (spec §4.E/§4.F): the builder first emits
// a table's bytes using a placeholder data_sector of 0 for every
// entry so that page packing (which depends only on name lengths) can
// proceed before global sector assignment exists; once the planner has
// assigned real sectors, this patches them in without disturbing the
// BST structure.
func PatchDataSectors(tbl *SerializedTable, sectors map[string]uint32) ([]byte, error) {
	buf := make([]byte, len(tbl.Bytes))
	copy(buf, tbl.Bytes)
	for p := 0; p < int(tbl.SectorCount); p++ {
		page := buf[p*SectorSize : (p+1)*SectorSize]
		entries, err := scanPagePhysical(page)
		if err != nil {
			return nil, err
		}
		for _, pe := range entries {
			sector, ok := sectors[pe.entry.Name]
			if !ok {
				continue
			}
			binary.LittleEndian.PutUint32(page[pe.pageOffset+4:pe.pageOffset+8], sector)
		}
	}
	return buf, nil
}
