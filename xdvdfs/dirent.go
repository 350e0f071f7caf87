package xdvdfs

import (
	"encoding/binary"

	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
	"golang.org/x/text/encoding/charmap"
)

// Dirent is one on-disk directory entry record (spec §3). LeftOffset
// and RightOffset are in 4-byte units relative to the start of the
// 2048-byte page the entry itself lives in (never a different page —
// see BuildDirectoryTable's per-page run packing); zero means no
// child, endOfPageSentinel means "end of this page".
type Dirent struct {
	LeftOffset  uint16
	RightOffset uint16
	DataSector  uint32
	DataSize    uint32
	Attributes  byte
	Name        string // original case, decoded from Windows-1252
}

// IsDirectory reports whether the entry's attribute bitfield has the
// directory bit set.
func (d Dirent) IsDirectory() bool { return d.Attributes&AttrDirectory != 0 }

// hasLeftChild/hasRightChild report whether the corresponding subtree
// offset refers to a real entry (not absent, not the end-of-page
// sentinel).
func (d Dirent) hasLeftChild() bool  { return d.LeftOffset != 0 && d.LeftOffset != endOfPageSentinel }
func (d Dirent) hasRightChild() bool { return d.RightOffset != 0 && d.RightOffset != endOfPageSentinel }

// direntOnDiskLen returns the total aligned byte length a dirent with
// the given name occupies on disk.
func direntOnDiskLen(nameLen int) int {
	total := direntFixedPartSize + nameLen
	if rem := total % direntAlignment; rem != 0 {
		total += direntAlignment - rem
	}
	return total
}

// encodeWindows1252 encodes a Go string (assumed to already be a valid
// Windows-1252 code-point sequence, one rune per byte) to its raw
// Windows-1252 byte form.
func encodeWindows1252(s string) ([]byte, error) {
	out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, xdvdfserr.Wrapf(err, "encoding %q as windows-1252", s)
	}
	return out, nil
}

// decodeWindows1252 decodes raw Windows-1252 bytes into a Go string.
func decodeWindows1252(b []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", xdvdfserr.Wrapf(err, "decoding windows-1252 filename bytes")
	}
	return string(out), nil
}

// MarshalBinary encodes d to its on-disk form, zero-padded to a 4-byte
// boundary.
func (d Dirent) MarshalBinary() ([]byte, error) {
	nameBytes, err := encodeWindows1252(d.Name)
	if err != nil {
		return nil, err
	}
	if len(nameBytes) == 0 || len(nameBytes) > 255 {
		return nil, xdvdfserr.ErrNameTooLong
	}

	total := direntOnDiskLen(len(nameBytes))
	buf := make([]byte, total)
	binary.LittleEndian.PutUint16(buf[0:2], d.LeftOffset)
	binary.LittleEndian.PutUint16(buf[2:4], d.RightOffset)
	binary.LittleEndian.PutUint32(buf[4:8], d.DataSector)
	binary.LittleEndian.PutUint32(buf[8:12], d.DataSize)
	buf[12] = d.Attributes
	buf[13] = byte(len(nameBytes))
	copy(buf[14:14+len(nameBytes)], nameBytes)
	// remaining bytes (alignment padding) are left zero by make().
	return buf, nil
}

// UnmarshalDirent decodes one dirent starting at offset within buf. It
// returns the decoded entry and the total aligned byte length it
// occupied, so callers can advance to the next record. A left-offset
// value of endOfPageSentinel is returned verbatim (callers check for
// it) rather than treated as an error.
func UnmarshalDirent(buf []byte, offset int) (Dirent, int, error) {
	if offset+direntFixedPartSize > len(buf) {
		return Dirent{}, 0, xdvdfserr.NewCorrupt("dirent header truncated at offset %d", offset)
	}
	rec := buf[offset:]
	left := binary.LittleEndian.Uint16(rec[0:2])
	if left == endOfPageSentinel {
		return Dirent{LeftOffset: left}, 0, nil
	}
	right := binary.LittleEndian.Uint16(rec[2:4])
	sector := binary.LittleEndian.Uint32(rec[4:8])
	size := binary.LittleEndian.Uint32(rec[8:12])
	attrs := rec[12]
	nameLen := int(rec[13])
	if nameLen == 0 {
		return Dirent{}, 0, xdvdfserr.NewCorrupt("dirent at offset %d has zero-length name", offset)
	}
	total := direntOnDiskLen(nameLen)
	if offset+total > len(buf) {
		return Dirent{}, 0, xdvdfserr.NewCorrupt("dirent at offset %d overruns page (name len %d)", offset, nameLen)
	}
	name, err := decodeWindows1252(rec[14 : 14+nameLen])
	if err != nil {
		return Dirent{}, 0, err
	}
	return Dirent{
		LeftOffset:  left,
		RightOffset: right,
		DataSector:  sector,
		DataSize:    size,
		Attributes:  attrs,
		Name:        name,
	}, total, nil
}
