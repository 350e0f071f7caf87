// Package xdvdfs implements the binary layout, directory-tree algorithms,
// and volume discovery for the XDVDFS (Xbox DVD File System / XISO)
// on-disk format.
package xdvdfs

// FirstContentSector is the first sector a packer may allocate to a
// directory table or a file; sectors below it are reserved for the
// volume descriptor.
const FirstContentSector = firstContentSector

// VolumeDescriptorSector is the sector, relative to an image layout's
// base offset, at which the volume descriptor is written and read.
const VolumeDescriptorSector = volumeDescriptorSector

const (
	// SectorSize is the fixed logical sector size of every XDVDFS image.
	SectorSize = 2048

	// volumeDescriptorSector is the sector, relative to an image layout's
	// base offset, at which the volume descriptor is located.
	volumeDescriptorSector = 32

	// volumeMagic is the 20-byte ASCII signature that opens and closes
	// the volume descriptor.
	volumeMagic = "MICROSOFT*XBOX*MEDIA"

	// firstContentSector is the first sector a packer may allocate to a
	// directory table or a file; sectors below it are reserved for the
	// volume descriptor.
	firstContentSector = 33

	// dirent field sizes, in bytes (4-byte alignment applies to the whole
	// record, not to these individual fields).
	direntFixedPartSize = 14 // left(2) + right(2) + sector(4) + size(4) + attrs(1) + namelen(1)
	direntAlignment     = 4

	// endOfPageSentinel terminates the in-order walk of a directory page.
	endOfPageSentinel = 0xFFFF

	// padFillByte fills unused trailing bytes in a directory table's final
	// sector; zero-offset fields use 0x00, but raw trailing padding bytes
	// use 0xFF per spec.
	padFillByte = 0xFF
)

// Attribute bits for a Dirent's Attributes field.
const (
	AttrReadOnly   byte = 1 << 0
	AttrHidden     byte = 1 << 1
	AttrSystem     byte = 1 << 2
	AttrVolumeID   byte = 1 << 3
	AttrDirectory  byte = 1 << 4
	AttrArchive    byte = 1 << 5
)

// imageLayout describes one of the four known base-offset conventions
// the reader must probe, in the order spec.md requires.
type imageLayout struct {
	name       string
	baseSector uint32
}

// knownLayouts lists every image layout the reader probes, first match
// wins. Base sector offsets are quoted directly from the original
// xdvdfs tooling: XGD1's 0x18300000-byte offset divided by SectorSize,
// and the XGD2/XGD3 constants used unmodified.
var knownLayouts = []imageLayout{
	{name: "XISO", baseSector: 0},
	{name: "XGD1", baseSector: 0x18300000 / SectorSize},
	{name: "XGD2", baseSector: 265728},
	{name: "XGD3", baseSector: 1783936},
}
