package xdvdfs

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/xdvdfs-go/xdvdfs/internal/blockdev"
	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
	"github.com/xdvdfs-go/xdvdfs/internal/xlog"
)

// RootTableRef locates a directory table: its start sector and byte
// size. An empty directory has Sector == 0 and SizeBytes == 0.
type RootTableRef struct {
	Sector    uint32
	SizeBytes uint32
}

// VolumeDescriptor is the single on-disk record identifying an image
// and pointing at its root directory table (spec §3).
type VolumeDescriptor struct {
	RootTable    RootTableRef
	CreationTime FileTime
}

// MarshalBinary encodes the volume descriptor to one zero-padded
// SectorSize-byte sector.
func (v VolumeDescriptor) MarshalBinary() []byte {
	buf := make([]byte, SectorSize)
	copy(buf[0:20], volumeMagic)
	binary.LittleEndian.PutUint32(buf[20:24], v.RootTable.Sector)
	binary.LittleEndian.PutUint32(buf[24:28], v.RootTable.SizeBytes)
	binary.LittleEndian.PutUint64(buf[28:36], uint64(v.CreationTime))
	copy(buf[36:56], volumeMagic)
	// bytes 56..SectorSize-1 are reserved, left zero.
	return buf
}

// UnmarshalVolumeDescriptor decodes one sector previously produced by
// MarshalBinary, validating both magic strings.
func UnmarshalVolumeDescriptor(sector []byte) (*VolumeDescriptor, error) {
	if len(sector) != SectorSize {
		return nil, xdvdfserr.NewCorrupt("volume descriptor sector has length %d, want %d", len(sector), SectorSize)
	}
	if string(sector[0:20]) != volumeMagic || string(sector[36:56]) != volumeMagic {
		return nil, xdvdfserr.ErrNoValidVolume
	}
	return &VolumeDescriptor{
		RootTable: RootTableRef{
			Sector:    binary.LittleEndian.Uint32(sector[20:24]),
			SizeBytes: binary.LittleEndian.Uint32(sector[24:28]),
		},
		CreationTime: FileTime(binary.LittleEndian.Uint64(sector[28:36])),
	}, nil
}

// Volume is an opened XDVDFS image: the discovered layout's base
// offset, wrapped as a blockdev.SectionDevice so every downstream read
// uses image-relative sector numbers, plus the decoded volume
// descriptor.
type Volume struct {
	dev  *blockdev.SectionDevice
	desc *VolumeDescriptor
}

// OpenVolume probes dev for a volume descriptor at each of the four
// known image layouts in turn (spec §4.C.2), returning the first
// match. It fails with xdvdfserr.ErrNoValidVolume if none match.
func OpenVolume(ctx context.Context, dev blockdev.Device) (*Volume, error) {
	sector := make([]byte, SectorSize)
	for _, layout := range knownLayouts {
		offset := int64(layout.baseSector+volumeDescriptorSector) * SectorSize
		if err := dev.ReadAt(ctx, sector, offset); err != nil {
			continue
		}
		desc, err := UnmarshalVolumeDescriptor(sector)
		if err != nil {
			continue
		}
		xlog.L().Debug("volume descriptor found", "layout", layout.name, "base_sector", layout.baseSector)
		section := blockdev.NewSectionDevice(dev, int64(layout.baseSector)*SectorSize)
		return &Volume{dev: section, desc: desc}, nil
	}
	return nil, xdvdfserr.ErrNoValidVolume
}

// RootTable returns a DirectoryTable for the volume's root directory.
func (v *Volume) RootTable() DirectoryTable {
	return DirectoryTable{dev: v.dev, ref: v.desc.RootTable}
}

// CreationTime returns the image's recorded creation time.
func (v *Volume) CreationTime() time.Time { return v.desc.CreationTime.Time() }

// Device returns the volume's base-relative section device, for
// callers (e.g. the packer's ImageSource) that need to stream raw
// sectors without re-decoding directory structure.
func (v *Volume) Device() *blockdev.SectionDevice { return v.dev }
