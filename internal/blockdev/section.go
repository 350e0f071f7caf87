package blockdev

import (
	"context"

	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// SectionDevice is a view over another Device shifted by a fixed byte
// offset. The volume reader uses one to turn "sector_to_offset(sector)
// = (base + sector) * SectorSize" (spec §4.C.3) into a zero-arithmetic
// wrapper at every call site, and the packer's copier uses one to read
// file payload straight off a source image's own base offset without
// re-decoding it (spec §4.G).
type SectionDevice struct {
	inner     Device
	baseBytes int64
}

// NewSectionDevice returns a Device whose offset 0 corresponds to
// baseBytes in inner.
func NewSectionDevice(inner Device, baseBytes int64) *SectionDevice {
	return &SectionDevice{inner: inner, baseBytes: baseBytes}
}

func (d *SectionDevice) ReadAt(ctx context.Context, p []byte, offBytes int64) error {
	return d.inner.ReadAt(ctx, p, d.baseBytes+offBytes)
}

// WriteAt writes through to the wrapped device if it supports writes,
// failing with an UnsupportedError (spec §7) otherwise — a read-only
// inner device is valid, expected input, not a corrupt state.
func (d *SectionDevice) WriteAt(ctx context.Context, p []byte, offBytes int64) error {
	w, ok := d.inner.(Writer)
	if !ok {
		return &xdvdfserr.UnsupportedError{Feature: "write"}
	}
	return w.WriteAt(ctx, p, d.baseBytes+offBytes)
}

// BaseBytes returns the section's starting offset within its inner
// device.
func (d *SectionDevice) BaseBytes() int64 { return d.baseBytes }
