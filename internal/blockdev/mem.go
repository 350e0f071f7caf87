package blockdev

import (
	"context"

	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// MemDevice is an in-memory block device backed by a growable byte
// slice. It is used throughout this module's test suite for byte-exact
// assertions without touching disk.
type MemDevice struct {
	buf []byte
}

// NewMemDevice wraps an existing buffer (not copied).
func NewMemDevice(buf []byte) *MemDevice { return &MemDevice{buf: buf} }

// Bytes returns the underlying buffer.
func (d *MemDevice) Bytes() []byte { return d.buf }

func (d *MemDevice) ReadAt(ctx context.Context, p []byte, offBytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if offBytes < 0 || offBytes > int64(len(d.buf)) {
		return xdvdfserr.ErrEndOfDevice
	}
	n := copy(p, d.buf[offBytes:])
	return checkFullRead(n, len(p))
}

func (d *MemDevice) WriteAt(ctx context.Context, p []byte, offBytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	end := offBytes + int64(len(p))
	if end > int64(len(d.buf)) {
		grown := make([]byte, end)
		copy(grown, d.buf)
		d.buf = grown
	}
	copy(d.buf[offBytes:end], p)
	return nil
}

func (d *MemDevice) SizeBytes() (int64, error) { return int64(len(d.buf)), nil }
