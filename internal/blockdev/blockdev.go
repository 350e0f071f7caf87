// Package blockdev provides the uniform sector-granular read/write
// surface the XDVDFS reader and packer consume (spec §4.A). It is a
// capability set, not one interface: callers type-assert for Writer or
// Sizer when they need to write or probe length, mirroring the
// "tagged variant per backend" design noted in spec §9.
package blockdev

import (
	"context"

	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// Reader reads len(p) bytes at offBytes. A short read before reaching
// the end of p without filling it returns xdvdfserr.ErrEndOfDevice.
type Reader interface {
	ReadAt(ctx context.Context, p []byte, offBytes int64) error
}

// Writer writes all of p at offBytes.
type Writer interface {
	WriteAt(ctx context.Context, p []byte, offBytes int64) error
}

// Sizer optionally reports a device's total length. The reader's image
// layout probe uses it when available but does not require it.
type Sizer interface {
	SizeBytes() (int64, error)
}

// Device is a read-only block device.
type Device interface {
	Reader
}

// ReadWriter is a block device open for both reading and writing.
type ReadWriter interface {
	Reader
	Writer
}

// checkFullRead is a helper backends use to turn a short io.ReaderAt
// read into the taxonomy's EndOfDevice error.
func checkFullRead(n, want int) error {
	if n < want {
		return xdvdfserr.ErrEndOfDevice
	}
	return nil
}
