package blockdev

import (
	"context"
	"os"

	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// FileDevice is a block device backed by an *os.File, used by the
// top-level Pack/Unpack entry points when the caller works directly
// against a path on disk rather than an in-memory buffer.
type FileDevice struct {
	f *os.File
}

// NewFileDevice wraps an already-open file. The caller owns closing it.
func NewFileDevice(f *os.File) *FileDevice {
	return &FileDevice{f: f}
}

// OpenFileDevice opens path read-only and wraps it.
func OpenFileDevice(path string) (*FileDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xdvdfserr.Wrapf(err, "open %s", path)
	}
	return &FileDevice{f: f}, nil
}

// CreateFileDevice creates (or truncates) path and wraps it for writing.
func CreateFileDevice(path string) (*FileDevice, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, xdvdfserr.Wrapf(err, "create %s", path)
	}
	return &FileDevice{f: f}, nil
}

// Close closes the underlying file.
func (d *FileDevice) Close() error { return d.f.Close() }

func (d *FileDevice) ReadAt(ctx context.Context, p []byte, offBytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := d.f.ReadAt(p, offBytes)
	if err != nil {
		if checkErr := checkFullRead(n, len(p)); checkErr != nil {
			return checkErr
		}
		return &xdvdfserr.IOError{Kind: "read", Err: err}
	}
	return checkFullRead(n, len(p))
}

func (d *FileDevice) WriteAt(ctx context.Context, p []byte, offBytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := d.f.WriteAt(p, offBytes)
	if err != nil {
		return &xdvdfserr.IOError{Kind: "write", Err: err}
	}
	if n != len(p) {
		return &xdvdfserr.IOError{Kind: "write", Err: xdvdfserr.Errorf("short write: %d of %d bytes", n, len(p))}
	}
	return nil
}

func (d *FileDevice) SizeBytes() (int64, error) {
	info, err := d.f.Stat()
	if err != nil {
		return 0, xdvdfserr.Wrap(err, "stat")
	}
	return info.Size(), nil
}
