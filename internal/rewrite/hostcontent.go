package rewrite

import (
	"context"

	"github.com/xdvdfs-go/xdvdfs/internal/blockdev"
)

// hostFileContent is a vtree.FileContent backed by an open host file.
// It also implements io.Closer so a packer run can release every
// handle it opened once the image has been written (or on error).
type hostFileContent struct {
	dev  *blockdev.FileDevice
	size uint32
}

// NewHostFileContent opens path and wraps it as file content of the
// given size (as already observed by Engine.Apply's stat call).
func NewHostFileContent(path string, size uint32) (*hostFileContent, error) {
	dev, err := blockdev.OpenFileDevice(path)
	if err != nil {
		return nil, err
	}
	return &hostFileContent{dev: dev, size: size}, nil
}

func (c *hostFileContent) Size() uint32 { return c.size }

func (c *hostFileContent) ReadAt(ctx context.Context, p []byte, off int64) error {
	return c.dev.ReadAt(ctx, p, off)
}

func (c *hostFileContent) Close() error { return c.dev.Close() }
