// Package xdvdfs (root) is a thin, library-only convenience layer over
// the pack/unpack pipeline (spec §4.G) for callers who don't need to
// assemble the rewrite engine, planner, and copier by hand. CLI
// argument parsing is explicitly out of scope (spec §1, §6) — this is
// a set of plain functions, not a command.
package xdvdfs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/xdvdfs-go/xdvdfs/internal/blockdev"
	"github.com/xdvdfs-go/xdvdfs/internal/imagespec"
	"github.com/xdvdfs-go/xdvdfs/internal/packer"
	"github.com/xdvdfs-go/xdvdfs/internal/rewrite"
	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
	core "github.com/xdvdfs-go/xdvdfs/xdvdfs"
)

// PackOptions configures a one-shot Pack call.
type PackOptions struct {
	// Rules is evaluated in order by the path-rewrite engine (spec
	// §4.H). Nil or empty matches nothing ("if no rule matches, drop
	// the file"); callers that want every host file included
	// unchanged must pass an explicit catch-all rule such as
	// rewrite.IncludeRule{HostGlob: "**", ImageTemplate: "/{0}"}.
	Rules []rewrite.Rule
	// CreationTime is stamped into the produced volume descriptor.
	// Callers that need byte-exact reproducibility (spec §8 property
	// 3) must supply a fixed value rather than time.Now().
	CreationTime time.Time
	// Progress, if non-nil, receives pack pipeline events.
	Progress packer.ProgressSink
}

// Pack builds an XDVDFS image from the host directory tree rooted at
// hostRoot and writes it to outputPath.
func Pack(ctx context.Context, hostRoot, outputPath string, opts PackOptions) error {
	engine, err := rewrite.New(opts.Rules)
	if err != nil {
		return err
	}
	sink, err := blockdev.CreateFileDevice(outputPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	src := packer.HostSource{Root: hostRoot, Engine: engine}
	return packer.Copy(ctx, src, sink, packer.Options{CreationTime: opts.CreationTime}, opts.Progress)
}

// PackFromSpec runs Pack using an already-parsed image specification's
// rules and output path (spec §4.I), resolving the host root per
// imagespec.ResolveBaseDir's CLI-source/spec-dir/cwd priority.
func PackFromSpec(ctx context.Context, spec *imagespec.Spec, cliSource, specFilePath string, creationTime time.Time, progress packer.ProgressSink) error {
	base, err := imagespec.ResolveBaseDir(cliSource, specFilePath)
	if err != nil {
		return err
	}
	return Pack(ctx, base, spec.Output, PackOptions{
		Rules:        imagespec.ToRules(spec),
		CreationTime: creationTime,
		Progress:     progress,
	})
}

// Unpack opens the XDVDFS image at imagePath and extracts every entry
// as a real file under destRoot, recreating the directory structure.
// This is the literal "unpack" half of spec §8 property 1
// (unpack(pack(T)) == T).
func Unpack(ctx context.Context, imagePath, destRoot string) error {
	dev, err := blockdev.OpenFileDevice(imagePath)
	if err != nil {
		return err
	}
	defer dev.Close()

	vol, err := core.OpenVolume(ctx, dev)
	if err != nil {
		return err
	}
	return unpackDir(ctx, vol.RootTable(), destRoot)
}

func unpackDir(ctx context.Context, table core.DirectoryTable, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return xdvdfserr.Wrap(err, "mkdir "+destDir)
	}
	it := table.Enumerate(ctx)
	for {
		ent, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		childPath := filepath.Join(destDir, ent.Name)
		if ent.IsDirectory() {
			if err := unpackDir(ctx, table.SubTable(ent), childPath); err != nil {
				return err
			}
			continue
		}
		data, err := table.ReadDataAll(ctx, ent)
		if err != nil {
			return err
		}
		if err := os.WriteFile(childPath, data, 0o644); err != nil {
			return xdvdfserr.Wrap(err, "write "+childPath)
		}
	}
}

// Repack reads an existing XDVDFS image and writes it back out without
// ever going through a host directory, so every dirent attribute and
// byte range survives verbatim (spec §4.G "never re-decode file
// bytes"; spec §8 property 2, pack(unpack(I)) == I). Unlike Pack then
// Unpack through a host filesystem, this never loses the directory
// attribute bits a host filesystem has no slot for.
func Repack(ctx context.Context, srcImagePath, dstImagePath string, creationTime time.Time) error {
	src, err := blockdev.OpenFileDevice(srcImagePath)
	if err != nil {
		return err
	}
	defer src.Close()

	vol, err := core.OpenVolume(ctx, src)
	if err != nil {
		return err
	}

	sink, err := blockdev.CreateFileDevice(dstImagePath)
	if err != nil {
		return err
	}
	defer sink.Close()

	return packer.Copy(ctx, packer.ImageSource{Volume: vol}, sink, packer.Options{CreationTime: creationTime}, nil)
}
