// Package xdvdfserr defines the stable error taxonomy XDVDFS operations
// report at their boundary (spec §7). Every kind is either a sentinel
// checked with errors.Is, or a struct checked with errors.As; wrapping
// throughout the core uses github.com/pkg/errors so a failure deep in a
// directory walk keeps the path/offset context that produced it.
package xdvdfserr

import "github.com/pkg/errors"

// Sentinel errors for conditions that carry no extra data.
var (
	ErrNoValidVolume  = errors.New("no valid XDVDFS volume signature found")
	ErrNotFound       = errors.New("name not found")
	ErrNotADirectory  = errors.New("not a directory")
	ErrIsADirectory   = errors.New("is a directory")
	ErrNameTooLong    = errors.New("name exceeds 255 bytes")
	ErrTooManySectors = errors.New("image exceeds 2^32-1 sectors")
	ErrEndOfDevice    = errors.New("read past end of block device")
)

// CorruptError reports a decoded record violating an on-disk invariant:
// bad offsets, a truncated record, unsorted children, or an invalid
// Windows-1252 byte sequence.
type CorruptError struct {
	Detail string
}

func (e *CorruptError) Error() string { return "corrupt xdvdfs structure: " + e.Detail }

// NewCorrupt builds a CorruptError with a formatted detail message.
func NewCorrupt(format string, args ...interface{}) error {
	return &CorruptError{Detail: errors.Errorf(format, args...).Error()}
}

// DuplicateNameError reports two entries in the same directory whose
// names compare equal under XDVDFS case folding.
type DuplicateNameError struct {
	Dir  string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return "duplicate name " + e.Name + " in directory " + e.Dir
}

// CollidingMappingError reports two host files whose path-rewrite
// templates render to the same image path.
type CollidingMappingError struct {
	ImagePath string
}

func (e *CollidingMappingError) Error() string {
	return "colliding image path mapping: " + e.ImagePath
}

// UnsupportedError reports an operation the current capability set
// cannot perform, e.g. a write through a read-only device.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string { return "unsupported: " + e.Feature }

// IOError wraps a lower-level read/write failure, preserving the
// device's own error kind alongside a human-readable label.
type IOError struct {
	Kind string
	Err  error
}

func (e *IOError) Error() string { return "io error (" + e.Kind + "): " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

// Errorf builds a new error with a formatted message, without wrapping
// any underlying cause.
func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Wrap annotates err with a message, preserving errors.Is/As chains.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
