package xdvdfs

import "time"

// filetimeEpoch is 1601-01-01 00:00:00 UTC, the Windows FILETIME epoch,
// expressed as a Go time for conversion purposes.
var filetimeEpoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

// FileTime is a Windows FILETIME: 100-nanosecond ticks since the
// FILETIME epoch, stored on disk as a little-endian u64.
type FileTime uint64

// ToFileTime converts a time.Time to a FileTime. Sub-100ns precision is
// truncated, not rounded.
func ToFileTime(t time.Time) FileTime {
	secs := t.Unix() - filetimeEpoch.Unix()
	return FileTime(secs*ticksPerSecond + int64(t.Nanosecond())/100)
}

// Time converts a FileTime back to a time.Time in UTC.
func (f FileTime) Time() time.Time {
	ticks := uint64(f)
	secs := int64(ticks / ticksPerSecond)
	nsec := int64(ticks%ticksPerSecond) * 100
	return time.Unix(filetimeEpoch.Unix()+secs, nsec).UTC()
}

// ticksPerSecond is the number of 100ns FILETIME ticks in one second.
const ticksPerSecond = 10_000_000
