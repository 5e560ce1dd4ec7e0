package images

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// createdTime returns the earlier of the birth and modification times. Birth
// time comes from statx and is skipped when the filesystem does not report it.
func createdTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	modified := info.ModTime()

	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return modified, nil
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return modified, nil
	}
	born := time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	if born.Before(modified) {
		return born, nil
	}
	return modified, nil
}
