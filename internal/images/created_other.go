//go:build !linux

package images

import (
	"os"
	"time"
)

func createdTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
