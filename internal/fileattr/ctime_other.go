//go:build !windows && !linux && !darwin

package fileattr

import (
	"os"
	"time"
)

func creationTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
