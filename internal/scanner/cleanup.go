package scanner

import (
	"os"
	"path/filepath"
	"time"
)

// SweepTemps removes leftover per-file temp artifacts older than maxAge from
// dir. Normal processing deletes its own files; this catches the ones orphaned
// by crashes or kills. Safe to call concurrently with active processing since
// fresh artifacts are always younger than the threshold.
func SweepTemps(dir string, maxAge time.Duration) {
	now := time.Now()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		_ = os.RemoveAll(filepath.Join(dir, e.Name()))
	}
}
