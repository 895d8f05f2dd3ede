//go:build !windows

package jsonfile

import "os"

// osReplace renames tmpPath over dest; atomic on POSIX file systems.
func osReplace(tmpPath, dest string) error {
	return os.Rename(tmpPath, dest)
}

// syncDir fsyncs the directory so the rename survives a crash.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
