//go:build windows

package jsonfile

import "golang.org/x/sys/windows"

// osReplace moves tmpPath over dest, replacing it and flushing before return.
func osReplace(tmpPath, dest string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}

// syncDir is a no-op; Windows has no directory fsync.
func syncDir(string) error { return nil }
