//go:build windows

package session

import "os"

// Session writes are not locked on Windows. Concurrent writers fall back to
// last-rename-wins.
func flockExclusive(_ *os.File) error {
	return nil
}

func flockShared(_ *os.File) error {
	return nil
}

func flockUnlock(_ *os.File) error {
	return nil
}
