package ise

import (
	"fmt"
	"os"
	"path/filepath"
)

// FirmwareExt is the extension of firmware images.
const FirmwareExt = ".scof"

// FirmwarePaths returns the candidate locations of firmware name, in search
// order: the working directory, then the install root.
func FirmwarePaths(name, workDir, installRoot string) []string {
	file := name + FirmwareExt
	return []string{
		filepath.Join(workDir, file),
		filepath.Join(installRoot, file),
	}
}

// LocateFirmware returns the first existing candidate of FirmwarePaths, or
// ErrFirmwareMissing.
func LocateFirmware(name, workDir, installRoot string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty firmware name", ErrFirmwareMissing)
	}
	for _, p := range FirmwarePaths(name, workDir, installRoot) {
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s%s", ErrFirmwareMissing, name, FirmwareExt)
}
