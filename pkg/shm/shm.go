// Package shm maps file-backed shared-memory regions.
//
// A region is created by one side (Create), named to the other side by path,
// opened there (Open), and may be unlinked once both sides hold a mapping;
// the mapping stays valid after the name is removed.
package shm

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrSize is returned for a non-positive region size.
var ErrSize = errors.New("shm: size must be positive")

// Create makes (or truncates) the backing file at path, sizes it and maps it
// shared read/write.
func Create(path string, size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("shm: size %s: %w", path, err)
	}
	return mapFile(f, size)
}

// Open maps size bytes of an existing backing file shared read/write.
func Open(path string, size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrSize
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	defer f.Close()
	return mapFile(f, size)
}

func mapFile(f *os.File, size int) ([]byte, error) {
	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: map %s: %w", f.Name(), err)
	}
	return mem, nil
}

// Unmap releases a mapping returned by Create or Open. A nil mapping is a no-op.
func Unmap(mem []byte) error {
	if mem == nil {
		return nil
	}
	return unix.Munmap(mem)
}
