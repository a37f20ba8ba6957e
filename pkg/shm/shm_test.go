package shm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateOpenShareBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame0")

	a, err := Create(path, 4096)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer Unmap(a)

	b, err := Open(path, 4096)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer Unmap(b)

	if len(a) != 4096 || len(b) != 4096 {
		t.Fatalf("lengths = %d, %d; want 4096", len(a), len(b))
	}

	copy(a, []byte{0xde, 0xad, 0xbe, 0xef})
	if b[0] != 0xde || b[3] != 0xef {
		t.Errorf("b[0:4] = % x, want de ad be ef", b[:4])
	}
}

func TestMappingSurvivesUnlink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame1")

	mem, err := Create(path, 128)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer Unmap(mem)

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	mem[127] = 7
	if mem[127] != 7 {
		t.Error("mapping not writable after unlink")
	}
}

func TestInvalidArguments(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "z"), 0); !errors.Is(err, ErrSize) {
		t.Errorf("Create size 0: err = %v, want ErrSize", err)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing"), 16); err == nil {
		t.Error("Open missing file: expected error")
	}
	if err := Unmap(nil); err != nil {
		t.Errorf("Unmap(nil) = %v", err)
	}
}
