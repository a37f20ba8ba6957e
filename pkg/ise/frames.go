package ise

import (
	"errors"
	"fmt"
	"sync"
)

// FrameBackend is the part of a Backend a FrameTable needs.
type FrameBackend interface {
	MakeFrame(id uint8, size int) ([]byte, error)
	DeleteFrame(id uint8, mem []byte) error
}

// FrameTable holds a session's frame mappings.
type FrameTable struct {
	mu      sync.Mutex
	backend FrameBackend
	slots   [MaxFrames][]byte
}

// NewFrameTable creates an empty table delegating to backend.
func NewFrameTable(backend FrameBackend) *FrameTable {
	return &FrameTable{backend: backend}
}

func checkFrameID(id uint8) error {
	if int(id) >= MaxFrames {
		return fmt.Errorf("%w: frame id %d out of range [0,%d)", ErrGeneric, id, MaxFrames)
	}
	return nil
}

// GetOrCreate returns frame id, creating it with at least minSize bytes when
// the slot is empty. An existing mapping is returned as is; minSize only
// applies on creation.
func (t *FrameTable) GetOrCreate(id uint8, minSize int) ([]byte, bool, error) {
	if err := checkFrameID(id); err != nil {
		return nil, false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if mem := t.slots[id]; mem != nil {
		return mem, false, nil
	}
	if minSize <= 0 {
		return nil, false, fmt.Errorf("%w: frame size %d", ErrGeneric, minSize)
	}

	mem, err := t.backend.MakeFrame(id, minSize)
	if err != nil {
		return nil, false, err
	}
	if len(mem) == 0 {
		return nil, false, fmt.Errorf("%w: backend returned empty frame %d", ErrGeneric, id)
	}
	t.slots[id] = mem
	return mem, true, nil
}

// Get returns the mapping of frame id, or nil when the slot is empty.
func (t *FrameTable) Get(id uint8) []byte {
	if checkFrameID(id) != nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots[id]
}

// Delete releases frame id. Deleting an empty slot is a no-op.
func (t *FrameTable) Delete(id uint8) (bool, error) {
	if err := checkFrameID(id); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	mem := t.slots[id]
	if mem == nil {
		return false, nil
	}
	t.slots[id] = nil
	return true, t.backend.DeleteFrame(id, mem)
}

// DeleteAll releases every occupied slot, continuing past failures.
func (t *FrameTable) DeleteAll() ([]uint8, error) {
	var deleted []uint8
	var errs []error
	for id := uint8(0); id < MaxFrames; id++ {
		ok, err := t.Delete(id)
		if ok {
			deleted = append(deleted, id)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", id, err))
		}
	}
	return deleted, errors.Join(errs...)
}
