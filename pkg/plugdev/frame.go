package plugdev

import (
	"sync"

	"github.com/iseio/iseio-go/pkg/plugproto"
	"github.com/iseio/iseio-go/pkg/shm"
)

type frameSlot struct {
	mu  sync.Mutex
	mem []byte
}

// replace maps size bytes of the backing file at path in place of the
// current mapping. On failure the slot is left empty.
func (f *frameSlot) replace(path string, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	shm.Unmap(f.mem)
	f.mem = nil

	mem, err := shm.Open(path, size)
	if err != nil {
		return err
	}
	f.mem = mem
	return nil
}

func (f *frameSlot) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	shm.Unmap(f.mem)
	f.mem = nil
}

// FrameLock is exclusive access to one frame.
type FrameLock struct {
	ID int

	// Mem is the shared mapping, nil when the host has not made the frame.
	Mem []byte

	slot *frameSlot
}

// LockFrame locks frame id. Hold the lock briefly and never across a
// blocking channel operation: the host may be waiting on the same frame.
func (p *Process) LockFrame(id int) (*FrameLock, error) {
	if id < 0 || id >= plugproto.MaxFrames {
		return nil, ErrRange
	}
	slot := &p.frames[id]
	slot.mu.Lock()
	return &FrameLock{ID: id, Mem: slot.mem, slot: slot}, nil
}

// Unlock releases the frame.
func (l *FrameLock) Unlock() {
	l.Mem = nil
	l.slot.mu.Unlock()
}
