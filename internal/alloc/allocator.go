package alloc

import (
	"fmt"
	"sync"
)

// Allocator manages space allocation within a container file.
type Allocator struct {
	mu sync.Mutex

	// eofAddr is the next allocation point.
	eofAddr uint64

	// baseAddr is the minimum address that can be allocated
	// (right after the superblock).
	baseAddr uint64

	allocations []Allocation
	freed       []Allocation
	stats       Stats
}

// Allocation is a single region handed out by the allocator.
type Allocation struct {
	Addr uint64
	Size uint64
	Tag  string
}

// Stats contains allocation statistics.
type Stats struct {
	TotalAllocations uint64
	TotalBytesAlloc  uint64
	TotalBytesFree   uint64
	LargestAlloc     uint64
}

// New creates an Allocator starting at baseAddr.
func New(baseAddr uint64) *Allocator {
	return &Allocator{
		eofAddr:  baseAddr,
		baseAddr: baseAddr,
	}
}

// Alloc reserves size bytes at the end of file and returns their address.
// The tag names the owner of the region in Allocations and Validate errors.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.allocLocked(size, tag)
}

// AllocAligned is Alloc with the region start rounded up to alignment.
func (a *Allocator) AllocAligned(size, alignment uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if alignment > 1 {
		if rem := a.eofAddr % alignment; rem != 0 {
			a.eofAddr += alignment - rem
		}
	}
	return a.allocLocked(size, tag)
}

func (a *Allocator) allocLocked(size uint64, tag string) uint64 {
	addr := a.eofAddr
	if size == 0 {
		return addr
	}
	a.eofAddr += size

	a.allocations = append(a.allocations, Allocation{Addr: addr, Size: size, Tag: tag})

	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	if size > a.stats.LargestAlloc {
		a.stats.LargestAlloc = size
	}
	return addr
}

// Reserve records an existing region, used when loading a container whose
// datasets were allocated by an earlier writer.
func (a *Allocator) Reserve(addr, size uint64, tag string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.allocations = append(a.allocations, Allocation{Addr: addr, Size: size, Tag: tag})
	if end := addr + size; end > a.eofAddr {
		a.eofAddr = end
	}
}

// Free marks a region as dead space. Freed space is not reused.
func (a *Allocator) Free(addr, size uint64, tag string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.freed = append(a.freed, Allocation{Addr: addr, Size: size, Tag: tag})
	a.stats.TotalBytesFree += size
	if end := addr + size; end > a.eofAddr {
		a.eofAddr = end
	}
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Allocations returns a copy of all live allocations.
func (a *Allocator) Allocations() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make([]Allocation, len(a.allocations))
	copy(result, a.allocations)
	return result
}

// Validate checks that allocations don't overlap and are within bounds.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range a.allocations {
		if r.Addr < a.baseAddr {
			return fmt.Errorf("region %q at 0x%x is before base address 0x%x", r.Tag, r.Addr, a.baseAddr)
		}
		if r.Addr+r.Size > a.eofAddr {
			return fmt.Errorf("region %q at 0x%x size %d extends past EOF 0x%x", r.Tag, r.Addr, r.Size, a.eofAddr)
		}
	}

	for i := 0; i < len(a.allocations); i++ {
		for j := i + 1; j < len(a.allocations); j++ {
			r1, r2 := a.allocations[i], a.allocations[j]
			if r1.Addr < r2.Addr+r2.Size && r2.Addr < r1.Addr+r1.Size {
				return fmt.Errorf("overlapping regions: %q [0x%x, size %d] and %q [0x%x, size %d]",
					r1.Tag, r1.Addr, r1.Size, r2.Tag, r2.Addr, r2.Size)
			}
		}
	}
	return nil
}
