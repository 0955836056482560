package alloc

import (
	"strings"
	"testing"
)

func TestAllocatorAppendOnly(t *testing.T) {
	a := New(40)

	addr1 := a.Alloc(100, "ds1")
	if addr1 != 40 {
		t.Errorf("first allocation: got 0x%x, want 0x%x", addr1, 40)
	}

	addr2 := a.Alloc(200, "ds2")
	if addr2 != 140 {
		t.Errorf("second allocation: got 0x%x, want 0x%x", addr2, 140)
	}

	if a.EOFAddr() != 340 {
		t.Errorf("EOF: got 0x%x, want 0x%x", a.EOFAddr(), 340)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestAllocatorZeroSize(t *testing.T) {
	a := New(100)

	if addr := a.Alloc(0, "empty"); addr != 100 {
		t.Errorf("zero allocation: got 0x%x, want 0x%x", addr, 100)
	}
	if a.EOFAddr() != 100 {
		t.Errorf("EOF after zero alloc: got 0x%x, want 0x%x", a.EOFAddr(), 100)
	}
	if n := len(a.Allocations()); n != 0 {
		t.Errorf("zero allocation recorded: %d regions", n)
	}
}

func TestAllocatorAligned(t *testing.T) {
	a := New(100)
	a.Alloc(13, "odd")

	addr := a.AllocAligned(50, 8, "catalog")
	if addr != 120 {
		t.Errorf("aligned allocation: got 0x%x, want 0x%x", addr, 120)
	}
}

func TestAllocatorReserveAndFree(t *testing.T) {
	a := New(40)
	a.Reserve(40, 60, "existing")
	a.Free(100, 20, "old catalog")

	if a.EOFAddr() != 120 {
		t.Errorf("EOF after reserve/free: got %d, want 120", a.EOFAddr())
	}
	if addr := a.Alloc(10, "new"); addr != 120 {
		t.Errorf("freed space must not be reused: got %d", addr)
	}

	stats := a.Stats()
	if stats.TotalBytesFree != 20 {
		t.Errorf("TotalBytesFree: got %d, want 20", stats.TotalBytesFree)
	}
	if stats.TotalAllocations != 1 || stats.LargestAlloc != 10 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAllocatorValidateOverlap(t *testing.T) {
	a := New(0)
	a.Reserve(0, 100, "a")
	a.Reserve(50, 100, "b")

	err := a.Validate()
	if err == nil {
		t.Fatal("expected overlap error")
	}
	if !strings.Contains(err.Error(), "overlapping") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAllocatorValidateBeforeBase(t *testing.T) {
	a := New(40)
	a.Reserve(8, 4, "bad")

	if err := a.Validate(); err == nil {
		t.Error("expected error for region before base address")
	}
}
