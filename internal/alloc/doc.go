// Package alloc hands out file offsets for the data regions and catalog
// blocks of a writable SDS container.
//
// Allocation is append-only: every region is placed at the current end of
// file, which then advances. Each dataset gets exactly one contiguous region
// sized rows × row bytes, so row writes never need to grow a region. When a
// container is reopened for writing, the previous catalog block is recorded
// as freed space; it is not reused.
//
//	a := alloc.New(sds.SuperblockSize)
//	addr := a.Alloc(rows*rowBytes, "sur_refl_b01")
//	catalogAddr := a.AllocAligned(uint64(len(block)), 8, "catalog")
package alloc
