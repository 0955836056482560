// Package catalog encodes the self-describing part of an SDS container: the
// file-level attributes and, for every dataset, its name, element kind,
// dimensions, data address and attributes.
//
// # Block Layout
//
// A catalog is serialized as a single block:
//
//	u8   version
//	u16  file attribute count, then attributes
//	u32  dataset count, then entries
//
//	entry     := string name, u8 kind, u8 rank, u64 dims[rank], u64 addr,
//	             u16 attribute count, attributes
//	attribute := string name, u8 class, value
//	value     := string             (ClassString)
//	           | u32 n, i64[n]      (ClassInt)
//	           | u32 n, f64[n]      (ClassFloat)
//
// The encoded block is zlib-compressed before it is written to the file; the
// superblock records its address, length and Fletcher-32 checksum.
package catalog
