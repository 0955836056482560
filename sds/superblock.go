package sds

import (
	"bytes"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-sdsmask/internal/binary"
)

// Signature is the 8-byte magic at offset 0 of every SDS container.
var Signature = []byte{0x89, 'S', 'D', 'S', '\r', '\n', 0x1a, '\n'}

// SuperblockSize is the fixed size of the superblock.
const SuperblockSize = 40

const superblockVersion = 1

// superblock locates the catalog block.
//
//	0  signature[8]
//	8  version u8, reserved[3]
//	12 catalog address u64
//	20 catalog length u64
//	28 catalog Fletcher-32 u32
//	32 reserved u32
//	36 xxhash seal of bytes 0..35 u32
type superblock struct {
	Version         uint8
	CatalogAddress  uint64
	CatalogLength   uint64
	CatalogChecksum uint32
}

func readSuperblock(r io.ReaderAt) (*superblock, error) {
	buf := make([]byte, SuperblockSize)
	n, err := r.ReadAt(buf, 0)
	if n < len(Signature) || !bytes.Equal(buf[:len(Signature)], Signature) {
		return nil, ErrNotSDS
	}
	if n < SuperblockSize {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("truncated superblock: %w", err)
	}

	stored := binpkg.Order.Uint32(buf[36:])
	if !binpkg.VerifySeal32(buf[:36], stored) {
		return nil, fmt.Errorf("superblock: %w", ErrChecksum)
	}

	sb := &superblock{Version: buf[8]}
	if sb.Version != superblockVersion {
		return nil, fmt.Errorf("%w: superblock version %d", ErrUnsupported, sb.Version)
	}
	rd := binpkg.NewReader(bytes.NewReader(buf)).At(12)
	if sb.CatalogAddress, err = rd.ReadUint64(); err != nil {
		return nil, fmt.Errorf("reading catalog address: %w", err)
	}
	if sb.CatalogLength, err = rd.ReadUint64(); err != nil {
		return nil, fmt.Errorf("reading catalog length: %w", err)
	}
	if sb.CatalogChecksum, err = rd.ReadUint32(); err != nil {
		return nil, fmt.Errorf("reading catalog checksum: %w", err)
	}
	return sb, nil
}

func (sb *superblock) write(w io.WriterAt) error {
	var buf binpkg.Buffer
	bw := binpkg.NewWriter(&buf)

	if err := bw.WriteBytes(Signature); err != nil {
		return fmt.Errorf("writing signature: %w", err)
	}
	if err := bw.WriteUint8(superblockVersion); err != nil {
		return fmt.Errorf("writing version: %w", err)
	}
	if err := bw.WriteZeros(3); err != nil {
		return err
	}
	if err := bw.WriteUint64(sb.CatalogAddress); err != nil {
		return fmt.Errorf("writing catalog address: %w", err)
	}
	if err := bw.WriteUint64(sb.CatalogLength); err != nil {
		return fmt.Errorf("writing catalog length: %w", err)
	}
	if err := bw.WriteUint32(sb.CatalogChecksum); err != nil {
		return fmt.Errorf("writing catalog checksum: %w", err)
	}
	if err := bw.WriteZeros(4); err != nil {
		return err
	}
	if err := bw.WriteUint32(binpkg.Seal32(buf.Bytes()[:36])); err != nil {
		return fmt.Errorf("writing superblock seal: %w", err)
	}

	if _, err := w.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}
