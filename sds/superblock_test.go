package sds

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriterAt struct {
	buf []byte
	err error
}

func (m *memWriterAt) WriteAt(p []byte, off int64) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if end := int(off) + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	return copy(m.buf[off:], p), nil
}

func TestSuperblockRoundTrip(t *testing.T) {
	t.Parallel()

	want := &superblock{
		Version:         superblockVersion,
		CatalogAddress:  0x1234,
		CatalogLength:   96,
		CatalogChecksum: 0xCAFEBABE,
	}
	var w memWriterAt
	require.NoError(t, want.write(&w))
	require.Len(t, w.buf, SuperblockSize)

	got, err := readSuperblock(bytes.NewReader(w.buf))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSuperblockWriteError(t *testing.T) {
	t.Parallel()

	diskFull := errors.New("disk full")
	sb := &superblock{Version: superblockVersion, CatalogAddress: SuperblockSize}
	err := sb.write(&memWriterAt{err: diskFull})
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "writing superblock")
}
