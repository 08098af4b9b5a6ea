package buf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
)

func TestBnumGetPut(t *testing.T) {
	assert := assert.New(t)
	b := MkBufZero(7)
	assert.True(b.IsDirty(), "fresh buffers must be written")

	b.BnumPut(0, 42)
	b.BnumPut(common.NINDIRECT-1, 9)
	assert.Equal(common.Bnum(42), b.BnumGet(0))
	assert.Equal(common.Bnum(9), b.BnumGet(common.NINDIRECT-1))
	assert.Equal(common.Bnum(0), b.BnumGet(1))
	assert.Equal(uint64(42), binary.LittleEndian.Uint64(b.Blk[0:8]),
		"pointers are little-endian u64")
	assert.Equal([]common.Bnum{42, 9}, b.Bnums())
}

func TestWriteDirect(t *testing.T) {
	d := disk.NewMemDisk(10)
	b, err := MkBufLoad(d, 3)
	require.NoError(t, err)
	assert.False(t, b.IsDirty())

	b.Blk[0] = 0xAB
	require.NoError(t, b.WriteDirect(d))
	blk, _ := d.Read(3)
	assert.Equal(t, byte(0), blk[0], "clean buffers are not written")

	b.SetDirty()
	require.NoError(t, b.WriteDirect(d))
	assert.False(t, b.IsDirty())
	blk, _ = d.Read(3)
	assert.Equal(t, byte(0xAB), blk[0])
}

func TestWriteDirectFailure(t *testing.T) {
	d := disk.NewFaultDisk(disk.NewMemDisk(10))
	d.FailWrite(2)
	b := MkBufZero(2)
	assert.ErrorIs(t, b.WriteDirect(d), disk.ErrInjected)
	assert.True(t, b.IsDirty(), "failed write leaves the buffer dirty")
}

func TestMkBufLoadOutOfBounds(t *testing.T) {
	_, err := MkBufLoad(disk.NewMemDisk(2), 5)
	assert.ErrorIs(t, err, disk.ErrOutOfBounds)
}
