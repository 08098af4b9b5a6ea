package inode

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
)

func TestEncodeLayout(t *testing.T) {
	assert := assert.New(t)
	ip := MkInode(3)
	ip.Size = 10000
	ip.Direct = [common.NDIRECT]common.Bnum{3, 4, 5, 0, 0}
	ip.Indirect = 9
	b := ip.Encode()
	assert.Equal(int(common.INODESZ), len(b))
	assert.Equal(uint64(1), binary.LittleEndian.Uint64(b[0:]))
	assert.Equal(uint64(10000), binary.LittleEndian.Uint64(b[8:]))
	assert.Equal(uint64(3), binary.LittleEndian.Uint64(b[16:]))
	assert.Equal(uint64(9), binary.LittleEndian.Uint64(b[56:]))
	assert.Equal(ip, Decode(3, b))
}

func TestInstallLoad(t *testing.T) {
	assert := assert.New(t)
	b := buf.MkBuf(2, make([]byte, 4096))

	ip := MkInode(65)
	ip.Size = 7
	ip.Direct[0] = 12
	ip.Install(b)
	assert.True(b.IsDirty())

	other := Load(b, addr.MkInodeAddr(64))
	assert.False(other.Valid, "neighbouring slot untouched")

	got := Load(b, addr.MkInodeAddr(65))
	assert.Equal(ip, got)
}

func TestInstallWrongBlock(t *testing.T) {
	b := buf.MkBuf(1, make([]byte, 4096))
	assert.Panics(t, func() { MkInode(64).Install(b) })
}

func TestReset(t *testing.T) {
	ip := MkInode(5)
	ip.Size = 100
	ip.Direct[2] = 8
	ip.Indirect = 4
	ip.Reset()
	assert.Equal(t, &Inode{Inum: 5}, ip)
}

func TestDirectBnums(t *testing.T) {
	ip := MkInode(0)
	ip.Direct = [common.NDIRECT]common.Bnum{0, 4, 0, 6, 0}
	assert.Equal(t, []common.Bnum{4, 6}, ip.DirectBnums())
}
