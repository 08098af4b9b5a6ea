package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-simplefs/common"
)

func TestMkInodeAddr(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Addr{Blkno: 1, Off: 0}, MkInodeAddr(0))
	assert.Equal(Addr{Blkno: 1, Off: 64}, MkInodeAddr(1))
	assert.Equal(Addr{Blkno: 1, Off: 63 * 64}, MkInodeAddr(63))
	assert.Equal(Addr{Blkno: 2, Off: 0}, MkInodeAddr(64))
	assert.Equal(uint64(2), MkInodeAddr(66).Slot())
}

func TestFlatid(t *testing.T) {
	for _, inum := range []common.Inum{0, 1, 63, 64, 127, 1000} {
		assert.Equal(t, inum, MkInodeAddr(inum).Flatid())
	}
}
