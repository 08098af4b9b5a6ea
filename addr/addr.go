package addr

import (
	"github.com/mit-pdos/go-simplefs/common"
)

// Addr identifies the start of an inode on disk.
//
// Blkno is the inode-table block containing the inode, and Off is the byte
// offset of the inode within that block. Slot is the index of the inode in the
// block's inode array.
type Addr struct {
	Blkno common.Bnum
	Off   uint64 // offset in bytes
}

func (a Addr) Slot() uint64 {
	return a.Off / common.INODESZ
}

// Flatid maps an Addr back to its inode number.
func (a Addr) Flatid() common.Inum {
	return common.Inum((uint64(a.Blkno)-1)*common.INODEBLK + a.Slot())
}

func MkAddr(blkno common.Bnum, off uint64) Addr {
	return Addr{Blkno: blkno, Off: off}
}

// MkInodeAddr locates inode inum: the inode table starts right after the
// superblock, INODEBLK inodes per block.
func MkInodeAddr(inum common.Inum) Addr {
	i := uint64(inum)
	return MkAddr(common.Bnum(i/common.INODEBLK+1), (i%common.INODEBLK)*common.INODESZ)
}
