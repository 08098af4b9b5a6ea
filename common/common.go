package common

import (
	"github.com/mit-pdos/go-simplefs/disk"
)

const (
	MAGIC uint64 = 0xf0f03410

	NDIRECT   uint64 = 5
	BNUMSZ    uint64 = 8 // on-disk size of a block pointer
	INODESZ   uint64 = 64
	INODEBLK  uint64 = disk.BlockSize / INODESZ
	NINDIRECT uint64 = disk.BlockSize / BNUMSZ

	// one inode block for every ten blocks of the device
	INODEBLKRATIO uint64 = 10
	MINBLOCKS     uint64 = 3

	MAXFILEBLKS = NDIRECT + NINDIRECT
	MAXFILESZ   = MAXFILEBLKS * disk.BlockSize
)

// Bnum is a block number. Block 0 holds the superblock, so a zero Bnum in an
// inode or indirect block means "not allocated".
type Bnum uint64

// Inum is a dense inode number in [0, inodes).
type Inum uint64

const (
	NULLBNUM  Bnum = 0
	SUPERBNUM Bnum = 0
)

// InBounds reports whether bn addresses a block of a device with nblocks
// blocks.
func (bn Bnum) InBounds(nblocks uint64) bool {
	return uint64(bn) < nblocks
}
