// Package super encodes and validates the superblock stored in block 0.
package super

import (
	"errors"
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/util"
)

var (
	ErrBadMagic  = errors.New("bad magic number")
	ErrBadLayout = errors.New("inconsistent superblock layout")
)

// FsSuper is the file-system-wide metadata record.
type FsSuper struct {
	Magic       uint64
	Blocks      uint64
	InodeBlocks uint64
	Inodes      uint64
}

// NInodeBlocks is the number of inode-table blocks for a device of nblocks
// blocks. Both format and mount use it.
func NInodeBlocks(nblocks uint64) uint64 {
	return util.RoundUp(nblocks, common.INODEBLKRATIO)
}

// MkFsSuper lays out a fresh file system over nblocks blocks.
func MkFsSuper(nblocks uint64) *FsSuper {
	ninodeblk := NInodeBlocks(nblocks)
	return &FsSuper{
		Magic:       common.MAGIC,
		Blocks:      nblocks,
		InodeBlocks: ninodeblk,
		Inodes:      ninodeblk * common.INODEBLK,
	}
}

func (fs *FsSuper) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt(fs.Magic)
	enc.PutInt(fs.Blocks)
	enc.PutInt(fs.InodeBlocks)
	enc.PutInt(fs.Inodes)
	return enc.Finish()
}

func Decode(b disk.Block) *FsSuper {
	dec := marshal.NewDec(b)
	fs := &FsSuper{}
	fs.Magic = dec.GetInt()
	fs.Blocks = dec.GetInt()
	fs.InodeBlocks = dec.GetInt()
	fs.Inodes = dec.GetInt()
	return fs
}

// Validate checks the structural invariants of a superblock read from disk.
func (fs *FsSuper) Validate() error {
	if fs.Magic != common.MAGIC {
		return fmt.Errorf("%w: %#x", ErrBadMagic, fs.Magic)
	}
	if fs.Blocks < common.MINBLOCKS {
		return fmt.Errorf("%w: %d blocks is below the minimum of %d",
			ErrBadLayout, fs.Blocks, common.MINBLOCKS)
	}
	if fs.InodeBlocks != NInodeBlocks(fs.Blocks) {
		return fmt.Errorf("%w: %d inode blocks for %d blocks",
			ErrBadLayout, fs.InodeBlocks, fs.Blocks)
	}
	if fs.Inodes != fs.InodeBlocks*common.INODEBLK {
		return fmt.Errorf("%w: %d inodes in %d inode blocks",
			ErrBadLayout, fs.Inodes, fs.InodeBlocks)
	}
	return nil
}

// DataStart is the first block after the inode table.
func (fs *FsSuper) DataStart() common.Bnum {
	return common.Bnum(fs.InodeBlocks + 1)
}

func (fs *FsSuper) NInode() common.Inum {
	return common.Inum(fs.Inodes)
}

// IsInodeBlock reports whether bn is part of the inode table.
func (fs *FsSuper) IsInodeBlock(bn common.Bnum) bool {
	return bn >= 1 && bn < fs.DataStart()
}
