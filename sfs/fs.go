// Package sfs is a simple inode-based file store on top of a block device.
//
// Block 0 holds the superblock, blocks 1..InodeBlocks hold the inode table,
// and every other block is allocated on demand to file data or to an
// indirect block. A file is named by its inode number and has NDIRECT
// direct pointers plus one indirect block of NINDIRECT pointers.
//
// Crash consistency: every operation writes whole blocks one at a time, in
// the order data block, then indirect block, then inode-table block. A
// crash can leak blocks that were allocated but not yet referenced; the free
// bitmap is rebuilt from the inode table on every mount, so leaked blocks
// become free again.
package sfs

import (
	"fmt"
	"sync"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/alloc"
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/super"
	"github.com/mit-pdos/go-simplefs/util"
)

// FileSystem is the storage engine. The zero value is not usable; call
// MkFileSystem. At most one device is mounted at a time, and the free bitmap
// belongs to this instance only.
type FileSystem struct {
	mu    *sync.Mutex // serializes every public operation
	disk  disk.Disk
	super *super.FsSuper
	alloc *alloc.Alloc
}

func MkFileSystem() *FileSystem {
	return &FileSystem{mu: new(sync.Mutex)}
}

// Format lays out an empty file system on d. It refuses to run while this
// engine has a device mounted.
func (fs *FileSystem) Format(d disk.Disk) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk != nil {
		return ErrAlreadyMounted
	}
	nblocks, err := d.Size()
	if err != nil {
		return deviceErr("format", err)
	}
	if nblocks < common.MINBLOCKS {
		return invalidErr("device has %d blocks, need at least %d",
			nblocks, common.MINBLOCKS)
	}
	sb := super.MkFsSuper(nblocks)
	util.DPrintf(1, "Format: %d blocks, %d inode blocks, %d inodes\n",
		sb.Blocks, sb.InodeBlocks, sb.Inodes)

	zero := make(disk.Block, disk.BlockSize)
	for bn := uint64(1); bn < nblocks; bn++ {
		if err := d.Write(bn, zero); err != nil {
			return deviceErr(fmt.Sprintf("format: clear block %d", bn), err)
		}
	}
	// the superblock goes last so a partially formatted device never mounts
	if err := d.Write(uint64(common.SUPERBNUM), sb.Encode()); err != nil {
		return deviceErr("format: write superblock", err)
	}
	if err := d.Barrier(); err != nil {
		return deviceErr("format: barrier", err)
	}
	return nil
}

// Mount validates the superblock of d and rebuilds the free bitmap. On
// failure the engine is left unmounted.
func (fs *FileSystem) Mount(d disk.Disk) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk != nil {
		return ErrAlreadyMounted
	}
	nblocks, err := d.Size()
	if err != nil {
		return deviceErr("mount", err)
	}
	blk, err := d.Read(uint64(common.SUPERBNUM))
	if err != nil {
		return deviceErr("mount: read superblock", err)
	}
	sb := super.Decode(blk)
	if err := sb.Validate(); err != nil {
		return fmt.Errorf("mount: %w: %w", ErrInvalidArgument, err)
	}
	if sb.Blocks != nblocks {
		return invalidErr("superblock says %d blocks, device has %d",
			sb.Blocks, nblocks)
	}
	a, err := rebuildBitmap(d, sb)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	fs.disk = d
	fs.super = sb
	fs.alloc = a
	util.DPrintf(1, "Mount: %d blocks, %d free\n", sb.Blocks, a.NumFree())
	return nil
}

// Unmount detaches the device and drops the free bitmap. Unmounting an
// unmounted engine does nothing.
func (fs *FileSystem) Unmount() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk != nil {
		util.DPrintf(1, "Unmount\n")
	}
	fs.disk = nil
	fs.super = nil
	fs.alloc = nil
}

func (fs *FileSystem) IsMounted() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.disk != nil
}

// Super returns a copy of the mounted superblock.
func (fs *FileSystem) Super() (super.FsSuper, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk == nil {
		return super.FsSuper{}, ErrNotMounted
	}
	return *fs.super, nil
}

// NumFree reports how many blocks are available for allocation.
func (fs *FileSystem) NumFree() (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk == nil {
		return 0, ErrNotMounted
	}
	return fs.alloc.NumFree(), nil
}

// checkData checks that bn may be used as a data or indirect block.
func checkData(sb *super.FsSuper, bn common.Bnum) error {
	if bn == common.NULLBNUM || !bn.InBounds(sb.Blocks) || sb.IsInodeBlock(bn) {
		return invalidErr("bad block pointer %d", bn)
	}
	return nil
}

func (fs *FileSystem) readBuf(bn common.Bnum) (*buf.Buf, error) {
	b, err := buf.MkBufLoad(fs.disk, bn)
	if err != nil {
		return nil, deviceErr(fmt.Sprintf("read block %d", bn), err)
	}
	return b, nil
}

func (fs *FileSystem) writeBuf(b *buf.Buf) error {
	if err := b.WriteDirect(fs.disk); err != nil {
		return deviceErr(fmt.Sprintf("write block %d", b.Blkno), err)
	}
	return nil
}

// loadInode reads inode inum together with the inode-table block holding it.
func (fs *FileSystem) loadInode(inum common.Inum) (*inode.Inode, *buf.Buf, error) {
	if inum >= fs.super.NInode() {
		return nil, nil, invalidErr("inode %d out of range", inum)
	}
	a := addr.MkInodeAddr(inum)
	b, err := fs.readBuf(a.Blkno)
	if err != nil {
		return nil, nil, err
	}
	return inode.Load(b, a), b, nil
}

// saveInode writes ip back through its inode-table block b.
func (fs *FileSystem) saveInode(ip *inode.Inode, b *buf.Buf) error {
	ip.Install(b)
	return fs.writeBuf(b)
}
