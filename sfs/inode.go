package sfs

import (
	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/util"
)

// Create claims the lowest-numbered free inode and returns its number. The
// new inode is valid, empty and has no block pointers, even if the slot held
// stale pointers before.
func (fs *FileSystem) Create() (common.Inum, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk == nil {
		return 0, ErrNotMounted
	}
	for bn := uint64(1); bn <= fs.super.InodeBlocks; bn++ {
		b, err := fs.readBuf(common.Bnum(bn))
		if err != nil {
			return 0, err
		}
		for slot := uint64(0); slot < common.INODEBLK; slot++ {
			a := addr.MkAddr(common.Bnum(bn), slot*common.INODESZ)
			if inode.Load(b, a).Valid {
				continue
			}
			ip := inode.MkInode(a.Flatid())
			if err := fs.saveInode(ip, b); err != nil {
				return 0, err
			}
			util.DPrintf(1, "Create: inode %d\n", ip.Inum)
			return ip.Inum, nil
		}
	}
	return 0, ErrOutOfInodes
}

// Remove releases inum and every block it references.
func (fs *FileSystem) Remove(inum common.Inum) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk == nil {
		return ErrNotMounted
	}
	ip, b, err := fs.loadInode(inum)
	if err != nil {
		return err
	}
	if !ip.Valid {
		return ErrNotFound
	}

	release := ip.DirectBnums()
	if ip.Indirect != common.NULLBNUM {
		if err := checkData(fs.super, ip.Indirect); err != nil {
			return err
		}
		ib, err := fs.readBuf(ip.Indirect)
		if err != nil {
			return err
		}
		release = append(release, ib.Bnums()...)
		release = append(release, ip.Indirect)
	}
	for _, bn := range release {
		if err := checkData(fs.super, bn); err != nil {
			return err
		}
	}

	// the inode is cleared on disk before its blocks become allocatable
	ip.Reset()
	if err := fs.saveInode(ip, b); err != nil {
		return err
	}
	for _, bn := range release {
		fs.alloc.FreeNum(bn)
	}
	util.DPrintf(1, "Remove: inode %d, freed %d blocks\n", inum, len(release))
	return nil
}

// Stat returns the logical size in bytes of inum.
func (fs *FileSystem) Stat(inum common.Inum) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk == nil {
		return 0, ErrNotMounted
	}
	ip, _, err := fs.loadInode(inum)
	if err != nil {
		return 0, err
	}
	if !ip.Valid {
		return 0, ErrNotFound
	}
	return uint64(ip.Size), nil
}
