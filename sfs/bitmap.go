package sfs

import (
	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/alloc"
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/super"
	"github.com/mit-pdos/go-simplefs/util"
)

// rebuildBitmap derives the free bitmap from the inode table: the
// superblock, the inode table and every block reachable from a valid inode
// are in use, everything else is free. A pointer that is out of range,
// points into the reserved area, or is claimed twice makes the image
// corrupt.
func rebuildBitmap(d disk.Disk, sb *super.FsSuper) (*alloc.Alloc, error) {
	a := alloc.MkAlloc(sb.Blocks)
	for bn := uint64(1); bn <= sb.InodeBlocks; bn++ {
		a.MarkUsed(common.Bnum(bn))
	}
	claim := func(ip *inode.Inode, bn common.Bnum) error {
		if err := checkData(sb, bn); err != nil {
			return invalidErr("inode %d: bad block pointer %d", ip.Inum, bn)
		}
		if !a.IsFree(bn) {
			return invalidErr("inode %d: block %d already in use", ip.Inum, bn)
		}
		a.MarkUsed(bn)
		return nil
	}

	for bn := uint64(1); bn <= sb.InodeBlocks; bn++ {
		b, err := buf.MkBufLoad(d, common.Bnum(bn))
		if err != nil {
			return nil, deviceErr("read inode block", err)
		}
		for slot := uint64(0); slot < common.INODEBLK; slot++ {
			ip := inode.Load(b, addr.MkAddr(common.Bnum(bn), slot*common.INODESZ))
			if !ip.Valid {
				continue
			}
			for _, dbn := range ip.DirectBnums() {
				if err := claim(ip, dbn); err != nil {
					return nil, err
				}
			}
			if ip.Indirect == common.NULLBNUM {
				continue
			}
			if err := claim(ip, ip.Indirect); err != nil {
				return nil, err
			}
			ib, err := buf.MkBufLoad(d, ip.Indirect)
			if err != nil {
				return nil, deviceErr("read indirect block", err)
			}
			for _, dbn := range ib.Bnums() {
				if err := claim(ip, dbn); err != nil {
					return nil, err
				}
			}
		}
	}
	util.DPrintf(5, "rebuildBitmap: %d of %d blocks free\n", a.NumFree(), sb.Blocks)
	return a, nil
}
