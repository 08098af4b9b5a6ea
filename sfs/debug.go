package sfs

import (
	"fmt"
	"strings"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/super"
)

// InodeReport describes one valid inode.
type InodeReport struct {
	Inum     common.Inum
	Size     uint64
	Direct   []common.Bnum
	Indirect common.Bnum
	// IndirectBnums are the non-zero entries of the indirect block; empty
	// when the indirect pointer is zero or out of range.
	IndirectBnums []common.Bnum
}

// Report is a dump of the superblock and every valid inode of a device.
type Report struct {
	Super      super.FsSuper
	MagicValid bool
	Inodes     []InodeReport
}

// Debug reads the superblock and inode table of d. It does not need a
// mounted engine and tolerates a corrupt image: pointers that do not fit
// the device are reported but not followed, and the inode table is only
// scanned if it fits on the device.
func Debug(d disk.Disk) (*Report, error) {
	nblocks, err := d.Size()
	if err != nil {
		return nil, deviceErr("debug", err)
	}
	blk, err := d.Read(uint64(common.SUPERBNUM))
	if err != nil {
		return nil, deviceErr("debug: read superblock", err)
	}
	sb := super.Decode(blk)
	r := &Report{
		Super:      *sb,
		MagicValid: sb.Magic == common.MAGIC,
	}
	if sb.InodeBlocks >= nblocks {
		return r, nil
	}
	for bn := uint64(1); bn <= sb.InodeBlocks; bn++ {
		b, err := buf.MkBufLoad(d, common.Bnum(bn))
		if err != nil {
			return nil, deviceErr("debug: read inode block", err)
		}
		for slot := uint64(0); slot < common.INODEBLK; slot++ {
			ip := inode.Load(b, addr.MkAddr(common.Bnum(bn), slot*common.INODESZ))
			if !ip.Valid {
				continue
			}
			ir := InodeReport{
				Inum:     ip.Inum,
				Size:     uint64(ip.Size),
				Direct:   ip.DirectBnums(),
				Indirect: ip.Indirect,
			}
			if ip.Indirect != common.NULLBNUM && ip.Indirect.InBounds(nblocks) {
				ib, err := buf.MkBufLoad(d, ip.Indirect)
				if err != nil {
					return nil, deviceErr("debug: read indirect block", err)
				}
				ir.IndirectBnums = ib.Bnums()
			}
			r.Inodes = append(r.Inodes, ir)
		}
	}
	return r, nil
}

func joinBnums(bns []common.Bnum) string {
	s := make([]string, len(bns))
	for i, bn := range bns {
		s[i] = fmt.Sprint(bn)
	}
	return strings.Join(s, " ")
}

// String renders r in the SimpleFS debug format.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SuperBlock:\n")
	if r.MagicValid {
		fmt.Fprintf(&sb, "    magic number is valid\n")
	} else {
		fmt.Fprintf(&sb, "    magic number is invalid\n")
	}
	fmt.Fprintf(&sb, "    %d blocks\n", r.Super.Blocks)
	fmt.Fprintf(&sb, "    %d inode blocks\n", r.Super.InodeBlocks)
	fmt.Fprintf(&sb, "    %d inodes\n", r.Super.Inodes)
	for _, ir := range r.Inodes {
		fmt.Fprintf(&sb, "Inode %d:\n", ir.Inum)
		fmt.Fprintf(&sb, "    size: %d bytes\n", ir.Size)
		fmt.Fprintf(&sb, "    direct blocks: %s\n", joinBnums(ir.Direct))
		if ir.Indirect != common.NULLBNUM {
			fmt.Fprintf(&sb, "    indirect block: %d\n", ir.Indirect)
			fmt.Fprintf(&sb, "    indirect data blocks: %s\n", joinBnums(ir.IndirectBnums))
		}
	}
	return sb.String()
}
