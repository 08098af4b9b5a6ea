// Package inode encodes inode records and locates them in the inode table.
package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
)

// Inode is the in-memory form of one inode-table entry.
//
// On disk it is INODESZ bytes: valid, size, NDIRECT direct pointers and one
// indirect pointer, each a little-endian u64.
type Inode struct {
	Inum     common.Inum
	Valid    bool
	Size     uint32
	Direct   [common.NDIRECT]common.Bnum
	Indirect common.Bnum
}

// MkInode returns a valid, empty inode.
func MkInode(inum common.Inum) *Inode {
	return &Inode{Inum: inum, Valid: true}
}

func (ip *Inode) String() string {
	return fmt.Sprintf("# %d valid %v size %d direct %v indirect %d",
		ip.Inum, ip.Valid, ip.Size, ip.Direct, ip.Indirect)
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	var valid uint64
	if ip.Valid {
		valid = 1
	}
	enc.PutInt(valid)
	enc.PutInt(uint64(ip.Size))
	for _, bn := range ip.Direct {
		enc.PutInt(uint64(bn))
	}
	enc.PutInt(uint64(ip.Indirect))
	return enc.Finish()
}

func Decode(inum common.Inum, b []byte) *Inode {
	ip := &Inode{Inum: inum}
	dec := marshal.NewDec(b)
	ip.Valid = dec.GetInt() != 0
	ip.Size = uint32(dec.GetInt())
	for i, bn := range dec.GetInts(common.NDIRECT) {
		ip.Direct[i] = common.Bnum(bn)
	}
	ip.Indirect = common.Bnum(dec.GetInt())
	return ip
}

// Load decodes the inode at a from its inode-table block.
func Load(b *buf.Buf, a addr.Addr) *Inode {
	if b.Blkno != a.Blkno {
		panic("inode.Load: wrong block")
	}
	return Decode(a.Flatid(), b.Blk[a.Off:a.Off+common.INODESZ])
}

// Install copies ip into its slot of the inode-table block b and marks b
// dirty.
func (ip *Inode) Install(b *buf.Buf) {
	a := addr.MkInodeAddr(ip.Inum)
	if b.Blkno != a.Blkno {
		panic("inode.Install: wrong block")
	}
	copy(b.Blk[a.Off:a.Off+common.INODESZ], ip.Encode())
	b.SetDirty()
}

// Reset clears every field, leaving an invalid inode.
func (ip *Inode) Reset() {
	inum := ip.Inum
	*ip = Inode{Inum: inum}
}

// DirectBnums returns the non-zero direct pointers, in order.
func (ip *Inode) DirectBnums() []common.Bnum {
	var bns []common.Bnum
	for _, bn := range ip.Direct {
		if bn != common.NULLBNUM {
			bns = append(bns, bn)
		}
	}
	return bns
}
