// buf holds in-memory copies of disk blocks that are modified in place and
// written back.
package buf

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/util"
)

// A Buf is a copy of one disk block: an inode-table block, an indirect
// block, or a data block.
type Buf struct {
	Blkno common.Bnum
	Blk   disk.Block
	dirty bool // has this block been written to?
}

func MkBuf(blkno common.Bnum, blk disk.Block) *Buf {
	if uint64(len(blk)) != disk.BlockSize {
		panic("MkBuf: block is not block-sized")
	}
	b := &Buf{
		Blkno: blkno,
		Blk:   blk,
		dirty: false,
	}
	return b
}

// MkBufZero returns a dirty, zero-filled buffer for a freshly allocated
// block, whose old contents must not be trusted.
func MkBufZero(blkno common.Bnum) *Buf {
	b := MkBuf(blkno, make(disk.Block, disk.BlockSize))
	b.SetDirty()
	return b
}

// MkBufLoad reads block blkno from d into a new buf.
func MkBufLoad(d disk.Disk, blkno common.Bnum) (*Buf, error) {
	blk, err := d.Read(uint64(blkno))
	if err != nil {
		return nil, err
	}
	return MkBuf(blkno, blk), nil
}

func (buf *Buf) IsDirty() bool {
	return buf.dirty
}

func (buf *Buf) SetDirty() {
	buf.dirty = true
}

// WriteDirect writes buf to its block if it is dirty.
func (buf *Buf) WriteDirect(d disk.Disk) error {
	if !buf.dirty {
		return nil
	}
	util.DPrintf(10, "WriteDirect: block %d\n", buf.Blkno)
	if err := d.Write(uint64(buf.Blkno), buf.Blk); err != nil {
		return err
	}
	buf.dirty = false
	return nil
}

// BnumGet returns pointer i of a block interpreted as an array of block
// numbers.
func (buf *Buf) BnumGet(i uint64) common.Bnum {
	off := i * common.BNUMSZ
	dec := marshal.NewDec(buf.Blk[off : off+common.BNUMSZ])
	return common.Bnum(dec.GetInt())
}

func (buf *Buf) BnumPut(i uint64, v common.Bnum) {
	off := i * common.BNUMSZ
	enc := marshal.NewEnc(common.BNUMSZ)
	enc.PutInt(uint64(v))
	copy(buf.Blk[off:off+common.BNUMSZ], enc.Finish())
	buf.SetDirty()
}

// Bnums returns the non-zero pointers of a pointer block, in order.
func (buf *Buf) Bnums() []common.Bnum {
	var bns []common.Bnum
	for i := uint64(0); i < common.NINDIRECT; i++ {
		bn := buf.BnumGet(i)
		if bn != common.NULLBNUM {
			bns = append(bns, bn)
		}
	}
	return bns
}
