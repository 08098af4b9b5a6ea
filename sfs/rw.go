package sfs

import (
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/util"
)

// blockMap resolves the logical blocks of one inode to device blocks. The
// indirect block is read at most once per operation.
type blockMap struct {
	fs  *FileSystem
	ip  *inode.Inode
	ind *buf.Buf
}

func (m *blockMap) loadIndirect() error {
	if m.ind != nil {
		return nil
	}
	if err := checkData(m.fs.super, m.ip.Indirect); err != nil {
		return err
	}
	b, err := m.fs.readBuf(m.ip.Indirect)
	if err != nil {
		return err
	}
	m.ind = b
	return nil
}

// lookup returns the device block holding logical block lbn. Every block
// inside the file size is allocated, so a missing pointer means the inode is
// corrupt.
func (m *blockMap) lookup(lbn uint64) (common.Bnum, error) {
	var bn common.Bnum
	if lbn < common.NDIRECT {
		bn = m.ip.Direct[lbn]
	} else {
		if lbn >= common.MAXFILEBLKS {
			return 0, invalidErr("block %d past maximum file size", lbn)
		}
		if m.ip.Indirect == common.NULLBNUM {
			return 0, invalidErr("inode %d: missing indirect block", m.ip.Inum)
		}
		if err := m.loadIndirect(); err != nil {
			return 0, err
		}
		bn = m.ind.BnumGet(lbn - common.NDIRECT)
	}
	if err := checkData(m.fs.super, bn); err != nil {
		return 0, err
	}
	return bn, nil
}

// lookupAlloc is lookup that allocates a missing block, and the indirect
// block if needed. fresh reports whether the returned block is newly
// allocated. A new indirect block is zeroed in memory and left dirty; the
// caller writes it after the data block.
func (m *blockMap) lookupAlloc(lbn uint64) (bn common.Bnum, fresh bool, err error) {
	a := m.fs.alloc
	if lbn < common.NDIRECT {
		bn = m.ip.Direct[lbn]
		if bn == common.NULLBNUM {
			bn = a.AllocNum()
			if bn == common.NULLBNUM {
				return 0, false, ErrOutOfSpace
			}
			m.ip.Direct[lbn] = bn
			return bn, true, nil
		}
		return bn, false, checkData(m.fs.super, bn)
	}
	if lbn >= common.MAXFILEBLKS {
		return 0, false, invalidErr("block %d past maximum file size", lbn)
	}

	newInd := false
	if m.ip.Indirect == common.NULLBNUM {
		ibn := a.AllocNum()
		if ibn == common.NULLBNUM {
			return 0, false, ErrOutOfSpace
		}
		m.ip.Indirect = ibn
		m.ind = buf.MkBufZero(ibn)
		newInd = true
	} else if err := m.loadIndirect(); err != nil {
		return 0, false, err
	}

	slot := lbn - common.NDIRECT
	bn = m.ind.BnumGet(slot)
	if bn != common.NULLBNUM {
		return bn, false, checkData(m.fs.super, bn)
	}
	bn = a.AllocNum()
	if bn == common.NULLBNUM {
		if newInd {
			// nothing points at the new indirect block yet; give it back
			a.FreeNum(m.ip.Indirect)
			m.ip.Indirect = common.NULLBNUM
			m.ind = nil
		}
		return 0, false, ErrOutOfSpace
	}
	m.ind.BnumPut(slot, bn)
	return bn, true, nil
}

// Read copies up to len(data) bytes of inum starting at off into data and
// returns the number of bytes copied. Reads are clamped to the file size; a
// read that starts at or past the end fails, except an empty read at the
// end. On error no byte count is returned.
func (fs *FileSystem) Read(inum common.Inum, data []byte, off uint64) (uint64, error) {
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
	size := uint64(ip.Size)
	if len(data) == 0 && off <= size {
		return 0, nil
	}
	if off >= size {
		return 0, invalidErr("offset %d at or past size %d", off, size)
	}
	count := util.Min(uint64(len(data)), size-off)
	util.DPrintf(5, "Read: inode %d off %d count %d\n", inum, off, count)

	m := &blockMap{fs: fs, ip: ip}
	var n uint64
	for n < count {
		pos := off + n
		bn, err := m.lookup(pos / disk.BlockSize)
		if err != nil {
			return 0, err
		}
		b, err := fs.readBuf(bn)
		if err != nil {
			return 0, err
		}
		boff := pos % disk.BlockSize
		n += uint64(copy(data[n:count], b.Blk[boff:]))
	}
	return n, nil
}

// Write copies data into inum starting at off, allocating blocks as needed,
// and returns the number of bytes written. Writing past the end grows the
// file; any gap between the old end and off is filled with zeros.
//
// Each block is committed as it is written: data block, then the indirect
// block if it changed, then the inode with the new size. If the device runs
// out of blocks, Write returns the bytes committed so far with
// ErrOutOfSpace.
func (fs *FileSystem) Write(inum common.Inum, data []byte, off uint64) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.disk == nil {
		return 0, ErrNotMounted
	}
	ip, ib, err := fs.loadInode(inum)
	if err != nil {
		return 0, err
	}
	if !ip.Valid {
		return 0, ErrNotFound
	}
	count := uint64(len(data))
	if util.SumOverflows(off, count) || off+count > common.MAXFILESZ {
		return 0, invalidErr("write of %d bytes at %d past maximum file size %d",
			count, off, common.MAXFILESZ)
	}
	if count == 0 {
		return 0, nil
	}
	util.DPrintf(5, "Write: inode %d off %d count %d\n", inum, off, count)

	m := &blockMap{fs: fs, ip: ip}
	// zero [size, off) without moving size
	zeros := make([]byte, disk.BlockSize)
	for pos := uint64(ip.Size); pos < off; {
		boff := pos % disk.BlockSize
		nc := util.Min(disk.BlockSize-boff, off-pos)
		if err := fs.writeBlock(m, pos/disk.BlockSize, boff, zeros[:nc]); err != nil {
			return 0, err
		}
		if err := fs.saveInode(ip, ib); err != nil {
			return 0, err
		}
		pos += nc
	}
	var n uint64
	for n < count {
		pos := off + n
		boff := pos % disk.BlockSize
		nc := util.Min(disk.BlockSize-boff, count-n)
		if err := fs.writeBlock(m, pos/disk.BlockSize, boff, data[n:n+nc]); err != nil {
			return n, err
		}
		if pos+nc > uint64(ip.Size) {
			ip.Size = uint32(pos + nc)
		}
		if err := fs.saveInode(ip, ib); err != nil {
			return n, err
		}
		n += nc
	}
	return n, nil
}

// writeBlock stores p at byte boff of logical block lbn, then the indirect
// block if a pointer in it changed. The caller commits the inode.
func (fs *FileSystem) writeBlock(m *blockMap, lbn uint64, boff uint64, p []byte) error {
	bn, fresh, err := m.lookupAlloc(lbn)
	if err != nil {
		return err
	}
	var b *buf.Buf
	if fresh || (boff == 0 && uint64(len(p)) == disk.BlockSize) {
		b = buf.MkBufZero(bn)
	} else {
		b, err = fs.readBuf(bn)
		if err != nil {
			return err
		}
	}
	copy(b.Blk[boff:], p)
	b.SetDirty()
	if err := fs.writeBuf(b); err != nil {
		return err
	}
	if m.ind != nil && m.ind.IsDirty() {
		return fs.writeBuf(m.ind)
	}
	return nil
}
