// Package image copies a whole block device to and from a self-describing
// stream: a fixed header followed by every block in order, optionally
// compressed. The header carries the block count, the codec and a BLAKE2b
// checksum of the uncompressed blocks.
package image

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"
	"golang.org/x/crypto/blake2b"

	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/util"
)

const (
	// MAGIC is "SFSIMG01" read as a little-endian u64.
	MAGIC   uint64 = 0x3130474d49534653
	VERSION uint64 = 1
	// HDRSZ is the encoded header size: magic, version, blocks and codec as
	// u64s, then the 16-byte image id and the 32-byte checksum.
	HDRSZ = 4*8 + 16 + blake2b.Size256
)

var (
	ErrBadHeader        = errors.New("not an sfs image")
	ErrUnknownCodec     = errors.New("unknown codec")
	ErrSizeMismatch     = errors.New("image and device sizes differ")
	ErrChecksumMismatch = errors.New("image checksum mismatch")
)

type Header struct {
	ID     uuid.UUID
	Blocks uint64
	Codec  Codec
	Sum    [blake2b.Size256]byte
}

func (h *Header) Encode() []byte {
	enc := marshal.NewEnc(HDRSZ)
	enc.PutInt(MAGIC)
	enc.PutInt(VERSION)
	enc.PutInt(h.Blocks)
	enc.PutInt(uint64(h.Codec))
	b := enc.Finish()
	copy(b[32:48], h.ID[:])
	copy(b[48:], h.Sum[:])
	return b
}

func DecodeHeader(b []byte) (*Header, error) {
	if len(b) < HDRSZ {
		return nil, fmt.Errorf("%w: short header", ErrBadHeader)
	}
	dec := marshal.NewDec(b[:32])
	magic := dec.GetInt()
	version := dec.GetInt()
	if magic != MAGIC {
		return nil, fmt.Errorf("%w: magic %#x", ErrBadHeader, magic)
	}
	if version != VERSION {
		return nil, fmt.Errorf("%w: version %d", ErrBadHeader, version)
	}
	h := &Header{
		Blocks: dec.GetInt(),
		Codec:  Codec(dec.GetInt()),
	}
	if !h.Codec.valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, h.Codec)
	}
	copy(h.ID[:], b[32:48])
	copy(h.Sum[:], b[48:HDRSZ])
	return h, nil
}

func newHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for an over-long key
		panic(err)
	}
	return h
}

// Checksum hashes every block of d.
func Checksum(d disk.Disk) ([blake2b.Size256]byte, error) {
	var sum [blake2b.Size256]byte
	n, err := d.Size()
	if err != nil {
		return sum, err
	}
	h := newHash()
	blk := make(disk.Block, disk.BlockSize)
	for a := uint64(0); a < n; a++ {
		if err := d.ReadTo(a, blk); err != nil {
			return sum, fmt.Errorf("read block %d: %w", a, err)
		}
		h.Write(blk)
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// Export writes an image of d to w. The device is read twice: once for the
// checksum in the header and once for the data.
func Export(d disk.Disk, w io.Writer, codec Codec) (*Header, error) {
	if !codec.valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, codec)
	}
	n, err := d.Size()
	if err != nil {
		return nil, err
	}
	sum, err := Checksum(d)
	if err != nil {
		return nil, err
	}
	hdr := &Header{ID: uuid.New(), Blocks: n, Codec: codec, Sum: sum}
	if _, err := w.Write(hdr.Encode()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bw := bufio.NewWriter(w)
	cw, err := codec.newWriter(bw)
	if err != nil {
		return nil, err
	}
	blk := make(disk.Block, disk.BlockSize)
	for a := uint64(0); a < n; a++ {
		if err := d.ReadTo(a, blk); err != nil {
			return nil, fmt.Errorf("read block %d: %w", a, err)
		}
		if _, err := cw.Write(blk); err != nil {
			return nil, fmt.Errorf("write block %d: %w", a, err)
		}
	}
	if err := cw.Close(); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	util.DPrintf(1, "Export: image %v, %d blocks, codec %v\n", hdr.ID, n, codec)
	return hdr, nil
}

// Import reads an image from r onto d, which must have exactly as many
// blocks as the image. The checksum is verified after the last block is
// written, so a mismatch leaves d holding the damaged data.
func Import(r io.Reader, d disk.Disk) (*Header, error) {
	b := make([]byte, HDRSZ)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	hdr, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}
	n, err := d.Size()
	if err != nil {
		return nil, err
	}
	if n != hdr.Blocks {
		return nil, fmt.Errorf("%w: image has %d blocks, device %d",
			ErrSizeMismatch, hdr.Blocks, n)
	}

	cr, err := hdr.Codec.newReader(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	h := newHash()
	for a := uint64(0); a < n; a++ {
		blk := make(disk.Block, disk.BlockSize)
		if _, err := io.ReadFull(cr, blk); err != nil {
			return nil, fmt.Errorf("read block %d: %w", a, err)
		}
		h.Write(blk)
		if err := d.Write(a, blk); err != nil {
			return nil, fmt.Errorf("write block %d: %w", a, err)
		}
	}
	if err := d.Barrier(); err != nil {
		return nil, err
	}
	if !bytes.Equal(h.Sum(nil), hdr.Sum[:]) {
		return hdr, ErrChecksumMismatch
	}
	util.DPrintf(1, "Import: image %v, %d blocks, codec %v\n", hdr.ID, n, hdr.Codec)
	return hdr, nil
}
