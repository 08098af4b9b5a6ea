package disk

import (
	"errors"
)

// Block is a 4096-byte buffer
type Block = []byte

const BlockSize uint64 = 4096

var (
	// ErrOutOfBounds is returned for a block index at or past Size().
	ErrOutOfBounds = errors.New("block index out of bounds")
	// ErrBadBuffer is returned for a buffer that is not block-sized.
	ErrBadBuffer = errors.New("buffer is not block-sized")
	// ErrClosed is returned by operations on a closed disk.
	ErrClosed = errors.New("disk is closed")
)

// Disk provides access to a logical block-based disk
//
// Read, ReadTo and Write fail without side effects when the address or
// buffer is invalid. A successful operation transfers exactly BlockSize
// bytes.
type Disk interface {
	// Read reads a disk block by address
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

// Stats counts completed block operations.
type Stats struct {
	Reads  uint64
	Writes uint64
}

// Counter is implemented by disks that count their block operations.
type Counter interface {
	Stats() Stats
}

func checkAccess(a uint64, numBlocks uint64, b Block) error {
	if a >= numBlocks {
		return ErrOutOfBounds
	}
	if uint64(len(b)) != BlockSize {
		return ErrBadBuffer
	}
	return nil
}
