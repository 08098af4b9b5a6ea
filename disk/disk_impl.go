package disk

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"
)

var _ Disk = (*FileDisk)(nil)

// FileDisk is a Disk backed by a regular file (or block device) accessed with
// pread/pwrite.
type FileDisk struct {
	mu        *sync.Mutex
	fd        int
	numBlocks uint64
	stats     Stats
	closed    bool
}

// NewFileDisk opens or creates the image at path and sizes it to numBlocks
// blocks.
func NewFileDisk(path string, numBlocks uint64) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if (stat.Mode&unix.S_IFMT) == unix.S_IFREG && uint64(stat.Size) != numBlocks*BlockSize {
		err = unix.Ftruncate(fd, int64(numBlocks*BlockSize))
		if err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("truncate %s: %w", path, err)
		}
	}
	return &FileDisk{mu: new(sync.Mutex), fd: fd, numBlocks: numBlocks}, nil
}

func (d *FileDisk) ReadTo(a uint64, buf Block) error {
	if err := checkAccess(a, d.numBlocks, buf); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	n, err := unix.Pread(d.fd, buf, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("read block %d: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("read block %d: %w", a, io.ErrUnexpectedEOF)
	}
	d.stats.Reads++
	return nil
}

func (d *FileDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *FileDisk) Write(a uint64, v Block) error {
	if err := checkAccess(a, d.numBlocks, v); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	n, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("write block %d: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("write block %d: %w", a, io.ErrShortWrite)
	}
	d.stats.Writes++
	return nil
}

func (d *FileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *FileDisk) Barrier() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	if err := unix.Fsync(d.fd); err != nil {
		return fmt.Errorf("file sync failed: %w", err)
	}
	return nil
}

func (d *FileDisk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return unix.Close(d.fd)
}

func (d *FileDisk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

/////////////////////////
/////////////////////////

var _ Disk = (*MemDisk)(nil)

type MemDisk struct {
	l      *sync.RWMutex
	blocks [][BlockSize]byte
	stats  *Stats
}

func NewMemDisk(numBlocks uint64) *MemDisk {
	blocks := make([][BlockSize]byte, numBlocks)
	return &MemDisk{l: new(sync.RWMutex), blocks: blocks, stats: new(Stats)}
}

func (d *MemDisk) ReadTo(a uint64, buf Block) error {
	if err := checkAccess(a, uint64(len(d.blocks)), buf); err != nil {
		return err
	}
	d.l.Lock()
	defer d.l.Unlock()
	copy(buf, d.blocks[a][:])
	d.stats.Reads++
	return nil
}

func (d *MemDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	if err := d.ReadTo(a, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *MemDisk) Write(a uint64, v Block) error {
	if err := checkAccess(a, uint64(len(d.blocks)), v); err != nil {
		return err
	}
	d.l.Lock()
	defer d.l.Unlock()
	copy(d.blocks[a][:], v)
	d.stats.Writes++
	return nil
}

func (d *MemDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks)), nil
}

func (d *MemDisk) Barrier() error { return nil }

func (d *MemDisk) Close() error { return nil }

func (d *MemDisk) Stats() Stats {
	d.l.RLock()
	defer d.l.RUnlock()
	return *d.stats
}
