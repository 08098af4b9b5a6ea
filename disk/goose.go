package disk

import (
	"fmt"
	"sync"

	gdisk "github.com/tchajed/goose/machine/disk"
)

var _ Disk = (*GooseDisk)(nil)

// GooseDisk adapts a goose machine disk, whose operations panic on failure,
// to the error-returning Disk interface.
type GooseDisk struct {
	mu        *sync.Mutex
	d         gdisk.Disk
	numBlocks uint64
	stats     Stats
}

func FromGoose(d gdisk.Disk) *GooseDisk {
	return &GooseDisk{mu: new(sync.Mutex), d: d, numBlocks: d.Size()}
}

// NewGooseMemDisk is an in-memory disk implemented by goose.
func NewGooseMemDisk(numBlocks uint64) *GooseDisk {
	return FromGoose(gdisk.NewMemDisk(numBlocks))
}

func recoverErr(op string, a uint64, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s block %d: %v", op, a, r)
	}
}

func (d *GooseDisk) ReadTo(a uint64, buf Block) (err error) {
	if err := checkAccess(a, d.numBlocks, buf); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	defer recoverErr("read", a, &err)
	copy(buf, d.d.Read(a))
	d.stats.Reads++
	return nil
}

func (d *GooseDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	if err := d.ReadTo(a, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *GooseDisk) Write(a uint64, v Block) (err error) {
	if err := checkAccess(a, d.numBlocks, v); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	defer recoverErr("write", a, &err)
	d.d.Write(a, v)
	d.stats.Writes++
	return nil
}

func (d *GooseDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *GooseDisk) Barrier() (err error) {
	defer recoverErr("barrier", 0, &err)
	d.d.Barrier()
	return nil
}

func (d *GooseDisk) Close() (err error) {
	defer recoverErr("close", 0, &err)
	if c, ok := d.d.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

func (d *GooseDisk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
