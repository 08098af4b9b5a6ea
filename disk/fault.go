package disk

import (
	"errors"
	"sync"
)

// ErrInjected is returned by a FaultDisk for operations it was told to fail.
var ErrInjected = errors.New("injected disk failure")

var _ Disk = (*FaultDisk)(nil)

// FaultDisk wraps a Disk and fails selected operations, for testing error
// paths of the layers above.
type FaultDisk struct {
	Disk

	mu         *sync.Mutex
	badReads   map[uint64]bool
	badWrites  map[uint64]bool
	writesLeft int64 // < 0 means unlimited
}

func NewFaultDisk(d Disk) *FaultDisk {
	return &FaultDisk{
		Disk:       d,
		mu:         new(sync.Mutex),
		badReads:   make(map[uint64]bool),
		badWrites:  make(map[uint64]bool),
		writesLeft: -1,
	}
}

// FailRead makes every read of block a fail.
func (d *FaultDisk) FailRead(a uint64) {
	d.mu.Lock()
	d.badReads[a] = true
	d.mu.Unlock()
}

// FailWrite makes every write of block a fail.
func (d *FaultDisk) FailWrite(a uint64) {
	d.mu.Lock()
	d.badWrites[a] = true
	d.mu.Unlock()
}

// FailWritesAfter lets n more writes succeed and fails the rest.
func (d *FaultDisk) FailWritesAfter(n int64) {
	d.mu.Lock()
	d.writesLeft = n
	d.mu.Unlock()
}

// Heal clears all injected faults.
func (d *FaultDisk) Heal() {
	d.mu.Lock()
	d.badReads = make(map[uint64]bool)
	d.badWrites = make(map[uint64]bool)
	d.writesLeft = -1
	d.mu.Unlock()
}

func (d *FaultDisk) ReadTo(a uint64, b Block) error {
	d.mu.Lock()
	bad := d.badReads[a]
	d.mu.Unlock()
	if bad {
		return ErrInjected
	}
	return d.Disk.ReadTo(a, b)
}

func (d *FaultDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	if err := d.ReadTo(a, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *FaultDisk) Write(a uint64, v Block) error {
	d.mu.Lock()
	bad := d.badWrites[a] || d.writesLeft == 0
	if !bad && d.writesLeft > 0 {
		d.writesLeft--
	}
	d.mu.Unlock()
	if bad {
		return ErrInjected
	}
	return d.Disk.Write(a, v)
}
