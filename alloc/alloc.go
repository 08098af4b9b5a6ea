package alloc

import (
	"sync"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/util"
)

// Alloc uses an in-memory bit map to allocate and free block numbers. Bit n
// is set when block n is in use. Block 0 is never handed out: AllocNum
// returns 0 to signal that no block is free.
type Alloc struct {
	lock   *sync.Mutex // protects bitmap
	bitmap []byte
	max    uint64 // number of blocks tracked
}

// MkAlloc returns an allocator over max blocks, all free except block 0.
func MkAlloc(max uint64) *Alloc {
	a := &Alloc{
		lock:   new(sync.Mutex),
		bitmap: make([]byte, util.RoundUp(max, 8)),
		max:    max,
	}
	// bits past max are permanently used
	for n := max; n < uint64(len(a.bitmap))*8; n++ {
		a.bitmap[n/8] |= 1 << (n % 8)
	}
	if max > 0 {
		a.bitmap[0] |= 1
	}
	return a
}

func (a *Alloc) checkNum(n common.Bnum, who string) {
	if uint64(n) >= a.max {
		panic(who + ": block out of range")
	}
}

// MarkUsed marks n as allocated.
func (a *Alloc) MarkUsed(n common.Bnum) {
	a.checkNum(n, "MarkUsed")
	a.lock.Lock()
	a.bitmap[n/8] |= 1 << (n % 8)
	a.lock.Unlock()
}

// AllocNum marks the lowest free block used and returns it, or returns
// NULLBNUM if every block is in use.
func (a *Alloc) AllocNum() common.Bnum {
	a.lock.Lock()
	defer a.lock.Unlock()
	for i, b := range a.bitmap {
		if b == 0xff {
			continue
		}
		for bit := uint64(0); bit < 8; bit++ {
			if b&(1<<bit) == 0 {
				a.bitmap[i] |= 1 << bit
				num := common.Bnum(uint64(i)*8 + bit)
				util.DPrintf(15, "AllocNum: %d\n", num)
				return num
			}
		}
	}
	return common.NULLBNUM
}

func (a *Alloc) FreeNum(num common.Bnum) {
	if num == common.NULLBNUM {
		panic("FreeNum")
	}
	a.checkNum(num, "FreeNum")
	a.lock.Lock()
	a.bitmap[num/8] &= ^(1 << (num % 8))
	a.lock.Unlock()
}

func (a *Alloc) IsFree(num common.Bnum) bool {
	if uint64(num) >= a.max {
		return false
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.bitmap[num/8]&(1<<(num%8)) == 0
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumFree returns the number of free blocks.
func (a *Alloc) NumFree() uint64 {
	a.lock.Lock()
	defer a.lock.Unlock()
	var used uint64
	for _, b := range a.bitmap {
		used += popCnt(b)
	}
	return uint64(len(a.bitmap))*8 - used
}

// Used returns every block that is in use, in increasing order.
func (a *Alloc) Used() []common.Bnum {
	a.lock.Lock()
	defer a.lock.Unlock()
	var used []common.Bnum
	for n := uint64(0); n < a.max; n++ {
		if a.bitmap[n/8]&(1<<(n%8)) != 0 {
			used = append(used, common.Bnum(n))
		}
	}
	return used
}
