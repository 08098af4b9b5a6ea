package disk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

func mkBlock(b byte) Block {
	block := make(Block, BlockSize)
	for i := range block {
		block[i] = b
	}
	return block
}

type DiskSuite struct {
	suite.Suite
	mk func(numBlocks uint64) Disk
	d  Disk
}

func (suite *DiskSuite) SetupTest() {
	suite.d = suite.mk(10)
}

func (suite *DiskSuite) TearDownTest() {
	suite.NoError(suite.d.Close())
}

func (suite *DiskSuite) TestSize() {
	sz, err := suite.d.Size()
	suite.NoError(err)
	suite.Equal(uint64(10), sz)
}

func (suite *DiskSuite) TestReadWrite() {
	d := suite.d
	suite.NoError(d.Write(2, mkBlock(2)))
	suite.NoError(d.Write(9, mkBlock(9)))

	b, err := d.Read(2)
	suite.NoError(err)
	suite.Equal(mkBlock(2), b)

	buf := make(Block, BlockSize)
	suite.NoError(d.ReadTo(9, buf))
	suite.Equal(mkBlock(9), buf)

	b, err = d.Read(0)
	suite.NoError(err)
	suite.Equal(mkBlock(0), b, "unwritten block should be zero")
	suite.NoError(d.Barrier())
}

func (suite *DiskSuite) TestOutOfBounds() {
	d := suite.d
	_, err := d.Read(10)
	suite.ErrorIs(err, ErrOutOfBounds)
	suite.ErrorIs(d.Write(10, mkBlock(1)), ErrOutOfBounds)
}

func (suite *DiskSuite) TestBadBuffer() {
	d := suite.d
	suite.ErrorIs(d.Write(1, make(Block, 10)), ErrBadBuffer)
	suite.ErrorIs(d.ReadTo(1, nil), ErrBadBuffer)
	b, err := d.Read(1)
	suite.NoError(err)
	suite.Equal(mkBlock(0), b, "failed write should have no effect")
}

func (suite *DiskSuite) TestStats() {
	c, ok := suite.d.(Counter)
	suite.Require().True(ok)
	suite.NoError(suite.d.Write(1, mkBlock(1)))
	_, err := suite.d.Read(1)
	suite.NoError(err)
	_, _ = suite.d.Read(100)
	suite.Equal(Stats{Reads: 1, Writes: 1}, c.Stats(),
		"failed operations should not count")
}

func TestMemDisk(t *testing.T) {
	suite.Run(t, &DiskSuite{mk: func(n uint64) Disk { return NewMemDisk(n) }})
}

func TestGooseDisk(t *testing.T) {
	suite.Run(t, &DiskSuite{mk: func(n uint64) Disk { return NewGooseMemDisk(n) }})
}

func TestFileDisk(t *testing.T) {
	dir := t.TempDir()
	var count int
	suite.Run(t, &DiskSuite{mk: func(n uint64) Disk {
		count++
		d, err := NewFileDisk(filepath.Join(dir, "disk"+string(rune('a'+count))+".img"), n)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}})
}

func TestFileDiskPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := NewFileDisk(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Write(3, mkBlock(7)); err != nil {
		t.Fatal(err)
	}
	d.Close()
	_, err = d.Read(3)
	if err != ErrClosed {
		t.Fatalf("read after close: %v", err)
	}

	d, err = NewFileDisk(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	b, err := d.Read(3)
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 7 || b[BlockSize-1] != 7 {
		t.Fatalf("block 3 not persisted: %v", b[:4])
	}
}
