package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultDisk(t *testing.T) {
	assert := assert.New(t)
	d := NewFaultDisk(NewMemDisk(8))

	d.FailRead(3)
	_, err := d.Read(3)
	assert.ErrorIs(err, ErrInjected)
	_, err = d.Read(2)
	assert.NoError(err)

	d.FailWrite(4)
	assert.ErrorIs(d.Write(4, mkBlock(1)), ErrInjected)
	assert.NoError(d.Write(5, mkBlock(1)))

	d.Heal()
	assert.NoError(d.Write(4, mkBlock(1)))

	d.FailWritesAfter(2)
	assert.NoError(d.Write(1, mkBlock(1)))
	assert.NoError(d.Write(2, mkBlock(1)))
	assert.ErrorIs(d.Write(6, mkBlock(1)), ErrInjected)
	b, err := d.Read(6)
	assert.NoError(err)
	assert.Equal(mkBlock(0), b, "failed write should not reach the disk")
}
