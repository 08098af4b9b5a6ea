package sfs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/util"
)

// TestModel runs random writes and removes against both the engine and a
// map of byte slices, remounting now and then.
func TestModel(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	d := disk.NewMemDisk(200)
	fs := MkFileSystem()
	require.NoError(t, fs.Format(d))
	require.NoError(t, fs.Mount(d))

	model := make(map[common.Inum][]byte)
	const maxOff = 30 * 4096

	check := func() {
		for inum, want := range model {
			sz, err := fs.Stat(inum)
			require.NoError(t, err)
			require.Equal(t, uint64(len(want)), sz, "inode %d", inum)
			if sz == 0 {
				continue
			}
			off := uint64(rnd.Intn(len(want)))
			p := make([]byte, rnd.Intn(3*4096)+1)
			n, err := fs.Read(inum, p, off)
			require.NoError(t, err)
			end := off + n
			assert.Equal(t, want[off:end], p[:n], "inode %d at %d", inum, off)
			assert.Equal(t, util.Min(uint64(len(p)), sz-off), n)
		}
	}

	for i := 0; i < 400; i++ {
		switch op := rnd.Intn(10); {
		case op == 0 || len(model) == 0:
			if len(model) >= 4 {
				continue
			}
			inum, err := fs.Create()
			require.NoError(t, err)
			model[inum] = nil
		case op == 1:
			for inum := range model {
				require.NoError(t, fs.Remove(inum))
				delete(model, inum)
				break
			}
		case op == 2:
			fs.Unmount()
			require.NoError(t, fs.Mount(d))
		default:
			for inum, cur := range model {
				off := uint64(rnd.Intn(len(cur) + 4096))
				if off > maxOff {
					off = maxOff
				}
				data := mkData(rnd.Intn(3*4096)+1, byte(i))
				n, err := fs.Write(inum, data, off)
				require.NoError(t, err)
				require.Equal(t, uint64(len(data)), n)
				end := off + uint64(len(data))
				if end > uint64(len(cur)) {
					cur = append(cur, make([]byte, end-uint64(len(cur)))...)
				}
				copy(cur[off:], data)
				model[inum] = cur
				break
			}
		}
		check()
	}

	used := fs.alloc.Used()
	fs.Unmount()
	require.NoError(t, fs.Mount(d))
	assert.Equal(t, used, fs.alloc.Used())
	check()
}
