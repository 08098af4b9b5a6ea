package image

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/sfs"
)

// mkImage formats a device and stores one file on it.
func mkImage(t *testing.T, nblocks uint64) (*disk.MemDisk, []byte) {
	d := disk.NewMemDisk(nblocks)
	fs := sfs.MkFileSystem()
	require.NoError(t, fs.Format(d))
	require.NoError(t, fs.Mount(d))
	defer fs.Unmount()
	inum, err := fs.Create()
	require.NoError(t, err)
	data := make([]byte, 3*4096+123)
	for i := range data {
		data[i] = byte(i * 7)
	}
	_, err = fs.Write(inum, data, 0)
	require.NoError(t, err)
	return d, data
}

func TestRoundTrip(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecXz, CodecBzip2} {
		t.Run(codec.String(), func(t *testing.T) {
			src, data := mkImage(t, 30)
			var out bytes.Buffer
			hdr, err := Export(src, &out, codec)
			require.NoError(t, err)
			assert.Equal(t, uint64(30), hdr.Blocks)
			assert.NotEqual(t, uuid.Nil, hdr.ID)
			if codec != CodecNone {
				assert.Less(t, out.Len(), 30*4096)
			}

			dst := disk.NewMemDisk(30)
			hdr2, err := Import(&out, dst)
			require.NoError(t, err)
			assert.Equal(t, hdr, hdr2)

			fs := sfs.MkFileSystem()
			require.NoError(t, fs.Mount(dst))
			p := make([]byte, len(data))
			n, err := fs.Read(0, p, 0)
			require.NoError(t, err)
			assert.Equal(t, uint64(len(data)), n)
			assert.Equal(t, data, p)

			sum1, err := Checksum(src)
			require.NoError(t, err)
			sum2, err := Checksum(dst)
			require.NoError(t, err)
			assert.Equal(t, sum1, sum2)
		})
	}
}

func TestChecksumMismatch(t *testing.T) {
	src, _ := mkImage(t, 20)
	var out bytes.Buffer
	_, err := Export(src, &out, CodecNone)
	require.NoError(t, err)

	b := out.Bytes()
	b[HDRSZ+3*4096+5] ^= 0xff
	_, err = Import(bytes.NewReader(b), disk.NewMemDisk(20))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestSizeMismatch(t *testing.T) {
	src, _ := mkImage(t, 20)
	var out bytes.Buffer
	_, err := Export(src, &out, CodecXz)
	require.NoError(t, err)
	_, err = Import(&out, disk.NewMemDisk(21))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestTruncated(t *testing.T) {
	src, _ := mkImage(t, 20)
	var out bytes.Buffer
	_, err := Export(src, &out, CodecNone)
	require.NoError(t, err)

	_, err = Import(bytes.NewReader(out.Bytes()[:HDRSZ+4096]), disk.NewMemDisk(20))
	assert.Error(t, err)
	_, err = Import(bytes.NewReader(out.Bytes()[:10]), disk.NewMemDisk(20))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestHeader(t *testing.T) {
	hdr := &Header{ID: uuid.New(), Blocks: 77, Codec: CodecBzip2}
	hdr.Sum[0] = 1
	hdr.Sum[31] = 2
	b := hdr.Encode()
	assert.Len(t, b, HDRSZ)
	assert.Equal(t, []byte("SFSIMG01"), b[:8])

	h2, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, hdr, h2)

	b[0] = 'X'
	_, err = DecodeHeader(b)
	assert.ErrorIs(t, err, ErrBadHeader)

	b = hdr.Encode()
	b[24] = 9
	_, err = DecodeHeader(b)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestParseCodec(t *testing.T) {
	for _, name := range []string{"none", "xz", "bzip2"} {
		c, err := ParseCodec(name)
		assert.NoError(t, err)
		assert.Equal(t, name, c.String())
	}
	_, err := ParseCodec("zip")
	assert.ErrorIs(t, err, ErrUnknownCodec)
	_, err = Export(disk.NewMemDisk(3), &bytes.Buffer{}, Codec(9))
	assert.ErrorIs(t, err, ErrUnknownCodec)
}
