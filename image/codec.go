package image

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// Codec selects how block data is compressed in an image.
type Codec uint64

const (
	CodecNone Codec = iota
	CodecXz
	CodecBzip2
)

var codecNames = map[Codec]string{
	CodecNone:  "none",
	CodecXz:    "xz",
	CodecBzip2: "bzip2",
}

func (c Codec) String() string {
	if s, ok := codecNames[c]; ok {
		return s
	}
	return fmt.Sprintf("codec(%d)", uint64(c))
}

func (c Codec) valid() bool {
	_, ok := codecNames[c]
	return ok
}

// ParseCodec maps a codec name to a Codec.
func ParseCodec(s string) (Codec, error) {
	for c, name := range codecNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (c Codec) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecXz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return xw, nil
	case CodecBzip2:
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
		if err != nil {
			return nil, err
		}
		return bw, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, c)
}

func (c Codec) newReader(r io.Reader) (io.Reader, error) {
	switch c {
	case CodecNone:
		return r, nil
	case CodecXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return xr, nil
	case CodecBzip2:
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, err
		}
		return br, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, c)
}
