package core

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression suffixes accepted after the format extension, e.g. "orders.csv.gz".
const (
	compressionNone = ""
	compressionGzip = ".gz"
	compressionZstd = ".zst"
	compressionXZ   = ".xz"
)

// splitExt returns the lower-cased format extension of name and its
// compression suffix, if any.
func splitExt(name string) (format, compression string) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case compressionGzip, compressionZstd, compressionXZ:
		compression = ext
		name = strings.TrimSuffix(name, filepath.Ext(name))
		ext = strings.ToLower(filepath.Ext(name))
	}
	return ext, compression
}

// decompress wraps r according to the compression suffix. The returned
// closer releases decoder resources; it does not close r.
func decompress(r io.Reader, compression string) (io.Reader, io.Closer, error) {
	switch compression {
	case compressionNone:
		return r, nopCloser{}, nil
	case compressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, gz, nil
	case compressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		rc := dec.IOReadCloser()
		return rc, rc, nil
	case compressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xr, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: compression %q", ErrUnsupportedFormat, compression)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
