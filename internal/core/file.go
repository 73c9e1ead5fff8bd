package core

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
)

// MultipartFile adapts an uploaded form file.
type MultipartFile struct {
	hdr *multipart.FileHeader
}

// NewMultipartFile wraps hdr. A nil hdr yields a nil *MultipartFile,
// which the importer rejects with ErrNoFile.
func NewMultipartFile(hdr *multipart.FileHeader) *MultipartFile {
	if hdr == nil {
		return nil
	}
	return &MultipartFile{hdr: hdr}
}

func (f *MultipartFile) Name() string { return f.hdr.Filename }
func (f *MultipartFile) Size() int64  { return f.hdr.Size }

func (f *MultipartFile) ContentType() string {
	return f.hdr.Header.Get("Content-Type")
}

func (f *MultipartFile) Open() (io.ReadCloser, error) {
	return f.hdr.Open()
}

// LocalFile is a file on disk. Size is captured when the file is opened
// with OpenLocalFile.
type LocalFile struct {
	path string
	size int64
}

// OpenLocalFile stats path and returns a File for it.
func OpenLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &LocalFile{path: path, size: info.Size()}, nil
}

func (f *LocalFile) Name() string { return filepath.Base(f.path) }
func (f *LocalFile) Size() int64  { return f.size }

func (f *LocalFile) ContentType() string {
	format, _ := splitExt(f.path)
	return mime.TypeByExtension(format)
}

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// BytesFile is an in-memory File, handy for tests and request bodies.
type BytesFile struct {
	name        string
	contentType string
	data        []byte
}

func NewBytesFile(name, contentType string, data []byte) *BytesFile {
	return &BytesFile{name: name, contentType: contentType, data: data}
}

func (f *BytesFile) Name() string        { return f.name }
func (f *BytesFile) Size() int64         { return int64(len(f.data)) }
func (f *BytesFile) ContentType() string { return f.contentType }

func (f *BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
