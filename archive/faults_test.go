package archive_test

import (
	"errors"
	"io/fs"
	"testing/fstest"
)

var errDisk = errors.New("input/output error")

// faultyFS wraps a MapFS. Reads of failRead fail after the header is written;
// opens of gone fail with fs.ErrNotExist even though ReadDir lists them.
type faultyFS struct {
	fstest.MapFS
	failRead string
	gone     string
}

func (f faultyFS) Open(name string) (fs.File, error) {
	if name == f.gone {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	file, err := f.MapFS.Open(name)
	if err != nil || name != f.failRead {
		return file, err
	}
	return failingFile{File: file}, nil
}

type failingFile struct {
	fs.File
}

func (failingFile) Read([]byte) (int, error) {
	return 0, errDisk
}
