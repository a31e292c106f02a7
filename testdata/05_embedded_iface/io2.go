package io2

import "io"

type Reader interface {
	Read(p []byte) (n int, err error)
}

type Closer interface {
	Close() error
}

type ReadCloser interface {
	Reader
	Closer
	ReadAt(p []byte, off int64) (int, error)
}

// Seeker embeds an interface from outside the module.
type Seeker interface {
	io.Seeker
}

type MyFile struct{}

func (f MyFile) Read(p []byte) (int, error) {
	return 0, nil
}

func (f MyFile) Close() error {
	return nil
}
