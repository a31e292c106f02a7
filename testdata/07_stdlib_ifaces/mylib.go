package mylib

import (
	"fmt"
	"io"
)

type Failure interface {
	error
	Code() int
}

type Pretty interface {
	fmt.Stringer
	Format(prefix string, args ...any) string
}

type Source interface {
	io.ReadCloser
	Name() string
}

type Bytes struct{}

func (b Bytes) Read(p []byte) (int, error) {
	return 0, nil
}
