package main

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// openTraceSink opens the -T/--trace destination named by path, wrapping it
// in a zstd encoder when path ends in ".zst" (the one place this core has
// something worth compressing: a syscall trace). The returned closer must
// be closed after the invocation finishes to flush the encoder.
func openTraceSink(path string) (io.Writer, io.Closer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, f, nil
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return enc, multiCloser{enc, f}, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var err error
	for _, c := range m {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
