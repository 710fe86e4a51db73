// Package tailreader reads the last lines of an append-only text source by
// walking it backwards in fixed-size chunks, so the cost of a read is bounded
// by how much is asked for rather than by the size of the source.
package tailreader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

const DefaultChunkSize = 64 * 1024

// Options bounds a single reverse read. Zero values mean "no limit" for
// MaxLines and MaxBytes, and DefaultChunkSize for ChunkSize.
type Options struct {
	MaxLines  int
	MaxBytes  int64
	ChunkSize int
}

// Result holds non-empty lines, newest first.
type Result struct {
	Lines     []string
	BytesRead int64
	// Truncated is set when the read stopped before reaching the start of the
	// source.
	Truncated bool
}

// Read walks r backwards from size.
func Read(r io.ReaderAt, size int64, opts Options) (*Result, error) {
	chunk := int64(opts.ChunkSize)
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	res := &Result{}
	full := func() bool { return opts.MaxLines > 0 && len(res.Lines) >= opts.MaxLines }
	emit := func(line []byte) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			return
		}
		res.Lines = append(res.Lines, string(line))
	}

	pos := size
	var carry []byte
	for pos > 0 && !full() {
		n := chunk
		if n > pos {
			n = pos
		}
		if opts.MaxBytes > 0 {
			remaining := opts.MaxBytes - res.BytesRead
			if remaining <= 0 {
				break
			}
			if n > remaining {
				n = remaining
			}
		}
		pos -= n

		buf := make([]byte, n, n+int64(len(carry)))
		if _, err := r.ReadAt(buf, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("tailreader: read at %d: %w", pos, err)
		}
		res.BytesRead += n

		data := append(buf, carry...)
		for !full() {
			idx := bytes.LastIndexByte(data, '\n')
			if idx < 0 {
				break
			}
			emit(data[idx+1:])
			data = data[:idx]
		}
		carry = append([]byte(nil), data...)
	}

	// The first line of the source has no preceding newline.
	if pos == 0 && !full() && len(carry) > 0 {
		emit(carry)
		carry = nil
	}
	res.Truncated = pos > 0 || len(bytes.TrimSpace(carry)) > 0
	return res, nil
}

// ReadFile tails the file at path. A missing file yields an empty result.
func ReadFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tailreader: open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("tailreader: stat: %w", err)
	}
	return Read(f, info.Size(), opts)
}
