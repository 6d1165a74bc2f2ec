// Package tabular holds shared helpers for the tab-separated files the
// pipeline produces and consumes. Metadata dumps and large result tables
// routinely arrive gzip-compressed, so readers are decompression-transparent.
package tabular

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// MaxLineBytes bounds a single TSV line; lineage columns can get long.
const MaxLineBytes = 4 << 20

// Open opens path for reading, transparently decompressing gzip input.
// Detection is by magic bytes, not file extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)

	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("cannot open gzip stream %s: %w", path, err)
		}
		return &gzipReadCloser{gz: gz, f: f}, nil
	}
	return &plainReadCloser{r: br, f: f}, nil
}

// NewScanner returns a line scanner sized for wide rows.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), MaxLineBytes)
	return sc
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	gerr := g.gz.Close()
	ferr := g.f.Close()
	if gerr != nil {
		return gerr
	}
	return ferr
}

type plainReadCloser struct {
	r *bufio.Reader
	f *os.File
}

func (p *plainReadCloser) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *plainReadCloser) Close() error { return p.f.Close() }
