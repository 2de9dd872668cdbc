package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
)

// Builder owns one streaming ZIP archive backed by a temp file. Discard is
// safe to call on every exit path and removes the backing file exactly once.
type Builder struct {
	file    *os.File
	zw      *zip.Writer
	path    string
	sealed  bool
	removed bool
}

// Open creates a uniquely named backing file in dir (the OS temp dir when
// dir is empty) and prepares the ZIP writer.
func Open(dir, pattern string) (*Builder, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("creating archive backing file: %w", err)
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	return &Builder{file: f, zw: zw, path: f.Name()}, nil
}

// Path returns the location of the backing file.
func (b *Builder) Path() string {
	return b.path
}

// Append writes one fully converted item as a compressed entry.
func (b *Builder) Append(entryName string, data []byte) error {
	if b.sealed {
		return fmt.Errorf("archive already sealed")
	}
	w, err := b.zw.Create(entryName)
	if err != nil {
		return fmt.Errorf("creating archive entry %q: %w", entryName, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing archive entry %q: %w", entryName, err)
	}
	return nil
}

// Seal flushes and closes the archive so the backing file becomes readable.
func (b *Builder) Seal() (string, error) {
	if b.sealed {
		return b.path, nil
	}
	b.sealed = true
	if err := b.zw.Close(); err != nil {
		return "", fmt.Errorf("finalizing archive: %w", err)
	}
	if err := b.file.Close(); err != nil {
		return "", fmt.Errorf("closing archive file: %w", err)
	}
	return b.path, nil
}

// Discard closes the writer if still open and removes the backing file.
// Idempotent.
func (b *Builder) Discard() {
	if !b.sealed {
		b.sealed = true
		_ = b.zw.Close()
		_ = b.file.Close()
	}
	if !b.removed {
		b.removed = true
		_ = os.Remove(b.path)
	}
}
