package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// CompressionFilter implements the deterministic block-sorting
// compression named by the encoder's `compression` option (1=fast,
// 2=max). The standard library's compress/bzip2 only reads; writing
// needs github.com/dsnet/compress/bzip2.
type CompressionFilter struct {
	level int // 1 (fast) .. 9 (max); driven by the compression option
}

// NewCompressionFilter builds a filter for the given paperback
// compression level (1=fast, 2=max), mapping it onto dsnet/compress's
// block-size levels.
func NewCompressionFilter(level int) *CompressionFilter {
	bzLevel := bzip2.BestSpeed
	if level >= 2 {
		bzLevel = bzip2.BestCompression
	}
	return &CompressionFilter{level: bzLevel}
}

// Name identifies the filter for pipeline error messages.
func (f *CompressionFilter) Name() string {
	return "bzip2"
}

// Apply compresses data using bzip2 at the configured level.
func (f *CompressionFilter) Apply(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: f.level})
	if err != nil {
		return nil, fmt.Errorf("bzip2 writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("bzip2 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("bzip2 flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Remove decompresses bzip2-compressed data.
func (f *CompressionFilter) Remove(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("bzip2 reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bzip2 decompress: %w", err)
	}
	return out, nil
}
