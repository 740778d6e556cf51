// Package writer implements the encode-side stream stage: compression,
// optional encryption, and whole-stream checksum, applied to a file's
// bytes before they are split into on-page blocks.
package writer

import "fmt"

// Filter transforms a byte stream on the way to disk/paper (Apply) and
// reverses the transform on the way back (Remove). Compression and
// encryption are both filters; they compose in a Pipeline.
type Filter interface {
	// Name identifies the filter for error messages.
	Name() string

	// Apply transforms data (compress/encrypt on the encode path).
	Apply(data []byte) ([]byte, error)

	// Remove reverses the transform (decrypt/decompress on the decode path).
	Remove(data []byte) ([]byte, error)
}

// Pipeline runs a chain of filters in sequence on encode and in reverse
// on decode, mirroring the order the on-page mode bits declare:
// compress, then encrypt.
type Pipeline struct {
	filters []Filter
}

// NewPipeline creates an empty stream pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add appends a filter to the end of the pipeline's encode order.
func (p *Pipeline) Add(f Filter) {
	p.filters = append(p.filters, f)
}

// Apply runs every filter's Apply in pipeline order.
func (p *Pipeline) Apply(data []byte) ([]byte, error) {
	result := data
	for _, f := range p.filters {
		var err error
		result, err = f.Apply(result)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Name(), err)
		}
	}
	return result, nil
}

// Remove runs every filter's Remove in reverse pipeline order.
func (p *Pipeline) Remove(data []byte) ([]byte, error) {
	result := data
	for i := len(p.filters) - 1; i >= 0; i-- {
		f := p.filters[i]
		var err error
		result, err = f.Remove(result)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Name(), err)
		}
	}
	return result, nil
}

// IsEmpty reports whether the pipeline has no filters.
func (p *Pipeline) IsEmpty() bool {
	return len(p.filters) == 0
}
