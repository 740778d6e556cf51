// Package writer builds the encode-side byte stream: compress, pad,
// checksum, optionally encrypt, then split into NData-sized payload
// chunks ready to become on-page blocks.
package writer

import (
	"fmt"

	"github.com/cybran01/paperback-cli/internal/core"
)

// EncodeOptions configures a single file's stream construction.
type EncodeOptions struct {
	CompressionLevel int    // 0 disables compression
	Passphrase       string // empty disables encryption
}

// EncodedStream holds everything a superblock needs plus the payload
// chunks ready for core.EncodeBlock.
type EncodedStream struct {
	OrigSize int
	DataSize int // length of the final compressed+padded(+encrypted) stream
	Mode     uint8
	FileCRC  uint16
	Chunks   []Chunk
}

// BuildStream runs data through compression, padding, checksumming and
// optional encryption, then splits the result into NData-byte chunks.
// The filecrc is computed over the padded, pre-encryption stream, so a
// decoder can verify integrity immediately after decrypting regardless
// of which cipher was used to encrypt it.
func BuildStream(data []byte, opts EncodeOptions) (*EncodedStream, error) {
	origSize := len(data)
	var mode uint8

	stage := data
	if opts.CompressionLevel > 0 {
		pipeline := NewPipeline()
		pipeline.Add(NewCompressionFilter(opts.CompressionLevel))
		compressed, err := pipeline.Apply(stage)
		if err != nil {
			return nil, fmt.Errorf("compress: %w", err)
		}
		stage = compressed
		mode |= core.ModeCompressed
	}

	stage = padTo16(stage)
	fileCRC := core.StreamCRC16(stage)

	if opts.Passphrase != "" {
		enc := NewEncryptionFilter(opts.Passphrase)
		ciphertext, err := enc.Apply(stage)
		if err != nil {
			return nil, fmt.Errorf("encrypt: %w", err)
		}
		stage = ciphertext
		mode |= core.ModeEncrypted
	}

	chunks, err := SplitIntoChunks(stage, core.NData)
	if err != nil {
		return nil, fmt.Errorf("split stream: %w", err)
	}

	return &EncodedStream{
		OrigSize: origSize,
		DataSize: len(stage),
		Mode:     mode,
		FileCRC:  fileCRC,
		Chunks:   chunks,
	}, nil
}

// DecodeStream reverses BuildStream: decrypt (if mode declares it),
// verify filecrc, decompress (if mode declares it) back to origSize
// bytes.
func DecodeStream(stream []byte, mode uint8, fileCRC uint16, passphrase string, origSize int) ([]byte, error) {
	stage := stream

	if mode&core.ModeEncrypted != 0 {
		if passphrase == "" {
			return nil, fmt.Errorf("stream is encrypted but no passphrase was supplied")
		}
		dec := NewEncryptionFilter(passphrase)
		plaintext, err := dec.Remove(stage)
		if err != nil {
			return nil, fmt.Errorf("decrypt: %w", err)
		}
		stage = plaintext
	}

	if got := core.StreamCRC16(stage); got != fileCRC {
		return nil, fmt.Errorf("corrupted file or wrong password: filecrc mismatch (want %04x, got %04x)", fileCRC, got)
	}

	if mode&core.ModeCompressed != 0 {
		pipeline := NewPipeline()
		pipeline.Add(NewCompressionFilter(1)) // level is irrelevant for decompression
		decompressed, err := pipeline.Remove(stage)
		if err != nil {
			return nil, fmt.Errorf("decompress: %w", err)
		}
		stage = decompressed
	}

	if len(stage) < origSize {
		return nil, fmt.Errorf("decoded stream shorter than origsize: got %d want at least %d", len(stage), origSize)
	}
	return stage[:origSize], nil
}

// GroupForLayout converts an encoded stream's chunks into redundancy
// groups of ngroup data payloads plus XOR recovery payloads, in the
// scan order a page layout consumes them.
func GroupForLayout(stream *EncodedStream, ngroup int) ([]core.Payload, error) {
	payloads := make([]core.Payload, len(stream.Chunks))
	for i, c := range stream.Chunks {
		var p core.Payload
		p.Addr = c.Addr
		copy(p.Data[:], c.Data)
		payloads[i] = p
	}
	return core.GroupWithRecovery(payloads, ngroup)
}

// padTo16 rounds data up to the next multiple of 16 bytes with zero
// padding, as required before the optional block-cipher stage. An empty
// stream still pads to one 16-byte block of zeros rather than staying
// empty, so a zero-byte input still yields one (all-zero) data payload
// instead of a stream with no payloads at all.
func padTo16(data []byte) []byte {
	if len(data) == 0 {
		return make([]byte, 16)
	}
	rem := len(data) % 16
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data)+(16-rem))
	copy(padded, data)
	return padded
}
