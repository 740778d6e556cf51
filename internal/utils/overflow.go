package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow reports whether a*b would overflow a uint64.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeMultiply multiplies two uint64 values, failing rather than wrapping.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ValidateBufferSize checks that size is non-zero and within maxSize,
// annotating failures with description for easier diagnosis.
func ValidateBufferSize(size, maxSize uint64, description string) error {
	if size == 0 {
		return fmt.Errorf("%s: size cannot be zero", description)
	}
	if size > maxSize {
		return fmt.Errorf("%s: size %d exceeds maximum %d", description, size, maxSize)
	}
	return nil
}

// Common size limits shared across the codec.
const (
	// MaxStreamSize bounds the compressed+padded stream (MAXSIZE in the
	// on-page format): addr values must stay strictly below it so they
	// never collide with the 0xFFFFFFFF superblock sentinel.
	MaxStreamSize = 0x0FFFFF80

	// MaxInputFileSize is the raw file size limit for a backup. No code
	// in this module checks it; the encoder does not reject larger files.
	MaxInputFileSize = 1 << 32
)

// ValidateGridDimension checks that a computed grid dimension (nx or ny)
// is positive; a zero or negative result means the page geometry (DPI,
// margins, dot size) leaves no room for a single block cell.
func ValidateGridDimension(name string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%s: computed grid dimension %d is not positive; "+
			"increase page size or DPI, or reduce margins/dot size", name, value)
	}
	return nil
}

// ValidateAddr checks that a data block's addr is a multiple of blockSize
// and strictly below datasize, per the on-page format invariant.
func ValidateAddr(addr, datasize uint32, blockSize uint32) error {
	if addr%blockSize != 0 {
		return fmt.Errorf("addr %d is not a multiple of %d", addr, blockSize)
	}
	if uint64(addr) >= uint64(datasize) {
		return fmt.Errorf("addr %d is out of range for datasize %d", addr, datasize)
	}
	return nil
}
