package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckMultiplyOverflow(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		wantErr bool
	}{
		{"no overflow - small numbers", 10, 20, false},
		{"no overflow - one zero", 0, math.MaxUint64, false},
		{"no overflow - both zero", 0, 0, false},
		{"overflow - huge product", math.MaxUint64 / 2, 3, true},
		{"boundary - exact max", math.MaxUint64, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMultiplyOverflow(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSafeMultiply(t *testing.T) {
	result, err := SafeMultiply(32, 32)
	require.NoError(t, err)
	require.Equal(t, uint64(1024), result)

	_, err = SafeMultiply(math.MaxUint64, 2)
	require.Error(t, err)
}

func TestValidateBufferSize(t *testing.T) {
	require.NoError(t, ValidateBufferSize(128, 1024, "block"))
	require.Error(t, ValidateBufferSize(0, 1024, "block"))
	require.Error(t, ValidateBufferSize(2048, 1024, "block"))
}

func TestValidateGridDimension(t *testing.T) {
	require.NoError(t, ValidateGridDimension("nx", 4))
	require.Error(t, ValidateGridDimension("nx", 0))
	require.Error(t, ValidateGridDimension("ny", -1))
}

func TestValidateAddr(t *testing.T) {
	require.NoError(t, ValidateAddr(90, 1000, 90))
	require.Error(t, ValidateAddr(91, 1000, 90), "not a multiple of block size")
	require.Error(t, ValidateAddr(900, 900, 90), "equal to datasize is out of range")
}
