package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDataBlockRoundTrip(t *testing.T) {
	var data [NData]byte
	for i := range data {
		data[i] = byte(i * 3)
	}

	encoded := EncodeBlock(180, data)
	require.Len(t, encoded, BlockSize)

	blk, err := DecodeBlock(encoded, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(180), blk.Addr)
	require.Equal(t, data, blk.Data)
	require.Nil(t, blk.Super)
}

func TestDecodeBlockCorrectsDamagedBytes(t *testing.T) {
	var data [NData]byte
	copy(data[:], []byte("recoverable payload"))

	encoded := EncodeBlock(90, data)
	encoded[10] ^= 0xFF
	encoded[50] ^= 0x0F

	blk, err := DecodeBlock(encoded, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(90), blk.Addr)
	require.Equal(t, data, blk.Data)
}

func TestDecodeBlockRejectsUnrecoverable(t *testing.T) {
	var data [NData]byte
	encoded := EncodeBlock(0, data)
	for i := 0; i < BlockSize; i += 3 {
		encoded[i] ^= 0xFF
	}

	_, err := DecodeBlock(encoded, nil)
	require.Error(t, err)
}

func TestSuperblockRoundTrip(t *testing.T) {
	sb := Superblock{
		DataSize:   123456,
		PageSize:   65536,
		OrigSize:   999000,
		Mode:       ModeCompressed,
		Attributes: 0,
		Page:       2,
		Modified:   1_700_000_000,
		FileCRC:    0xBEEF,
		Name:       "report.pdf",
	}

	encoded := EncodeSuperblock(sb)
	require.Len(t, encoded, BlockSize)

	blk, err := DecodeBlock(encoded, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(SuperAddr), blk.Addr)
	require.NotNil(t, blk.Super)
	require.Equal(t, sb.DataSize, blk.Super.DataSize)
	require.Equal(t, sb.PageSize, blk.Super.PageSize)
	require.Equal(t, sb.OrigSize, blk.Super.OrigSize)
	require.Equal(t, sb.Mode, blk.Super.Mode)
	require.Equal(t, sb.Page, blk.Super.Page)
	require.Equal(t, sb.Modified, blk.Super.Modified)
	require.Equal(t, sb.FileCRC, blk.Super.FileCRC)
	require.Equal(t, sb.Name, blk.Super.Name)
}

func TestSuperblockNameTruncation(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	sb := Superblock{Name: string(long), PageSize: 4096}

	encoded := EncodeSuperblock(sb)
	blk, err := DecodeBlock(encoded, nil)
	require.NoError(t, err)
	require.Len(t, blk.Super.Name, superNameLen)
}

func TestDecodeBlockWrongLength(t *testing.T) {
	_, err := DecodeBlock(make([]byte, 10), nil)
	require.Error(t, err)
}
