// Package core implements the on-page block format: the 128-byte
// envelope (address, payload, CRC16, Reed-Solomon parity) that every
// printed cell on a page carries, plus the distinguished superblock
// variant that opens each file.
package core

import (
	"encoding/binary"
	"fmt"

	"github.com/cybran01/paperback-cli/internal/utils"
)

// Block geometry constants, fixed by the on-page format.
const (
	NData     = 90  // payload bytes carried by an ordinary data block
	BlockSize = 128 // addr(4) + data(90) + crc(2) + ecc(32)

	// SuperAddr is the sentinel addr value that marks a block as a
	// superblock rather than an ordinary data block.
	SuperAddr = 0xFFFFFFFF

	// Mode bits carried in a superblock, set PBM_xxx.
	ModeCompressed = 0x01
	ModeEncrypted  = 0x02

	superNameLen = 64
)

// Block is one decoded 128-byte envelope: either an ordinary data block
// (Addr != SuperAddr) or a superblock (Addr == SuperAddr, Super != nil).
type Block struct {
	Addr  uint32
	Data  [NData]byte
	Super *Superblock // non-nil only when Addr == SuperAddr
}

// Superblock carries the per-file metadata that opens a printed file:
// original size, compressed/padded stream size, the page's share of the
// stream, and a checksum of the padded stream before encryption. It shares the 90-byte data area
// of an ordinary block but lays it out differently.
type Superblock struct {
	DataSize   uint32 // size of the compressed (and optionally encrypted) stream
	PageSize   uint32 // bytes of stream data represented by this page
	OrigSize   uint32 // size of the original, uncompressed file
	Mode       uint8  // ModeCompressed | ModeEncrypted
	Attributes uint8  // platform file attribute bits
	Page       uint16 // 1-based page number
	Modified   int64  // source file modification time, Unix seconds
	FileCRC    uint16 // CRC16 of the compressed, pre-encryption stream
	Name       string // original file name, truncated to 64 bytes
}

// EncodeBlock packs addr and a 90-byte payload into a 128-byte on-page
// envelope: message (addr+data), CRC16 of the message XOR 0x55AA, and
// 32 bytes of Reed-Solomon parity over the 96-byte message+crc.
func EncodeBlock(addr uint32, data [NData]byte) []byte {
	buf := make([]byte, BlockSize)
	binary.LittleEndian.PutUint32(buf[0:4], addr)
	copy(buf[4:4+NData], data[:])
	crc := blockCRC16(buf[0 : 4+NData])
	binary.LittleEndian.PutUint16(buf[4+NData:4+NData+2], crc)
	parity := rsEncodeParity(buf[0:rsMessageLen])
	copy(buf[rsMessageLen:], parity[:])
	return buf
}

// EncodeSuperblock packs a Superblock descriptor into the same 128-byte
// envelope, with Addr forced to SuperAddr and the payload laid out per
// the superblock field order.
func EncodeSuperblock(sb Superblock) []byte {
	var data [NData]byte
	binary.LittleEndian.PutUint32(data[0:4], sb.DataSize)
	binary.LittleEndian.PutUint32(data[4:8], sb.PageSize)
	binary.LittleEndian.PutUint32(data[8:12], sb.OrigSize)
	data[12] = sb.Mode
	data[13] = sb.Attributes
	binary.LittleEndian.PutUint16(data[14:16], sb.Page)
	binary.LittleEndian.PutUint64(data[16:24], uint64(sb.Modified))
	binary.LittleEndian.PutUint16(data[24:26], sb.FileCRC)
	nameBytes := []byte(sb.Name)
	if len(nameBytes) > superNameLen {
		nameBytes = nameBytes[:superNameLen]
	}
	copy(data[26:26+superNameLen], nameBytes)
	return EncodeBlock(SuperAddr, data)
}

// DecodeBlock validates and parses a 128-byte on-page envelope. It first
// checks the CRC16; on mismatch it runs Reed-Solomon correction (using
// erasures, if any byte positions within block are already known bad)
// before re-checking the message. A returned error means the block is
// unrecoverable and the caller should treat it as erased.
func DecodeBlock(block []byte, erasures []int) (Block, error) {
	if len(block) != BlockSize {
		return Block{}, fmt.Errorf("block: want %d bytes, got %d", BlockSize, len(block))
	}

	message := append([]byte(nil), block[:rsMessageLen]...)
	parity := block[rsMessageLen:]

	if !crcOK(message) {
		corrected := append([]byte(nil), message...)
		corrected = append(corrected, parity...)
		n := rsCorrect(corrected, erasures)
		if n < 0 {
			return Block{}, fmt.Errorf("block: uncorrectable (addr=%#x)", binary.LittleEndian.Uint32(block[0:4]))
		}
		message = corrected[:rsMessageLen]
		if !crcOK(message) {
			return Block{}, fmt.Errorf("block: crc mismatch after RS correction")
		}
	}

	addr := binary.LittleEndian.Uint32(message[0:4])
	var data [NData]byte
	copy(data[:], message[4:4+NData])

	blk := Block{Addr: addr, Data: data}
	if addr == SuperAddr {
		sb, err := parseSuperblockPayload(data)
		if err != nil {
			return Block{}, utils.WrapError("superblock payload", err)
		}
		blk.Super = &sb
	}
	return blk, nil
}

// crcOK reports whether message's last two bytes hold a valid CRC16 of
// the preceding bytes (message is addr+data+crc, 96 bytes).
func crcOK(message []byte) bool {
	got := binary.LittleEndian.Uint16(message[len(message)-2:])
	want := blockCRC16(message[:len(message)-2])
	return got == want
}

func parseSuperblockPayload(data [NData]byte) (Superblock, error) {
	var sb Superblock
	sb.DataSize = binary.LittleEndian.Uint32(data[0:4])
	sb.PageSize = binary.LittleEndian.Uint32(data[4:8])
	sb.OrigSize = binary.LittleEndian.Uint32(data[8:12])
	sb.Mode = data[12]
	sb.Attributes = data[13]
	sb.Page = binary.LittleEndian.Uint16(data[14:16])
	sb.Modified = int64(binary.LittleEndian.Uint64(data[16:24]))
	sb.FileCRC = binary.LittleEndian.Uint16(data[24:26])

	nameEnd := 26
	for nameEnd < 26+superNameLen && data[nameEnd] != 0 {
		nameEnd++
	}
	sb.Name = string(data[26:nameEnd])

	if err := utils.ValidateBufferSize(uint64(sb.PageSize), uint64(utils.MaxStreamSize), "superblock pagesize"); err != nil {
		return Superblock{}, err
	}
	return sb, nil
}
