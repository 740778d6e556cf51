// Package reassembler tracks files being rebuilt from scanned pages.
// Up to NFile files can be in flight at once, each keyed by name; every
// decoded block updates the matching slot until all payload positions
// are valid and the original file can be written out.
package reassembler

import (
	"fmt"

	"github.com/cybran01/paperback-cli/internal/core"
	"github.com/cybran01/paperback-cli/internal/utils"
)

// NFile is the maximum number of files tracked concurrently, matching
// the original tool's fixed-size slot table.
const NFile = 5

type validity uint8

const (
	invalid validity = iota
	valid
)

// Slot holds one file's in-progress reconstruction.
type Slot struct {
	Name        string
	Modified    int64
	Attributes  uint8
	OrigSize    int
	DataSize    int
	PageSize    int
	Mode        uint8
	FileCRC     uint16
	CurrentPage uint16
	TotalPages  uint16

	data     []byte
	validity []validity

	// recoveryPayload holds recovery blocks keyed by their addr, which
	// equals their group's first data payload's addr. Kept separate
	// from data/validity since a recovery payload must never collide
	// with the data payload that happens to share its addr.
	recoveryPayload map[uint32][]byte

	nbad      int
	recovered int
}

// Table manages up to NFile in-flight reconstructions.
type Table struct {
	slots map[string]*Slot
}

// NewTable creates an empty reassembly table.
func NewTable() *Table {
	return &Table{slots: make(map[string]*Slot)}
}

// OpenFile starts (or resumes) reconstruction for a file named by sb,
// allocating a slot if none exists yet. It refuses a new name when all
// NFile slots are already occupied by other files.
func (t *Table) OpenFile(sb core.Superblock) (*Slot, error) {
	if slot, ok := t.slots[sb.Name]; ok {
		slot.CurrentPage = sb.Page
		if sb.Page > slot.TotalPages {
			slot.TotalPages = sb.Page
		}
		return slot, nil
	}

	if len(t.slots) >= NFile {
		return nil, fmt.Errorf("cannot track %q: %d files already in flight", sb.Name, NFile)
	}

	if err := utils.ValidateBufferSize(uint64(sb.DataSize), uint64(utils.MaxStreamSize), "superblock datasize"); err != nil {
		return nil, err
	}

	slotCount := (int(sb.DataSize) + core.NData - 1) / core.NData
	slot := &Slot{
		Name:            sb.Name,
		Modified:        sb.Modified,
		Attributes:      sb.Attributes,
		OrigSize:        int(sb.OrigSize),
		DataSize:        int(sb.DataSize),
		PageSize:        int(sb.PageSize),
		Mode:            sb.Mode,
		FileCRC:         sb.FileCRC,
		CurrentPage:     sb.Page,
		TotalPages:      sb.Page,
		data:            make([]byte, sb.DataSize),
		validity:        make([]validity, slotCount),
		recoveryPayload: make(map[uint32][]byte),
	}
	t.slots[sb.Name] = slot
	return slot, nil
}

// DeliverBlock places a decoded block's payload for this page. Data
// blocks are written straight into the slot's buffer at addr; recovery
// blocks are held aside for end-of-page reconciliation since their
// addr aliases their group's first data payload.
func (s *Slot) DeliverBlock(addr uint32, payload []byte, isRecovery bool) error {
	if isRecovery {
		stored := make([]byte, len(payload))
		copy(stored, payload)
		s.recoveryPayload[addr] = stored
		return nil
	}

	if err := utils.ValidateAddr(addr, uint32(s.DataSize), core.NData); err != nil {
		return fmt.Errorf("data block: %w", err)
	}
	idx := int(addr) / core.NData
	copy(s.data[addr:], payload)
	s.validity[idx] = valid
	return nil
}

// MarkBad records a block that failed CRC/ECC validation on this page.
func (s *Slot) MarkBad() {
	s.nbad++
}

// ReconcilePage runs end-of-page XOR recovery: for every ngroup-sized
// run of data payloads, if exactly one is still missing and that
// group's recovery payload arrived, reconstruct the missing payload by
// XORing the recovery block against the group's other payloads.
func (s *Slot) ReconcilePage(ngroup int) error {
	groupBytes := ngroup * core.NData

	for groupStart := 0; groupStart < len(s.data); groupStart += groupBytes {
		groupEnd := groupStart + groupBytes
		if groupEnd > len(s.data) {
			groupEnd = len(s.data)
		}
		startIdx := groupStart / core.NData
		endIdx := (groupEnd + core.NData - 1) / core.NData
		if endIdx > len(s.validity) {
			endIdx = len(s.validity)
		}

		rec, ok := s.recoveryPayload[uint32(groupStart)]
		if !ok {
			continue
		}

		missing := -1
		missingCount := 0
		for i := startIdx; i < endIdx; i++ {
			if s.validity[i] == invalid {
				missing = i
				missingCount++
			}
		}
		if missingCount != 1 {
			continue
		}

		var recovered [core.NData]byte
		copy(recovered[:], rec)
		for i := startIdx; i < endIdx; i++ {
			if i == missing {
				continue
			}
			addr := i * core.NData
			for b := 0; b < core.NData; b++ {
				recovered[b] ^= s.data[addr+b]
			}
		}

		missingAddr := missing * core.NData
		copy(s.data[missingAddr:missingAddr+core.NData], recovered[:])
		s.validity[missing] = valid
		s.recovered++
	}
	return nil
}

// IsComplete reports whether every data payload slot is valid.
func (s *Slot) IsComplete() bool {
	for _, v := range s.validity {
		if v != valid {
			return false
		}
	}
	return true
}

// Data returns the assembled datasize-byte stream. Only meaningful once
// IsComplete reports true.
func (s *Slot) Data() []byte {
	return s.data
}

// Stats reports diagnostic counters for the current reconstruction.
func (s *Slot) Stats() (nbad, recoveredBlocks int) {
	return s.nbad, s.recovered
}

// Close removes a file's slot, freeing it for a new file.
func (t *Table) Close(name string) {
	delete(t.slots, name)
}

// Len reports how many files are currently in flight.
func (t *Table) Len() int {
	return len(t.slots)
}
