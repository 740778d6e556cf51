package core

import "fmt"

// NGroupMin and NGroupMax bound the user-chosen redundancy parameter:
// the number of data payloads covered by each XOR recovery block.
const (
	NGroupMin = 2
	NGroupMax = 10
)

// Payload is one addr-tagged, NData-byte chunk of a file's encoded
// stream, either original data or a synthesized XOR recovery block.
type Payload struct {
	Addr       uint32
	Data       [NData]byte
	IsRecovery bool
}

// GroupWithRecovery arranges sequentially addressed data payloads into
// scan order, inserting one recovery payload after every run of ngroup
// data payloads. A recovery payload's data is the XOR of its group and
// its addr equals the group's first data payload's addr, matching the
// on-page scheme where recovery and data share address space and are
// told apart by position.
func GroupWithRecovery(payloads []Payload, ngroup int) ([]Payload, error) {
	if ngroup < NGroupMin || ngroup > NGroupMax {
		return nil, fmt.Errorf("ngroup %d out of range [%d,%d]", ngroup, NGroupMin, NGroupMax)
	}

	out := make([]Payload, 0, len(payloads)+(len(payloads)+ngroup-1)/ngroup)
	for i := 0; i < len(payloads); i += ngroup {
		end := i + ngroup
		if end > len(payloads) {
			end = len(payloads)
		}
		group := payloads[i:end]
		out = append(out, group...)

		var recovery [NData]byte
		for _, p := range group {
			xorInto(&recovery, &p.Data)
		}
		out = append(out, Payload{Addr: group[0].Addr, Data: recovery, IsRecovery: true})
	}
	return out, nil
}

// ReconstructGroup recovers exactly one missing data payload from its
// group's surviving payloads and recovery block. present holds every
// surviving data payload in the group (any order); missingAddr is the
// addr the reconstructed payload must carry.
func ReconstructGroup(present []Payload, recovery Payload, groupSize int, missingAddr uint32) (Payload, error) {
	if len(present) != groupSize-1 {
		return Payload{}, fmt.Errorf("reconstruction needs exactly one missing payload in a group of %d, got %d present", groupSize, len(present))
	}

	data := recovery.Data
	for _, p := range present {
		xorInto(&data, &p.Data)
	}
	return Payload{Addr: missingAddr, Data: data}, nil
}

func xorInto(dst *[NData]byte, src *[NData]byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// ScanGroupSize reports how many blocks (data + recovery) a group of
// ngroup data payloads occupies in page scan order.
func ScanGroupSize(ngroup int) int {
	return ngroup + 1
}
