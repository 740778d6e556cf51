package core

import (
	"bytes"
	"testing"
)

func sampleMessage() []byte {
	msg := make([]byte, rsMessageLen)
	for i := range msg {
		msg[i] = byte(i*31 + 17)
	}
	return msg
}

func encodedBlock(msg []byte) []byte {
	parity := rsEncodeParity(msg)
	block := make([]byte, rsShortLen)
	copy(block, msg)
	copy(block[rsMessageLen:], parity[:])
	return block
}

func TestRSEncodeDecodeClean(t *testing.T) {
	msg := sampleMessage()
	block := encodedBlock(msg)

	n := rsCorrect(block, nil)
	if n != 0 {
		t.Fatalf("expected 0 corrections on a clean codeword, got %d", n)
	}
	if !bytes.Equal(block[:rsMessageLen], msg) {
		t.Fatal("message altered despite clean codeword")
	}
}

func TestRSCorrectsSingleByteError(t *testing.T) {
	msg := sampleMessage()
	block := encodedBlock(msg)
	block[10] ^= 0xFF

	n := rsCorrect(block, nil)
	if n < 0 {
		t.Fatal("expected successful correction of a single byte error")
	}
	if !bytes.Equal(block[:rsMessageLen], msg) {
		t.Fatal("message not restored after single-byte correction")
	}
}

func TestRSCorrectsUpToNRootsOver2Errors(t *testing.T) {
	msg := sampleMessage()
	block := encodedBlock(msg)

	for _, pos := range []int{0, 5, 20, 40, 60, 80, 95, 100, 110, 120, 30, 45, 70, 90, 15} {
		block[pos] ^= 0x3C
	}

	n := rsCorrect(block, nil)
	if n < 0 {
		t.Fatal("expected successful correction of 15 byte errors (<= NROOTS/2)")
	}
	if !bytes.Equal(block[:rsMessageLen], msg) {
		t.Fatal("message not restored after 15-byte correction")
	}
}

func TestRSErasuresExtendCorrectionBudget(t *testing.T) {
	msg := sampleMessage()
	block := encodedBlock(msg)

	erasurePositions := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	for _, pos := range erasurePositions {
		block[pos] = 0
	}
	// A handful of extra unknown-location errors elsewhere, within the
	// combined erasure+error budget (2*errors + erasures <= NROOTS).
	block[100] ^= 0xAA
	block[110] ^= 0x11

	n := rsCorrect(block, erasurePositions)
	if n < 0 {
		t.Fatal("expected successful erasure-assisted correction")
	}
	if !bytes.Equal(block[:rsMessageLen], msg) {
		t.Fatal("message not restored after erasure-assisted correction")
	}
}

func TestRSReportsUncorrectable(t *testing.T) {
	msg := sampleMessage()
	block := encodedBlock(msg)

	for i := 0; i < rsShortLen; i += 3 {
		block[i] ^= 0xFF
	}

	n := rsCorrect(block, nil)
	if n >= 0 {
		t.Fatal("expected uncorrectable result when error count exceeds the RS budget")
	}
}

func TestGaloisFieldTablesAreInverses(t *testing.T) {
	for v := 1; v < rsSymbols; v++ {
		logV := gf256.logTable[v]
		if int(gf256.expTable[logV]) != v {
			t.Fatalf("exp(log(%d))=%d, want %d", v, gf256.expTable[logV], v)
		}
	}
}
