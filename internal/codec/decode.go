package codec

import (
	"fmt"
	"image"
	"os"

	_ "golang.org/x/image/bmp" // registers "bmp" with image.Decode

	"github.com/cybran01/paperback-cli/internal/core"
	"github.com/cybran01/paperback-cli/internal/layout"
	"github.com/cybran01/paperback-cli/internal/raster"
	"github.com/cybran01/paperback-cli/internal/reassembler"
	"github.com/cybran01/paperback-cli/internal/writer"
)

const (
	decodeDone = 0
	decodeGridLock = iota
	decodeSweepBlocks
	decodePageFinalize
)

// orientationRetryThreshold is the fraction of first-pass bad blocks
// that triggers an orientation retry, per spec.md §4.9's "configurable
// fraction of blocks fail on the first pass" rule.
const orientationRetryThreshold = 0.5

// maxOrientationAttempts bounds the retry loop to the three remaining
// 90-degree rotations (90, 180, 270) beyond the page's as-scanned
// orientation.
const maxOrientationAttempts = 3

// PageStats summarizes one scanned page's block recovery outcome.
type PageStats struct {
	Good     int
	Bad      int
	Restored int // always 0: core.DecodeBlock does not report Reed-Solomon corrections
}

type pendingBlock struct {
	addr       uint32
	data       [core.NData]byte
	isRecovery bool
}

// DecodeState is one scanned page's step machine. Each page is decoded
// independently; results feed a shared reassembler.Table across pages.
type DecodeState struct {
	Step int
	Err  error

	// Orientation is the number of 90-degree clockwise turns (0-3) the
	// decoder had to apply before blocks on this page decoded cleanly.
	// -1 until runSweepBlocks settles on one.
	Orientation int

	cfg   Config
	table *reassembler.Table
	img   *image.Gray
	geo   layout.Geometry
	stats PageStats

	blocks [][]byte
	cursor int

	orientationKnown    bool // caller supplied a known-good orientation; skip the retry loop
	orientationAttempts int

	pendingSuper *core.Superblock
	pending      []pendingBlock

	activeSlot *reassembler.Slot

	onFile func(name string, data []byte) error
}

// DecodeBitmap loads the grayscale image at path and initializes decode
// state against the shared reassembly table. orientationHint carries a
// previously-resolved page orientation (0-3, in 90-degree clockwise
// turns) forward so later pages of the same batch default to it
// without re-running the retry search; pass -1 when unknown.
func DecodeBitmap(path string, cfg Config, table *reassembler.Table, orientationHint int, onFile func(name string, data []byte) error) (*DecodeState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bitmap: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode bitmap: %w", err)
	}

	gray := toGray(img)
	rotation := 0
	known := orientationHint >= 0
	if known {
		rotation = orientationHint % 4
		for i := 0; i < rotation; i++ {
			gray = raster.Rotate90CW(gray)
		}
	}

	return &DecodeState{
		Step:                decodeGridLock,
		Orientation:         -1,
		cfg:                 cfg,
		table:               table,
		img:                 gray,
		orientationKnown:    known,
		orientationAttempts: rotation,
		onFile:              onFile,
	}, nil
}

// NextProcessStep advances the decode state machine by one stage.
func (s *DecodeState) NextProcessStep() error {
	switch s.Step {
	case decodeGridLock:
		return s.runGridLock()
	case decodeSweepBlocks:
		return s.runSweepBlocks()
	case decodePageFinalize:
		return s.runPageFinalize()
	case decodeDone:
		return nil
	default:
		return fmt.Errorf("invalid decode step %d", s.Step)
	}
}

func (s *DecodeState) fail(err error) error {
	s.Err = err
	s.Step = decodeDone
	return err
}

// runGridLock recomputes page geometry for the current rotation (width
// and height swap on an odd rotation count), cross-correlates the
// scanned image against it to recover the actual grid (origin, pitch,
// tilt, sharpness), and samples every cell position into a candidate
// block.
func (s *DecodeState) runGridLock() error {
	width, height := s.cfg.DPI*8, s.cfg.DPI*10
	if s.orientationAttempts%2 == 1 {
		width, height = height, width
	}

	geo, err := layout.Compute(layout.Options{
		DPI:            s.cfg.DPI,
		DotPercent:     s.cfg.DotPercent,
		PageWidthDots:  width,
		PageHeightDots: height,
		BorderDots:     s.cfg.MarginDots,
		HeaderEnabled:  s.cfg.PrintHeader,
		FooterEnabled:  true,
	})
	if err != nil {
		return s.fail(fmt.Errorf("grid lock: %w", err))
	}
	s.geo = geo

	cellPitchX := (layout.NDot + 1) * geo.Px
	cellPitchY := (layout.NDot + 1) * geo.Py
	hint := raster.GridHint{
		CellPitchX: cellPitchX,
		CellPitchY: cellPitchY,
		NominalNx:  geo.Nx,
		NominalNy:  geo.Ny,
	}

	est := raster.EstimateGrid(s.img, hint, s.cfg.BestQuality)
	s.blocks = raster.ExtractBlocks(s.img, est, hint)
	s.cursor = 0
	s.stats = PageStats{}
	s.pendingSuper = nil
	s.pending = s.pending[:0]
	s.Step = decodeSweepBlocks
	return nil
}

// runSweepBlocks decodes one candidate block per call, buffering
// results rather than delivering them to the reassembler immediately:
// a wrong orientation can still produce a plausible-looking superblock
// by chance, and only a sweep that settles below the bad-block
// threshold should ever touch shared reassembly state. The first block
// on a page is always the superblock; every (ngroup+1)-th block after
// it is a recovery block, per the on-page scan-order convention.
func (s *DecodeState) runSweepBlocks() error {
	if s.cursor >= len(s.blocks) {
		if s.shouldRetryOrientation() {
			return s.retryNextOrientation()
		}
		s.Orientation = s.orientationAttempts
		return s.commitSweep()
	}

	raw := s.blocks[s.cursor]
	s.cursor++

	block, err := core.DecodeBlock(raw, nil)
	if err != nil {
		s.stats.Bad++
		return nil
	}
	s.stats.Good++

	if block.Super != nil {
		s.pendingSuper = block.Super
		return nil
	}

	groupSize := s.cfg.Redundancy + 1
	// raw index is s.cursor-1; index 0 is the page's superblock.
	isRecovery := (s.cursor-2)%groupSize == s.cfg.Redundancy
	s.pending = append(s.pending, pendingBlock{addr: block.Addr, data: block.Data, isRecovery: isRecovery})
	return nil
}

// shouldRetryOrientation reports whether this page's first pass failed
// badly enough to warrant rotating the bitmap and trying again,
// matching spec.md §4.9's orientation-retry fallback.
func (s *DecodeState) shouldRetryOrientation() bool {
	if s.orientationKnown || s.orientationAttempts >= maxOrientationAttempts {
		return false
	}
	total := s.stats.Good + s.stats.Bad
	if total == 0 {
		return false
	}
	return float64(s.stats.Bad)/float64(total) > orientationRetryThreshold
}

func (s *DecodeState) retryNextOrientation() error {
	s.orientationAttempts++
	s.img = raster.Rotate90CW(s.img)
	s.Step = decodeGridLock
	return nil
}

// commitSweep replays the buffered superblock and data/recovery blocks
// from the winning orientation into the shared reassembly table.
func (s *DecodeState) commitSweep() error {
	if s.pendingSuper != nil {
		if err := s.StartNextPage(*s.pendingSuper); err != nil {
			return s.fail(err)
		}
	}
	if s.activeSlot != nil {
		for _, p := range s.pending {
			if err := s.activeSlot.DeliverBlock(p.addr, p.data[:], p.isRecovery); err != nil {
				s.stats.Bad++
			}
		}
	}
	s.Step = decodePageFinalize
	return nil
}

func (s *DecodeState) runPageFinalize() error {
	if slot := s.activeSlot; slot != nil {
		if err := slot.ReconcilePage(s.cfg.Redundancy); err != nil {
			return s.fail(err)
		}
		if slot.IsComplete() {
			if err := s.SaveRestoredFile(slot, s.cfg.AutoSave); err != nil {
				return s.fail(err)
			}
		}
	}
	s.Step = decodeDone
	return nil
}

// StartNextPage registers a newly decoded superblock with the shared
// reassembly table, opening or resuming the matching file's slot.
func (s *DecodeState) StartNextPage(sb core.Superblock) error {
	slot, err := s.table.OpenFile(sb)
	if err != nil {
		return err
	}
	s.activeSlot = slot
	return nil
}

// SaveRestoredFile decrypts, verifies, and decompresses a completed
// slot's stream, handing the original bytes to onFile. force bypasses
// any interactive confirmation (the autosave option).
func (s *DecodeState) SaveRestoredFile(slot *reassembler.Slot, force bool) error {
	data, err := writer.DecodeStream(slot.Data(), slot.Mode, slot.FileCRC, s.cfg.Password, slot.OrigSize)
	if err != nil {
		return fmt.Errorf("restore %q: %w", slot.Name, err)
	}
	if s.onFile != nil {
		if err := s.onFile(slot.Name, data); err != nil {
			return err
		}
	}
	s.table.Close(slot.Name)
	return nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
