package codec

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/cybran01/paperback-cli/internal/core"
	"github.com/cybran01/paperback-cli/internal/layout"
	"github.com/cybran01/paperback-cli/internal/raster"
	"github.com/cybran01/paperback-cli/internal/writer"
)

// encode stage markers, in the order next_print_step advances through.
const (
	stepDone = 0
	stepOpenStat = iota
	stepCompress
	stepLayout
	stepRenderPage
	stepAdvanceOrFinish
)

// PageSink receives one rendered page at a time; BMP file writing (or
// any other raster format) happens here, outside the codec.
type PageSink func(pageNum, totalPages int, img *image.Gray) error

// EncodeState is a single file's encode-side step machine.
type EncodeState struct {
	Step int
	Err  error

	inputPath string
	cfg       Config
	sink      PageSink

	origSize   int64
	modified   int64
	attributes uint8
	name       string

	stream *writer.EncodedStream
	geo    layout.Geometry
	pages  [][]core.Payload

	currentPage int
}

// PrintFile initializes encode state for inputPath and sets Step=1. sink
// is invoked once per rendered page.
func PrintFile(inputPath string, cfg Config, sink PageSink) (*EncodeState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EncodeState{
		Step:      stepOpenStat,
		inputPath: inputPath,
		cfg:       cfg,
		sink:      sink,
	}, nil
}

// NextPrintStep advances the state machine by exactly one stage.
func (s *EncodeState) NextPrintStep() error {
	switch s.Step {
	case stepOpenStat:
		return s.runOpenStat()
	case stepCompress:
		return s.runCompress()
	case stepLayout:
		return s.runLayout()
	case stepRenderPage:
		return s.runRenderPage()
	case stepAdvanceOrFinish:
		return s.runAdvanceOrFinish()
	case stepDone:
		return nil
	default:
		return fmt.Errorf("invalid encode step %d", s.Step)
	}
}

// StopPrinting releases any intermediate state and halts the machine.
func (s *EncodeState) StopPrinting() {
	s.stream = nil
	s.pages = nil
	s.Step = stepDone
}

func (s *EncodeState) fail(err error) error {
	s.Err = err
	s.Step = stepDone
	return err
}

func (s *EncodeState) runOpenStat() error {
	info, err := os.Stat(s.inputPath)
	if err != nil {
		return s.fail(fmt.Errorf("stat input: %w", err))
	}
	s.origSize = info.Size()
	s.modified = info.ModTime().Unix()
	s.name = filepath.Base(s.inputPath)
	if len(s.name) > 63 {
		s.name = s.name[:63]
	}
	if info.Mode()&0200 == 0 {
		s.attributes |= 0x01 // read-only
	}
	s.Step = stepCompress
	return nil
}

func (s *EncodeState) runCompress() error {
	data, err := os.ReadFile(s.inputPath)
	if err != nil {
		return s.fail(fmt.Errorf("read input: %w", err))
	}

	stream, err := writer.BuildStream(data, writer.EncodeOptions{
		CompressionLevel: s.cfg.Compression,
		Passphrase:       passphraseFor(s.cfg),
	})
	if err != nil {
		return s.fail(fmt.Errorf("build stream: %w", err))
	}
	s.stream = stream
	s.Step = stepLayout
	return nil
}

func (s *EncodeState) runLayout() error {
	geo, err := layout.Compute(layout.Options{
		DPI:            s.cfg.DPI,
		DotPercent:     s.cfg.DotPercent,
		PageWidthDots:  s.cfg.DPI * 8,  // US Letter printable width, 8in
		PageHeightDots: s.cfg.DPI * 10, // US Letter printable height, 10in
		BorderDots:     s.cfg.MarginDots,
		HeaderEnabled:  s.cfg.PrintHeader,
		FooterEnabled:  true,
	})
	if err != nil {
		return s.fail(fmt.Errorf("page layout: %w", err))
	}
	s.geo = geo

	grouped, err := writer.GroupForLayout(s.stream, s.cfg.Redundancy)
	if err != nil {
		return s.fail(fmt.Errorf("redundancy grouping: %w", err))
	}

	// One slot per page is reserved for its superblock. The remainder is
	// rounded down to a whole number of redundancy groups so a group's
	// data and recovery payloads never split across a page boundary,
	// which is what lets the decoder tell them apart by scan position
	// alone, resetting at each page's superblock.
	groupSize := core.ScanGroupSize(s.cfg.Redundancy)
	perPage := (geo.BlocksPerPage() - 1) / groupSize * groupSize
	if perPage < 1 {
		return s.fail(fmt.Errorf("page grid holds no room for a full redundancy group"))
	}
	for i := 0; i < len(grouped); i += perPage {
		end := i + perPage
		if end > len(grouped) {
			end = len(grouped)
		}
		s.pages = append(s.pages, grouped[i:end])
	}
	if len(s.pages) == 0 {
		s.pages = append(s.pages, nil) // an empty file still gets one page carrying its superblock
	}

	s.currentPage = 0
	s.Step = stepRenderPage
	return nil
}

func (s *EncodeState) runRenderPage() error {
	page := s.pages[s.currentPage]
	sb := s.Superblock(s.currentPage + 1)

	blocks := make([][]byte, 0, len(page)+1)
	blocks = append(blocks, core.EncodeSuperblock(sb))
	for _, p := range page {
		blocks = append(blocks, core.EncodeBlock(p.Addr, p.Data))
	}

	img, err := raster.Render(s.geo, raster.PageContent{
		Blocks:   blocks,
		Title:    s.name,
		Footer:   "paperback",
		PageNum:  s.currentPage + 1,
		PageOf:   len(s.pages),
		BorderPx: s.cfg.MarginDots,
	})
	if err != nil {
		return s.fail(fmt.Errorf("render page %d: %w", s.currentPage+1, err))
	}

	if s.sink != nil {
		if err := s.sink(s.currentPage+1, len(s.pages), img); err != nil {
			return s.fail(fmt.Errorf("page sink: %w", err))
		}
	}

	s.Step = stepAdvanceOrFinish
	return nil
}

func (s *EncodeState) runAdvanceOrFinish() error {
	s.currentPage++
	if s.currentPage >= len(s.pages) {
		s.Step = stepDone
		return nil
	}
	s.Step = stepRenderPage
	return nil
}

// Superblock builds the superblock payload for the given page number
// (1-based), describing the stream this state encoded.
func (s *EncodeState) Superblock(page int) core.Superblock {
	return core.Superblock{
		DataSize:   uint32(s.stream.DataSize),
		PageSize:   uint32(len(s.pages[page-1]) * core.NData),
		OrigSize:   uint32(s.stream.OrigSize),
		Mode:       s.stream.Mode,
		Attributes: s.attributes,
		Page:       uint16(page),
		Modified:   s.modified,
		FileCRC:    s.stream.FileCRC,
		Name:       s.name,
	}
}

func passphraseFor(cfg Config) string {
	if !cfg.Encryption {
		return ""
	}
	return cfg.Password
}
