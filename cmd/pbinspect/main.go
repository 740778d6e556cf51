// Command pbinspect dumps the block grid a printed page decodes to: one
// line per bad cell or superblock, then the good/bad cell counts, with
// an optional hex dump of a single block's raw envelope for closer
// inspection.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	_ "golang.org/x/image/bmp"

	"github.com/cybran01/paperback-cli/internal/core"
	"github.com/cybran01/paperback-cli/internal/layout"
	"github.com/cybran01/paperback-cli/internal/raster"
)

func main() {
	dpi := flag.Int("dpi", 300, "scan resolution the page was rendered at")
	dotPercent := flag.Int("dotpercent", 80, "dot size as a percentage of pitch")
	margin := flag.Int("margin", 75, "page border width in dots")
	block := flag.Int("block", -1, "dump this block index's raw 128-byte envelope")
	bestQuality := flag.Bool("bestquality", false, "run a second, finer grid-lock pass")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: pbinspect [flags] <page.bmp>")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		return
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
	gray := toGray(img)

	geo, err := layout.Compute(layout.Options{
		DPI:            *dpi,
		DotPercent:     *dotPercent,
		PageWidthDots:  *dpi * 8,
		PageHeightDots: *dpi * 10,
		BorderDots:     *margin,
		HeaderEnabled:  true,
		FooterEnabled:  true,
	})
	if err != nil {
		log.Fatalf("page geometry: %v", err)
	}

	hint := raster.GridHint{
		CellPitchX: (layout.NDot + 1) * geo.Px,
		CellPitchY: (layout.NDot + 1) * geo.Py,
		NominalNx:  geo.Nx,
		NominalNy:  geo.Ny,
	}
	est := raster.EstimateGrid(gray, hint, *bestQuality)
	blocks := raster.ExtractBlocks(gray, est, hint)

	fmt.Printf("%s: %dx%d grid, %d cells, intensity mean=%d min=%d max=%d\n",
		path, est.Nposx, est.Nposy, len(blocks), est.Cmean, est.Cmin, est.Cmax)
	fmt.Printf("grid lock: xpeak=%.2f xstep=%.2f xangle=%.4f ypeak=%.2f ystep=%.2f yangle=%.4f sharpfactor=%.2f\n",
		est.Xpeak, est.Xstep, est.Xangle, est.Ypeak, est.Ystep, est.Yangle, est.Sharpfactor)

	if *block >= 0 {
		if *block >= len(blocks) {
			log.Fatalf("block %d out of range, page holds %d cells", *block, len(blocks))
		}
		dumpBlock(*block, blocks[*block])
		return
	}

	good, bad, super := 0, 0, 0
	for i, raw := range blocks {
		decoded, err := core.DecodeBlock(raw, nil)
		switch {
		case err != nil:
			bad++
			fmt.Printf("  [%4d] bad: %v\n", i, err)
		case decoded.Super != nil:
			super++
			fmt.Printf("  [%4d] superblock: name=%q page=%d datasize=%d origsize=%d\n",
				i, decoded.Super.Name, decoded.Super.Page, decoded.Super.DataSize, decoded.Super.OrigSize)
		default:
			good++
		}
	}
	fmt.Printf("good=%d bad=%d superblocks=%d\n", good, bad, super)
}

func dumpBlock(idx int, raw []byte) {
	fmt.Printf("block %d, %d bytes:\n", idx, len(raw))
	for i := 0; i < len(raw); i += 16 {
		end := i + 16
		if end > len(raw) {
			end = len(raw)
		}
		chunk := raw[i:end]
		fmt.Printf("%04x: ", i)
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Printf("%02x ", chunk[j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}
		fmt.Print(" |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
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
