package diag

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/ondiskfs/blockfs/layout"
	"github.com/ondiskfs/blockfs/ondisk"
)

// gridSide is the side length, in blocks, of the square bitmap grid
// RenderReport draws. layout.NumDataBlocks is a perfect square
// (256*256), so every data block gets exactly one cell.
const gridSide = 256

// RenderReport draws the free-block bitmap (one cell per data block,
// free vs. occupied) and the five region extents to a PNG at
// imagePath. Grounded on backend/commands/disk.go and sb.go's use of
// github.com/fogleman/gg for MBR/superblock diagrams, adapted from bar
// charts over partitions to a grid over data blocks.
func RenderReport(img *ondisk.Image, imagePath string) error {
	const cell = 2
	const gridPx = gridSide * cell
	const headerH = 90
	const legendH = 40
	const W = gridPx
	const H = headerH + gridPx + legendH

	dc := gg.NewContext(W, H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0.2, 0.4, 0.6)
	dc.DrawRectangle(0, 0, W, headerH)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored("IMAGE REPORT", W/2, 20, 0.5, 0.5)
	dc.DrawStringAnchored(
		fmt.Sprintf("free blocks: %d / %d", img.NumFreeBlocks(), layout.NumDataBlocks),
		W/2, 45, 0.5, 0.5,
	)
	dc.DrawStringAnchored(
		fmt.Sprintf("regions: sb=%d bitmap=%d..%d chain=%d..%d root=%d..%d data=%d..%d",
			layout.SuperblockStart,
			layout.BitmapStart, layout.ChainStart-1,
			layout.ChainStart, layout.RootStart-1,
			layout.RootStart, layout.DataStart-1,
			layout.DataStart, layout.TotalBlocks-1,
		),
		W/2, 68, 0.5, 0.5,
	)

	for i := 0; i < layout.NumDataBlocks; i++ {
		row := i / gridSide
		col := i % gridSide
		if img.IsFree(int32(i)) {
			dc.SetRGB(0.9, 0.9, 0.9)
		} else {
			dc.SetRGB(0.2, 0.6, 0.3)
		}
		dc.DrawRectangle(float64(col*cell), float64(headerH+row*cell), cell, cell)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawRectangle(0.5, 0.5, gridPx-1, gridPx-1)
	dc.Stroke()

	legendY := float64(headerH + gridPx + legendH/2)
	dc.SetRGB(0.9, 0.9, 0.9)
	dc.DrawRectangle(20, legendY-8, 16, 16)
	dc.Fill()
	dc.SetRGB(0.2, 0.6, 0.3)
	dc.DrawRectangle(140, legendY-8, 16, 16)
	dc.Fill()
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored("free", 45, legendY, 0, 0.5)
	dc.DrawStringAnchored("occupied", 165, legendY, 0, 0.5)

	if dir := filepath.Dir(imagePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return dc.SavePNG(imagePath)
}
