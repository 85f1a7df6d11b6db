// Command blockfsck opens a container image through engine.Init, runs
// the consistency walk from package diag, and optionally renders a PNG
// bitmap/region report. The image is opened read-write, and a missing
// or empty container path is created and initialized as a fresh image. It never talks to a kernel adaptor; it plays
// the same role as fsck(8) or file(1) — point it at an image and it
// tells you what it sees.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ondiskfs/blockfs/diag"
	"github.com/ondiskfs/blockfs/engine"
)

func main() {
	reportPath := flag.String("report", "", "write a PNG bitmap/region report to this path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: blockfsck [-report out.png] <container>")
		os.Exit(2)
	}
	containerPath := flag.Arg(0)

	e, err := engine.Init(engine.Options{Path: containerPath})
	if err != nil {
		fmt.Fprintln(os.Stderr, "blockfsck:", err)
		os.Exit(1)
	}
	defer e.Destroy()

	r := diag.Fsck(e.Image())
	fmt.Printf("slots in use: %d\n", r.UsedSlots)
	fmt.Printf("free blocks: reported=%d counted=%d\n", r.ReportedFreeBlocks, r.CountedFreeBlocks)
	for _, p := range r.Problems {
		fmt.Printf("slot %d: %s\n", p.Slot, p.Detail)
	}

	if *reportPath != "" {
		if err := diag.RenderReport(e.Image(), *reportPath); err != nil {
			fmt.Fprintln(os.Stderr, "blockfsck: rendering report:", err)
			os.Exit(1)
		}
	}

	if !r.Clean() {
		os.Exit(1)
	}
}
