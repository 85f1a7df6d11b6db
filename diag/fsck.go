// Package diag provides read-only consistency checking and visual
// reporting over a mounted image, without mutating it. It plays the
// role backend/commands/recovery.go's journal replay plays in the
// teacher repo, but as a checker rather than a repair tool, since
// journaling itself is out of scope here.
package diag

import (
	"fmt"

	"github.com/ondiskfs/blockfs/layout"
	"github.com/ondiskfs/blockfs/ondisk"
)

// Problem is one invariant violation found by Fsck.
type Problem struct {
	Slot   int32
	Detail string
}

// Report is the result of a consistency walk.
type Report struct {
	ReportedFreeBlocks int32
	CountedFreeBlocks  int
	UsedSlots          int
	Problems           []Problem
}

// Clean reports whether the walk found no problems and the live
// counter agrees with the bitmap (spec.md §8, P1).
func (r *Report) Clean() bool {
	return len(r.Problems) == 0 && int(r.ReportedFreeBlocks) == r.CountedFreeBlocks
}

// Fsck re-derives numFreeBlocks from the bitmap directly and walks
// every non-empty slot's chain checking invariants P1–P3 from
// spec.md §8: the live counter matches the bitmap, no chain cycles or
// early CHAIN_END, no block shared between two chains, and chain
// length equals ceil(size / BLOCK_SIZE).
func Fsck(img *ondisk.Image) *Report {
	r := &Report{
		ReportedFreeBlocks: img.NumFreeBlocks(),
		CountedFreeBlocks:  img.CountFreeBits(),
	}

	owner := make(map[int32]int32)

	for slot, entry := range img.Entries() {
		if entry.Empty() {
			continue
		}
		r.UsedSlots++

		if entry.ChainHead == layout.NullBlock {
			if entry.Size != 0 {
				r.Problems = append(r.Problems, Problem{
					Slot:   int32(slot),
					Detail: fmt.Sprintf("size %d but chainHead is NULL_BLOCK", entry.Size),
				})
			}
			continue
		}

		wantLen := int(layout.CeilBlocks(entry.Size))
		gotLen := 0
		seen := make(map[int32]bool)

		img.WalkChain(entry.ChainHead, func(block int32) bool {
			if seen[block] {
				r.Problems = append(r.Problems, Problem{
					Slot:   int32(slot),
					Detail: fmt.Sprintf("chain cycles back to block %d", block),
				})
				return false
			}
			seen[block] = true
			gotLen++

			if img.IsFree(block) {
				r.Problems = append(r.Problems, Problem{
					Slot:   int32(slot),
					Detail: fmt.Sprintf("block %d is marked free in the bitmap but is chained", block),
				})
			}
			if other, ok := owner[block]; ok {
				r.Problems = append(r.Problems, Problem{
					Slot:   int32(slot),
					Detail: fmt.Sprintf("block %d is also owned by slot %d", block, other),
				})
			}
			owner[block] = int32(slot)

			return true
		})

		if gotLen != wantLen {
			r.Problems = append(r.Problems, Problem{
				Slot:   int32(slot),
				Detail: fmt.Sprintf("chain length %d does not match ceil(size/BLOCK_SIZE) = %d", gotLen, wantLen),
			})
		}
	}

	return r
}
