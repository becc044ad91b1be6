package ntfs

import (
	"github.com/shubham/ntfsrecon/internal/sparse"
)

// IndxInfo summarizes one decoded INDX record for geometry inference:
// the MFT record number of the directory it belongs to (the most
// common parent_entry among its entries) and the set of child record
// numbers it lists.
type IndxInfo struct {
	Parent   uint64
	Children map[uint64]struct{}
}

func summarizeIndxRecord(rec *IndxRecord) (IndxInfo, bool) {
	if len(rec.Entries) == 0 {
		return IndxInfo{}, false
	}
	counts := make(map[uint64]int)
	for _, e := range rec.Entries {
		if e.FileName != nil {
			counts[e.FileName.ParentEntry]++
		}
	}
	var best uint64
	bestCount := -1
	for parent, n := range counts {
		if n > bestCount {
			best, bestCount = parent, n
		}
	}
	children := make(map[uint64]struct{}, len(rec.Entries))
	for _, e := range rec.Entries {
		children[e.RecordN] = struct{}{}
	}
	return IndxInfo{Parent: best, Children: children}, bestCount >= 0
}

// boundaryResult is the outcome of FindBoundary: the inferred
// starting sector of the partition and the sectors-per-cluster value
// that produced the match.
type boundaryResult struct {
	Offset       int64
	SectorsPerClus int
}

// FindBoundary infers a partition's starting sector and cluster size
// when no boot sector was recovered for it, by aligning the sector
// positions of INDX records found anywhere on the image (indxList,
// keyed by absolute sector position, valued by the directory record
// number each belongs to) against the $INDEX_ALLOCATION runlists of
// directories already known to be in this partition (baseByCluster,
// keyed by cluster position relative to the MFT, valued by directory
// record number). It tries each candidate sectors-per-cluster
// multiplier, scales the runlist-derived pattern into sector units,
// and looks for the best-scoring approximate match of that pattern
// inside indxList.
func FindBoundary(indxList *sparse.SparseList[uint64], baseByCluster map[int64]uint64, mftAddress int64, multipliers []int) (boundaryResult, bool) {
	if len(baseByCluster) == 0 {
		return boundaryResult{}, false
	}

	type candidate struct {
		offset  int64
		score   float64
		spc     int
	}
	var results []candidate
	minSupport := 2

	for _, spc := range multipliers {
		pattern := make(map[int]uint64, len(baseByCluster))
		minKey := 0
		first := true
		for clusterPos, recordN := range baseByCluster {
			key := int(clusterPos) * spc
			pattern[key] = recordN
			if first || key < minKey {
				minKey = key
				first = false
			}
		}
		if first {
			continue
		}

		normalized := make(map[int]uint64)
		width := indxList.Len()
		for key, recordN := range pattern {
			shifted := key - minKey
			if shifted <= width {
				normalized[shifted] = recordN
			}
		}
		if len(normalized) < minSupport {
			continue
		}

		patternList := sparse.FromMap(normalized, uint64(0))
		stop := int(mftAddress) + minKey
		solution := sparse.ApproximateMatching(indxList, patternList, stop, minSupport)
		if solution == nil {
			continue
		}

		var positions []int
		for off := range solution.Offsets {
			shifted := off - minKey
			if shifted >= 0 {
				positions = append(positions, shifted)
			}
		}
		if len(positions) != 1 {
			if solution.K > minSupport {
				minSupport = solution.K
			}
			continue
		}

		results = append(results, candidate{offset: int64(positions[0]), score: solution.Score, spc: spc})
		if solution.Score > 0.25 && solution.K > 256 {
			break
		}
		if solution.K > minSupport {
			minSupport = solution.K
		}
	}

	if len(results) == 0 {
		return boundaryResult{}, false
	}

	best := results[0]
	for _, c := range results[1:] {
		if c.score < best.score {
			best = c
		}
	}
	return boundaryResult{Offset: best.offset, SectorsPerClus: best.spc}, true
}

// DefaultSectorsPerClusterMultipliers returns the standard candidate
// sectors-per-cluster values tried when no prior observation narrows
// the search: powers of two from 1 to 128, which covers every cluster
// size NTFS actually formats (512 bytes through 64 KiB at a 512-byte
// sector size).
func DefaultSectorsPerClusterMultipliers() []int {
	out := make([]int, 0, 8)
	for i := 0; i < 8; i++ {
		out = append(out, 1<<uint(i))
	}
	return out
}
