package ntfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/shubham/ntfsrecon/internal/disk"
)

// attrFlagCompressed and attrFlagEncrypted are the two $DATA
// attribute header flags the restorer treats specially: compressed
// streams can't be recovered without decompressing NTFS's own LZNT1
// scheme (out of scope, spec §1 Non-goals), so they're rejected
// outright; encrypted streams are unreadable ciphertext but are still
// handed back to the caller, just with a warning.
const (
	attrFlagCompressed = 0x0001
	attrFlagEncrypted  = 0x4000
)

// GetContent returns an io.Reader yielding f's file data: the decoded
// inline bytes directly for a resident $DATA attribute, or a lazy walk
// of its non-resident runlist otherwise. Sparse runs and any run whose
// cluster range falls past the image's readable size are zero-filled
// rather than erroring, and each single read is capped at MaxSectors
// to bound memory use against a corrupted run claiming an enormous
// length. The reader stops at the stream's real size. Returns nil for
// ghosts, ignored streams, directories with no $DATA, a compressed
// stream, or non-resident data when the partition is not recoverable.
func (f *File) GetContent(img *disk.Image, part *Partition) io.Reader {
	if f.Ghost || f.ignore() {
		return nil
	}
	if f.IsDirectory && !f.IsADS && !f.DataResident && len(f.DataFragments) == 0 {
		return nil
	}
	if f.DataFlags&attrFlagCompressed != 0 {
		log.Error().Str("path", string(f.Index)).Msg("compressed $DATA stream cannot be restored")
		return nil
	}
	if f.DataFlags&attrFlagEncrypted != 0 {
		log.Warn().Str("path", string(f.Index)).Msg("encrypted $DATA stream, content will be ciphertext")
	}

	if f.DataResident {
		return bytes.NewReader(f.ResidentContent)
	}
	if len(f.DataFragments) == 0 {
		return bytes.NewReader(nil)
	}
	if !part.Recoverable {
		log.Warn().Str("path", string(f.Index)).Msg("partition geometry unknown, cannot restore non-resident data")
		return nil
	}

	clusterSize := int64(part.SectorsPerClus) * int64(SectorSize)
	if clusterSize == 0 {
		clusterSize = int64(SectorSize)
	}

	fragments := append([]DataFragment(nil), f.DataFragments...)
	sort.Slice(fragments, func(i, j int) bool { return fragments[i].StartVCN < fragments[j].StartVCN })

	return &runlistReader{
		img:         img,
		fragments:   fragments,
		clusterSize: clusterSize,
		baseOffset:  part.Offset,
		remaining:   int64(f.RealSize),
	}
}

// runlistReader walks a file's $DATA fragments in ascending VCN
// order, emitting zero-filled clusters for any gap between fragments
// (spec §4.7) and for sparse runs within a fragment, reading real
// clusters at baseOffset+LCN*clusterSize otherwise. Each chunk it
// hands back is capped to MaxSectors worth of bytes to bound memory
// against a corrupted run claiming an enormous length.
type runlistReader struct {
	img         *disk.Image
	fragments   []DataFragment
	clusterSize int64
	baseOffset  int64
	remaining   int64

	fragIndex     int
	currentVCN    uint64
	runIndex      int
	currentLCN    int64
	clusterLeft   uint64
	currentSparse bool
	gapLeft       uint64
	buf           []byte
}

func (r *runlistReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}

	if len(r.buf) == 0 {
		if err := r.fillNextChunk(); err != nil {
			return 0, err
		}
	}

	chunk := r.buf
	if int64(len(chunk)) > r.remaining {
		chunk = chunk[:r.remaining]
	}
	n := copy(p, chunk)
	r.buf = r.buf[n:]
	r.remaining -= int64(n)
	return n, nil
}

func (r *runlistReader) fillNextChunk() error {
	for r.gapLeft == 0 && r.clusterLeft == 0 {
		if r.fragIndex >= len(r.fragments) {
			return io.EOF
		}
		frag := r.fragments[r.fragIndex]
		if frag.StartVCN > r.currentVCN {
			r.gapLeft = frag.StartVCN - r.currentVCN
			break
		}
		if r.runIndex >= len(frag.Runs) {
			r.fragIndex++
			r.runIndex = 0
			r.currentLCN = 0
			continue
		}
		run := frag.Runs[r.runIndex]
		r.runIndex++
		r.currentSparse = run.Offset == nil
		if run.Offset != nil {
			r.currentLCN += *run.Offset
		}
		r.clusterLeft = run.Length
	}

	maxClusters := uint64(MaxSectors) * uint64(SectorSize) / uint64(r.clusterSize)
	if maxClusters == 0 {
		maxClusters = 1
	}

	if r.gapLeft > 0 {
		n := r.gapLeft
		if n > maxClusters {
			n = maxClusters
		}
		r.gapLeft -= n
		r.currentVCN += n
		r.buf = make([]byte, n*uint64(r.clusterSize))
		return nil
	}

	clusters := r.clusterLeft
	if clusters > maxClusters {
		clusters = maxClusters
	}
	length := clusters * uint64(r.clusterSize)
	if r.currentSparse {
		r.buf = make([]byte, length)
	} else {
		offset := r.baseOffset + r.currentLCN*r.clusterSize
		r.buf = r.img.Read(offset, int(length))
		r.currentLCN += int64(clusters)
	}
	r.clusterLeft -= clusters
	r.currentVCN += clusters
	return nil
}

// RestoreTree walks the directory tree rooted at start, creating
// directories and writing recovered file content under destDir. It
// is a best-effort driver: a single file's content error is logged
// and skipped rather than aborting the whole restore.
func RestoreTree(img *disk.Image, part *Partition, start *File, destDir string) error {
	if start == nil {
		return fmt.Errorf("ntfs: nil restore root")
	}
	return restoreNode(img, part, start, destDir)
}

func restoreNode(img *disk.Image, part *Partition, node *File, destDir string) error {
	if node.IsDirectory {
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("ntfs: mkdir %s: %w", destDir, err)
		}
		for _, name := range node.SortedChildNames() {
			child := node.Children[name]
			if err := restoreNode(img, part, child, filepath.Join(destDir, name)); err != nil {
				log.Warn().Str("path", filepath.Join(destDir, name)).Err(err).Msg("skipping child during restore")
			}
		}
		return nil
	}

	reader := node.GetContent(img, part)
	if reader == nil {
		return fmt.Errorf("ntfs: no recoverable content for %s", destDir)
	}

	out, err := os.Create(destDir)
	if err != nil {
		return fmt.Errorf("ntfs: create %s: %w", destDir, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("ntfs: write %s: %w", destDir, err)
	}

	mtime, atime, _ := node.GetMac()
	if !mtime.IsZero() && !atime.IsZero() {
		if err := os.Chtimes(destDir, atime, mtime); err != nil {
			log.Warn().Str("path", destDir).Err(err).Msg("could not restore timestamps")
		}
	}
	return nil
}
