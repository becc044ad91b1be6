package ntfs

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Partition is one reconstructed NTFS volume: its geometry, the flat
// table of decoded files keyed by FileIndex, and the root of the
// rebuilt directory tree once Rebuild has run.
type Partition struct {
	Offset          int64
	SectorsPerClus  int
	MFTPosition     int64
	MFTMirrPosition int64
	Size            int64
	Recoverable     bool

	Files map[FileIndex]*File
	Root  *File
	Lost  *File

	rebuilt bool
}

// NewPartition creates an empty partition ready to receive decoded
// files via AddFile.
func NewPartition() *Partition {
	return &Partition{Files: make(map[FileIndex]*File)}
}

// AddFile inserts or overwrites a file entry, keyed by its index.
func (p *Partition) AddFile(f *File) {
	p.Files[f.Index] = f
}

// getOrGhost returns the file at recordNumber's default (non-ADS)
// index, synthesizing a ghost directory for it if it doesn't exist
// yet.
func (p *Partition) getOrGhost(recordNumber uint64) *File {
	idx := recordIndex(recordNumber)
	if f, ok := p.Files[idx]; ok {
		return f
	}
	f := newGhostDirectory(recordNumber)
	p.Files[idx] = f
	return f
}

// Rebuild links every file in p.Files into a single tree rooted at
// record 5, synthesizing ghost parent directories where a child names
// a parent record never itself found, and a synthetic LostFiles
// directory for files whose parent chain never reaches the root
// (cycles, or a parent record that decoded but carries no usable
// $FILE_NAME). Rebuild is idempotent: a file that is already attached
// under the correct parent is left alone on a second call.
func (p *Partition) Rebuild() {
	p.Root = p.getOrGhost(RootRecordNumber)
	p.Root.Ghost = false
	p.Root.IsDirectory = true
	p.Root.Orphan = false

	p.Lost = newFile("LostFiles", 0)
	p.Lost.IsDirectory = true
	p.Lost.Ghost = true

	for _, f := range p.Files {
		if f == p.Root {
			continue
		}
		if f.ignore() {
			continue
		}
		p.attach(f)
	}

	p.resolveOrphans()
	p.rebuilt = true
}

// attach links f under the parent named by its best $FILE_NAME,
// synthesizing a ghost parent directory if necessary. A file with no
// $FILE_NAME at all is left unattached for resolveOrphans to bucket
// into LostFiles.
func (p *Partition) attach(f *File) {
	if f.Parent != nil {
		return
	}
	if f.IsADS {
		return
	}
	if len(f.FileNames) == 0 {
		return
	}
	name, ok := f.BestName()
	if !ok {
		return
	}
	best := f.bestFileName()

	parent := p.getOrGhost(best.ParentEntry)
	p.linkChild(parent, f, name)

	for _, ads := range p.adsChildrenOf(f) {
		p.linkChild(f, ads, ads.StreamName)
	}
}

func (p *Partition) adsChildrenOf(f *File) []*File {
	var out []*File
	for idx, other := range p.Files {
		if other.IsADS && strings.HasPrefix(string(idx), fmt.Sprintf("%d:", f.RecordNumber)) {
			out = append(out, other)
		}
	}
	return out
}

func (p *Partition) linkChild(parent, child *File, name string) {
	if existing, ok := parent.Children[name]; ok && existing != child {
		name = p.disambiguate(parent, name)
	}
	parent.Children[name] = child
	child.Parent = parent
}

func (p *Partition) disambiguate(parent *File, name string) string {
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s_%03d", name, i)
		if _, exists := parent.Children[candidate]; !exists {
			return candidate
		}
	}
}

// resolveOrphans buckets every file that never reached the root
// (broken parent chain, or excluded from a cycle) under LostFiles.
func (p *Partition) resolveOrphans() {
	for _, f := range p.Files {
		if f == p.Root || f == p.Lost {
			continue
		}
		if f.Parent != nil && p.reachesRoot(f) {
			continue
		}
		f.Orphan = true
		name := f.DisplayName()
		if _, exists := p.Lost.Children[name]; exists {
			name = p.disambiguate(p.Lost, name)
		}
		p.Lost.Children[name] = f
		f.Parent = p.Lost
	}
}

func (p *Partition) reachesRoot(f *File) bool {
	seen := make(map[*File]bool)
	for cur := f; cur != nil; cur = cur.Parent {
		if cur == p.Root {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

// Merge absorbs src into dest: files dest lacks are added, and a ghost
// in dest is replaced by src's real file at the same index, which takes
// over the ghost's children. A real file already in dest is kept and
// src's file for that index is dropped. Used by mergeFragmentedMFT to
// fold a fragment partition whose MFT position matches a later run of
// this partition's $MFT runlist.
func (p *Partition) Merge(src *Partition) {
	for idx, f := range src.Files {
		existing, ok := p.Files[idx]
		if !ok {
			p.Files[idx] = f
			continue
		}
		if existing.Ghost && !f.Ghost {
			f.Children = existing.Children
			p.Files[idx] = f
		}
	}
	log.Debug().Int("merged_files", len(src.Files)).Msg("merged fragment partition")
}

// Locate returns every file whose best name contains text, matched
// case-sensitively, as a simple forensic search aid.
func (p *Partition) Locate(text string) []*File {
	var matches []*File
	for _, f := range p.Files {
		name, ok := f.BestName()
		if !ok {
			continue
		}
		if strings.Contains(name, text) {
			matches = append(matches, f)
		}
	}
	return matches
}
