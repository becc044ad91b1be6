package ntfs

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FileIndex identifies a file within a partition. Ordinary files are
// keyed by their MFT record number formatted as a decimal string;
// alternate data streams are keyed as "<record>:<stream>" so a
// record's multiple $DATA streams can each get their own tree node.
type FileIndex string

func recordIndex(recordNumber uint64) FileIndex {
	return FileIndex(fmt.Sprintf("%d", recordNumber))
}

func adsIndex(recordNumber uint64, stream string) FileIndex {
	return FileIndex(fmt.Sprintf("%d:%s", recordNumber, stream))
}

// DataFragment is one non-resident $DATA attribute instance for a
// stream. Heavily fragmented or very large files split their data
// across more than one $DATA attribute record, each continued via
// $ATTRIBUTE_LIST and covering its own VCN range; GetContent sorts a
// file's fragments by StartVCN and walks them in order, filling any
// gap between fragments with zero clusters.
type DataFragment struct {
	StartVCN uint64
	EndVCN   uint64
	Runs     []RunEntry
}

// RootRecordNumber is the well-known MFT record number of the volume
// root directory.
const RootRecordNumber = 5

// File is one node of a reconstructed directory tree: a real file
// decoded from an MFT record, a ghost directory synthesized because a
// child named it as a parent that was never itself found, or a
// synthetic LostFiles bucket.
type File struct {
	Index        FileIndex
	RecordNumber uint64
	IsDirectory  bool
	IsADS        bool
	StreamName   string

	FileNames           []*FileNameContent
	StandardInformation *StandardInformationContent
	DataFragments       []DataFragment
	RealSize            uint64
	DataResident        bool
	ResidentContent     []byte
	DataFlags           uint64

	Ghost     bool
	IsDeleted bool
	Orphan    bool
	Parent   *File
	Children map[string]*File
}

func newFile(index FileIndex, recordNumber uint64) *File {
	return &File{Index: index, RecordNumber: recordNumber, Children: make(map[string]*File)}
}

func newGhostDirectory(recordNumber uint64) *File {
	f := newFile(recordIndex(recordNumber), recordNumber)
	f.Ghost = true
	f.IsDirectory = true
	f.Orphan = true
	return f
}

// BestName applies the Posix-preferred naming rule: if a $FILE_NAME
// with namespace 3 (Posix) exists, use it; otherwise use whichever
// $FILE_NAME has the smallest namespace value. A file with no
// $FILE_NAME at all (a bare ghost) has no name.
func (f *File) BestName() (string, bool) {
	best := f.bestFileName()
	if best == nil || !best.HasName || best.Name == "" {
		return "", false
	}
	return best.Name, true
}

// bestFileName picks the $FILE_NAME entry the Posix-preferred rule
// selects: the first namespace-3 (Posix) entry if any exists, else
// the entry with the smallest namespace. Shared by BestName (display)
// and attach (parent resolution) so both agree on which of a file's
// possibly several names — each carrying its own parent reference —
// is authoritative.
func (f *File) bestFileName() *FileNameContent {
	if len(f.FileNames) == 0 {
		return nil
	}
	best := f.FileNames[0]
	for _, fn := range f.FileNames[1:] {
		if best.Namespace == 3 {
			break
		}
		if fn.Namespace == 3 || fn.Namespace < best.Namespace {
			best = fn
		}
	}
	return best
}

// PrimaryDataRuns returns the runlist of the file's base $DATA
// fragment (the one with the lowest StartVCN — ordinarily the only
// fragment, unless the file's data was split across more than one
// $DATA attribute). Used where only the shape of a single attribute
// instance matters, such as detecting whether $MFT's own $DATA
// attribute spans more than one run.
func (f *File) PrimaryDataRuns() []RunEntry {
	if len(f.DataFragments) == 0 {
		return nil
	}
	best := f.DataFragments[0]
	for _, frag := range f.DataFragments[1:] {
		if frag.StartVCN < best.StartVCN {
			best = frag
		}
	}
	return best.Runs
}

// DisplayName is BestName with a deterministic fallback for nodes
// that carry no usable $FILE_NAME (ghosts, the synthetic root, or a
// stream node), so callers always have something to print.
func (f *File) DisplayName() string {
	if f.IsADS {
		return f.StreamName
	}
	if name, ok := f.BestName(); ok {
		return name
	}
	if f.RecordNumber == RootRecordNumber {
		return "."
	}
	return fmt.Sprintf("$Orphan_%d", f.RecordNumber)
}

// ignore reports whether this index is one of the fixed set of
// streams reconstruction should never surface: the $Bad file's
// content (record 8, a sparse placeholder covering the whole volume)
// and the $UsnJrnl's $J data stream (a multi-gigabyte change journal
// whose content is opaque metadata, not recoverable file data).
func (f *File) ignore() bool {
	if f.RecordNumber == 8 && string(f.Index) == "8:$Bad" {
		return true
	}
	// An ADS node hangs under its base file, so the $J stream is
	// recognized by its base file's parent directory ($Extend, record 11).
	if f.IsADS && f.StreamName == "$J" && f.Parent != nil {
		if fn := f.Parent.bestFileName(); fn != nil && fn.ParentEntry == 11 {
			return true
		}
	}
	return false
}

// GetMac returns f's modification, access and creation timestamps
// (UTC), preferring $STANDARD_INFORMATION over the $FILE_NAME copy
// when both are available, matching how Windows actually keeps the
// "reliable" set of the two.
func (f *File) GetMac() (mtime, atime, ctime time.Time) {
	if si := f.StandardInformation; si != nil {
		if si.ModificationTime != nil {
			mtime = *si.ModificationTime
		}
		if si.AccessTime != nil {
			atime = *si.AccessTime
		}
		if si.CreationTime != nil {
			ctime = *si.CreationTime
		}
	}
	for _, fn := range f.FileNames {
		if mtime.IsZero() && fn.ModificationTime != nil {
			mtime = *fn.ModificationTime
		}
		if atime.IsZero() && fn.AccessTime != nil {
			atime = *fn.AccessTime
		}
		if ctime.IsZero() && fn.CreationTime != nil {
			ctime = *fn.CreationTime
		}
	}
	return mtime, atime, ctime
}

// Ancestors returns f's ancestor chain, nearest first, not including
// f itself and not including the root.
func (f *File) Ancestors() []*File {
	var chain []*File
	for p := f.Parent; p != nil && p.RecordNumber != RootRecordNumber; p = p.Parent {
		chain = append(chain, p)
	}
	return chain
}

// FullPath renders the path from the volume root to f using "/" as
// separator, with disambiguated names where siblings collide.
func (f *File) FullPath() string {
	var parts []string
	for p := f; p != nil && p.RecordNumber != RootRecordNumber; p = p.Parent {
		name := p.DisplayName()
		if p.Parent != nil {
			for key, c := range p.Parent.Children {
				if c == p {
					name = key
					break
				}
			}
		}
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return "/"
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// SortedChildNames returns f's children's map keys in stable sorted
// order, used by tree-printing and path-disambiguation code.
func (f *File) SortedChildNames() []string {
	names := make([]string, 0, len(f.Children))
	for name := range f.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
