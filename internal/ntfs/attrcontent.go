package ntfs

import (
	"time"

	"github.com/shubham/ntfsrecon/internal/binfmt"
)

// StandardInformationContent is the decoded body of a resident
// $STANDARD_INFORMATION attribute.
type StandardInformationContent struct {
	CreationTime        *time.Time
	ModificationTime    *time.Time
	MFTModificationTime *time.Time
	AccessTime          *time.Time
	Flags               uint64
}

func decodeStandardInformation(content []byte) *StandardInformationContent {
	result := binfmt.Unpack(content, []binfmt.Field{
		binfmt.F("creation_time", "i", binfmt.Fixed(0), binfmt.Fixed(7)),
		binfmt.F("modification_time", "i", binfmt.Fixed(8), binfmt.Fixed(15)),
		binfmt.F("mft_modification_time", "i", binfmt.Fixed(16), binfmt.Fixed(23)),
		binfmt.F("access_time", "i", binfmt.Fixed(24), binfmt.Fixed(31)),
		binfmt.F("flags", "i", binfmt.Fixed(32), binfmt.Fixed(35)),
	})

	si := &StandardInformationContent{}
	if v, ok := getUint64(result, "creation_time"); ok {
		if t, ok := windowsTime(v); ok {
			si.CreationTime = &t
		}
	}
	if v, ok := getUint64(result, "modification_time"); ok {
		if t, ok := windowsTime(v); ok {
			si.ModificationTime = &t
		}
	}
	if v, ok := getUint64(result, "mft_modification_time"); ok {
		if t, ok := windowsTime(v); ok {
			si.MFTModificationTime = &t
		}
	}
	if v, ok := getUint64(result, "access_time"); ok {
		if t, ok := windowsTime(v); ok {
			si.AccessTime = &t
		}
	}
	if v, ok := getUint64(result, "flags"); ok {
		si.Flags = v
	}
	return si
}

// FileNameContent is the decoded body of a $FILE_NAME attribute (or
// of the $FILE_NAME embedded in an INDX directory entry — both share
// the same on-disk layout).
type FileNameContent struct {
	ParentEntry         uint64
	ParentSeq           uint64
	CreationTime        *time.Time
	ModificationTime    *time.Time
	MFTModificationTime *time.Time
	AccessTime          *time.Time
	AllocatedSize       uint64
	RealSize            uint64
	Flags               uint64
	NameLength          uint64
	Namespace           uint64
	Name                string
	HasName             bool
}

func decodeFileName(content []byte) *FileNameContent {
	result := binfmt.Unpack(content, []binfmt.Field{
		binfmt.F("parent_entry", "i", binfmt.Fixed(0), binfmt.Fixed(5)),
		binfmt.F("parent_seq", "i", binfmt.Fixed(6), binfmt.Fixed(7)),
		binfmt.F("creation_time", "i", binfmt.Fixed(8), binfmt.Fixed(15)),
		binfmt.F("modification_time", "i", binfmt.Fixed(16), binfmt.Fixed(23)),
		binfmt.F("mft_modification_time", "i", binfmt.Fixed(24), binfmt.Fixed(31)),
		binfmt.F("access_time", "i", binfmt.Fixed(32), binfmt.Fixed(39)),
		binfmt.F("allocated_size", "i", binfmt.Fixed(40), binfmt.Fixed(47)),
		binfmt.F("real_size", "i", binfmt.Fixed(48), binfmt.Fixed(55)),
		binfmt.F("flags", "i", binfmt.Fixed(56), binfmt.Fixed(59)),
		binfmt.F("name_length", "i", binfmt.Fixed(64), binfmt.Fixed(64)),
		binfmt.F("namespace", "i", binfmt.Fixed(65), binfmt.Fixed(65)),
		binfmt.F("name", "utf-16", binfmt.Fixed(66), func(r binfmt.Result) (int, bool) {
			nameLen, ok := getUint64(r, "name_length")
			if !ok || nameLen == 0 {
				return 0, false
			}
			return int(nameLen)*2 + 65, true
		}),
	})

	fn := &FileNameContent{}
	if v, ok := getUint64(result, "parent_entry"); ok {
		fn.ParentEntry = v
	}
	if v, ok := getUint64(result, "parent_seq"); ok {
		fn.ParentSeq = v
	}
	if v, ok := getUint64(result, "creation_time"); ok {
		if t, ok := windowsTime(v); ok {
			fn.CreationTime = &t
		}
	}
	if v, ok := getUint64(result, "modification_time"); ok {
		if t, ok := windowsTime(v); ok {
			fn.ModificationTime = &t
		}
	}
	if v, ok := getUint64(result, "mft_modification_time"); ok {
		if t, ok := windowsTime(v); ok {
			fn.MFTModificationTime = &t
		}
	}
	if v, ok := getUint64(result, "access_time"); ok {
		if t, ok := windowsTime(v); ok {
			fn.AccessTime = &t
		}
	}
	if v, ok := getUint64(result, "allocated_size"); ok {
		fn.AllocatedSize = v
	}
	if v, ok := getUint64(result, "real_size"); ok {
		fn.RealSize = v
	}
	if v, ok := getUint64(result, "flags"); ok {
		fn.Flags = v
	}
	if v, ok := getUint64(result, "name_length"); ok {
		fn.NameLength = v
	}
	if v, ok := getUint64(result, "namespace"); ok {
		fn.Namespace = v
	}
	if v, ok := getString(result, "name"); ok && len(v) > 0 {
		fn.Name = v
		fn.HasName = true
	}
	return fn
}

// AttributeListEntry is one entry of a decoded $ATTRIBUTE_LIST.
type AttributeListEntry struct {
	Type       uint64
	Length     uint64
	NameLength uint64
	NameOffset uint64
	StartVCN   uint64
	FileRef    uint64
	ID         uint64
}

func decodeAttributeList(content []byte) []AttributeListEntry {
	var entries []AttributeListEntry
	for len(content) > 0 {
		result := binfmt.Unpack(content, []binfmt.Field{
			binfmt.F("type", "i", binfmt.Fixed(0), binfmt.Fixed(3)),
			binfmt.F("length", "i", binfmt.Fixed(4), binfmt.Fixed(5)),
			binfmt.F("name_length", "i", binfmt.Fixed(6), binfmt.Fixed(6)),
			binfmt.F("name_off", "i", binfmt.Fixed(7), binfmt.Fixed(7)),
			binfmt.F("start_vcn", "i", binfmt.Fixed(8), binfmt.Fixed(15)),
			binfmt.F("file_ref", "i", binfmt.Fixed(16), binfmt.Fixed(19)),
			binfmt.F("id", "i", binfmt.Fixed(24), binfmt.Fixed(24)),
		})

		length, ok := getUint64(result, "length")
		if !ok || length == 0 {
			break
		}

		entry := AttributeListEntry{}
		if v, ok := getUint64(result, "type"); ok {
			entry.Type = v
		}
		entry.Length = length
		if v, ok := getUint64(result, "name_length"); ok {
			entry.NameLength = v
		}
		if v, ok := getUint64(result, "name_off"); ok {
			entry.NameOffset = v
		}
		if v, ok := getUint64(result, "start_vcn"); ok {
			entry.StartVCN = v
		}
		if v, ok := getUint64(result, "file_ref"); ok {
			entry.FileRef = v
		}
		if v, ok := getUint64(result, "id"); ok {
			entry.ID = v
		}
		entries = append(entries, entry)

		if int(length) >= len(content) {
			break
		}
		content = content[length:]
	}
	return entries
}

// IndxDirEntry is one accepted directory entry from an $INDEX_ROOT or
// $INDEX_ALLOCATION/INDX listing, carrying the child record number
// and its embedded $FILE_NAME.
type IndxDirEntry struct {
	RecordN       uint64
	EntryLength   uint64
	ContentLength uint64
	Flags         uint64
	FileName      *FileNameContent
}

// decodeIndexEntries walks a run of INDX directory entries starting
// at offset within dump, stopping at the first entry whose header
// can't be read, whose entry_length is zero, whose content_length is
// zero, or whose embedded $FILE_NAME fails the acceptance checks in
// §4.3: it decodes, has a 0..3 namespace, real_size <= allocated_size,
// and not (flags==0 && parent_seq>1024). This single routine is used
// both for standalone INDX sector records and for $INDEX_ROOT
// attribute content — the two decoders in the original code share
// this exact entry shape.
func decodeIndexEntries(dump []byte, offset int) []IndxDirEntry {
	var entries []IndxDirEntry

	for {
		if offset < 0 || offset+16 > len(dump) {
			break
		}
		header := dump[offset:]
		result := binfmt.Unpack(header, []binfmt.Field{
			binfmt.F("record_n", "i", binfmt.Fixed(0), binfmt.Fixed(3)),
			binfmt.F("entry_length", "i", binfmt.Fixed(8), binfmt.Fixed(9)),
			binfmt.F("content_length", "i", binfmt.Fixed(10), binfmt.Fixed(11)),
			binfmt.F("flags", "i", binfmt.Fixed(12), binfmt.Fixed(15)),
		})

		entryLength, ok := getUint64(result, "entry_length")
		if !ok || entryLength == 0 {
			break
		}
		contentLength, ok := getUint64(result, "content_length")
		if !ok || contentLength == 0 {
			break
		}
		recordN, _ := getUint64(result, "record_n")
		flags, _ := getUint64(result, "flags")

		var fn *FileNameContent
		if int(16) < len(header) {
			fn = decodeFileName(header[16:])
		}

		if !acceptIndexEntry(fn, flags) {
			break
		}

		entries = append(entries, IndxDirEntry{
			RecordN:       recordN,
			EntryLength:   entryLength,
			ContentLength: contentLength,
			Flags:         flags,
			FileName:      fn,
		})

		offset += int(entryLength)
	}

	return entries
}

func acceptIndexEntry(fn *FileNameContent, flags uint64) bool {
	if fn == nil || !fn.HasName {
		return false
	}
	if fn.Namespace > 3 {
		return false
	}
	if fn.RealSize > fn.AllocatedSize {
		return false
	}
	if flags == 0 && fn.ParentSeq > 1024 {
		return false
	}
	return true
}

// IndexRootContent is the decoded body of a resident $INDEX_ROOT
// attribute.
type IndexRootContent struct {
	AttrType       uint64
	SortingRule    uint64
	RecordBytes    uint64
	RecordClusters uint64
	Records        []IndxDirEntry
}

func decodeIndexRoot(content []byte) *IndexRootContent {
	header := binfmt.Unpack(content, []binfmt.Field{
		binfmt.F("attr_type", "i", binfmt.Fixed(0), binfmt.Fixed(3)),
		binfmt.F("sorting_rule", "i", binfmt.Fixed(4), binfmt.Fixed(7)),
		binfmt.F("record_bytes", "i", binfmt.Fixed(8), binfmt.Fixed(11)),
		binfmt.F("record_clusters", "i", binfmt.Fixed(12), binfmt.Fixed(12)),
	})

	root := &IndexRootContent{}
	if v, ok := getUint64(header, "attr_type"); ok {
		root.AttrType = v
	}
	if v, ok := getUint64(header, "sorting_rule"); ok {
		root.SortingRule = v
	}
	if v, ok := getUint64(header, "record_bytes"); ok {
		root.RecordBytes = v
	}
	if v, ok := getUint64(header, "record_clusters"); ok {
		root.RecordClusters = v
	}

	if len(content) <= 16 {
		return root
	}
	sub := content[16:]
	inner := binfmt.Unpack(sub, []binfmt.Field{
		binfmt.F("off_start_list", "i", binfmt.Fixed(0), binfmt.Fixed(3)),
		binfmt.F("off_end_list", "i", binfmt.Fixed(4), binfmt.Fixed(7)),
	})
	offStartList, ok := fieldFromResult(inner, "off_start_list")
	if !ok {
		return root
	}
	root.Records = decodeIndexEntries(sub, offStartList)
	return root
}
