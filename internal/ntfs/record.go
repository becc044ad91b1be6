package ntfs

import (
	"fmt"

	"github.com/shubham/ntfsrecon/internal/binfmt"
)

// Record is a decoded MFT FILE record: its header fields plus the
// bucketed attributes it carries. Multi-value attribute types collect
// every occurrence in order; any other attribute type repeating a
// second time aborts the parse (ErrDuplicateAttribute).
type Record struct {
	SizeUsed      uint64
	SizeAllocated uint64
	BaseRecord    uint64
	RecordNumber  *uint64
	LinkCount     uint64
	Flags         uint64
	SequenceValue uint64

	Attributes    map[string][]*Attribute
	AttributeList []AttributeListEntry
}

// IsDirectory reports whether the record's header flags mark it as a
// directory (bit 1).
func (r *Record) IsDirectory() bool {
	return r.Flags&0x02 != 0
}

// InUse reports whether the record's header flags mark it allocated
// (bit 0). A record can decode cleanly yet be a freed/deleted entry.
func (r *Record) InUse() bool {
	return r.Flags&0x01 != 0
}

// First returns the single occurrence of a non-multi-value attribute
// type, or nil.
func (r *Record) First(typeName string) *Attribute {
	list := r.Attributes[typeName]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// ErrDuplicateAttribute reports a record with two occurrences of an
// attribute type that is only ever allowed once.
type ErrDuplicateAttribute struct {
	TypeName string
}

func (e *ErrDuplicateAttribute) Error() string {
	return fmt.Sprintf("duplicate non-repeatable attribute %s", e.TypeName)
}

// parseRecord decodes a single FILE/BAAD record occupying
// FileRecordSectors sectors of raw. It applies the fixup array before
// reading any attribute and returns an error only when the record is
// structurally unusable (too short, bad size_alloc, or a
// non-repeatable attribute repeated). An attribute whose header or
// declared length can't be decoded ends the attribute walk, keeping
// the attributes decoded before it, and attribute types without a known
// name are kept under an "unknown(<type>)" key, consistent with the
// "never throw mid-scan" parsing policy used throughout this package.
func parseRecord(raw []byte) (*Record, error) {
	recordSize := FileRecordSectors * SectorSize
	if len(raw) < recordSize {
		return nil, fmt.Errorf("ntfs: record shorter than %d bytes", recordSize)
	}
	buf := make([]byte, recordSize)
	copy(buf, raw[:recordSize])

	header := binfmt.Unpack(buf, []binfmt.Field{
		binfmt.F("off_fixup", "i", binfmt.Fixed(4), binfmt.Fixed(5)),
		binfmt.F("n_entries", "i", binfmt.Fixed(6), binfmt.Fixed(7)),
		binfmt.F("seq_val", "i", binfmt.Fixed(16), binfmt.Fixed(17)),
		binfmt.F("link_count", "i", binfmt.Fixed(18), binfmt.Fixed(19)),
		binfmt.F("off_first", "i", binfmt.Fixed(20), binfmt.Fixed(21)),
		binfmt.F("flags", "i", binfmt.Fixed(22), binfmt.Fixed(23)),
		binfmt.F("size_used", "i", binfmt.Fixed(24), binfmt.Fixed(27)),
		binfmt.F("size_alloc", "i", binfmt.Fixed(28), binfmt.Fixed(31)),
		binfmt.F("base_record", "i", binfmt.Fixed(32), binfmt.Fixed(35)),
	})

	sizeAlloc, ok := getUint64(header, "size_alloc")
	if !ok || int(sizeAlloc) > len(buf) {
		return nil, fmt.Errorf("ntfs: invalid size_alloc")
	}

	offFixup, _ := fieldFromResult(header, "off_fixup")
	nEntries, _ := fieldFromResult(header, "n_entries")
	applyFixup(buf, offFixup, nEntries)

	r := &Record{
		SizeUsed:      mustUint64(header, "size_used"),
		SizeAllocated: sizeAlloc,
		BaseRecord:    mustUint64(header, "base_record"),
		SequenceValue: mustUint64(header, "seq_val"),
		LinkCount:     mustUint64(header, "link_count"),
		Flags:         mustUint64(header, "flags"),
		Attributes:    make(map[string][]*Attribute),
	}

	if offFixup >= 48 {
		recResult := binfmt.Unpack(buf, []binfmt.Field{
			binfmt.F("record_n", "i", binfmt.Fixed(44), binfmt.Fixed(47)),
		})
		if v, ok := getUint64(recResult, "record_n"); ok {
			r.RecordNumber = &v
		}
	}

	offFirst, ok := fieldFromResult(header, "off_first")
	if !ok || offFirst < 0 || offFirst >= len(buf) {
		return r, nil
	}

	pos := offFirst
	for pos >= 0 && pos+8 <= len(buf) {
		attrBuf := buf[pos:]
		a := parseAttribute(attrBuf)
		if a == nil {
			break
		}
		if a.Type == 0xFFFFFFFF {
			break
		}
		name := a.TypeName
		if name == "" {
			name = fmt.Sprintf("unknown(%d)", a.Type)
		}
		if multiValueAttributes[name] {
			r.Attributes[name] = append(r.Attributes[name], a)
		} else if _, exists := r.Attributes[name]; exists {
			return nil, &ErrDuplicateAttribute{TypeName: name}
		} else {
			r.Attributes[name] = []*Attribute{a}
		}
		if name == "$ATTRIBUTE_LIST" && a.AttributeList != nil {
			r.AttributeList = a.AttributeList
		}
		pos += int(a.Length)
	}

	return r, nil
}

func mustUint64(r binfmt.Result, key string) uint64 {
	v, _ := getUint64(r, key)
	return v
}
