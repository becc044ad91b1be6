package ntfs

import (
	"fmt"

	"github.com/shubham/ntfsrecon/internal/binfmt"
)

// IndxRecord is a decoded standalone $INDEX_ALLOCATION record
// (signature "INDX", IndxRecordSectors sectors).
type IndxRecord struct {
	Entries []IndxDirEntry
}

// parseIndxRecord decodes one INDX record occupying IndxRecordSectors
// sectors of raw. Like parseRecord, it applies the fixup array before
// reading entries. The inner index header's start-of-entries offset
// is relative to the position immediately following the 24-byte outer
// header, hence the "+24" adjustment applied below.
func parseIndxRecord(raw []byte) (*IndxRecord, error) {
	recordSize := IndxRecordSectors * SectorSize
	if len(raw) < recordSize {
		return nil, fmt.Errorf("ntfs: indx record shorter than %d bytes", recordSize)
	}
	buf := make([]byte, recordSize)
	copy(buf, raw[:recordSize])

	header := binfmt.Unpack(buf, []binfmt.Field{
		binfmt.F("off_fixup", "i", binfmt.Fixed(4), binfmt.Fixed(5)),
		binfmt.F("n_entries", "i", binfmt.Fixed(6), binfmt.Fixed(7)),
	})
	offFixup, _ := fieldFromResult(header, "off_fixup")
	nEntries, _ := fieldFromResult(header, "n_entries")
	applyFixup(buf, offFixup, nEntries)

	if len(buf) <= 24 {
		return &IndxRecord{}, nil
	}
	inner := buf[24:]
	innerHeader := binfmt.Unpack(inner, []binfmt.Field{
		binfmt.F("off_start_list", "i", binfmt.Fixed(0), binfmt.Fixed(3)),
	})
	offStartList, ok := fieldFromResult(innerHeader, "off_start_list")
	if !ok {
		return &IndxRecord{}, nil
	}

	entries := decodeIndexEntries(inner, offStartList)
	return &IndxRecord{Entries: entries}, nil
}
