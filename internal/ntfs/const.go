package ntfs

// SectorSize is the fixed NTFS sector size. Never auto-detected.
const SectorSize = 512

// FileRecordSectors and IndxRecordSectors are the on-disk sizes of a
// FILE/BAAD record and of an INDX record, expressed in sectors. NTFS
// volumes formatted with non-default record sizes exist but are not
// handled, matching the reference implementation this module is
// grounded on: it always treats FILE records as 2 sectors (1 KB) and
// INDX records as 8 sectors (4 KB), regardless of what a boot
// sector's per-record cluster fields say.
const (
	FileRecordSectors = 2
	IndxRecordSectors = 8
)

// MaxSectors caps any single read performed while restoring file
// content, bounding memory use against a claimed run length that
// could otherwise be enormous on corrupted media.
const MaxSectors = 1024

// Attribute type codes, as stored in an attribute header's Type
// field.
const (
	AttrStandardInformation = 16
	AttrAttributeList       = 32
	AttrFileName            = 48
	AttrSecurityDescriptor  = 80
	AttrVolumeName          = 96
	AttrVolumeInformation   = 112
	AttrData                = 128
	AttrIndexRoot           = 144
	AttrIndexAllocation     = 160
	AttrBitmap              = 176
)

var attributeNames = map[uint64]string{
	AttrStandardInformation: "$STANDARD_INFORMATION",
	AttrAttributeList:       "$ATTRIBUTE_LIST",
	AttrFileName:            "$FILE_NAME",
	AttrSecurityDescriptor:  "$SECURITY_DESCRIPTOR",
	AttrVolumeName:          "$VOLUME_NAME",
	AttrVolumeInformation:   "$VOLUME_INFORMATION",
	AttrData:                "$DATA",
	AttrIndexRoot:           "$INDEX_ROOT",
	AttrIndexAllocation:     "$INDEX_ALLOCATION",
	AttrBitmap:              "$BITMAP",
}

// multiValueAttributes may legally occur more than once in a single
// FILE record's attribute list; any other attribute occurring twice
// aborts the record's parse.
var multiValueAttributes = map[string]bool{
	"$FILE_NAME":        true,
	"$DATA":             true,
	"$INDEX_ROOT":       true,
	"$INDEX_ALLOCATION": true,
	"$BITMAP":           true,
}
