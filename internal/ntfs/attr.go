package ntfs

import "github.com/shubham/ntfsrecon/internal/binfmt"

// Attribute is a single decoded MFT attribute: header fields common
// to every attribute, plus whichever of the resident/non-resident
// branches applies, plus the typed content when the attribute type is
// one this package understands.
type Attribute struct {
	Type        uint64
	TypeName    string
	Length      uint64
	NonResident bool
	Flags       uint64
	ID          uint64
	Name        string

	// Resident fields.
	Content []byte

	// Non-resident fields.
	StartVCN        uint64
	EndVCN          uint64
	AllocatedSize   uint64
	RealSize        uint64
	InitializedSize uint64
	Runlist         []RunEntry

	StandardInformation *StandardInformationContent
	FileName            *FileNameContent
	IndexRoot           *IndexRootContent
	AttributeList       []AttributeListEntry
}

// parseAttribute decodes one attribute starting at offset 0 of buf
// (buf is expected to already be sliced to the start of the
// attribute). It returns nil if the header can't be decoded or the
// attribute's declared length doesn't fit in buf.
func parseAttribute(buf []byte) *Attribute {
	header := binfmt.Unpack(buf, []binfmt.Field{
		binfmt.F("type", "i", binfmt.Fixed(0), binfmt.Fixed(3)),
		binfmt.F("length", "i", binfmt.Fixed(4), binfmt.Fixed(7)),
		binfmt.F("non_resident", "i", binfmt.Fixed(8), binfmt.Fixed(8)),
		binfmt.F("name_length", "i", binfmt.Fixed(9), binfmt.Fixed(9)),
		binfmt.F("name_off", "i", binfmt.Fixed(10), binfmt.Fixed(11)),
		binfmt.F("flags", "i", binfmt.Fixed(12), binfmt.Fixed(13)),
		binfmt.F("id", "i", binfmt.Fixed(14), binfmt.Fixed(15)),
	})

	attrType, ok := getUint64(header, "type")
	if !ok || attrType == 0xFFFFFFFF {
		return nil
	}
	length, ok := getUint64(header, "length")
	if !ok || length == 0 || int(length) > len(buf) {
		return nil
	}

	a := &Attribute{Type: attrType, TypeName: attributeNames[attrType], Length: length}
	if v, ok := getUint64(header, "flags"); ok {
		a.Flags = v
	}
	if v, ok := getUint64(header, "id"); ok {
		a.ID = v
	}
	nonResident, _ := getUint64(header, "non_resident")
	a.NonResident = nonResident != 0

	nameLength, _ := getUint64(header, "name_length")
	nameOff, _ := getUint64(header, "name_off")
	if nameLength > 0 {
		nameResult := binfmt.Unpack(buf, []binfmt.Field{
			binfmt.F("name", "utf-16", binfmt.Fixed(int(nameOff)), binfmt.Fixed(int(nameOff)+int(nameLength)*2-1)),
		})
		if s, ok := getString(nameResult, "name"); ok {
			a.Name = s
		}
	}

	if a.NonResident {
		parseNonResident(a, buf)
	} else {
		parseResident(a, buf)
	}

	decodeTypedContent(a)
	return a
}

func parseResident(a *Attribute, buf []byte) {
	fields := binfmt.Unpack(buf, []binfmt.Field{
		binfmt.F("content_size", "i", binfmt.Fixed(16), binfmt.Fixed(19)),
		binfmt.F("content_off", "i", binfmt.Fixed(20), binfmt.Fixed(21)),
	})
	size, ok := getUint64(fields, "content_size")
	if !ok {
		return
	}
	off, ok := getUint64(fields, "content_off")
	if !ok {
		return
	}
	start := int(off)
	end := start + int(size)
	if start < 0 || end > len(buf) || end < start {
		return
	}
	a.Content = buf[start:end]
	a.RealSize = size
}

func parseNonResident(a *Attribute, buf []byte) {
	fields := binfmt.Unpack(buf, []binfmt.Field{
		binfmt.F("start_vcn", "i", binfmt.Fixed(16), binfmt.Fixed(23)),
		binfmt.F("end_vcn", "i", binfmt.Fixed(24), binfmt.Fixed(31)),
		binfmt.F("runlist_offset", "i", binfmt.Fixed(32), binfmt.Fixed(33)),
		binfmt.F("allocated_size", "i", binfmt.Fixed(40), binfmt.Fixed(47)),
		binfmt.F("real_size", "i", binfmt.Fixed(48), binfmt.Fixed(55)),
		binfmt.F("initialized_size", "i", binfmt.Fixed(56), binfmt.Fixed(63)),
	})
	if v, ok := getUint64(fields, "start_vcn"); ok {
		a.StartVCN = v
	}
	if v, ok := getUint64(fields, "end_vcn"); ok {
		a.EndVCN = v
	}
	if v, ok := getUint64(fields, "allocated_size"); ok {
		a.AllocatedSize = v
	}
	if v, ok := getUint64(fields, "real_size"); ok {
		a.RealSize = v
	}
	if v, ok := getUint64(fields, "initialized_size"); ok {
		a.InitializedSize = v
	}

	runlistOffset, ok := getUint64(fields, "runlist_offset")
	if !ok || int(runlistOffset) >= len(buf) {
		return
	}
	a.Runlist = decodeRunlist(buf[runlistOffset:])
}

func decodeTypedContent(a *Attribute) {
	if a.NonResident || a.Content == nil {
		return
	}
	switch a.Type {
	case AttrStandardInformation:
		a.StandardInformation = decodeStandardInformation(a.Content)
	case AttrFileName:
		a.FileName = decodeFileName(a.Content)
	case AttrIndexRoot:
		a.IndexRoot = decodeIndexRoot(a.Content)
	case AttrAttributeList:
		a.AttributeList = decodeAttributeList(a.Content)
	}
}
