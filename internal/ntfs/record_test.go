package ntfs

import (
	"encoding/binary"
	"testing"
)

// putLE writes the low n bytes of v into buf[off:off+n], little-endian.
func putLE(buf []byte, off, n int, v uint64) {
	for i := 0; i < n; i++ {
		buf[off+i] = byte(v >> (8 * i))
	}
}

func putUTF16LE(buf []byte, off int, s string) {
	for i, r := range s {
		binary.LittleEndian.PutUint16(buf[off+i*2:], uint16(r))
	}
}

// makeResidentFileRecord builds a synthetic, on-disk FILE record
// (2 sectors, fixup applied) for recordNumber carrying a single
// Win32 $FILE_NAME (parent 5, given name) and a resident $DATA
// attribute holding content verbatim. It mirrors the byte layout
// record.go and attr.go decode against.
func makeResidentFileRecord(recordNumber uint64, name string, content []byte) []byte {
	buf := make([]byte, FileRecordSectors*SectorSize)
	copy(buf[0:4], "FILE")

	const offFixup = 48
	const offFirst = 56
	putLE(buf, 4, 2, offFixup)
	putLE(buf, 6, 2, 2) // n_entries: 2 sectors
	putLE(buf, 16, 2, 1) // seq_val
	putLE(buf, 18, 2, 1) // link_count
	putLE(buf, 20, 2, offFirst)
	putLE(buf, 22, 2, 0x0001) // flags: in use, not a directory
	putLE(buf, 32, 4, 0)      // base_record
	putLE(buf, 44, 4, recordNumber)

	// Fixup array: 2-byte signature + the real trailing bytes of the
	// sector boundary the on-disk placeholder sits over. parseRecord
	// applies this before any attribute is read.
	buf[48], buf[49] = 0xAB, 0xCD
	buf[50], buf[51] = 0x11, 0x22
	buf[510], buf[511] = 0x99, 0x99 // on-disk placeholder, overwritten by applyFixup

	pos := offFirst

	// $FILE_NAME attribute.
	nameContentLen := 66 + len(name)*2
	fnAttrLen := 24 + nameContentLen
	putLE(buf, pos+0, 4, AttrFileName)
	putLE(buf, pos+4, 4, uint64(fnAttrLen))
	buf[pos+8] = 0 // resident
	putLE(buf, pos+20, 2, 24) // content_off
	putLE(buf, pos+16, 4, uint64(nameContentLen))
	contentOff := pos + 24
	putLE(buf, contentOff+0, 6, 5) // parent_entry = 5
	putLE(buf, contentOff+64, 1, uint64(len(name)))
	putLE(buf, contentOff+65, 1, 1) // namespace: Win32
	putUTF16LE(buf, contentOff+66, name)
	pos += fnAttrLen

	// $DATA attribute, resident.
	dataAttrLen := 24 + len(content)
	putLE(buf, pos+0, 4, AttrData)
	putLE(buf, pos+4, 4, uint64(dataAttrLen))
	buf[pos+8] = 0
	putLE(buf, pos+20, 2, 24)
	putLE(buf, pos+16, 4, uint64(len(content)))
	copy(buf[pos+24:], content)
	pos += dataAttrLen

	// Terminator.
	putLE(buf, pos, 4, 0xFFFFFFFF)

	putLE(buf, 24, 4, uint64(pos+8)) // size_used
	putLE(buf, 28, 4, uint64(len(buf))) // size_alloc

	applyFixup(buf, offFixup, 2)
	return buf
}

func TestParseRecordDecodesResidentFileNameAndData(t *testing.T) {
	raw := makeResidentFileRecord(10, "hello.txt", []byte("hello world"))

	rec, err := parseRecord(raw)
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}
	if rec.RecordNumber == nil || *rec.RecordNumber != 10 {
		t.Fatalf("RecordNumber = %v, want 10", rec.RecordNumber)
	}

	fn := rec.First("$FILE_NAME")
	if fn == nil || fn.FileName == nil {
		t.Fatal("missing decoded $FILE_NAME")
	}
	if fn.FileName.Name != "hello.txt" || fn.FileName.ParentEntry != 5 {
		t.Fatalf("FileName = %+v, want name=hello.txt parent=5", fn.FileName)
	}

	data := rec.First("$DATA")
	if data == nil {
		t.Fatal("missing $DATA attribute")
	}
	if data.NonResident {
		t.Fatal("$DATA should be resident in this fixture")
	}
	if string(data.Content) != "hello world" {
		t.Fatalf("$DATA content = %q, want %q", data.Content, "hello world")
	}
}

func TestResidentFileRecordFixtureHasFixupApplied(t *testing.T) {
	raw := makeResidentFileRecord(10, "x.txt", []byte("y"))
	if raw[510] != 0x11 || raw[511] != 0x22 {
		t.Fatalf("sector-1 trailer = %x %x, want 11 22 (fixup applied)", raw[510], raw[511])
	}
}

func TestBuildFileCapturesResidentContentForRestore(t *testing.T) {
	raw := makeResidentFileRecord(10, "hello.txt", []byte("hello world"))
	rec, err := parseRecord(raw)
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}

	f := buildFile(10, rec)
	if !f.DataResident {
		t.Fatal("DataResident = false, want true for a resident $DATA attribute")
	}
	if string(f.ResidentContent) != "hello world" {
		t.Fatalf("ResidentContent = %q, want %q", f.ResidentContent, "hello world")
	}
	if f.RealSize != uint64(len("hello world")) {
		t.Fatalf("RealSize = %d, want %d", f.RealSize, len("hello world"))
	}
}
