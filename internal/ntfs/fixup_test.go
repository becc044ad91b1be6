package ntfs

import "testing"

func TestApplyFixupOverwritesSectorTrailers(t *testing.T) {
	record := make([]byte, SectorSize*2)
	record[SectorSize-2] = 0xAA
	record[SectorSize-1] = 0xAA

	// off_fixup=4, fixup array: [signature(2 bytes), sector1 replacement(2 bytes)]
	copy(record[4:], []byte{0xAB, 0xCD, 0x11, 0x22})

	applyFixup(record, 4, 2)

	if record[SectorSize-2] != 0x11 || record[SectorSize-1] != 0x22 {
		t.Fatalf("sector 1 trailer = %x %x, want 11 22", record[SectorSize-2], record[SectorSize-1])
	}
}

func TestApplyFixupIgnoresOutOfBoundsArray(t *testing.T) {
	record := make([]byte, SectorSize*2)
	// Should not panic even with an offFixup that runs past the buffer.
	applyFixup(record, SectorSize*4, 2)
}
