package ntfs

import (
	"testing"
)

func TestFeedClassifiesBootFileAndIndxSectors(t *testing.T) {
	img := writeTestImage(t, make([]byte, 4*IndxRecordSectors*SectorSize))
	scanner := NewScanner(img)

	if tag := scanner.Feed(0, makeBootSector()); tag != ClassBoot {
		t.Errorf("Feed(boot sector) = %v, want ClassBoot", tag)
	}

	fileRecord := makeResidentFileRecord(10, "a.txt", []byte("hi"))
	if tag := scanner.Feed(2, fileRecord[:SectorSize]); tag != ClassFile {
		t.Errorf("Feed(file sector) = %v, want ClassFile", tag)
	}

	indxSector := make([]byte, SectorSize)
	copy(indxSector[:4], "INDX")
	if tag := scanner.Feed(4, indxSector); tag != ClassIndx {
		t.Errorf("Feed(indx sector) = %v, want ClassIndx", tag)
	}

	plain := make([]byte, SectorSize)
	if tag := scanner.Feed(6, plain); tag != ClassNone {
		t.Errorf("Feed(plain sector) = %v, want ClassNone", tag)
	}

	result := scanner.Finalize()
	if len(result.BootSectors) != 1 || result.BootSectors[0] != 0 {
		t.Errorf("BootSectors = %v, want [0]", result.BootSectors)
	}
	if _, ok := result.Records[2]; !ok {
		t.Error("Records missing entry for sector 2")
	}
	if _, ok := result.IndxRecords[4]; !ok {
		t.Error("IndxRecords missing entry for sector 4")
	}
}

func TestFeedReadsFullMultiSectorRecordFromImage(t *testing.T) {
	rec := makeResidentFileRecord(10, "a.txt", []byte("hi"))
	img := writeTestImage(t, rec)
	scanner := NewScanner(img)

	scanner.Feed(0, rec[:SectorSize])
	result := scanner.Finalize()

	got, ok := result.Records[0]
	if !ok {
		t.Fatal("Records missing entry for sector 0")
	}
	if len(got) != FileRecordSectors*SectorSize {
		t.Fatalf("len(Records[0]) = %d, want %d", len(got), FileRecordSectors*SectorSize)
	}
	if string(got[:4]) != "FILE" {
		t.Fatalf("Records[0] does not start with FILE signature: %q", got[:4])
	}
}

// TestScanImageExaminesEveryUnderlyingSector is a regression test: an
// older FILE record's body must not hide a newer record whose own
// signature sector happens to fall inside it. ScanImage must classify
// every sector independently rather than skipping ahead once a
// multi-sector record has been recognized.
func TestScanImageExaminesEveryUnderlyingSector(t *testing.T) {
	outer := makeResidentFileRecord(1, "outer.txt", []byte("outer"))
	inner := makeResidentFileRecord(2, "inner.txt", []byte("inner"))

	// Place outer at sector 0 (occupies sectors 0-1) and overwrite
	// outer's second sector with inner's first sector, simulating a
	// newer record whose signature landed inside an older one's body.
	image := append([]byte(nil), outer...)
	copy(image[SectorSize:2*SectorSize], inner[:SectorSize])
	image = append(image, inner[SectorSize:]...)

	img := writeTestImage(t, image)
	result := ScanImage(img)

	if _, ok := result.Records[0]; !ok {
		t.Error("Records missing the outer record at sector 0")
	}
	if _, ok := result.Records[1]; !ok {
		t.Error("ScanImage skipped sector 1, hiding the inner record's signature")
	}
}
