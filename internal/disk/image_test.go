package disk

import (
	"os"
	"path/filepath"
	"testing"
)

func createTestImage(t *testing.T, data []byte) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "test.img")
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	return tmpFile
}

func TestOpenSize(t *testing.T) {
	data := make([]byte, 4096)
	path := createTestImage(t, data)

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer img.Close()

	if img.Size() != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", img.Size(), len(data))
	}
	if img.TotalSectors() != int64(len(data))/SectorSize {
		t.Errorf("TotalSectors() = %d, want %d", img.TotalSectors(), int64(len(data))/SectorSize)
	}
}

func TestReadInBounds(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 256)
	}
	path := createTestImage(t, data)

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer img.Close()

	got := img.Read(100, 16)
	for i, b := range got {
		if b != data[100+i] {
			t.Fatalf("Read()[%d] = %d, want %d", i, b, data[100+i])
		}
	}
}

func TestReadPastEOFIsZeroPadded(t *testing.T) {
	data := make([]byte, 512)
	for i := range data {
		data[i] = 0xAA
	}
	path := createTestImage(t, data)

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer img.Close()

	got := img.Read(500, 32)
	for i := 0; i < 12; i++ {
		if got[i] != 0xAA {
			t.Errorf("byte %d within file = %#x, want 0xAA", i, got[i])
		}
	}
	for i := 12; i < 32; i++ {
		if got[i] != 0 {
			t.Errorf("byte %d past EOF = %#x, want 0", i, got[i])
		}
	}
}

func TestReadEntirelyPastEOFIsAllZero(t *testing.T) {
	path := createTestImage(t, make([]byte, 512))

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer img.Close()

	got := img.Read(10_000, 64)
	for i, b := range got {
		if b != 0 {
			t.Errorf("byte %d = %#x, want 0", i, b)
		}
	}
}

func TestReadSectors(t *testing.T) {
	data := make([]byte, 4*SectorSize)
	for i := range data {
		data[i] = byte(i / SectorSize)
	}
	path := createTestImage(t, data)

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer img.Close()

	got := img.ReadSectors(2, 2)
	if len(got) != 2*SectorSize {
		t.Fatalf("len = %d, want %d", len(got), 2*SectorSize)
	}
	if got[0] != 2 || got[SectorSize] != 3 {
		t.Errorf("unexpected sector contents: %d, %d", got[0], got[SectorSize])
	}
}
