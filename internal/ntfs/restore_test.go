package ntfs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/shubham/ntfsrecon/internal/disk"
)

func offset(n int64) *int64 { return &n }

func writeTestImage(t *testing.T, data []byte) *disk.Image {
	t.Helper()
	path := filepath.Join(t.TempDir(), "restore.img")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	img, err := disk.Open(path)
	if err != nil {
		t.Fatalf("disk.Open: %v", err)
	}
	t.Cleanup(func() { img.Close() })
	return img
}

func TestGetContentResidentReturnsInlineBytes(t *testing.T) {
	f := &File{DataResident: true, ResidentContent: []byte("inline content")}
	part := &Partition{}

	r := f.GetContent(nil, part)
	if r == nil {
		t.Fatal("GetContent returned nil for a resident stream")
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "inline content" {
		t.Fatalf("content = %q, want %q", got, "inline content")
	}
}

func TestGetContentNonResidentSingleRun(t *testing.T) {
	const clusterSize = SectorSize
	data := make([]byte, 8*clusterSize)
	for i := 5 * clusterSize; i < 7*clusterSize; i++ {
		data[i] = 0xCD
	}
	img := writeTestImage(t, data)

	part := &Partition{Recoverable: true, SectorsPerClus: 1, Offset: 0}
	f := &File{
		RealSize: 2 * clusterSize,
		DataFragments: []DataFragment{
			{StartVCN: 0, EndVCN: 1, Runs: []RunEntry{{Offset: offset(5), Length: 2}}},
		},
	}

	r := f.GetContent(img, part)
	if r == nil {
		t.Fatal("GetContent returned nil for a recoverable non-resident stream")
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2*clusterSize {
		t.Fatalf("len = %d, want %d", len(got), 2*clusterSize)
	}
	if !bytes.Equal(got, data[5*clusterSize:7*clusterSize]) {
		t.Fatal("content did not match the run's cluster range on disk")
	}
}

func TestGetContentFillsGapBetweenFragmentsWithZeros(t *testing.T) {
	const clusterSize = SectorSize
	data := make([]byte, 16*clusterSize)
	for i := 2 * clusterSize; i < 4*clusterSize; i++ {
		data[i] = 0xAA
	}
	for i := 10 * clusterSize; i < 12*clusterSize; i++ {
		data[i] = 0xBB
	}
	img := writeTestImage(t, data)

	part := &Partition{Recoverable: true, SectorsPerClus: 1, Offset: 0}
	f := &File{
		RealSize: 6 * clusterSize,
		DataFragments: []DataFragment{
			{StartVCN: 0, EndVCN: 1, Runs: []RunEntry{{Offset: offset(2), Length: 2}}},
			{StartVCN: 4, EndVCN: 5, Runs: []RunEntry{{Offset: offset(10), Length: 2}}},
		},
	}

	r := f.GetContent(img, part)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 6*clusterSize {
		t.Fatalf("len = %d, want %d", len(got), 6*clusterSize)
	}

	want := make([]byte, 0, 6*clusterSize)
	want = append(want, bytes.Repeat([]byte{0xAA}, 2*clusterSize)...)
	want = append(want, make([]byte, 2*clusterSize)...)
	want = append(want, bytes.Repeat([]byte{0xBB}, 2*clusterSize)...)
	if !bytes.Equal(got, want) {
		t.Fatal("gap between fragments was not zero-filled at the expected position")
	}
}

func TestGetContentRejectsCompressedStream(t *testing.T) {
	f := &File{DataFlags: attrFlagCompressed, ResidentContent: []byte("x"), DataResident: true}
	if r := f.GetContent(nil, &Partition{}); r != nil {
		t.Fatal("GetContent should return nil for a compressed stream")
	}
}

func TestGetContentWarnsButReturnsEncryptedStream(t *testing.T) {
	f := &File{DataFlags: attrFlagEncrypted, ResidentContent: []byte("ciphertext"), DataResident: true}
	r := f.GetContent(nil, &Partition{})
	if r == nil {
		t.Fatal("GetContent should still return a reader for an encrypted stream")
	}
	got, _ := io.ReadAll(r)
	if string(got) != "ciphertext" {
		t.Fatalf("content = %q, want %q", got, "ciphertext")
	}
}

func TestGetContentReturnsNilForGhostAndDirectory(t *testing.T) {
	ghost := &File{Ghost: true}
	if r := ghost.GetContent(nil, &Partition{}); r != nil {
		t.Error("GetContent should return nil for a ghost file")
	}
	dir := &File{IsDirectory: true}
	if r := dir.GetContent(nil, &Partition{}); r != nil {
		t.Error("GetContent should return nil for a directory")
	}
}

func TestGetContentUnrecoverableGeometryReturnsNil(t *testing.T) {
	f := &File{
		DataFragments: []DataFragment{{StartVCN: 0, EndVCN: 0, Runs: []RunEntry{{Offset: offset(0), Length: 1}}}},
	}
	part := &Partition{Recoverable: false}
	if r := f.GetContent(nil, part); r != nil {
		t.Fatal("GetContent should return nil when the partition's geometry was never recovered")
	}
}

func TestRestoreTreeWritesFilesAndDirectories(t *testing.T) {
	img := writeTestImage(t, make([]byte, SectorSize))
	part := &Partition{Recoverable: true, SectorsPerClus: 1}

	root := newGhostDirectory(RootRecordNumber)
	root.Ghost = false
	sub := newFile(recordIndex(20), 20)
	sub.IsDirectory = true
	file := newFile(recordIndex(21), 21)
	file.DataResident = true
	file.ResidentContent = []byte("restored")

	root.Children["sub"] = sub
	sub.Parent = root
	sub.Children["leaf.txt"] = file
	file.Parent = sub

	dest := t.TempDir()
	if err := RestoreTree(img, part, root, dest); err != nil {
		t.Fatalf("RestoreTree: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "sub", "leaf.txt"))
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(got) != "restored" {
		t.Fatalf("restored content = %q, want %q", got, "restored")
	}
}

func TestRestoreTreeRejectsNilRoot(t *testing.T) {
	if err := RestoreTree(nil, &Partition{}, nil, t.TempDir()); err == nil {
		t.Fatal("RestoreTree with a nil root should return an error")
	}
}
