package ntfs

import (
	"github.com/rs/zerolog/log"

	"github.com/shubham/ntfsrecon/internal/disk"
)

// ScanResult collects the raw candidate records a sector-by-sector
// sweep of an image turned up: boot sector offsets, FILE/BAAD record
// offsets with their raw bytes, and INDX record offsets with their
// raw bytes. Nothing here is validated beyond signature matching;
// parseRecord/parseIndxRecord/DecodeBootSector do the real decoding.
type ScanResult struct {
	BootSectors []int64
	Records     map[int64][]byte
	IndxRecords map[int64][]byte
}

func newScanResult() *ScanResult {
	return &ScanResult{
		Records:     make(map[int64][]byte),
		IndxRecords: make(map[int64][]byte),
	}
}

// ClassTag is the classification Scanner.Feed returns for a single
// sector: which of the three record kinds it started, or ClassNone.
type ClassTag int

const (
	ClassNone ClassTag = iota
	ClassBoot
	ClassFile
	ClassIndx
)

// Scanner implements the external feed/get_partitions contract of
// spec §6: it accepts sectors one at a time in the COLLECTING state,
// classifying each and reading a matched record's remaining sectors
// from the image, and transitions one-way to FINALIZED once Finalize
// is called. Feeding sectors after Finalize is undefined, matching
// the scanner state machine described in spec §4's closing section.
type Scanner struct {
	img       *disk.Image
	result    *ScanResult
	finalized bool
}

// NewScanner creates a scanner in the COLLECTING state, reading full
// multi-sector records off img when Feed recognizes a signature.
func NewScanner(img *disk.Image) *Scanner {
	return &Scanner{img: img, result: newScanResult()}
}

// Feed classifies a single sector: a boot sector signature, a
// "FILE"/"BAAD" record signature, or an "INDX" record signature.
// On a FILE/BAAD or INDX match it reads the record's remaining
// sectors off the image (2 total for FILE/BAAD, 8 for INDX) so later
// decoding has the whole record; a boot sector is one sector wide and
// needs no further read. Returns ClassNone for anything else.
// Classification is idempotent and order-independent, as spec §4.2
// requires — feeding the same FILE/INDX sector twice just overwrites
// the same map entry with the same bytes, and a boot sector already
// listed is not listed again.
func (s *Scanner) Feed(sectorIndex int64, sector []byte) ClassTag {
	switch classifySector(sector) {
	case kindBoot:
		for _, seen := range s.result.BootSectors {
			if seen == sectorIndex {
				return ClassBoot
			}
		}
		s.result.BootSectors = append(s.result.BootSectors, sectorIndex)
		return ClassBoot
	case kindFile:
		offset := sectorIndex * SectorSize
		data := s.img.Read(offset, FileRecordSectors*SectorSize)
		s.result.Records[sectorIndex] = data
		return ClassFile
	case kindIndx:
		offset := sectorIndex * SectorSize
		data := s.img.Read(offset, IndxRecordSectors*SectorSize)
		s.result.IndxRecords[sectorIndex] = data
		return ClassIndx
	default:
		return ClassNone
	}
}

// Finalize transitions the scanner to FINALIZED and returns the
// sector tables accumulated so far.
func (s *Scanner) Finalize() *ScanResult {
	s.finalized = true
	return s.result
}

// ScanImage drives a Scanner over every sector of img in order,
// feeding each one to Feed unconditionally and finalizes it. A
// classified FILE/BAAD or INDX record's remaining sectors are never
// skipped: on an image that is partially overwritten or carries
// multiple overlapping NTFS instances, a newer record's own signature
// sector can legitimately fall inside the body of an older multi-
// sector record that was just classified, and skipping ahead would
// lose it. This is the convenience entry point GetPartitions uses;
// callers that want to feed sectors themselves (e.g. streaming from a
// device they control the pacing of) can drive a Scanner directly.
func ScanImage(img *disk.Image) *ScanResult {
	scanner := NewScanner(img)
	total := img.TotalSectors()

	for sector := int64(0); sector < total; sector++ {
		offset := sector * SectorSize
		probe := img.Read(offset, SectorSize)
		scanner.Feed(sector, probe)
	}

	result := scanner.Finalize()
	log.Info().
		Int("boot_sectors", len(result.BootSectors)).
		Int("file_records", len(result.Records)).
		Int("indx_records", len(result.IndxRecords)).
		Msg("scan complete")

	return result
}

type sectorKind int

const (
	kindNone sectorKind = iota
	kindBoot
	kindFile
	kindIndx
)

func classifySector(sector []byte) sectorKind {
	if len(sector) < 4 {
		return kindNone
	}
	switch string(sector[:4]) {
	case "FILE", "BAAD":
		return kindFile
	case "INDX":
		return kindIndx
	}
	if _, ok := DecodeBootSector(sector); ok {
		return kindBoot
	}
	return kindNone
}
