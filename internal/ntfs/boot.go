package ntfs

import (
	"bytes"
	"encoding/binary"

	"github.com/go-restruct/restruct"
)

// BootSector holds the geometry fields the reconstructor needs from
// an NTFS boot sector. Every other field (jump instruction, boot
// code, checksum) is ignored — no attempt is made to verify it.
type BootSector struct {
	BytesPerSector         int
	SectorsPerCluster      int
	TotalSectors           uint64
	MFTCluster             uint64
	MFTMirrCluster         uint64
	ClustersPerMFTRecord   int8
	ClustersPerIndexRecord int8
}

// bootSectorLayout mirrors the fixed byte offsets of an NTFS boot
// sector up to its volume serial number and checksum; it has no length or type
// that depends on another field, which is exactly the shape
// restruct's static struct tags are built for.
type bootSectorLayout struct {
	Jump                   [3]byte
	OEMName                [8]byte
	BytesPerSector         uint16
	SectorsPerCluster      uint8
	ReservedSectors        uint16
	Unused1                [5]byte
	MediaDescriptor        uint8
	Unused2                [2]byte
	SectorsPerTrack        uint16
	NumHeads               uint16
	HiddenSectors          uint32
	Unused3                uint32
	Unused4                uint32
	TotalSectors           uint64
	MFTCluster             uint64
	MFTMirrCluster         uint64
	ClustersPerMFTRecord   int8
	Unused5                [3]byte
	ClustersPerIndexRecord int8
	Unused6                [3]byte
	VolumeSerial           uint64
	Checksum               uint32
}

const bootSectorLayoutSize = 84

// DecodeBootSector decodes a 512-byte boot sector candidate. It
// returns ok=false if the sector is too short, lacks the "NTFS"
// signature in its first 8 bytes, or lacks the trailing 0x55 0xAA
// boot signature — the same test the sector classifier applies.
func DecodeBootSector(sector []byte) (*BootSector, bool) {
	if len(sector) < SectorSize {
		return nil, false
	}
	if !bytes.Contains(sector[:8], []byte("NTFS")) {
		return nil, false
	}
	if sector[510] != 0x55 || sector[511] != 0xAA {
		return nil, false
	}

	var layout bootSectorLayout
	if err := restruct.Unpack(sector[:bootSectorLayoutSize], binary.LittleEndian, &layout); err != nil {
		return nil, false
	}

	return &BootSector{
		BytesPerSector:         int(layout.BytesPerSector),
		SectorsPerCluster:      int(layout.SectorsPerCluster),
		TotalSectors:           layout.TotalSectors,
		MFTCluster:             layout.MFTCluster,
		MFTMirrCluster:         layout.MFTMirrCluster,
		ClustersPerMFTRecord:   layout.ClustersPerMFTRecord,
		ClustersPerIndexRecord: layout.ClustersPerIndexRecord,
	}, true
}
