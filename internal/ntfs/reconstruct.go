package ntfs

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shubham/ntfsrecon/internal/disk"
	"github.com/shubham/ntfsrecon/internal/sparse"
)

// Reconstruction is the final output of GetPartitions: every
// partition found on the image, already rebuilt into a tree.
type Reconstruction struct {
	Partitions []*Partition
}

// GetPartitions runs the full pipeline over img:
//
//	A. sweep every sector, classifying boot/FILE/BAAD/INDX records
//	B. decode every FILE/BAAD record and cluster them into candidate
//	   partitions keyed by "byte position minus record_n * record size"
//	C. decode every INDX record and build the global position->parent
//	   SparseList used for geometry inference
//	D. decode every boot sector and, where its MFT address lines up
//	   with a clustered partition, mark it recoverable and set its
//	   geometry directly; repair records 0-3 from $MFTMirr where the
//	   primary copy is missing, then drop any partition that turns out
//	   to be nothing but a misread $MFTMirr
//	E. for partitions with no boot sector, infer geometry via
//	   approximate matching against the INDX SparseList
//	F. integrate $ATTRIBUTE_LIST extension records (resident or, via
//	   its own runlist, non-resident) and $INDEX_ROOT/$INDEX_ALLOCATION
//	   ghost entries
//	G. merge fragment partitions whose candidate MFT position matches a
//	   run of the primary partition's $MFT beyond its first, then
//	   rebuild every surviving partition's tree
func GetPartitions(img *disk.Image) *Reconstruction {
	scan := ScanImage(img)

	recordSize := int64(FileRecordSectors * SectorSize)
	decoded := make(map[int64]*Record, len(scan.Records))
	for pos, raw := range scan.Records {
		rec, err := parseRecord(raw)
		if err != nil {
			log.Debug().Int64("sector", pos).Err(err).Msg("skipping unparsable record")
			continue
		}
		decoded[pos] = rec
	}

	partitioned := clusterByRecordZero(decoded, recordSize)

	indxRecords := make(map[int64]*IndxRecord, len(scan.IndxRecords))
	indxInfo := make(map[int64]IndxInfo, len(scan.IndxRecords))
	for pos, raw := range scan.IndxRecords {
		rec, err := parseIndxRecord(raw)
		if err != nil {
			continue
		}
		indxRecords[pos] = rec
		if info, ok := summarizeIndxRecord(rec); ok {
			indxInfo[pos] = info
		}
	}
	indxListMap := make(map[int]uint64, len(indxInfo))
	for pos, info := range indxInfo {
		indxListMap[int(pos)] = info.Parent
	}
	indxList := sparse.FromMap(indxListMap, uint64(0))

	applyBootSectors(img, scan.BootSectors, partitioned)
	repairMFTMirror(img, partitioned)
	dropSpuriousMirrorPartitions(partitioned)

	multipliers := DefaultSectorsPerClusterMultipliers()
	for offset, part := range partitioned {
		if part.Recoverable {
			continue
		}
		baseByCluster := indexAllocationBaseClusters(part, decoded)
		if len(baseByCluster) == 0 {
			continue
		}
		boundary, ok := FindBoundary(indxList, baseByCluster, offset/int64(SectorSize), multipliers)
		if !ok {
			continue
		}
		part.Offset = boundary.Offset * int64(SectorSize)
		part.SectorsPerClus = boundary.SectorsPerClus
		part.Recoverable = true
	}

	for _, part := range partitioned {
		finalizePartition(img, part, decoded, indxRecords, indxInfo)
	}

	mergeFragmentedMFT(partitioned)

	for _, part := range partitioned {
		part.Rebuild()
	}

	return &Reconstruction{Partitions: collectPartitions(partitioned)}
}

// repairMFTMirror re-reads the first four FILE records from each
// recoverable partition's $MFTMirr location and, wherever the live
// MFT's own copy is missing or only a ghost, substitutes the mirror's
// decoded record. This recovers records 0-3 (the filesystem metafiles
// $MFT, $MFTMirr, $LogFile, $AttrDef) when the primary MFT's head has
// been overwritten but the mirror survived.
func repairMFTMirror(img *disk.Image, partitioned map[int64]*Partition) {
	for _, part := range partitioned {
		if !part.Recoverable || part.MFTMirrPosition == 0 {
			continue
		}
		mirrorSector := part.MFTMirrPosition / SectorSize
		for i := uint64(0); i < 4; i++ {
			sector := mirrorSector + int64(i)*FileRecordSectors
			raw := img.ReadSectors(sector, FileRecordSectors)
			rec, err := parseRecord(raw)
			if err != nil || rec.First("$FILE_NAME") == nil {
				continue
			}
			idx := recordIndex(i)
			if existing, ok := part.Files[idx]; ok && !existing.Ghost {
				continue
			}
			f := buildFile(i, rec)
			part.AddFile(f)
			log.Debug().Int64("mft_pos", part.MFTPosition).Uint64("record", i).
				Msg("repaired MFT record from $MFTMirr")
		}
	}
}

// dropSpuriousMirrorPartitions removes any candidate partition whose
// MFT position is actually another partition's $MFTMirr location and
// whose only discovered records are the core 0-3 metafiles: that's not
// an independent volume, just the mirror copy misread as its own
// cluster by Step A.
func dropSpuriousMirrorPartitions(partitioned map[int64]*Partition) {
	mirrorTargets := make(map[int64]bool)
	for _, part := range partitioned {
		if part.MFTMirrPosition != 0 {
			mirrorTargets[part.MFTMirrPosition] = true
		}
	}

	for offset, part := range partitioned {
		if !mirrorTargets[part.MFTPosition] {
			continue
		}
		if isCoreMetafilesOnly(part) {
			delete(partitioned, offset)
			log.Debug().Int64("offset", offset).Msg("dropped spurious $MFTMirr-only partition")
		}
	}
}

func isCoreMetafilesOnly(part *Partition) bool {
	for idx, f := range part.Files {
		if f.IsADS {
			continue
		}
		if f.RecordNumber > 3 || string(idx) != fmt.Sprintf("%d", f.RecordNumber) {
			return false
		}
	}
	return true
}

// mergeFragmentedMFT takes each recoverable partition's already-built
// record 0 ($MFT) file and, when its base $DATA runlist has more than
// one run, checks whether any run beyond the first lands on another
// candidate partition's MFT position. A continuation run starts at
// the VCN equal to the summed cluster counts of the runs before it
// (runs[0].Length for the second run), so its anchor offset must be
// rewound by that many clusters before comparing against
// clusterByRecordZero's "position minus record_n*recordSize" key — the
// continuation's own record 0 sits vcn*spc sectors before the cluster
// the runlist entry actually points at. If a match is
// found, that partition is a fragment of this one (the $MFT itself
// was split across non-contiguous clusters) and is folded in and
// removed from the working set.
func mergeFragmentedMFT(partitioned map[int64]*Partition) {
	for offset, part := range partitioned {
		if !part.Recoverable || part.SectorsPerClus == 0 {
			continue
		}
		mftFile, ok := part.Files[recordIndex(0)]
		if !ok {
			continue
		}
		runs := mftFile.PrimaryDataRuns()
		if len(runs) < 2 {
			continue
		}

		var lcn, vcn int64
		for i, run := range runs {
			if run.Offset != nil {
				lcn += *run.Offset
			}
			if i == 0 {
				continue
			}
			vcn += int64(runs[i-1].Length)
			fragSector := part.Offset/SectorSize + lcn*int64(part.SectorsPerClus) - vcn*int64(part.SectorsPerClus)
			fragOffset := fragSector * SectorSize

			frag, ok := partitioned[fragOffset]
			if !ok || frag == part {
				continue
			}
			if hasNonGhostConflict(part, frag) {
				log.Debug().Int64("primary", offset).Int64("fragment", fragOffset).
					Msg("refusing to merge $MFT fragment: non-ghost conflict")
				continue
			}
			part.Merge(frag)
			delete(partitioned, fragOffset)
		}
	}
}

func hasNonGhostConflict(dest, src *Partition) bool {
	for idx, f := range src.Files {
		if f.Ghost {
			continue
		}
		if existing, ok := dest.Files[idx]; ok && !existing.Ghost {
			return true
		}
	}
	return false
}

// clusterByRecordZero groups decoded FILE records into candidate
// partitions by the byte position each record's own declared record
// number implies its MFT table started at: record_n (whichever
// record carries one) anchors "offset = position_in_bytes -
// record_n*recordSize", and every record sharing that offset belongs
// to the same candidate partition.
func clusterByRecordZero(decoded map[int64]*Record, recordSize int64) map[int64]*Partition {
	partitioned := make(map[int64]*Partition)

	for pos, rec := range decoded {
		if rec.RecordNumber == nil || rec.First("$FILE_NAME") == nil {
			continue
		}
		offset := pos*SectorSize - int64(*rec.RecordNumber)*recordSize
		part, ok := partitioned[offset]
		if !ok {
			part = NewPartition()
			part.MFTPosition = offset
			partitioned[offset] = part
		}

		recordNumber := *rec.RecordNumber
		for _, attr := range rec.Attributes["$DATA"] {
			if attr.Name == "" {
				continue
			}
			f := newFile(adsIndex(recordNumber, attr.Name), recordNumber)
			f.IsADS = true
			f.StreamName = attr.Name
			applyDataAttribute(f, attr)
			part.AddFile(f)
		}

		f := buildFile(recordNumber, rec)
		part.AddFile(f)

		if root := rec.First("$INDEX_ROOT"); root != nil && root.IndexRoot != nil {
			addGhostEntries(part, root.IndexRoot.Records)
		}
	}

	return partitioned
}

func buildFile(recordNumber uint64, rec *Record) *File {
	f := newFile(recordIndex(recordNumber), recordNumber)
	f.IsDirectory = rec.IsDirectory()
	f.IsDeleted = !rec.InUse()
	for _, attr := range rec.Attributes["$FILE_NAME"] {
		if attr.FileName != nil {
			f.FileNames = append(f.FileNames, attr.FileName)
		}
	}
	if si := rec.First("$STANDARD_INFORMATION"); si != nil {
		f.StandardInformation = si.StandardInformation
	}
	if data := rec.First("$DATA"); data != nil {
		applyDataAttribute(f, data)
	}
	return f
}

// applyDataAttribute records a $DATA attribute's content onto a File
// node, whichever form it's stored in: an inline resident byte range,
// or a non-resident runlist fragment accumulated for GetContent to
// walk later. A file can carry more than one non-resident $DATA
// fragment when $ATTRIBUTE_LIST continuations split its data across
// several attribute records; fragments are deduplicated by StartVCN
// since re-finalizing a partition can observe the same attribute
// instance more than once. Only the start_VCN==0 instance of a split
// $DATA carries a real real_size — NTFS leaves it 0 on continuation
// attributes — so a continuation applied after the base stream must
// never clobber the size GetContent's runlistReader relies on to know
// how much to read.
func applyDataAttribute(f *File, data *Attribute) {
	f.DataFlags = data.Flags
	if data.StartVCN == 0 || data.RealSize > f.RealSize {
		f.RealSize = data.RealSize
	}
	if data.NonResident {
		f.DataResident = false
		f.ResidentContent = nil
		f.DataFragments = appendDataFragment(f.DataFragments, DataFragment{
			StartVCN: data.StartVCN,
			EndVCN:   data.EndVCN,
			Runs:     data.Runlist,
		})
	} else {
		f.DataResident = true
		f.ResidentContent = data.Content
		f.DataFragments = nil
	}
}

func appendDataFragment(frags []DataFragment, frag DataFragment) []DataFragment {
	for _, existing := range frags {
		if existing.StartVCN == frag.StartVCN {
			return frags
		}
	}
	return append(frags, frag)
}

// addGhostEntries creates placeholder file nodes for children named
// by an $INDEX_ROOT/$INDEX_ALLOCATION listing but not (yet, or ever)
// found as their own FILE record. A later real record for the same
// index simply overwrites the ghost via Partition.AddFile.
func addGhostEntries(part *Partition, entries []IndxDirEntry) {
	for _, e := range entries {
		idx := recordIndex(e.RecordN)
		if _, exists := part.Files[idx]; exists {
			continue
		}
		f := newFile(idx, e.RecordN)
		f.Ghost = true
		f.IsDirectory = e.Flags&0x01 != 0
		if e.FileName != nil {
			f.FileNames = append(f.FileNames, e.FileName)
		}
		part.AddFile(f)
	}
}

// applyBootSectors decodes each candidate boot sector and, when its
// declared MFT position (at the sector itself, or rewound by the
// declared volume size to account for a backup boot sector at the
// end of the volume) lines up with an already-clustered partition,
// marks that partition recoverable and records its true geometry.
func applyBootSectors(img *disk.Image, bootSectors []int64, partitioned map[int64]*Partition) {
	for _, sector := range bootSectors {
		raw := img.ReadSectors(sector, 1)
		boot, ok := DecodeBootSector(raw)
		if !ok {
			continue
		}
		relative := int64(boot.MFTCluster) * int64(boot.SectorsPerCluster)
		mirrRelative := int64(boot.MFTMirrCluster) * int64(boot.SectorsPerCluster)

		for _, delta := range []int64{0, int64(boot.TotalSectors)} {
			index := sector - delta
			address := (relative + index) * int64(SectorSize)
			part, ok := partitioned[address]
			if !ok {
				continue
			}
			part.Recoverable = true
			part.Size = int64(boot.TotalSectors) * int64(SectorSize)
			part.Offset = index * int64(SectorSize)
			part.SectorsPerClus = boot.SectorsPerCluster
			part.MFTMirrPosition = (mirrRelative + index) * int64(SectorSize)
			break
		}
	}
}

// indexAllocationBaseClusters builds the cluster-position->record_n
// pattern FindBoundary needs from every directory in part that
// carries an $INDEX_ALLOCATION runlist.
func indexAllocationBaseClusters(part *Partition, decoded map[int64]*Record) map[int64]uint64 {
	base := make(map[int64]uint64)
	for _, f := range part.Files {
		rec := findRecordAt(decoded, part.MFTPosition, f.RecordNumber)
		if rec == nil {
			continue
		}
		for _, attr := range rec.Attributes["$INDEX_ALLOCATION"] {
			var pos int64
			for _, run := range attr.Runlist {
				if run.Offset == nil {
					continue
				}
				pos += *run.Offset
				base[pos] = f.RecordNumber
			}
		}
	}
	return base
}

func findRecordAt(decoded map[int64]*Record, mftPosition int64, recordNumber uint64) *Record {
	pos := mftPosition + int64(recordNumber)*int64(FileRecordSectors*SectorSize)
	return decoded[pos/SectorSize]
}

// finalizePartition integrates $ATTRIBUTE_LIST extension records and
// $INDEX_ALLOCATION ghost entries for every real file in part. An
// INDX record is only admitted as a directory's own index block when
// its position, computed from that directory's $INDEX_ALLOCATION
// runlist against this partition's own offset/sec_per_clus, actually
// lands on it AND the INDX record's own declared parent agrees: MFT
// record numbers are only unique within one partition, so matching by
// parent-record-number alone would let an INDX record belonging to a
// different overlapping NTFS instance (which may reuse the same
// record number for an unrelated directory) contaminate this one.
func finalizePartition(img *disk.Image, part *Partition, decoded map[int64]*Record, indxRecords map[int64]*IndxRecord, indxInfo map[int64]IndxInfo) {
	reader := func(recordNumber uint64) (*Record, error) {
		if rec := findRecordAt(decoded, part.MFTPosition, recordNumber); rec != nil {
			return rec, nil
		}
		return nil, nil
	}

	for _, f := range part.Files {
		if f.Ghost || f.IsADS {
			continue
		}
		rec := findRecordAt(decoded, part.MFTPosition, f.RecordNumber)
		if rec == nil {
			continue
		}
		resolveNonResidentAttributeList(img, part, rec)
		mergeAttributeList(rec, f.RecordNumber, reader)

		// $ATTRIBUTE_LIST integration may have pulled in $DATA
		// attributes that weren't visible when this File was first
		// built from its own record alone; refresh the base stream
		// and register any newly-discovered ADS streams.
		for _, attr := range rec.Attributes["$DATA"] {
			idx := adsIndex(f.RecordNumber, attr.Name)
			if attr.Name == "" {
				applyDataAttribute(f, attr)
				continue
			}
			if _, exists := part.Files[idx]; exists {
				continue
			}
			ads := newFile(idx, f.RecordNumber)
			ads.IsADS = true
			ads.StreamName = attr.Name
			applyDataAttribute(ads, attr)
			part.AddFile(ads)
		}

		if len(rec.Attributes["$INDEX_ALLOCATION"]) == 0 || part.SectorsPerClus == 0 {
			continue
		}
		for _, attr := range rec.Attributes["$INDEX_ALLOCATION"] {
			var lcn int64
			for _, run := range attr.Runlist {
				if run.Offset != nil {
					lcn += *run.Offset
				}
				realPos := part.Offset/SectorSize + lcn*int64(part.SectorsPerClus)
				info, ok := indxInfo[realPos]
				if !ok || info.Parent != f.RecordNumber {
					continue
				}
				if indx, ok := indxRecords[realPos]; ok {
					addGhostEntries(part, indx.Entries)
				}
			}
		}
	}
}

func collectPartitions(partitioned map[int64]*Partition) []*Partition {
	out := make([]*Partition, 0, len(partitioned))
	for _, p := range partitioned {
		out = append(out, p)
	}
	return out
}
