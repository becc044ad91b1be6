package ntfs

import (
	"github.com/shubham/ntfsrecon/internal/binfmt"
	"github.com/shubham/ntfsrecon/internal/disk"
)

// RunEntry is one entry of a decoded non-resident attribute runlist:
// a cluster count and a signed cluster offset delta relative to the
// previous entry. Offset is nil for a sparse run.
type RunEntry struct {
	Offset *int64
	Length uint64
}

// decodeRunlist decodes a packed NTFS runlist using the declarative
// decoder for each entry's two variable-width fields, exactly as the
// reference implementation's runlist_unpack does: the header byte's
// nibbles give the byte width of the length and offset fields that
// follow it.
func decodeRunlist(data []byte) []RunEntry {
	var entries []RunEntry

	for len(data) > 0 && data[0] != 0 {
		header := data[0]
		offBytes := int(header >> 4)
		lenBytes := int(header & 0x0F)
		end := lenBytes + offBytes

		if lenBytes == 0 {
			break
		}

		fields := []binfmt.Field{
			binfmt.F("length", "i", binfmt.Fixed(1), binfmt.Fixed(lenBytes)),
		}
		if offBytes > 0 {
			fields = append(fields, binfmt.F("offset", "+i", binfmt.Fixed(lenBytes+1), binfmt.Fixed(end)))
		}
		result := binfmt.Unpack(data, fields)

		length, ok := result["length"].(uint64)
		if !ok {
			break
		}

		var offsetPtr *int64
		if offBytes > 0 {
			off, ok := result["offset"].(int64)
			if !ok {
				break
			}
			offsetPtr = &off
		}

		entries = append(entries, RunEntry{Offset: offsetPtr, Length: length})

		if end+1 > len(data) {
			break
		}
		data = data[end+1:]
	}

	return entries
}

// readRunlistContent materializes the bytes a non-resident attribute's
// runlist describes, up to limit bytes, reading absolute sectors at
// baseOffset+LCN*clusterSize. Sparse runs contribute zero bytes.
// Shared by the restorer and by the $ATTRIBUTE_LIST resolver, which
// both need to pull non-resident content off the image before a
// runlist can be walked lazily or parsed as a sub-structure.
func readRunlistContent(img *disk.Image, runs []RunEntry, clusterSize, baseOffset int64, limit uint64) []byte {
	out := make([]byte, 0, limit)
	var lcn int64
	for _, run := range runs {
		if uint64(len(out)) >= limit {
			break
		}
		if run.Offset != nil {
			lcn += *run.Offset
		}
		runBytes := run.Length * uint64(clusterSize)
		if run.Offset == nil {
			out = append(out, make([]byte, runBytes)...)
			continue
		}
		offset := baseOffset + lcn*clusterSize
		out = append(out, img.Read(offset, int(runBytes))...)
	}
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}
