package ntfs

import "time"

// windowsEpochOffsetSeconds is the number of seconds between the
// Windows FILETIME epoch (1601-01-01) and the Unix epoch.
const windowsEpochOffsetSeconds = 11644473600

// windowsTime decodes a FILETIME value (100-nanosecond intervals
// since 1601-01-01) into a UTC time. A zero timestamp (the common
// case for a field that was never set) reports ok=false.
func windowsTime(timestamp uint64) (time.Time, bool) {
	if timestamp == 0 {
		return time.Time{}, false
	}
	seconds := float64(timestamp)/1e7 - windowsEpochOffsetSeconds
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}
