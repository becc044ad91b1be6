package ntfs

import "github.com/shubham/ntfsrecon/internal/binfmt"

func getUint64(r binfmt.Result, key string) (uint64, bool) {
	v, present := r[key]
	if !present || v == nil {
		return 0, false
	}
	n, ok := v.(uint64)
	return n, ok
}

func getInt64(r binfmt.Result, key string) (int64, bool) {
	v, present := r[key]
	if !present || v == nil {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func getString(r binfmt.Result, key string) (string, bool) {
	v, present := r[key]
	if !present || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func fieldFromResult(r binfmt.Result, key string) (int, bool) {
	v, ok := getUint64(r, key)
	if !ok {
		return 0, false
	}
	return int(v), true
}
