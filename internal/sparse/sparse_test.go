package sparse

import "testing"

func TestSetGetDefault(t *testing.T) {
	s := New(0)
	if s.Get(5) != 0 {
		t.Errorf("unset Get = %d, want 0", s.Get(5))
	}
	s.Set(5, 42)
	if s.Get(5) != 42 {
		t.Errorf("Get(5) = %d, want 42", s.Get(5))
	}
	if got := s.Keys(); len(got) != 1 || got[0] != 5 {
		t.Errorf("Keys() = %v, want [5]", got)
	}
}

func TestSetToDefaultRemovesKey(t *testing.T) {
	s := New(0)
	s.Set(3, 10)
	s.Set(3, 0)
	if len(s.Keys()) != 0 {
		t.Errorf("Keys() = %v, want empty", s.Keys())
	}
	if s.Get(3) != 0 {
		t.Errorf("Get(3) = %d, want 0", s.Get(3))
	}
}

func TestLen(t *testing.T) {
	s := New(0)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	s.Set(7, 1)
	s.Set(2, 1)
	if s.Len() != 8 {
		t.Errorf("Len() = %d, want 8", s.Len())
	}
}

func TestKeysSortedAscendingAndDescending(t *testing.T) {
	s := New(0)
	for _, k := range []int{9, 1, 5, 3} {
		s.Set(k, 1)
	}
	asc := s.Keys()
	want := []int{1, 3, 5, 9}
	for i, k := range want {
		if asc[i] != k {
			t.Fatalf("Keys() = %v, want %v", asc, want)
		}
	}
	desc := s.KeysReverse()
	for i, k := range desc {
		if k != want[len(want)-1-i] {
			t.Fatalf("KeysReverse() = %v", desc)
		}
	}
}

func TestWipeIntervalNormal(t *testing.T) {
	s := New(0)
	for i := 0; i < 10; i++ {
		s.Set(i, i+1)
	}
	s.WipeInterval(3, 7)
	for _, k := range s.Keys() {
		if k >= 3 && k < 7 {
			t.Errorf("key %d should have been wiped", k)
		}
	}
	for _, k := range []int{0, 1, 2, 7, 8, 9} {
		if s.Get(k) == 0 {
			t.Errorf("key %d should have survived wipe", k)
		}
	}
}

func TestWipeIntervalWraparound(t *testing.T) {
	s := New(0)
	for i := 0; i < 10; i++ {
		s.Set(i, i+1)
	}
	// bottom > top: keeps [top, bottom), deletes everything else.
	s.WipeInterval(8, 2)
	for _, k := range []int{2, 3, 4, 5, 6, 7} {
		if s.Get(k) == 0 {
			t.Errorf("key %d should have survived wraparound wipe", k)
		}
	}
	for _, k := range []int{0, 1, 8, 9} {
		if s.Get(k) != 0 {
			t.Errorf("key %d should have been wiped", k)
		}
	}
}

func TestWipeIntervalResetsValueNotJustKey(t *testing.T) {
	s := New(0)
	s.Set(4, 7)
	s.WipeInterval(3, 5)
	if got := s.Get(4); got != 0 {
		t.Fatalf("Get(4) after wipe = %d, want 0 (default) — stale value leaked past wipe", got)
	}
	if s.Contains(7) {
		t.Fatal("Contains(7) = true after wipe removed the only occurrence of 7")
	}
}

func TestFromMapExcludesDefaults(t *testing.T) {
	s := FromMap(map[int]int{1: 5, 2: 0, 3: 7}, 0)
	keys := s.Keys()
	if len(keys) != 2 || keys[0] != 1 || keys[1] != 3 {
		t.Errorf("Keys() = %v, want [1 3]", keys)
	}
}

func TestContainsValueMembership(t *testing.T) {
	s := New(0)
	s.Set(1, 99)
	if !s.Contains(99) {
		t.Error("Contains(99) = false, want true")
	}
	if s.Contains(100) {
		t.Error("Contains(100) = true, want false")
	}
}

func TestApproximateMatchingEmbeddedPattern(t *testing.T) {
	// Pattern: positions 0,1,2 map to symbols A,B,C (msize=3).
	pattern := FromMap(map[int]int{0: 10, 1: 11, 2: 12}, -1)

	// Text: embed the same sequence starting at position 100.
	text := FromMap(map[int]int{
		100: 10, 101: 11, 102: 12,
	}, -1)

	result := ApproximateMatching(text, pattern, 200, 1)
	if result == nil {
		t.Fatal("ApproximateMatching returned nil, want a match")
	}
	if result.K != 3 {
		t.Errorf("K = %d, want 3 (full pattern support)", result.K)
	}
	if _, ok := result.Offsets[100]; !ok {
		t.Errorf("Offsets = %v, want to contain 100", result.Offsets)
	}
}

func TestApproximateMatchingNoMatch(t *testing.T) {
	pattern := FromMap(map[int]int{0: 10, 1: 11, 2: 12}, -1)
	text := FromMap(map[int]int{5: 1, 6: 2, 7: 3}, -1)

	result := ApproximateMatching(text, pattern, 20, 1)
	if result != nil {
		t.Errorf("ApproximateMatching = %+v, want nil", result)
	}
}

func TestApproximateMatchingEmptyInputs(t *testing.T) {
	empty := New(0)
	pattern := FromMap(map[int]int{0: 1}, 0)
	if ApproximateMatching(empty, pattern, 10, 1) != nil {
		t.Error("empty text should yield nil")
	}
	if ApproximateMatching(pattern, empty, 10, 1) != nil {
		t.Error("empty pattern should yield nil")
	}
}
