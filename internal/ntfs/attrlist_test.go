package ntfs

import "testing"

// TestMergeAttributeListFoldsMatchingBaseRecord covers the normal
// case: an $ATTRIBUTE_LIST entry points at a child record that
// correctly declares ownRecordNumber as its base record, so the
// child's attributes are folded in.
func TestMergeAttributeListFoldsMatchingBaseRecord(t *testing.T) {
	owner := &Record{
		Attributes:    map[string][]*Attribute{},
		AttributeList: []AttributeListEntry{{FileRef: 99}},
	}
	child := &Record{
		BaseRecord: 10,
		Attributes: map[string][]*Attribute{
			"$DATA": {{Name: "", Content: []byte("child data")}},
		},
	}

	read := func(recordNumber uint64) (*Record, error) {
		if recordNumber == 99 {
			return child, nil
		}
		return nil, nil
	}

	mergeAttributeList(owner, 10, read)

	got := owner.Attributes["$DATA"]
	if len(got) != 1 || string(got[0].Content) != "child data" {
		t.Fatalf("Attributes[$DATA] = %+v, want one attribute with content %q", got, "child data")
	}
}

// TestMergeAttributeListRejectsMismatchedBaseRecord is the regression
// case: the record living at the target index does not declare
// ownRecordNumber as its base record (it belongs to some other
// file — a stale or reused record slot), so nothing from it should
// be folded in.
func TestMergeAttributeListRejectsMismatchedBaseRecord(t *testing.T) {
	owner := &Record{
		Attributes:    map[string][]*Attribute{},
		AttributeList: []AttributeListEntry{{FileRef: 99}},
	}
	unrelated := &Record{
		BaseRecord: 777, // belongs to a different file entirely
		Attributes: map[string][]*Attribute{
			"$DATA": {{Name: "", Content: []byte("not mine")}},
		},
	}

	read := func(recordNumber uint64) (*Record, error) {
		if recordNumber == 99 {
			return unrelated, nil
		}
		return nil, nil
	}

	mergeAttributeList(owner, 10, read)

	if len(owner.Attributes["$DATA"]) != 0 {
		t.Fatalf("Attributes[$DATA] = %+v, want no attributes merged from a record with the wrong base_record", owner.Attributes["$DATA"])
	}
}

func TestMergeAttributeListSkipsSelfReference(t *testing.T) {
	owner := &Record{
		Attributes:    map[string][]*Attribute{"$DATA": {{Name: "", Content: []byte("own")}}},
		AttributeList: []AttributeListEntry{{FileRef: 10}},
	}
	calls := 0
	read := func(recordNumber uint64) (*Record, error) {
		calls++
		return nil, nil
	}

	mergeAttributeList(owner, 10, read)

	if calls != 0 {
		t.Fatalf("read was called %d times, want 0 for an entry pointing back at the owner", calls)
	}
}
