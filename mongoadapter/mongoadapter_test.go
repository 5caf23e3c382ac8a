package mongoadapter

import "testing"

func TestCursorReportsMaxWireVersionGivenAtConstruction(t *testing.T) {
	c := NewCursor(nil, 17)
	if got := c.MaxWireVersion(); got != 17 {
		t.Fatalf("MaxWireVersion() = %d, want 17", got)
	}
	if c.IsClosed() {
		t.Fatalf("new cursor reports closed")
	}
}

func TestCursorReportsFirstBatchEmptyBeforeAnyFetch(t *testing.T) {
	c := NewCursor(nil, 17)
	if c.IsFirstBatchEmpty() {
		t.Fatalf("first-batch-empty should be false until a batch has actually been observed")
	}
}

func TestCursorBatchSizeRoundTrips(t *testing.T) {
	c := NewCursor(nil, 17)
	c.SetBatchSize(250)
	if got := c.GetBatchSize(); got != 250 {
		t.Fatalf("GetBatchSize() = %d, want 250", got)
	}
}
