package changestream

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func mustTokenBytes(t *testing.T, id string) ResumeToken {
	t.Helper()
	data, err := bson.Marshal(bson.M{"token": id})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return ResumeToken(data)
}

func mustEventBytes(t *testing.T, id string) RawEvent {
	t.Helper()
	data, err := bson.Marshal(bson.M{"_id": bson.M{"token": id}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return RawEvent(data)
}

func TestResumeTokenStorePostBatchTokenWins(t *testing.T) {
	s := newResumeTokenStore(nil)
	s.updateFromBatch(Batch{
		Events:               []RawEvent{mustEventBytes(t, "t1")},
		PostBatchResumeToken: mustTokenBytes(t, "t1-prime"),
	})
	if got, want := s.get(), mustTokenBytes(t, "t1-prime"); string(got) != string(want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestResumeTokenStoreFallsBackToLastEventID(t *testing.T) {
	s := newResumeTokenStore(nil)
	s.updateFromBatch(Batch{
		Events: []RawEvent{mustEventBytes(t, "t1"), mustEventBytes(t, "t2")},
	})
	want, _ := rawEventID(mustEventBytes(t, "t2"))
	if got := s.get(); string(got) != string(want) {
		t.Fatalf("got %x, want last event id %x", got, want)
	}
}

func TestResumeTokenStoreUnchangedOnEmptyBatch(t *testing.T) {
	initial := mustTokenBytes(t, "t0")
	s := newResumeTokenStore(initial)
	s.updateFromBatch(Batch{})
	if got := s.get(); string(got) != string(initial) {
		t.Fatalf("got %x, want unchanged %x", got, initial)
	}
}
