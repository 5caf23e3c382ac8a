package changestream

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ResumeToken is the opaque, server-issued document used to locate a
// position in the oplog. It is forwarded bit-exact across resumes; nothing
// in this package inspects its contents.
type ResumeToken = bson.Raw

// RawEvent is an undecoded change document, preserved byte-exact until the
// caller consumes it. It is rejected as malformed if it has no "_id" field.
type RawEvent = bson.Raw

// Batch is an ordered, finite sequence of RawEvents returned by one fetch of
// the underlying BatchCursor, plus the resume token the server attached to
// that batch (nil if the server did not attach one). Both being empty is a
// normal outcome: end-of-batch with no position update.
type Batch struct {
	Events               []RawEvent
	PostBatchResumeToken ResumeToken
}

// rawEventID extracts the "_id" field of a RawEvent, which doubles as that
// event's resume token. Returns ok=false if the field is absent, per I5.
func rawEventID(e RawEvent) (ResumeToken, bool) {
	val, err := e.LookupErr("_id")
	if err != nil {
		return nil, false
	}
	doc, ok := val.DocumentOK()
	if !ok {
		return nil, false
	}
	return ResumeToken(doc), true
}
