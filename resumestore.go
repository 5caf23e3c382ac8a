package changestream

import "context"

// ResumeTokenStore persists the position GetResumeToken returns across
// process restarts. The in-memory resumeTokenStore a ResumableCursor keeps
// for itself is unaffected by this interface — it is the thing a caller
// reads from after a successful batch and writes into a durable store of
// its own choosing (see the mongostore and redisstore packages for two
// concrete ones) so the next process can reopen with WithStartAfter
// instead of replaying the whole collection.
type ResumeTokenStore interface {
	// Save persists token under key, overwriting whatever was stored
	// there before. token is never nil.
	Save(ctx context.Context, key string, token ResumeToken) error

	// Load returns the most recently saved token for key, or a nil token
	// with a nil error if nothing has been saved yet.
	Load(ctx context.Context, key string) (ResumeToken, error)
}
