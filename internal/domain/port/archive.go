package port

import "context"

// Archiver persists a best-effort snapshot of a session's state,
// returning an opaque reference. The executor archives once at the end of
// each run or resume and never fails the run on it: a returned error is
// logged, not retried. The returned reference is not stored on the
// session; Session.ArchiveRef is not set from it.
type Archiver interface {
	Archive(ctx context.Context, sessionID string, snapshot []byte) (ref string, err error)
}
