package app

import (
	"sync"

	"github.com/google/uuid"
)

// workflowLease serializes everything that touches the wallet document: the
// Busy-class workflows (check, recover) and the quick mutating operations.
// It is a single slot with acquire-or-reject semantics: a second operation
// arriving while the slot is held is rejected, never queued. Release happens
// unconditionally in the owner's defer, success or failure.
type workflowLease struct {
	mu      sync.Mutex
	name    string // workflow holding the lease; empty when idle
	session string // session id stamped into progress lines and logs
}

// tryAcquire claims the lease for the named workflow. It returns the session
// id and true on success, or false when another workflow holds the lease.
func (l *workflowLease) tryAcquire(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.name != "" {
		return "", false
	}
	l.name = name
	l.session = uuid.NewString()
	return l.session, true
}

// release frees the lease.
func (l *workflowLease) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = ""
	l.session = ""
}

// busy reports whether a workflow currently holds the lease.
func (l *workflowLease) busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name != ""
}

// holder returns the name of the workflow holding the lease, or "".
func (l *workflowLease) holder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}
