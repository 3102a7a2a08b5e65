package webcash

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kanzure/webcasa/internal/progress"
)

// ErrNoBackend is reported by networked operations when no webcash server
// client has been plugged in.
var ErrNoBackend = errors.New("no webcash server backend configured")

// Unavailable is the Backend used when the daemon runs without a webcash
// server client. Local wallet management (create, export, password, unlock)
// works normally; check, recover, insert and pay fail with ErrNoBackend
// through the regular error path.
type Unavailable struct{}

// Check implements Backend.
func (Unavailable) Check(ctx context.Context, doc *WalletDocument, report progress.Reporter) error {
	return errors.Wrap(ErrNoBackend, "check")
}

// Recover implements Backend.
func (Unavailable) Recover(ctx context.Context, doc *WalletDocument, gapLimit uint64, report progress.Reporter) error {
	return errors.Wrap(ErrNoBackend, "recover")
}

// Insert implements Backend.
func (Unavailable) Insert(ctx context.Context, doc *WalletDocument, webcash, memo string) (string, error) {
	return "", errors.Wrap(ErrNoBackend, "insert")
}

// Pay implements Backend.
func (Unavailable) Pay(ctx context.Context, doc *WalletDocument, amount, memo string) (string, error) {
	return "", errors.Wrap(ErrNoBackend, "pay")
}
