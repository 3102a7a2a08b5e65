package webcash

import (
	"context"

	"github.com/kanzure/webcasa/internal/progress"
)

// Backend is the external wallet collaborator. Implementations own balance
// reconciliation, secret minting and server communication; this codebase only
// relies on the contracts below:
//
//   - operations may fail with an error carrying a message;
//   - Check and Recover may emit diagnostic text through the Reporter;
//   - Check and Recover mutate the document in place without persisting it
//     (the caller is responsible for saving afterwards).
type Backend interface {
	// Check reconciles the document against server truth.
	Check(ctx context.Context, doc *WalletDocument, report progress.Reporter) error

	// Recover repopulates the document from its master secret, probing up to
	// gapLimit undiscovered entries past the last known one.
	Recover(ctx context.Context, doc *WalletDocument, gapLimit uint64, report progress.Reporter) error

	// Insert claims an incoming webcash secret into the document and returns
	// the replacement secret now held by the wallet.
	Insert(ctx context.Context, doc *WalletDocument, webcash, memo string) (string, error)

	// Pay produces a claim code for the given amount, deducting it from the
	// document.
	Pay(ctx context.Context, doc *WalletDocument, amount, memo string) (string, error)
}
