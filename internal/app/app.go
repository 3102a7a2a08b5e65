// Package app owns the application-visible wallet state and sequences every
// mutating operation through the encrypted store. All Busy-class workflows
// share one workflow lease and one progress-reporting discipline.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kanzure/webcasa/internal/kv"
	"github.com/kanzure/webcasa/internal/store"
	"github.com/kanzure/webcasa/internal/webcash"
)

// View names.
const (
	ViewTransfers = "Transfers"
	ViewSecrets   = "Secrets"
	ViewHistory   = "History"
	ViewRecover   = "Recover"
	ViewCheck     = "Check"
	ViewPassword  = "Password"
	ViewSettings  = "Settings"
)

var knownViews = map[string]bool{
	ViewTransfers: true,
	ViewSecrets:   true,
	ViewHistory:   true,
	ViewRecover:   true,
	ViewCheck:     true,
	ViewPassword:  true,
	ViewSettings:  true,
}

// Sentinel errors surfaced to the transport layer.
var (
	ErrBusy         = errors.New("please wait for the process to complete")
	ErrDeclined     = errors.New("confirmation declined")
	ErrWalletLocked = errors.New("wallet is locked")
	ErrUnknownView  = errors.New("unknown view")
)

// Confirmer gates destructive actions. The prompt carries the shortened
// master secret and current balance of the wallet about to be discarded.
// Confirmation is synchronous: the operation does not proceed until the
// Confirmer returns, and a false return leaves the wallet untouched.
type Confirmer interface {
	ConfirmOverwrite(masterShort, balance string) bool
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(masterShort, balance string) bool

// ConfirmOverwrite implements Confirmer.
func (f ConfirmFunc) ConfirmOverwrite(masterShort, balance string) bool {
	return f(masterShort, balance)
}

// Orchestrator holds the wallet handle, the app config, the current view and
// the last-result slots, and runs every user-triggered operation.
type Orchestrator struct {
	store   *store.Store
	slots   kv.Store
	backend webcash.Backend
	confirm Confirmer
	source  CommandSource
	log     *zap.SugaredLogger

	lease workflowLease

	mu       sync.Mutex
	wallet   *store.Handle
	view     string
	conf     AppConfig
	external *Command

	lastReceive *ReceiveResult
	lastSend    *SendResult
	lastCheck   *WorkflowResult
	lastRecover *WorkflowResult

	subMu       sync.Mutex
	subscribers []func()
}

// Options wires an Orchestrator's collaborators.
type Options struct {
	Slots   kv.Store
	Backend webcash.Backend
	Confirm Confirmer
	Source  CommandSource
	Log     *zap.SugaredLogger
}

// New builds the orchestrator and runs the full startup sequence: config
// migration and load, first-run wallet bootstrap, self-healing of the
// wallet-level legal agreement, and staging of the one-shot external action.
func New(opts Options) (*Orchestrator, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	o := &Orchestrator{
		store:   store.New(opts.Slots, log),
		slots:   opts.Slots,
		backend: opts.Backend,
		confirm: opts.Confirm,
		source:  opts.Source,
		log:     log,
		view:    ViewTransfers,
	}
	if o.confirm == nil {
		o.confirm = ConfirmFunc(func(string, string) bool { return false })
	}
	if o.source == nil {
		o.source = NewLinkSource("")
	}

	if err := migrateLegacyConfig(o.slots); err != nil {
		return nil, err
	}
	conf, err := loadAppConfig(o.slots)
	if err != nil {
		return nil, err
	}
	o.conf = conf

	exists, err := o.store.Exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		// First run: create and save a fresh wallet unconditionally.
		h, err := o.store.Create(nil, "")
		if err != nil {
			return nil, err
		}
		h.Document().SetLegalAgreementsToTrue()
		if err := o.store.Save(h); err != nil {
			return nil, err
		}
		o.wallet = h
	} else if !o.conf.Encrypted {
		h, err := o.store.Load("")
		if err != nil {
			return nil, err
		}
		o.wallet = h
	}
	// When encrypted, the wallet stays nil until unlocked.

	if o.wallet != nil && !o.wallet.Document().CheckLegalAgreements() {
		// Old or hand-edited wallets may miss the agreement flag; heal and
		// persist without involving the user.
		o.wallet.Document().SetLegalAgreementsToTrue()
		if err := o.store.Save(o.wallet); err != nil {
			return nil, err
		}
	}

	o.stageExternalAction()

	return o, nil
}

// stageExternalAction decodes the pending receive parameter, if any. Decode
// failure is logged and the action simply not staged.
func (o *Orchestrator) stageExternalAction() {
	raw, memo, ok := o.source.Pending()
	if !ok {
		return
	}
	secret, err := webcash.ParseSecret(raw)
	if err != nil {
		o.log.Errorw("ignoring malformed receive parameter", "error", err)
		return
	}
	o.external = &Command{Name: CommandReceive, Webcash: secret, Memo: memo}
	o.log.Infow("staged external receive action", "amount", secret.Amount)
}

// Busy reports whether an operation holds the wallet lease. Outside of a
// running check or recover this is only ever true for an instant.
func (o *Orchestrator) Busy() bool {
	return o.lease.busy()
}

// BusyWorkflow returns the name of the operation holding the lease, or "".
func (o *Orchestrator) BusyWorkflow() string {
	return o.lease.holder()
}

// WaitIdle blocks until no workflow holds the lease or ctx expires. The
// daemon's shutdown path uses it as the unload guard: there is no
// cancellation, so an in-flight check or recover runs to completion.
func (o *Orchestrator) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for o.lease.busy() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Subscribe registers fn to be called after every wallet replacement or
// persisted mutation.
func (o *Orchestrator) Subscribe(fn func()) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	o.subscribers = append(o.subscribers, fn)
}

func (o *Orchestrator) notifyWalletChanged() {
	o.subMu.Lock()
	subs := append([]func(){}, o.subscribers...)
	o.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// View returns the current view selector.
func (o *Orchestrator) View() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// Config returns a snapshot of the persisted app config.
func (o *Orchestrator) Config() AppConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conf
}

// Wallet returns the current wallet document, or nil while locked.
func (o *Orchestrator) Wallet() *webcash.WalletDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.wallet == nil {
		return nil
	}
	return o.wallet.Document()
}

// LastReceive returns the last receive result, or nil.
func (o *Orchestrator) LastReceive() *ReceiveResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastReceive
}

// LastSend returns the last send result, or nil.
func (o *Orchestrator) LastSend() *SendResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSend
}

// LastCheck returns a snapshot of the last check result, or nil.
func (o *Orchestrator) LastCheck() *WorkflowResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastCheck.snapshot()
}

// LastRecover returns a snapshot of the last recover result, or nil.
func (o *Orchestrator) LastRecover() *WorkflowResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastRecover.snapshot()
}
