package app

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/kanzure/webcasa/internal/progress"
	"github.com/kanzure/webcasa/internal/store"
	"github.com/kanzure/webcasa/internal/webcash"
)

// Workflow names stamped into the lease and progress sessions.
const (
	workflowCheck   = "check"
	workflowRecover = "recover"
)

// Lease names of the quick wallet-mutating operations. They take the same
// lease as the workflows: the backend mutates the wallet document in place
// while check or recover runs, so nothing else may touch the document (or
// swap the handle) until the lease is released.
const (
	opCreate   = "create"
	opUpload   = "upload"
	opDownload = "download"
	opPassword = "password"
	opUnlock   = "unlock"
	opReceive  = "receive"
	opSend     = "send"
)

// recoverNoisePrefix marks the per-iteration diagnostic family dropped from
// recovery progress output.
const recoverNoisePrefix = "results ="

/* Navigation */

// OnAcceptTerms records site-level acceptance of the terms.
func (o *Orchestrator) OnAcceptTerms() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conf.TermsAccepted = true
	return saveAppConfig(o.slots, o.conf)
}

// OnChangeView switches the selected view. Rejected while a Busy-class
// workflow runs.
func (o *Orchestrator) OnChangeView(view string) error {
	if o.lease.busy() {
		return ErrBusy
	}
	if !knownViews[view] {
		return fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
	o.mu.Lock()
	o.view = view
	o.mu.Unlock()
	return nil
}

/* Wallet operations (Settings) */

// confirmOverwrite runs the destructive-action confirmation against the
// wallet about to be discarded.
func (o *Orchestrator) confirmOverwrite(h *store.Handle) bool {
	doc := h.Document()
	return o.confirm.ConfirmOverwrite(webcash.Shorten(doc.MasterSecret), doc.Balance())
}

// replaceWallet atomically installs a new handle and resets the config and
// result slots tied to the old wallet.
func (o *Orchestrator) replaceWallet(h *store.Handle) error {
	o.mu.Lock()
	o.wallet = h
	o.conf.Downloaded = true
	o.conf.Encrypted = false
	o.lastReceive = nil
	o.lastSend = nil
	err := saveAppConfig(o.slots, o.conf)
	o.mu.Unlock()
	o.notifyWalletChanged()
	return err
}

// saveModifiedWallet persists the current wallet (unless the caller already
// did) and clears the downloaded flag, since the stored state now differs
// from any prior export.
func (o *Orchestrator) saveModifiedWallet(alreadySaved bool) error {
	o.mu.Lock()
	if !alreadySaved {
		if err := o.store.Save(o.wallet); err != nil {
			o.mu.Unlock()
			return err
		}
	}
	o.conf.Downloaded = false
	err := saveAppConfig(o.slots, o.conf)
	o.mu.Unlock()
	o.notifyWalletChanged()
	return err
}

// OnCreateWallet discards the current wallet for a fresh one, after
// confirmation. A declined confirmation leaves everything untouched.
// Rejected with ErrBusy while a workflow runs.
func (o *Orchestrator) OnCreateWallet() error {
	if _, ok := o.lease.tryAcquire(opCreate); !ok {
		return ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	cur := o.wallet
	o.mu.Unlock()
	if cur == nil {
		return ErrWalletLocked
	}
	if !o.confirmOverwrite(cur) {
		return ErrDeclined
	}

	h, err := o.store.Create(nil, "")
	if err != nil {
		return err
	}
	h.Document().SetLegalAgreementsToTrue() // already agreed on first run
	if err := o.store.Save(h); err != nil {
		return err
	}
	return o.replaceWallet(h)
}

// OnUploadWallet discards the current wallet for an uploaded serialized one,
// after confirmation. Rejected with ErrBusy while a workflow runs.
func (o *Orchestrator) OnUploadWallet(data []byte) error {
	if _, ok := o.lease.tryAcquire(opUpload); !ok {
		return ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	cur := o.wallet
	o.mu.Unlock()
	if cur == nil {
		return ErrWalletLocked
	}
	if !o.confirmOverwrite(cur) {
		return ErrDeclined
	}

	doc, err := webcash.ParseDocument(data)
	if err != nil {
		return err
	}
	h, err := o.store.Create(doc, "")
	if err != nil {
		return err
	}
	// The uploaded wallet may predate the agreement flag.
	h.Document().SetLegalAgreementsToTrue()
	if err := o.store.Save(h); err != nil {
		return err
	}
	return o.replaceWallet(h)
}

// DownloadName is the filename of the export artifact.
const DownloadName = "default_wallet.webcash"

// OnDownloadWallet exports the current wallet as pretty-printed JSON and
// marks it downloaded. The wallet itself is not mutated, but a running
// workflow may be mutating it, so the export too waits its turn on the lease.
func (o *Orchestrator) OnDownloadWallet() (string, []byte, error) {
	if _, ok := o.lease.tryAcquire(opDownload); !ok {
		return "", nil, ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.wallet == nil {
		return "", nil, ErrWalletLocked
	}
	contents, err := o.wallet.Document().Serialize()
	if err != nil {
		return "", nil, err
	}
	o.conf.Downloaded = true
	if err := saveAppConfig(o.slots, o.conf); err != nil {
		return "", nil, err
	}
	return DownloadName, contents, nil
}

// OnSetPassword sets the password on the live handle, persists immediately
// and flips the encrypted flag. Previously downloaded exports stay plaintext.
// Rejected with ErrBusy while a workflow runs.
func (o *Orchestrator) OnSetPassword(password string) error {
	if _, ok := o.lease.tryAcquire(opPassword); !ok {
		return ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.wallet == nil {
		return ErrWalletLocked
	}
	if err := o.wallet.SetPassword(password); err != nil {
		return err
	}
	if err := o.store.Save(o.wallet); err != nil {
		return err
	}
	if !o.conf.Encrypted {
		o.conf.Encrypted = true
		return saveAppConfig(o.slots, o.conf)
	}
	return nil
}

// OnUnlockWallet attempts to load the wallet with the given password. A false
// return means incorrect password; state is untouched in that case.
func (o *Orchestrator) OnUnlockWallet(password string) (bool, error) {
	if _, ok := o.lease.tryAcquire(opUnlock); !ok {
		return false, ErrBusy
	}
	defer o.lease.release()

	h, err := o.store.Load(password)
	if err != nil {
		return false, err
	}
	if h == nil {
		return false, nil
	}
	o.mu.Lock()
	o.wallet = h
	o.mu.Unlock()
	o.notifyWalletChanged()
	return true, nil
}

/* Busy-class workflows */

// OnCheckWallet reconciles the wallet against server truth. Progress lines
// stream into the last-check slot while the workflow runs. Returns ErrBusy
// when another workflow holds the lease; collaborator and persistence
// failures are rendered into the last-check slot, not returned.
func (o *Orchestrator) OnCheckWallet(ctx context.Context) error {
	session, ok := o.lease.tryAcquire(workflowCheck)
	if !ok {
		return ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	if o.wallet == nil {
		o.mu.Unlock()
		return ErrWalletLocked
	}
	doc := o.wallet.Document()
	capture := &progress.Capture{}
	o.lastCheck = &WorkflowResult{Session: session, capture: capture}
	o.mu.Unlock()

	report := progress.Tee(capture, progress.Logger(o.log.With("workflow", workflowCheck, "session", session)))

	fail := func(err error) {
		o.mu.Lock()
		o.lastCheck = &WorkflowResult{
			Session: session,
			Error:   fmt.Sprintf("ERROR: %s", err.Error()),
		}
		o.mu.Unlock()
	}

	report.Report("(webcasa) Checking wallet")
	if err := o.backend.Check(ctx, doc, report); err != nil {
		fail(err)
		return nil
	}
	if err := o.saveModifiedWallet(false); err != nil {
		fail(errors.Wrap(err, "failed to persist wallet after check"))
		return nil
	}
	report.Report("(webcasa) New balance: " + doc.Balance())
	report.Report("(webcasa) Done!")

	o.mu.Lock()
	o.lastCheck.Success = true
	o.mu.Unlock()
	return nil
}

// OnRecoverWallet repopulates a wallet from its master secret, probing up to
// gapLimit entries past the last known one. Recovering into a different
// secret discards the current wallet and therefore requires the same
// confirmation as create/upload; recovering into the same secret updates in
// place with no confirmation and no handle replacement.
func (o *Orchestrator) OnRecoverWallet(ctx context.Context, masterSecret string, gapLimit uint64) error {
	session, ok := o.lease.tryAcquire(workflowRecover)
	if !ok {
		return ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	cur := o.wallet
	o.mu.Unlock()
	if cur == nil {
		return ErrWalletLocked
	}

	sameSecret := masterSecret == cur.Document().MasterSecret
	if !sameSecret && !o.confirmOverwrite(cur) {
		return ErrDeclined
	}

	capture := &progress.Capture{}
	o.mu.Lock()
	o.lastRecover = &WorkflowResult{Session: session, capture: capture}
	o.mu.Unlock()

	report := progress.WithoutPrefix(
		progress.Tee(capture, progress.Logger(o.log.With("workflow", workflowRecover, "session", session))),
		recoverNoisePrefix,
	)

	fail := func(err error) {
		o.mu.Lock()
		o.lastRecover = &WorkflowResult{
			Session: session,
			Error:   fmt.Sprintf("ERROR: %s (masterSecret=%s, gapLimit=%d)", err.Error(), masterSecret, gapLimit),
		}
		o.mu.Unlock()
	}

	target := cur
	if sameSecret {
		report.Report("(webcasa) Updating current wallet (same master secret)")
	} else {
		doc := webcash.NewDocument()
		doc.MasterSecret = masterSecret
		var err error
		target, err = o.store.Create(doc, "")
		if err != nil {
			fail(err)
			return nil
		}
		report.Report(fmt.Sprintf("(webcasa) Replacing current wallet with '%s'", webcash.Shorten(masterSecret)))
	}
	target.Document().SetLegalAgreementsToTrue()

	if err := o.backend.Recover(ctx, target.Document(), gapLimit, report); err != nil {
		fail(err)
		return nil
	}
	report.Report("(webcasa) Found balance: " + target.Document().Balance())

	if !sameSecret {
		if err := o.store.Save(target); err != nil {
			fail(errors.Wrap(err, "failed to persist recovered wallet"))
			return nil
		}
		if err := o.replaceWallet(target); err != nil {
			fail(err)
			return nil
		}
		if err := o.saveModifiedWallet(true); err != nil {
			fail(err)
			return nil
		}
	} else if err := o.saveModifiedWallet(false); err != nil {
		fail(errors.Wrap(err, "failed to persist recovered wallet"))
		return nil
	}
	report.Report("(webcasa) Done!")

	o.mu.Lock()
	o.lastRecover.Success = true
	o.mu.Unlock()
	return nil
}

/* Transfers */

// OnReceiveWebcash claims an incoming secret into the wallet. When servicing
// the staged external action it additionally consumes that action, switches
// back to the default view and drops the triggering parameter so it can never
// re-trigger. Rejected with ErrBusy while a workflow runs.
func (o *Orchestrator) OnReceiveWebcash(ctx context.Context, webcashRaw, memo string) error {
	if _, ok := o.lease.tryAcquire(opReceive); !ok {
		return ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	cur := o.wallet
	o.mu.Unlock()
	if cur == nil {
		return ErrWalletLocked
	}

	defer func() {
		o.mu.Lock()
		if o.external != nil {
			o.external = nil
			o.view = ViewTransfers
			o.source.Consume()
		}
		o.mu.Unlock()
	}()

	newSecret, err := o.backend.Insert(ctx, cur.Document(), webcashRaw, memo)
	if err != nil {
		o.mu.Lock()
		o.lastReceive = &ReceiveResult{
			Error: fmt.Sprintf("ERROR: %s (webcash=%s, memo=%s)", err.Error(), webcashRaw, memo),
		}
		o.mu.Unlock()
		return nil
	}

	o.mu.Lock()
	o.lastReceive = &ReceiveResult{
		Success: true,
		Title:   "Success! The new secret was saved",
		Webcash: newSecret,
	}
	o.mu.Unlock()

	if err := o.saveModifiedWallet(false); err != nil {
		o.mu.Lock()
		o.lastReceive = &ReceiveResult{
			Error: fmt.Sprintf("ERROR: %s (webcash=%s, memo=%s)", err.Error(), webcashRaw, memo),
		}
		o.mu.Unlock()
	}
	return nil
}

// OnSendAmount produces a claim code for the given amount. The code to hand
// to the payee lands in the last-send slot. Rejected with ErrBusy while a
// workflow runs.
func (o *Orchestrator) OnSendAmount(ctx context.Context, amount, memo string) error {
	if _, ok := o.lease.tryAcquire(opSend); !ok {
		return ErrBusy
	}
	defer o.lease.release()

	o.mu.Lock()
	cur := o.wallet
	o.mu.Unlock()
	if cur == nil {
		return ErrWalletLocked
	}

	fail := func(err error) {
		o.mu.Lock()
		o.lastSend = &SendResult{
			Error: fmt.Sprintf("ERROR: %s (amount=%s, memo=%s)", err.Error(), amount, memo),
		}
		o.mu.Unlock()
	}

	paid, err := o.backend.Pay(ctx, cur.Document(), amount, memo)
	if err != nil {
		fail(err)
		return nil
	}

	o.mu.Lock()
	o.lastSend = &SendResult{Webcash: paid, Memo: memo}
	o.mu.Unlock()

	if err := o.saveModifiedWallet(false); err != nil {
		fail(err)
	}
	return nil
}
