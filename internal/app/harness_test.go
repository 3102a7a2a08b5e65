package app

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kanzure/webcasa/internal/kv"
	"github.com/kanzure/webcasa/internal/progress"
	"github.com/kanzure/webcasa/internal/webcash"
)

// fakeBackend scripts the external wallet collaborator.
type fakeBackend struct {
	checkFn   func(ctx context.Context, doc *webcash.WalletDocument, report progress.Reporter) error
	recoverFn func(ctx context.Context, doc *webcash.WalletDocument, gapLimit uint64, report progress.Reporter) error
	insertFn  func(ctx context.Context, doc *webcash.WalletDocument, raw, memo string) (string, error)
	payFn     func(ctx context.Context, doc *webcash.WalletDocument, amount, memo string) (string, error)
}

func (f *fakeBackend) Check(ctx context.Context, doc *webcash.WalletDocument, report progress.Reporter) error {
	if f.checkFn == nil {
		return nil
	}
	return f.checkFn(ctx, doc, report)
}

func (f *fakeBackend) Recover(ctx context.Context, doc *webcash.WalletDocument, gapLimit uint64, report progress.Reporter) error {
	if f.recoverFn == nil {
		return nil
	}
	return f.recoverFn(ctx, doc, gapLimit, report)
}

func (f *fakeBackend) Insert(ctx context.Context, doc *webcash.WalletDocument, raw, memo string) (string, error) {
	if f.insertFn == nil {
		doc.Webcash = append(doc.Webcash, raw)
		return raw, nil
	}
	return f.insertFn(ctx, doc, raw, memo)
}

func (f *fakeBackend) Pay(ctx context.Context, doc *webcash.WalletDocument, amount, memo string) (string, error) {
	if f.payFn == nil {
		return "e" + amount + ":secret:deadbeef", nil
	}
	return f.payFn(ctx, doc, amount, memo)
}

// scriptedConfirmer answers every confirmation with a fixed verdict and
// counts how often it was asked.
type scriptedConfirmer struct {
	verdict bool
	asked   int
	prompts []string
}

func (c *scriptedConfirmer) ConfirmOverwrite(masterShort, balance string) bool {
	c.asked++
	c.prompts = append(c.prompts, masterShort+"/"+balance)
	return c.verdict
}

type fixture struct {
	orch    *Orchestrator
	slots   *kv.MemoryStore
	backend *fakeBackend
	confirm *scriptedConfirmer
	source  *LinkSource
}

type fixtureOpt func(*Options)

func withSource(src CommandSource) fixtureOpt {
	return func(o *Options) { o.Source = src }
}

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()
	f := &fixture{
		slots:   kv.NewMemoryStore(),
		backend: &fakeBackend{},
		confirm: &scriptedConfirmer{verdict: true},
	}
	options := Options{
		Slots:   f.slots,
		Backend: f.backend,
		Confirm: f.confirm,
		Log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	orch, err := New(options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.orch = orch
	if src, ok := options.Source.(*LinkSource); ok {
		f.source = src
	}
	return f
}

// restart builds a second orchestrator over the same slots, simulating a
// fresh process start.
func (f *fixture) restart(t *testing.T) *Orchestrator {
	t.Helper()
	orch, err := New(Options{
		Slots:   f.slots,
		Backend: f.backend,
		Confirm: f.confirm,
		Log:     zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	return orch
}
